package weaviate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		raw        string
		wantScheme string
		wantHost   string
		wantErr    bool
	}{
		{"http://localhost:8080", "http", "localhost:8080", false},
		{"https://demo.weaviate.network/", "https", "demo.weaviate.network", false},
		{"demo.weaviate.network", "https", "demo.weaviate.network", false},
		{"", "", "", true},
		{"ftp://host", "", "", true},
		{"http://host:8080/v1", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			scheme, host, err := ParseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, scheme)
			assert.Equal(t, tt.wantHost, host)
		})
	}
}

func TestNewClient_APIKeyWithRequestTimeout(t *testing.T) {
	c, err := NewClient(Config{URL: "http://localhost:1", APIKey: "k", Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestPing_RequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{URL: srv.URL, APIKey: "k", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)
	assert.Error(t, c.Ping(context.Background()))
}

// fakeWeaviate serves the REST and GraphQL endpoints the client touches.
type fakeWeaviate struct {
	ready       bool
	lastGraphQL string
	authHeader  string
	openAIKey   string
}

func (f *fakeWeaviate) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/.well-known/ready", func(w http.ResponseWriter, r *http.Request) {
		f.authHeader = r.Header.Get("Authorization")
		f.openAIKey = r.Header.Get("X-OpenAI-Api-Key")
		if !f.ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v1/meta", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hostname":"http://[::]:8080","version":"1.30.0",` +
			`"modules":{"text2vec-openai":{},"generative-openai":{}}}`))
	})
	mux.HandleFunc("/v1/graphql", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Query string `json:"query"`
		}
		_ = json.Unmarshal(body, &req)
		f.lastGraphQL = req.Query
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"Get":{"Article":[` +
			`{"title":"Cats","_additional":{"id":"00000000-0000-0000-0000-000000000001","distance":0.1,"certainty":0.95}}` +
			`]}}}`))
	})
	return mux
}

func newFake(t *testing.T, ready bool) (*fakeWeaviate, *Client) {
	t.Helper()
	f := &fakeWeaviate{ready: ready}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		URL:     srv.URL,
		APIKey:  "secret",
		Headers: map[string]string{"X-OpenAI-Api-Key": "sk-test", "X-Cohere-Api-Key": ""},
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	return f, c
}

func TestPing_ForwardsCredentials(t *testing.T) {
	f, c := newFake(t, true)
	require.NoError(t, c.Ping(context.Background()))
	assert.Contains(t, f.authHeader, "secret")
	assert.Equal(t, "sk-test", f.openAIKey)
}

func TestPing_NotReady(t *testing.T) {
	_, c := newFake(t, false)
	err := c.Ping(context.Background())
	assert.True(t, errors.Is(err, db.ErrUnavailable), "got %v", err)
}

func TestWaitForReady(t *testing.T) {
	_, c := newFake(t, true)
	require.NoError(t, c.WaitForReady(context.Background(), time.Second))

	_, notReady := newFake(t, false)
	assert.Error(t, notReady.WaitForReady(context.Background(), 600*time.Millisecond))
}

func TestMeta(t *testing.T) {
	_, c := newFake(t, true)
	m, err := c.Meta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.30.0", m.Version)
	assert.Equal(t, []string{"generative-openai", "text2vec-openai"}, m.Modules)
}

func TestSearch_NearText(t *testing.T) {
	f, c := newFake(t, true)
	dist := 0.5
	out, err := c.Search(context.Background(), &db.SearchQuery{
		Class:       "Article",
		Mode:        mode.NearText,
		Query:       "felines",
		MaxDistance: &dist,
		Limit:       3,
		Properties:  []db.Field{{Name: "title"}},
	})
	require.NoError(t, err)
	require.Len(t, out.Hits, 1)
	assert.Equal(t, "Cats", out.Hits[0].Properties["title"])

	assert.Contains(t, f.lastGraphQL, "nearText")
	assert.Contains(t, f.lastGraphQL, "felines")
	assert.Contains(t, f.lastGraphQL, "distance")
	assert.False(t, strings.Contains(f.lastGraphQL, "explainScore"), "vector search should not ask for keyword scores")
}

func TestClose_Idempotent(t *testing.T) {
	_, c := newFake(t, true)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.ListClasses(context.Background())
	assert.True(t, errors.Is(err, db.ErrClosed), "got %v", err)
	_, err = c.Search(context.Background(), &db.SearchQuery{Class: "Article", Mode: mode.BM25, Query: "x"})
	assert.True(t, errors.Is(err, db.ErrClosed), "got %v", err)
}
