package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saskinosie/weaviate-claude-skills/internal/transport/dto"
)

func authed(keys []string, public ...string) http.Handler {
	return APIKeyAuth(keys, public...)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	for _, keys := range [][]string{nil, {""}, {"", ""}} {
		rr := httptest.NewRecorder()
		authed(keys).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/collections", http.NoBody))
		assert.Equal(t, http.StatusOK, rr.Code, "keys=%q", keys)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	h := authed([]string{"key1", "key2"}, PublicPaths...)

	tests := []struct {
		name   string
		path   string
		header string
		value  string
		want   int
	}{
		{"missing", "/v1/collections", "", "", http.StatusUnauthorized},
		{"basic scheme", "/v1/collections", "Authorization", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty bearer", "/v1/collections", "Authorization", "Bearer ", http.StatusUnauthorized},
		{"wrong bearer", "/v1/collections", "Authorization", "Bearer nope", http.StatusUnauthorized},
		{"bearer key1", "/v1/collections", "Authorization", "Bearer key1", http.StatusOK},
		{"bearer key2 lowercase scheme", "/v1/collections", "Authorization", "bearer key2", http.StatusOK},
		{"header key", "/v1/collections/Article/search", HeaderAPIKey, "key2", http.StatusOK},
		{"wrong header key", "/v1/collections", HeaderAPIKey, "key3", http.StatusUnauthorized},
		{"prefix of key", "/v1/collections", HeaderAPIKey, "key", http.StatusUnauthorized},
		{"health is public", "/health", "", "", http.StatusOK},
		{"metrics is public", "/metrics", "", "", http.StatusOK},
		{"meta is not public", "/v1/meta", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, http.NoBody)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestAPIKeyAuth_ErrorBody(t *testing.T) {
	rr := httptest.NewRecorder()
	authed([]string{"secret"}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/collections", http.NoBody))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	body := decodeBody[dto.ErrorResponse](t, rr.Body.Bytes())
	assert.Equal(t, CodeUnauthorized, body.Code)
	assert.Equal(t, "missing api key", body.Message)
}

func TestAPIKeyAuth_NoPublicPaths(t *testing.T) {
	rr := httptest.NewRecorder()
	authed([]string{"secret"}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
