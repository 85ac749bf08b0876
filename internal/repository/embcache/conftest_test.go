package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
)

const testModel = "text-embedding-3-small"

// fakeEmbedder returns vector {len(text)} per text and counts provider calls.
type fakeEmbedder struct {
	err        error
	short      bool // return one embedding fewer than requested
	calls      int
	batchTexts []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	return domain.EmbeddingResult{
		Embedding: []float32{float32(len(text))},
		Usage:     domain.Usage{PromptTokens: 2, TotalTokens: 2},
	}, nil
}

func (f *fakeEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.calls++
	f.batchTexts = texts
	if f.err != nil {
		return domain.BatchEmbeddingResult{}, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{float32(len(texts[i]))}
	}
	return domain.BatchEmbeddingResult{
		Embeddings: out,
		Usage:      domain.Usage{PromptTokens: 2 * len(texts), TotalTokens: 2 * len(texts)},
	}, nil
}

// mapStore is an in-memory store recording calls; mgetErr and msetErr inject failures.
type mapStore struct {
	data      map[string][]byte
	mgetErr   error
	msetErr   error
	mgetCalls int
	msetCalls int
	ttl       time.Duration
}

func newMapStore() *mapStore { return &mapStore{data: map[string][]byte{}} }

func (m *mapStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	m.mgetCalls++
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mapStore) MSet(_ context.Context, entries []db.Entry, ttl time.Duration) error {
	m.msetCalls++
	m.ttl = ttl
	if m.msetErr != nil {
		return m.msetErr
	}
	for _, e := range entries {
		m.data[e.Key] = e.Value
	}
	return nil
}

func newTestEmbedder(t *testing.T) (*CachedEmbedder, *fakeEmbedder, *mapStore) {
	t.Helper()
	inner := &fakeEmbedder{}
	s := newMapStore()
	return New(inner, s, testModel, time.Hour, nil, zap.NewNop()), inner, s
}
