// Package embcache memoizes embeddings in a db.KVStore so repeated texts skip the provider.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
)

const keyPrefix = "emb:"

type store interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	MSet(ctx context.Context, entries []db.Entry, ttl time.Duration) error
}

// CachedEmbedder wraps an embedder with a read-through cache keyed by model and text.
// Cache failures are logged and never fail an embed.
type CachedEmbedder struct {
	inner  domain.Embedder
	store  store
	model  string
	ttl    time.Duration
	hits   *prometheus.CounterVec
	logger *zap.Logger
}

// New wraps inner. hits is a counter vec labelled by result ("hit", "miss") and may be nil.
// ttl <= 0 keeps entries until the store evicts them.
func New(
	inner domain.Embedder,
	s store,
	model string,
	ttl time.Duration,
	hits *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{
		inner:  inner,
		store:  s,
		model:  model,
		ttl:    ttl,
		hits:   hits,
		logger: logger.With(zap.String("model", model)),
	}
}

// Embed returns the cached vector for text, or embeds and caches it. Hits report zero usage.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)
	if vec := c.lookup(ctx, []string{key})[0]; vec != nil {
		return domain.EmbeddingResult{Embedding: vec}, nil
	}

	res, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}
	c.save(ctx, []db.Entry{{Key: key, Value: encode(res.Embedding)}})
	return res, nil
}

// BatchEmbed reads all keys in one MGet and sends each distinct missing text to the
// provider once. Results keep the order of texts.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.cacheKey(t)
	}
	out := c.lookup(ctx, keys)

	// pending maps a missing key to every position that needs it.
	pending := map[string][]int{}
	var misses []string
	for i, vec := range out {
		if vec != nil {
			continue
		}
		if _, seen := pending[keys[i]]; !seen {
			misses = append(misses, texts[i])
		}
		pending[keys[i]] = append(pending[keys[i]], i)
	}
	if len(misses) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: out}, nil
	}

	res, err := domain.EmbedAll(ctx, c.inner, misses)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed %d texts: %w", len(misses), err)
	}
	if len(res.Embeddings) != len(misses) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"%w: provider returned %d embeddings for %d texts",
			domain.ErrProviderError, len(res.Embeddings), len(misses))
	}

	entries := make([]db.Entry, len(misses))
	for j, text := range misses {
		key := c.cacheKey(text)
		for _, i := range pending[key] {
			out[i] = res.Embeddings[j]
		}
		entries[j] = db.Entry{Key: key, Value: encode(res.Embeddings[j])}
	}
	c.save(ctx, entries)

	return domain.BatchEmbeddingResult{Embeddings: out, Usage: res.Usage}, nil
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (c *CachedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}

// lookup returns one slot per key; nil marks a miss, an undecodable entry or a store failure.
func (c *CachedEmbedder) lookup(ctx context.Context, keys []string) [][]float32 {
	out := make([][]float32, len(keys))
	raw, err := c.store.MGet(ctx, keys)
	if err != nil {
		c.logger.Warn("Embedding cache read failed", zap.Int("keys", len(keys)), zap.Error(err))
		c.count("miss", len(keys))
		return out
	}

	hits := 0
	for i := range keys {
		if i >= len(raw) || len(raw[i]) == 0 {
			continue
		}
		vec, err := decode(raw[i])
		if err != nil {
			c.logger.Warn("Dropping corrupt cached embedding", zap.String("key", keys[i]), zap.Error(err))
			continue
		}
		out[i] = vec
		hits++
	}
	c.count("hit", hits)
	c.count("miss", len(keys)-hits)
	return out
}

func (c *CachedEmbedder) save(ctx context.Context, entries []db.Entry) {
	if err := c.store.MSet(ctx, entries, c.ttl); err != nil {
		c.logger.Warn("Embedding cache write failed", zap.Int("keys", len(entries)), zap.Error(err))
	}
}

func (c *CachedEmbedder) count(result string, n int) {
	if c.hits != nil && n > 0 {
		c.hits.WithLabelValues(result).Add(float64(n))
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return keyPrefix + c.model + ":" + hex.EncodeToString(h[:])
}

// encode packs a vector as little-endian float32s.
func encode(v []float32) []byte {
	buf := make([]byte, 0, len(v)*4)
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decode(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("cached embedding is %d bytes, not a multiple of 4", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
