// Package budget persists token budget counters in the key-value store.
package budget

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

type kv interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Counters stores one integer per key with INCRBY, expiring keys once.
type Counters struct {
	kv kv
}

// New creates a Counters repository.
func New(s kv) *Counters {
	return &Counters{kv: s}
}

// Add increments key by tokens. The TTL is set only when the key has none,
// so the expiry stays anchored to the first write of the window.
func (c *Counters) Add(ctx context.Context, key string, tokens int64, ttl time.Duration) error {
	if err := c.kv.IncrBy(ctx, key, tokens); err != nil {
		return fmt.Errorf("incr %s: %w", key, err)
	}
	if ttl <= 0 {
		return nil
	}
	if err := c.kv.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("expire %s: %w", key, err)
	}
	return nil
}

// Load returns the counter for key; a missing key is zero.
func (c *Counters) Load(ctx context.Context, key string) (int64, error) {
	data, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("get %s: %w", key, err)
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
