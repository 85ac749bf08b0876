package memory

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

// Compile-time check: Store implements db.KVStore.
var _ db.KVStore = (*Store)(nil)

// Store is an in-process db.KVStore backed by go-cache.
// Values live only for the lifetime of the process.
type Store struct {
	mu sync.Mutex
	c  *cache.Cache
}

// NewStore creates an in-process store; expired items are purged every cleanup interval.
func NewStore(cleanup time.Duration) *Store {
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Store{c: cache.New(cache.NoExpiration, cleanup)}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all items.
func (s *Store) Close() { s.c.Flush() }

// Get retrieves a value by key. Counters are returned as decimal strings, like Redis.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	switch t := v.(type) {
	case []byte:
		return slices.Clone(t), nil
	case int64:
		return []byte(strconv.FormatInt(t, 10)), nil
	default:
		return nil, &db.Error{Op: db.OpGet, Err: errUnexpectedType}
	}
}

// MGet returns one value per key, nil where the key is missing or expired.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		v, err := s.Get(ctx, k)
		if errors.Is(err, db.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// MSet stores every entry with the same ttl.
func (s *Store) MSet(ctx context.Context, entries []db.Entry, ttl time.Duration) error {
	for _, e := range entries {
		if err := s.SetWithTTL(ctx, e.Key, e.Value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Set stores a value without expiry.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.c.Set(key, slices.Clone(value), cache.NoExpiration)
	return nil
}

// SetWithTTL stores a value with an expiration. A non-positive ttl stores without expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	s.c.Set(key, slices.Clone(value), ttl)
	return nil
}

// IncrBy atomically increments a counter, creating it at zero when missing.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.c.Get(key); !ok {
		s.c.Set(key, val, cache.NoExpiration)
		return nil
	}
	if _, err := s.c.IncrementInt64(key, val); err != nil {
		return &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return nil
}

// Expire sets TTL on a key. When nx=true, sets TTL only if the key has no expiry yet.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, exp, ok := s.c.GetWithExpiration(key)
	if !ok {
		return nil
	}
	if nx && !exp.IsZero() {
		return nil
	}
	s.c.Set(key, v, ttl)
	return nil
}
