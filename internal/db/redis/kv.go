package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(s.key(key)).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// MGet fetches all keys in one round trip. Missing keys yield nil entries.
func (s *Store) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.key(k)
	}

	msgs, err := s.do(ctx, s.b().Mget().Key(prefixed...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}
	out := make([][]byte, len(keys))
	for i := range msgs {
		if i >= len(out) || msgs[i].IsNil() {
			continue
		}
		data, err := msgs[i].AsBytes()
		if err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
		out[i] = data
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with an expiration. A non-positive ttl stores without expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.do(ctx, s.set(key, value, ttl)).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// MSet pipelines one SET per entry, all with the same ttl.
func (s *Store) MSet(ctx context.Context, entries []db.Entry, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}
	cmds := make([]rueidis.Completed, len(entries))
	for i, e := range entries {
		cmds[i] = s.set(e.Key, e.Value, ttl)
	}
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpSet, Err: err}
		}
	}
	return nil
}

func (s *Store) set(key string, value []byte, ttl time.Duration) rueidis.Completed {
	cmd := s.b().Set().Key(s.key(key)).Value(rueidis.BinaryString(value))
	if ttl > 0 {
		return cmd.Ex(ttl).Build()
	}
	return cmd.Build()
}

// IncrBy atomically increments a key by the given amount.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	if err := s.do(ctx, s.b().Incrby().Key(s.key(key)).Increment(val).Build()).Error(); err != nil {
		return &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return nil
}

// Expire sets TTL on a key. With nx the TTL is only set when the key has none (EXPIRE NX).
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	expire := s.b().Expire().Key(s.key(key)).Seconds(int64(ttl.Seconds()))
	var cmd rueidis.Completed
	if nx {
		cmd = expire.Nx().Build()
	} else {
		cmd = expire.Build()
	}
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}
