// Package redis is the rueidis-backed db.KVStore used for the shared embedding cache and budget counters.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/sethvargo/go-retry"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

var _ db.KVStore = (*Store)(nil)

const clientName = "wvskills"

// Config holds connection parameters for a Redis store.
type Config struct {
	// URL is a redis:// or rediss:// URL. When set it replaces Addrs, Username, Password and DB.
	URL      string
	Addrs    []string
	Username string
	Password string
	DB       int
	TLS      bool
	// KeyPrefix namespaces every key written by this process.
	KeyPrefix string
}

func (c Config) options() (rueidis.ClientOption, error) {
	var opt rueidis.ClientOption
	if c.URL != "" {
		parsed, err := rueidis.ParseURL(c.URL)
		if err != nil {
			return opt, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		if len(c.Addrs) == 0 {
			return opt, errors.New("redis: url or addrs is required")
		}
		opt = rueidis.ClientOption{
			InitAddress: c.Addrs,
			Username:    c.Username,
			Password:    c.Password,
			SelectDB:    c.DB,
		}
	}
	if c.TLS && opt.TLSConfig == nil {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	opt.ClientName = clientName
	opt.DisableCache = true
	return opt, nil
}

// Store implements db.KVStore via rueidis.
type Store struct {
	client rueidis.Client
	prefix string
}

// NewStore dials Redis. Keys are namespaced with cfg.KeyPrefix.
func NewStore(cfg Config) (*Store, error) {
	opt, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect redis %v: %w", opt.InitAddress, err)
	}
	return newStore(client, cfg.KeyPrefix), nil
}

func newStore(c rueidis.Client, prefix string) *Store {
	return &Store{client: c, prefix: prefix}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() { s.client.Close() }

// WaitForReady pings with exponential backoff, capped at one second, until timeout.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	b := retry.NewExponential(50 * time.Millisecond)
	b = retry.WithCappedDuration(time.Second, b)
	b = retry.WithMaxDuration(timeout, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := s.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis not ready after %s: %w", timeout, err)
	}
	return nil
}

func (s *Store) key(k string) string { return s.prefix + k }

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder { return s.client.B() }
