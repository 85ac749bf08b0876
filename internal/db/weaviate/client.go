package weaviate

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spf13/cast"
	wv "github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
)

// Compile-time check: Client implements db.Store.
var _ db.Store = (*Client)(nil)

const defaultTimeout = 30 * time.Second

// Config holds connection parameters for a Weaviate instance.
type Config struct {
	// URL is the instance address, e.g. http://localhost:8080 or a cloud cluster host.
	URL    string
	APIKey string
	// Headers are sent with every request (module provider keys such as X-OpenAI-Api-Key).
	Headers map[string]string
	Timeout time.Duration
}

// Client is a single Weaviate connection handle. It must be closed by its owner.
type Client struct {
	wv     *wv.Client
	closed atomic.Bool
}

// ParseURL splits a Weaviate address into scheme and host.
// A bare host defaults to https, which is what cloud clusters expect.
func ParseURL(raw string) (scheme, host string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("weaviate url is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse weaviate url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", fmt.Errorf("weaviate url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("weaviate url %q has no host", raw)
	}
	if u.Path != "" && u.Path != "/" {
		return "", "", fmt.Errorf("weaviate url must not contain a path, got %q", u.Path)
	}
	return u.Scheme, u.Host, nil
}

// NewClient opens a client handle. Readiness is not awaited here (StartupTimeout is zero);
// callers use WaitForReady.
func NewClient(cfg Config) (*Client, error) {
	scheme, host, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		if v != "" {
			headers[k] = v
		}
	}

	wcfg := wv.Config{
		Host:    host,
		Scheme:  scheme,
		Headers: headers,
		Timeout: timeout,
	}
	if cfg.APIKey != "" {
		wcfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := wv.NewClient(wcfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &Client{wv: client}, nil
}

// Close releases the handle. Safe to call more than once; later calls on the client return db.ErrClosed.
func (c *Client) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *Client) guard(op string) error {
	if c.closed.Load() {
		return &db.Error{Op: op, Err: db.ErrClosed}
	}
	return nil
}

// Ping checks that the instance reports ready.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.guard(db.OpReady); err != nil {
		return err
	}
	start := time.Now()
	ready, err := c.wv.Misc().ReadyChecker().Do(ctx)
	metrics.ObserveDB(db.OpReady, start, err)
	if err != nil {
		return wrap(db.OpReady, err)
	}
	if !ready {
		return &db.Error{Op: db.OpReady, Err: db.ErrUnavailable}
	}
	return nil
}

// WaitForReady polls the readiness endpoint until it succeeds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	b := retry.WithMaxDuration(timeout, retry.NewConstant(250*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.Ping(ctx)
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("waiting for weaviate: %w", err)
	}
	return nil
}

// Meta returns server version, hostname and enabled modules.
func (c *Client) Meta(ctx context.Context) (*db.Meta, error) {
	if err := c.guard(db.OpMeta); err != nil {
		return nil, err
	}
	start := time.Now()
	m, err := c.wv.Misc().MetaGetter().Do(ctx)
	metrics.ObserveDB(db.OpMeta, start, err)
	if err != nil {
		return nil, wrap(db.OpMeta, err)
	}
	out := &db.Meta{Version: m.Version, Hostname: m.Hostname}
	for name := range cast.ToStringMap(m.Modules) {
		out.Modules = append(out.Modules, name)
	}
	slices.Sort(out.Modules)
	return out, nil
}
