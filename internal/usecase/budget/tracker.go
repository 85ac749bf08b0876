// Package budget enforces the token budget shared by embeddings and chat completions.
package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
)

// Action is what happens once a window is exhausted.
type Action string

// Budget actions.
const (
	ActionWarn   Action = "warn"
	ActionReject Action = "reject"
)

// ParseAction maps a config value to an Action; anything but "reject" warns.
func ParseAction(s string) Action {
	if Action(s) == ActionReject {
		return ActionReject
	}
	return ActionWarn
}

// Source is the kind of provider call that consumed tokens.
type Source string

// Token sources.
const (
	SourceEmbedding  Source = "embedding"
	SourceGeneration Source = "generation"
)

// Period is a budget window length.
type Period string

// Budget periods.
const (
	Daily   Period = "daily"
	Monthly Period = "monthly"
)

// Counter keys outlive their window so a late write never lands on an expired key.
const (
	dailyKeyTTL   = 48 * time.Hour
	monthlyKeyTTL = 62 * 24 * time.Hour
)

// Start returns the beginning of the window containing t.
func (p Period) Start(t time.Time) time.Time {
	t = t.UTC()
	if p == Monthly {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// End returns the exclusive end of the window starting at start.
func (p Period) End(start time.Time) time.Time {
	if p == Monthly {
		return start.AddDate(0, 1, 0)
	}
	return start.AddDate(0, 0, 1)
}

func (p Period) stamp(start time.Time) string {
	if p == Monthly {
		return start.Format("2006-01")
	}
	return start.Format("2006-01-02")
}

func (p Period) keyTTL() time.Duration {
	if p == Monthly {
		return monthlyKeyTTL
	}
	return dailyKeyTTL
}

// Limits are token caps per window; zero is unlimited.
type Limits struct {
	Daily   int64
	Monthly int64
}

// Store persists window counters. Add must create missing keys with the given TTL.
type Store interface {
	Add(ctx context.Context, key string, tokens int64, ttl time.Duration) error
	Load(ctx context.Context, key string) (int64, error)
}

// Snapshot is the state of one window.
type Snapshot struct {
	Period   Period
	Start    time.Time
	Limit    int64
	Used     int64
	BySource map[Source]int64
}

// Remaining returns tokens left, or -1 when the window is unlimited.
func (s Snapshot) Remaining() int64 {
	if s.Limit == 0 {
		return -1
	}
	return max(s.Limit-s.Used, 0)
}

type window struct {
	period   Period
	limit    int64
	start    time.Time
	used     int64
	bySource map[Source]int64
}

func newWindow(p Period, limit int64, now time.Time) *window {
	return &window{period: p, limit: limit, start: p.Start(now), bySource: map[Source]int64{}}
}

// roll zeroes the counters when now is past the window.
func (w *window) roll(now time.Time) {
	if start := w.period.Start(now); start.After(w.start) {
		w.start = start
		w.used = 0
		clear(w.bySource)
	}
}

func (w *window) exhausted() bool { return w.limit > 0 && w.used >= w.limit }

func (w *window) add(source Source, tokens int64) {
	w.used += tokens
	w.bySource[source] += tokens
}

func (w *window) key(provider string) string {
	return fmt.Sprintf("budget:%s:%s:%s", provider, w.period, w.period.stamp(w.start))
}

func (w *window) sourceKey(provider string, source Source) string {
	return w.key(provider) + ":" + string(source)
}

func (w *window) snapshot() Snapshot {
	s := Snapshot{Period: w.period, Start: w.start, Limit: w.limit, Used: w.used, BySource: make(map[Source]int64, len(w.bySource))}
	for k, v := range w.bySource {
		s.BySource[k] = v
	}
	return s
}

var sources = []Source{SourceEmbedding, SourceGeneration}

// Tracker keeps the daily and monthly windows in memory and writes increments
// behind to an optional Store. Check never touches the store.
type Tracker struct {
	mu       sync.Mutex
	provider string
	action   Action
	windows  []*window
	store    Store
	logger   *zap.Logger
	now      func() time.Time
}

// NewTracker creates a tracker for one provider.
func NewTracker(provider string, limits Limits, action Action, logger *zap.Logger) *Tracker {
	return newTracker(provider, limits, action, logger, time.Now)
}

func newTracker(provider string, limits Limits, action Action, logger *zap.Logger, now func() time.Time) *Tracker {
	t := now()
	return &Tracker{
		provider: provider,
		action:   action,
		windows:  []*window{newWindow(Daily, limits.Daily, t), newWindow(Monthly, limits.Monthly, t)},
		logger:   logger,
		now:      now,
	}
}

// WithStore attaches persistence and loads the current window counters from it.
func (b *Tracker) WithStore(ctx context.Context, store Store) *Tracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	for _, w := range b.windows {
		w.roll(b.now())
		for _, src := range sources {
			n, err := store.Load(ctx, w.sourceKey(b.provider, src))
			if err != nil {
				b.logger.Warn("Failed to load token budget",
					zap.String("period", string(w.period)),
					zap.String("source", string(src)),
					zap.Error(err),
				)
				continue
			}
			w.add(src, n)
		}
	}

	b.logger.Info("Token budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.windows[0].used),
		zap.Int64("monthly_used", b.windows[1].used),
	)
	b.publish()
	return b
}

// Check returns ErrQuotaExceeded when a window is exhausted and the action is reject.
func (b *Tracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, w := range b.windows {
		w.roll(now)
		if !w.exhausted() {
			continue
		}
		if b.action == ActionReject {
			return fmt.Errorf("%w: %s %s token budget exhausted", domain.ErrQuotaExceeded, b.provider, w.period)
		}
		b.logger.Warn("Token budget exceeded",
			zap.String("provider", b.provider),
			zap.String("period", string(w.period)),
			zap.Int64("used", w.used),
			zap.Int64("limit", w.limit),
		)
	}
	return nil
}

// Record adds consumed tokens to every window and persists the increments.
// The store write is detached from any request so cancelled calls still count.
func (b *Tracker) Record(source Source, tokens int64) {
	if tokens <= 0 {
		return
	}

	b.mu.Lock()
	now := b.now()
	keys := make([]string, 0, len(b.windows))
	ttls := make([]time.Duration, 0, len(b.windows))
	for _, w := range b.windows {
		w.roll(now)
		w.add(source, tokens)
		keys = append(keys, w.sourceKey(b.provider, source))
		ttls = append(ttls, w.period.keyTTL())
	}
	b.publish()
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i, key := range keys {
		if err := store.Add(ctx, key, tokens, ttls[i]); err != nil {
			b.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Snapshot returns the current state of the window for p.
func (b *Tracker) Snapshot(p Period) Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range b.windows {
		if w.period == p {
			w.roll(b.now())
			return w.snapshot()
		}
	}
	return Snapshot{Period: p, Start: p.Start(b.now())}
}

// publish updates the remaining-tokens gauges. Caller holds mu.
func (b *Tracker) publish() {
	for _, w := range b.windows {
		metrics.BudgetTokensRemaining.WithLabelValues(b.provider, string(w.period)).Set(float64(w.snapshot().Remaining()))
	}
}
