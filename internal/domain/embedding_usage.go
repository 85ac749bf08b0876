package domain

import (
	"context"
	"sync"
)

type tokenUsageKey struct{}

// TokenUsage collects provider token usage for a single request or command.
// The caller puts a pointer into the context, services add to it, the caller
// reads it afterwards (response header, CLI summary).
type TokenUsage struct {
	mu         sync.Mutex
	embedding  int
	generation int
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// AddEmbedding records embedding tokens. Safe on a nil receiver.
func (u *TokenUsage) AddEmbedding(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embedding += n
	u.mu.Unlock()
}

// AddGeneration records chat completion tokens. Safe on a nil receiver.
func (u *TokenUsage) AddGeneration(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generation += n
	u.mu.Unlock()
}

// Embedding returns the recorded embedding tokens.
func (u *TokenUsage) Embedding() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embedding
}

// Generation returns the recorded chat completion tokens.
func (u *TokenUsage) Generation() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.generation
}

// Total returns all recorded tokens.
func (u *TokenUsage) Total() int {
	return u.Embedding() + u.Generation()
}
