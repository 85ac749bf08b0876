package rag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/usecase/budget"
)

// Budget gates chat completions on the token budget shared with the embedder.
type Budget interface {
	Check(ctx context.Context) error
	Record(source budget.Source, tokens int64)
}

// InstrumentedGenerator wraps a Generator with budget enforcement, per-request usage and logging.
type InstrumentedGenerator struct {
	inner  domain.Generator
	budget Budget
	logger *zap.Logger
}

// NewInstrumentedGenerator wraps a generator. b may be nil.
func NewInstrumentedGenerator(inner domain.Generator, provider string, b Budget, logger *zap.Logger) *InstrumentedGenerator {
	return &InstrumentedGenerator{inner: inner, budget: b, logger: logger.With(zap.String("provider", provider))}
}

// Complete checks the budget, delegates and records token usage.
func (g *InstrumentedGenerator) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResult, error) {
	log := g.logger.With(zap.String("model", req.Model))
	if g.budget != nil {
		if err := g.budget.Check(ctx); err != nil {
			log.Error("Budget exceeded", zap.Error(err))
			return domain.ChatResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := g.inner.Complete(ctx, req)
	if err != nil {
		log.Error("Chat completion failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return domain.ChatResult{}, fmt.Errorf("complete: %w", err)
	}

	domain.UsageFromContext(ctx).AddGeneration(res.Usage.TotalTokens)
	if g.budget != nil {
		g.budget.Record(budget.SourceGeneration, int64(res.Usage.TotalTokens))
	}

	log.Debug("Chat completion completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("messages", len(req.Messages)),
		zap.String("finish_reason", res.FinishReason),
		zap.Int("prompt_tokens", res.Usage.PromptTokens),
		zap.Int("completion_tokens", res.Usage.CompletionTokens),
	)
	return res, nil
}

// HealthCheck delegates to the inner generator when it supports health checks.
func (g *InstrumentedGenerator) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}
