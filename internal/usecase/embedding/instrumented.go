package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/usecase/budget"
)

// DefaultMaxAPIBatchSize is the largest number of inputs sent in one embeddings API call.
const DefaultMaxAPIBatchSize = 256

// Budget gates embedding calls on the shared token budget.
type Budget interface {
	Check(ctx context.Context) error
	Record(source budget.Source, tokens int64)
}

// InstrumentedEmbedder wraps Embedder with budget enforcement, per-request usage and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner     domain.Embedder
	provider  string
	model     string
	budget    Budget
	logger    *zap.Logger
	chunkSize int
}

// NewInstrumentedEmbedder wraps an embedder. budget may be nil.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	b Budget, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:     inner,
		provider:  provider,
		model:     model,
		budget:    b,
		logger:    logger.With(zap.String("provider", provider), zap.String("model", model)),
		chunkSize: DefaultMaxAPIBatchSize,
	}
}

// Embed embeds one text.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := p.checkBudget(ctx, 1); err != nil {
		return domain.EmbeddingResult{}, err
	}

	start := time.Now()
	res, err := p.inner.Embed(ctx, text)
	if err != nil {
		p.logger.Error("Embedding request failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	p.record(ctx, res.Usage)
	p.logger.Debug("Embedding request completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("total_tokens", res.Usage.TotalTokens),
	)
	return res, nil
}

// BatchEmbed embeds texts in API-sized chunks, checking the budget before each one.
// Tokens of completed chunks are recorded even when a later chunk fails.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += p.chunkSize {
		end := min(offset+p.chunkSize, len(texts))
		if err := p.checkBudget(ctx, end-offset); err != nil {
			return domain.BatchEmbeddingResult{}, err
		}

		chunk, err := domain.EmbedAll(ctx, p.inner, texts[offset:end])
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.Int("chunk_offset", offset),
				zap.Int("chunk_size", end-offset),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed [%d:%d]: %w", offset, end, err)
		}
		p.record(ctx, chunk.Usage)
		out.Embeddings = append(out.Embeddings, chunk.Embeddings...)
		out.Usage = out.Usage.Add(chunk.Usage)
	}

	p.logger.Debug("Batch embedding completed",
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("total_tokens", out.Usage.TotalTokens),
	)
	return out, nil
}

func (p *InstrumentedEmbedder) checkBudget(ctx context.Context, inputs int) error {
	if p.budget == nil {
		return nil
	}
	if err := p.budget.Check(ctx); err != nil {
		p.logger.Error("Budget exceeded", zap.Int("inputs", inputs), zap.Error(err))
		return fmt.Errorf("budget check: %w", err)
	}
	return nil
}

// record adds tokens to the request usage collector and the budget.
func (p *InstrumentedEmbedder) record(ctx context.Context, u domain.Usage) {
	domain.UsageFromContext(ctx).AddEmbedding(u.TotalTokens)
	if p.budget != nil {
		p.budget.Record(budget.SourceEmbedding, int64(u.TotalTokens))
	}
}

// HealthCheck delegates to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through
	}
	return nil
}
