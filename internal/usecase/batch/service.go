package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	dombatch "github.com/saskinosie/weaviate-claude-skills/internal/domain/batch"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
	"github.com/saskinosie/weaviate-claude-skills/internal/logger"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
)

// Default batch limits.
const (
	DefaultBatchSize = 100
	DefaultMaxItems  = 10000
)

// Service handles batch ingestion with per-item error reporting.
type Service struct {
	repo      Repository
	colls     CollectionReader
	embed     Embedder
	batchSize int
	maxItems  int
}

// New creates a batch service. embed may be nil.
func New(repo Repository, colls CollectionReader, embed Embedder) *Service {
	return &Service{
		repo:      repo,
		colls:     colls,
		embed:     embed,
		batchSize: DefaultBatchSize,
		maxItems:  DefaultMaxItems,
	}
}

// WithLimits configures the chunk size and the largest accepted input.
func (s *Service) WithLimits(batchSize, maxItems int) *Service {
	if batchSize > 0 {
		s.batchSize = batchSize
	}
	if maxItems > 0 {
		s.maxItems = maxItems
	}
	return s
}

// Insert stores objects in chunks. Every input item gets exactly one result,
// in input order; failures never abort the remaining chunks.
func (s *Service) Insert(
	ctx context.Context, collection string, items []domobj.Object,
) ([]dombatch.Result, dombatch.Summary) {
	results := make([]dombatch.Result, len(items))
	start := time.Now()

	if len(items) > s.maxItems {
		failAll(results, items, 0, dombatch.StageValidate, fmt.Errorf("batch of %d exceeds %d items: %w",
			len(items), s.maxItems, domain.ErrInvalidRequest))
		return results, s.finish(ctx, collection, items, results, start)
	}

	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		failAll(results, items, 0, dombatch.StageValidate, fmt.Errorf("get collection: %w", err))
		return results, s.finish(ctx, collection, items, results, start)
	}

	prepared := make([]domobj.Object, len(items))
	for i := range items {
		if err := col.CheckProperties(items[i].Properties()); err != nil {
			results[i] = dombatch.Failed(items[i].ID(), dombatch.StageValidate, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err))
			continue
		}
		prepared[i] = items[i]
		if prepared[i].ID() == "" {
			prepared[i] = prepared[i].WithID(domobj.NewID())
		}
	}

	for offset := 0; offset < len(items); offset += s.batchSize {
		end := min(offset+s.batchSize, len(items))
		if stop := s.insertChunk(ctx, col, prepared, results, offset, end); stop != nil {
			failAll(results, prepared, end, dombatch.StageVectorize, stop)
			break
		}
	}

	return results, s.finish(ctx, col.Name(), items, results, start)
}

// insertChunk fills results[offset:end]. A non-nil return is a quota or
// rate-limit error that makes every later chunk pointless.
func (s *Service) insertChunk(
	ctx context.Context, col domcol.Collection,
	items []domobj.Object, results []dombatch.Result, offset, end int,
) error {
	idx := make([]int, 0, end-offset)
	for i := offset; i < end; i++ {
		if !results[i].Done() {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil
	}

	if err := s.vectorize(ctx, col, items, idx); err != nil {
		for _, i := range idx {
			results[i] = dombatch.Failed(items[i].ID(), dombatch.StageVectorize, err)
		}
		if errors.Is(err, domain.ErrQuotaExceeded) || errors.Is(err, domain.ErrRateLimited) {
			return err
		}
		return nil
	}

	chunk := make([]domobj.Object, len(idx))
	for j, i := range idx {
		chunk[j] = items[i]
	}
	res, err := s.repo.BatchInsert(ctx, col.Name(), chunk)
	if err != nil {
		for _, i := range idx {
			results[i] = dombatch.Failed(items[i].ID(), dombatch.StageWrite, fmt.Errorf("batch insert: %w", err))
		}
		return nil
	}
	for j, i := range idx {
		if j < len(res) {
			results[i] = res[j]
		} else {
			results[i] = dombatch.Failed(items[i].ID(), dombatch.StageWrite, fmt.Errorf("%w: no result for item", domain.ErrUnavailable))
		}
	}
	return nil
}

// vectorize embeds the chunk's objects that need a client-side vector in one call.
func (s *Service) vectorize(ctx context.Context, col domcol.Collection, items []domobj.Object, idx []int) error {
	if s.embed == nil || !col.Vectorizer().IsNone() {
		return nil
	}
	var (
		targets []int
		texts   []string
	)
	for _, i := range idx {
		if items[i].HasVector() {
			continue
		}
		if text := col.EmbeddingText(items[i].Properties()); text != "" {
			targets = append(targets, i)
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	res, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return fmt.Errorf("vectorize: %w", err)
	}
	if len(res.Embeddings) != len(targets) {
		return fmt.Errorf("vectorize: %w: got %d embeddings for %d objects",
			domain.ErrProviderError, len(res.Embeddings), len(targets))
	}
	for j, i := range targets {
		items[i] = items[i].WithVector(res.Embeddings[j])
	}
	return nil
}

func (s *Service) finish(
	ctx context.Context, collection string,
	items []domobj.Object, results []dombatch.Result, start time.Time,
) dombatch.Summary {
	sum := dombatch.Summarize(items, results)
	metrics.ObserveBatch(sum.Succeeded, len(sum.Failed))
	logger.FromContext(ctx).Info("Batch insert finished",
		zap.String("collection", collection),
		zap.Int("count", sum.Total),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", len(sum.Failed)),
		zap.Int("retryable", len(sum.Retryable())),
		zap.Duration("duration", time.Since(start)),
	)
	return sum
}

// DeleteMany removes every object matching the filter. dryRun only counts matches.
func (s *Service) DeleteMany(
	ctx context.Context, collection string, f filter.Node, dryRun bool,
) (dombatch.DeleteSummary, error) {
	if f.IsZero() {
		return dombatch.DeleteSummary{}, fmt.Errorf("%w: delete by filter requires a filter", domain.ErrInvalidRequest)
	}
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return dombatch.DeleteSummary{}, fmt.Errorf("get collection: %w", err)
	}
	bound, err := f.Bind(col.DataTypeOf)
	if err != nil {
		return dombatch.DeleteSummary{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}

	sum, err := s.repo.DeleteMany(ctx, col.Name(), bound, dryRun)
	if err != nil {
		return dombatch.DeleteSummary{}, fmt.Errorf("delete many: %w", err)
	}
	logger.FromContext(ctx).Info("Delete by filter finished",
		zap.String("collection", col.Name()),
		zap.Int64("matches", sum.Matches),
		zap.Int64("successful", sum.Successful),
		zap.Int64("failed", sum.Failed),
		zap.Bool("dry_run", dryRun),
	)
	return sum, nil
}

func failAll(results []dombatch.Result, items []domobj.Object, from int, stage dombatch.Stage, err error) {
	for i := from; i < len(items); i++ {
		if !results[i].Done() {
			results[i] = dombatch.Failed(items[i].ID(), stage, err)
		}
	}
}
