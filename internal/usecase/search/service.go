package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
	"github.com/saskinosie/weaviate-claude-skills/internal/logger"
)

// Default page sizes for FetchAll and Iterate.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// Service handles vector, keyword and hybrid search plus direct object reads.
type Service struct {
	repo            Repository
	objects         ObjectReader
	colls           CollectionReader
	embed           Embedder
	defaultPageSize int
	maxPageSize     int
}

// New creates a search service. embed may be nil; near_text and hybrid
// queries on vectorizer-none collections then fail with ErrVectorizerMissing.
func New(repo Repository, objects ObjectReader, colls CollectionReader, embed Embedder) *Service {
	return &Service{
		repo:            repo,
		objects:         objects,
		colls:           colls,
		embed:           embed,
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Search runs a validated request against a collection.
func (s *Service) Search(ctx context.Context, collection string, req request.Request) ([]result.Result, error) {
	start := time.Now()
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return nil, fmt.Errorf("get collection: %w", err)
	}

	prepared, err := s.Prepare(ctx, col, req)
	if err != nil {
		return nil, err
	}

	results, err := s.repo.Search(ctx, col, prepared)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	logger.FromContext(ctx).Debug("Search completed",
		zap.String("collection", col.Name()),
		zap.String("mode", string(req.Mode())),
		zap.Int("count", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// Prepare checks a request against the collection schema, binds its filter and,
// for collections without a vectorizer module, embeds the query client-side.
func (s *Service) Prepare(ctx context.Context, col domcol.Collection, req request.Request) (request.Request, error) {
	if err := checkProperties(col, req.TargetProperties(), "target"); err != nil {
		return request.Request{}, err
	}
	if err := checkProperties(col, req.ReturnProperties(), "return"); err != nil {
		return request.Request{}, err
	}
	if p := req.RerankProperty(); p != "" {
		if col.Reranker() == nil {
			return request.Request{}, fmt.Errorf("%w: collection %s has no reranker module",
				domain.ErrInvalidRequest, col.Name())
		}
		if err := checkProperties(col, []string{p}, "rerank"); err != nil {
			return request.Request{}, err
		}
	}

	bound, err := req.Filter().Bind(col.DataTypeOf)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	req = req.WithFilter(bound)

	vec := col.Vectorizer()
	switch req.Mode() {
	case mode.NearImage:
		if !vec.SupportsImage() {
			return request.Request{}, fmt.Errorf("%w: near_image needs an image vectorizer, %s uses %s",
				domain.ErrVectorizerMissing, col.Name(), vec.Module())
		}
	case mode.NearText, mode.Hybrid:
		if vec.SupportsText() {
			break
		}
		if !vec.IsNone() || s.embed == nil {
			return request.Request{}, fmt.Errorf("%w: %s needs a text vectorizer, %s uses %s",
				domain.ErrVectorizerMissing, req.Mode(), col.Name(), vec.Module())
		}
		res, err := s.embed.Embed(ctx, req.Query())
		if err != nil {
			return request.Request{}, fmt.Errorf("vectorize query: %w", err)
		}
		req = req.WithQueryVector(res.Embedding)
	}
	return req, nil
}

// FetchByID returns one object.
func (s *Service) FetchByID(ctx context.Context, collection, id string, withVector bool) (domobj.Object, error) {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return domobj.Object{}, fmt.Errorf("get collection: %w", err)
	}
	obj, err := s.objects.Get(ctx, col.Name(), id, withVector)
	if err != nil {
		return domobj.Object{}, fmt.Errorf("fetch object: %w", err)
	}
	return obj, nil
}

// FetchAll returns one page of objects ordered by id, starting after cursor.
func (s *Service) FetchAll(
	ctx context.Context, collection, cursor string, limit int, withVector bool,
) (domobj.Page, error) {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return domobj.Page{}, fmt.Errorf("get collection: %w", err)
	}
	return s.fetchPage(ctx, col.Name(), cursor, limit, withVector)
}

// Iterate walks every object of a collection page by page until fn returns an error.
func (s *Service) Iterate(
	ctx context.Context, collection string, pageSize int, fn func(domobj.Object) error,
) error {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("iterate %s: %w", col.Name(), err)
		}
		page, err := s.fetchPage(ctx, col.Name(), cursor, pageSize, false)
		if err != nil {
			return err
		}
		for _, obj := range page.Objects {
			if err := fn(obj); err != nil {
				return err
			}
		}
		if page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

func (s *Service) fetchPage(ctx context.Context, class, cursor string, limit int, withVector bool) (domobj.Page, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	limit = min(limit, s.maxPageSize)

	page, err := s.objects.List(ctx, class, cursor, limit, withVector)
	if err != nil {
		return domobj.Page{}, fmt.Errorf("list objects: %w", err)
	}
	return page, nil
}

// Aggregate counts objects under an optional filter, optionally grouped by a property.
func (s *Service) Aggregate(
	ctx context.Context, collection string, f filter.Node, groupBy string,
) (result.Aggregate, error) {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return result.Aggregate{}, fmt.Errorf("get collection: %w", err)
	}
	if groupBy != "" {
		if err := checkProperties(col, []string{groupBy}, "group-by"); err != nil {
			return result.Aggregate{}, err
		}
	}
	bound, err := f.Bind(col.DataTypeOf)
	if err != nil {
		return result.Aggregate{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}

	agg, err := s.repo.Aggregate(ctx, col.Name(), bound, groupBy)
	if err != nil {
		return result.Aggregate{}, fmt.Errorf("aggregate: %w", err)
	}
	return agg, nil
}

func checkProperties(col domcol.Collection, names []string, role string) error {
	for _, n := range names {
		if _, ok := col.Property(n); !ok {
			return fmt.Errorf("%w: unknown %s property %q in %s", domain.ErrInvalidSchema, role, n, col.Name())
		}
	}
	return nil
}
