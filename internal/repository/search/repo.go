package search

import (
	"context"
	"fmt"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
)

// store is the consumer interface for search (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	Aggregate(ctx context.Context, q *db.AggregateQuery) (*db.AggregateResult, error)
}

var nestedFields = map[property.DataType][]string{
	property.GeoCoordinates: {"latitude", "longitude"},
	property.PhoneNumber:    {"input", "internationalFormatted", "countryCode"},
}

// Repo implements usecase/search.Repository over Weaviate GraphQL.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Search runs a validated request against a collection.
func (r *Repo) Search(ctx context.Context, col domcol.Collection, req request.Request) ([]result.Result, error) {
	res, err := r.store.Search(ctx, buildQuery(col, &req))
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", col.Name(), db.Translate(err))
	}
	return convertHits(res.Hits), nil
}

// Generate runs a search with the collection's generative module attached.
func (r *Repo) Generate(
	ctx context.Context, col domcol.Collection, req request.Request, gen rag.Generate,
) (result.Generative, error) {
	q := buildQuery(col, &req)
	q.Generate = &db.GenerateQuery{
		SinglePrompt:      gen.SinglePrompt,
		GroupedTask:       gen.GroupedTask,
		GroupedProperties: gen.GroupedProperties,
	}
	res, err := r.store.Search(ctx, q)
	if err != nil {
		return result.Generative{}, fmt.Errorf("generate %s: %w", col.Name(), db.Translate(err))
	}
	for _, h := range res.Hits {
		if h.GenerateError != "" {
			return result.Generative{}, fmt.Errorf("generate %s: object %s: %w: %s",
				col.Name(), h.ID, domain.ErrProviderError, h.GenerateError)
		}
	}
	return result.Generative{Results: convertHits(res.Hits), Grouped: res.Grouped}, nil
}

// Aggregate counts objects under an optional bound filter, optionally grouped by one property.
func (r *Repo) Aggregate(ctx context.Context, class string, f filter.Node, groupBy string) (result.Aggregate, error) {
	res, err := r.store.Aggregate(ctx, &db.AggregateQuery{Class: class, Filter: f, GroupBy: groupBy})
	if err != nil {
		return result.Aggregate{}, fmt.Errorf("aggregate %s: %w", class, db.Translate(err))
	}
	out := result.Aggregate{Total: res.Total, GroupBy: groupBy}
	for _, g := range res.Groups {
		out.Groups = append(out.Groups, result.Group{Value: g.Value, Count: g.Count})
	}
	return out, nil
}

func buildQuery(col domcol.Collection, req *request.Request) *db.SearchQuery {
	q := &db.SearchQuery{
		Class:            col.Name(),
		Mode:             req.Mode(),
		Query:            req.Query(),
		Vector:           req.Vector(),
		Image:            req.Image(),
		ObjectID:         req.ObjectID(),
		TargetProperties: req.TargetProperties(),
		Alpha:            req.Alpha(),
		MaxDistance:      req.MaxDistance(),
		Limit:            req.Limit(),
		Offset:           req.Offset(),
		Autocut:          req.Autocut(),
		Filter:           req.Filter(),
		Properties:       returnFields(col, req.ReturnProperties()),
		IncludeVector:    req.IncludeVector(),
	}
	if p := req.RerankProperty(); p != "" {
		q.Rerank = &db.RerankQuery{Property: p, Query: req.RerankQuery()}
	}
	return q
}

// returnFields resolves requested properties; the default is every non-blob property.
func returnFields(col domcol.Collection, requested []string) []db.Field {
	var props []property.Property
	if len(requested) == 0 {
		for _, p := range col.Properties() {
			if p.DataType() != property.Blob {
				props = append(props, p)
			}
		}
	} else {
		for _, name := range requested {
			if p, ok := col.Property(name); ok {
				props = append(props, p)
			}
		}
	}

	fields := make([]db.Field, 0, len(props))
	for _, p := range props {
		fields = append(fields, db.Field{Name: p.Name(), Nested: nestedFields[p.DataType()]})
	}
	return fields
}

func convertHits(hits []db.Hit) []result.Result {
	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		r := result.New(h.ID, h.Properties, result.Scores{
			Distance:     h.Distance,
			Certainty:    h.Certainty,
			Score:        h.Score,
			ExplainScore: h.ExplainScore,
			RerankScore:  h.RerankScore,
		}, h.Vector)
		if h.Generated != "" {
			r = r.WithGenerated(h.Generated)
		}
		out = append(out, r)
	}
	return out
}
