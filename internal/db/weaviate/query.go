package weaviate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
)

// Search runs a GraphQL Get query in the requested mode.
func (c *Client) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if err := c.guard(db.OpSearch); err != nil {
		return nil, err
	}
	gql := c.wv.GraphQL()
	b := gql.Get().
		WithClassName(q.Class).
		WithFields(searchFields(q)...).
		WithLimit(q.Limit)
	if q.Offset > 0 {
		b = b.WithOffset(q.Offset)
	}
	if q.Autocut > 0 {
		b = b.WithAutocut(q.Autocut)
	}
	if !q.Filter.IsZero() {
		where, err := toWhere(q.Filter)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: %w", db.ErrInvalid, err)}
		}
		b = b.WithWhere(where)
	}

	switch q.Mode {
	case mode.NearText:
		arg := gql.NearTextArgBuilder().WithConcepts([]string{q.Query})
		if q.MaxDistance != nil {
			arg = arg.WithDistance(float32(*q.MaxDistance))
		}
		b = b.WithNearText(arg)
	case mode.NearVector:
		arg := gql.NearVectorArgBuilder().WithVector(q.Vector)
		if q.MaxDistance != nil {
			arg = arg.WithDistance(float32(*q.MaxDistance))
		}
		b = b.WithNearVector(arg)
	case mode.NearImage:
		arg := gql.NearImageArgBuilder().WithImage(q.Image)
		if q.MaxDistance != nil {
			arg = arg.WithDistance(float32(*q.MaxDistance))
		}
		b = b.WithNearImage(arg)
	case mode.NearObject:
		arg := gql.NearObjectArgBuilder().WithID(q.ObjectID)
		if q.MaxDistance != nil {
			arg = arg.WithDistance(float32(*q.MaxDistance))
		}
		b = b.WithNearObject(arg)
	case mode.BM25:
		arg := gql.Bm25ArgBuilder().WithQuery(q.Query)
		if len(q.TargetProperties) > 0 {
			arg = arg.WithProperties(q.TargetProperties...)
		}
		b = b.WithBM25(arg)
	case mode.Hybrid:
		arg := gql.HybridArgumentBuilder().WithQuery(q.Query).WithAlpha(float32(q.Alpha))
		if len(q.Vector) > 0 {
			arg = arg.WithVector(q.Vector)
		}
		if len(q.TargetProperties) > 0 {
			arg = arg.WithProperties(q.TargetProperties)
		}
		b = b.WithHybrid(arg)
	default:
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: unsupported mode %q", db.ErrInvalid, q.Mode)}
	}

	if g := q.Generate; g != nil {
		gs := graphql.NewGenerativeSearch()
		if g.SinglePrompt != "" {
			gs = gs.SingleResult(g.SinglePrompt)
		}
		if g.GroupedTask != "" {
			gs = gs.GroupedResult(g.GroupedTask, g.GroupedProperties...)
		}
		b = b.WithGenerativeSearch(gs)
	}

	start := time.Now()
	resp, err := b.Do(ctx)
	err = graphQLError(db.OpSearch, resp, err)
	metrics.ObserveDB(db.OpSearch, start, err)
	if err != nil {
		return nil, err
	}
	out, err := decodeGet(resp, q.Class)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return out, nil
}

func searchFields(q *db.SearchQuery) []graphql.Field {
	fields := make([]graphql.Field, 0, len(q.Properties)+1)
	for _, p := range q.Properties {
		f := graphql.Field{Name: p.Name}
		for _, sub := range p.Nested {
			f.Fields = append(f.Fields, graphql.Field{Name: sub})
		}
		fields = append(fields, f)
	}

	additional := []graphql.Field{{Name: "id"}}
	if q.Mode.IsVector() {
		additional = append(additional, graphql.Field{Name: "distance"}, graphql.Field{Name: "certainty"})
	} else {
		additional = append(additional, graphql.Field{Name: "score"}, graphql.Field{Name: "explainScore"})
	}
	if q.IncludeVector {
		additional = append(additional, graphql.Field{Name: "vector"})
	}
	if r := q.Rerank; r != nil {
		additional = append(additional, graphql.Field{
			Name:   fmt.Sprintf("rerank(property: %s query: %s)", strconv.Quote(r.Property), strconv.Quote(r.Query)),
			Fields: []graphql.Field{{Name: "score"}},
		})
	}
	return append(fields, graphql.Field{Name: additionalKey, Fields: additional})
}

// Aggregate counts objects under an optional filter, optionally grouped by one property.
func (c *Client) Aggregate(ctx context.Context, q *db.AggregateQuery) (*db.AggregateResult, error) {
	if err := c.guard(db.OpAggregate); err != nil {
		return nil, err
	}
	fields := []graphql.Field{{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}}
	b := c.wv.GraphQL().Aggregate().WithClassName(q.Class)
	if q.GroupBy != "" {
		fields = append(fields, graphql.Field{Name: "groupedBy", Fields: []graphql.Field{{Name: "value"}}})
		b = b.WithGroupBy(q.GroupBy)
	}
	b = b.WithFields(fields...)
	if !q.Filter.IsZero() {
		where, err := toWhere(q.Filter)
		if err != nil {
			return nil, &db.Error{Op: db.OpAggregate, Err: fmt.Errorf("%w: %w", db.ErrInvalid, err)}
		}
		b = b.WithWhere(where)
	}

	start := time.Now()
	resp, err := b.Do(ctx)
	err = graphQLError(db.OpAggregate, resp, err)
	metrics.ObserveDB(db.OpAggregate, start, err)
	if err != nil {
		return nil, err
	}
	out, err := decodeAggregate(resp, q.Class, q.GroupBy != "")
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	return out, nil
}
