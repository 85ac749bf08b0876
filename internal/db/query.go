package db

import (
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
)

// SearchQuery is the input for a GraphQL Get search.
type SearchQuery struct {
	Class            string
	Mode             mode.Mode
	Query            string
	Vector           []float32
	Image            string
	ObjectID         string
	TargetProperties []string
	Alpha            float64
	MaxDistance      *float64
	Limit            int
	Offset           int
	Autocut          int
	Filter           filter.Node
	Properties       []Field
	IncludeVector    bool
	Rerank           *RerankQuery
	Generate         *GenerateQuery
}

// Field is a returned property; Nested lists sub-fields for object-like types (geoCoordinates, phoneNumber).
type Field struct {
	Name   string
	Nested []string
}

// RerankQuery asks the reranker module to rescore results on one property.
type RerankQuery struct {
	Property string
	Query    string
}

// GenerateQuery asks the generative module for per-result and/or grouped output.
type GenerateQuery struct {
	SinglePrompt      string
	GroupedTask       string
	GroupedProperties []string
}

// SearchResult is the output of a search.
type SearchResult struct {
	Hits    []Hit
	Grouped string
}

// Hit is a single object returned by a search.
type Hit struct {
	ID            string
	Properties    map[string]any
	Vector        []float32
	Distance      *float64
	Certainty     *float64
	Score         *float64
	ExplainScore  string
	RerankScore   *float64
	Generated     string
	GenerateError string
}

// ListQuery pages through a class with cursor pagination.
type ListQuery struct {
	Class      string
	After      string
	Limit      int
	WithVector bool
}

// AggregateQuery counts objects, optionally filtered and grouped.
type AggregateQuery struct {
	Class   string
	Filter  filter.Node
	GroupBy string
}

// AggregateResult is the output of an aggregation.
type AggregateResult struct {
	Total  int64
	Groups []AggregateGroup
}

// AggregateGroup is one grouped bucket.
type AggregateGroup struct {
	Value string
	Count int64
}

// BatchItem is the server outcome for one batched object, in input order.
type BatchItem struct {
	ID  string
	Err error
}

// DeleteQuery deletes every object in a class matching a filter.
type DeleteQuery struct {
	Class  string
	Filter filter.Node
	DryRun bool
}

// DeleteResult reports a delete-by-filter.
type DeleteResult struct {
	Matches    int64
	Successful int64
	Failed     int64
}
