package dto

import (
	"fmt"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
)

// SearchRequest is the JSON form of a search.
type SearchRequest struct {
	Mode             string    `json:"mode"`
	Query            string    `json:"query,omitempty"`
	Vector           []float32 `json:"vector,omitempty"`
	Image            string    `json:"image,omitempty"`
	ObjectID         string    `json:"object_id,omitempty"`
	TargetProperties []string  `json:"target_properties,omitempty"`
	Alpha            *float64  `json:"alpha,omitempty"`
	MaxDistance      *float64  `json:"max_distance,omitempty"`
	Limit            int       `json:"limit,omitempty"`
	Offset           int       `json:"offset,omitempty"`
	Autocut          int       `json:"autocut,omitempty"`
	Where            *Filter   `json:"where,omitempty"`
	ReturnProperties []string  `json:"return_properties,omitempty"`
	IncludeVector    bool      `json:"include_vector,omitempty"`
	RerankProperty   string    `json:"rerank_property,omitempty"`
	RerankQuery      string    `json:"rerank_query,omitempty"`
}

// ToDomain validates the search within the configured limits. An empty mode means hybrid.
func (s *SearchRequest) ToDomain(defaultLimit, maxLimit int) (request.Request, error) {
	m, ok := mode.Parse(s.Mode)
	if !ok {
		// Let request validation report the unknown mode.
		m = mode.Mode(s.Mode)
	}
	f, err := s.Where.ToDomain()
	if err != nil {
		return request.Request{}, err
	}
	req, err := request.NewWithLimits(request.Params{
		Mode:             m,
		Query:            s.Query,
		Vector:           s.Vector,
		Image:            s.Image,
		ObjectID:         s.ObjectID,
		TargetProperties: s.TargetProperties,
		Alpha:            s.Alpha,
		MaxDistance:      s.MaxDistance,
		Limit:            s.Limit,
		Offset:           s.Offset,
		Autocut:          s.Autocut,
		Filter:           f,
		ReturnProperties: s.ReturnProperties,
		IncludeVector:    s.IncludeVector,
		RerankProperty:   s.RerankProperty,
		RerankQuery:      s.RerankQuery,
	}, defaultLimit, maxLimit)
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}

// Hit is the JSON form of a search result.
type Hit struct {
	ID           string         `json:"id"`
	Properties   map[string]any `json:"properties"`
	Distance     *float64       `json:"distance,omitempty"`
	Certainty    *float64       `json:"certainty,omitempty"`
	Score        *float64       `json:"score,omitempty"`
	ExplainScore string         `json:"explain_score,omitempty"`
	RerankScore  *float64       `json:"rerank_score,omitempty"`
	Vector       []float32      `json:"vector,omitempty"`
	Generated    string         `json:"generated,omitempty"`
}

// HitsFromDomain renders search results.
func HitsFromDomain(results []result.Result) []Hit {
	out := make([]Hit, len(results))
	for i := range results {
		r := &results[i]
		sc := r.Scores()
		out[i] = Hit{
			ID:           r.ID(),
			Properties:   r.Properties(),
			Distance:     sc.Distance,
			Certainty:    sc.Certainty,
			Score:        sc.Score,
			ExplainScore: sc.ExplainScore,
			RerankScore:  sc.RerankScore,
			Vector:       r.Vector(),
			Generated:    r.Generated(),
		}
	}
	return out
}

// SearchResponse wraps search hits.
type SearchResponse struct {
	Results []Hit `json:"results"`
	Count   int   `json:"count"`
}

// AggregateRequest is a count with optional filter and group-by.
type AggregateRequest struct {
	Where   *Filter `json:"where,omitempty"`
	GroupBy string  `json:"group_by,omitempty"`
}

// Group is one group-by bucket.
type Group struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// AggregateResponse reports an aggregate.
type AggregateResponse struct {
	Total   int64   `json:"total"`
	GroupBy string  `json:"group_by,omitempty"`
	Groups  []Group `json:"groups,omitempty"`
}

// AggregateFromDomain renders an aggregate.
func AggregateFromDomain(a result.Aggregate) AggregateResponse {
	out := AggregateResponse{Total: a.Total, GroupBy: a.GroupBy}
	for _, g := range a.Groups {
		out.Groups = append(out.Groups, Group{Value: g.Value, Count: g.Count})
	}
	return out
}

// GenerateRequest is a generative search.
type GenerateRequest struct {
	SearchRequest
	SinglePrompt      string   `json:"single_prompt,omitempty"`
	GroupedTask       string   `json:"grouped_task,omitempty"`
	GroupedProperties []string `json:"grouped_properties,omitempty"`
}

// Generate validates the generative part of the request.
func (g *GenerateRequest) Generate() (rag.Generate, error) {
	return rag.NewGenerate(g.SinglePrompt, g.GroupedTask, g.GroupedProperties) //nolint:wrapcheck // already a domain error
}

// GenerateResponse carries per-object generations and the grouped answer.
type GenerateResponse struct {
	Results []Hit  `json:"results"`
	Grouped string `json:"grouped,omitempty"`
}

// GenerateFromDomain renders a generative search.
func GenerateFromDomain(g result.Generative) GenerateResponse {
	return GenerateResponse{Results: HitsFromDomain(g.Results), Grouped: g.Grouped}
}

// AskRequest is a client-side RAG question. Retrieval defaults to hybrid on the question.
type AskRequest struct {
	Question          string         `json:"question"`
	Retrieval         *SearchRequest `json:"retrieval,omitempty"`
	ContextProperties []string       `json:"context_properties,omitempty"`
	SystemPrompt      string         `json:"system_prompt,omitempty"`
}

// DescribeRequest is a vision question about an inlined image.
// With a collection, similar objects are retrieved as context.
type DescribeRequest struct {
	Image             string   `json:"image"`
	Prompt            string   `json:"prompt,omitempty"`
	Collection        string   `json:"collection,omitempty"`
	Limit             int      `json:"limit,omitempty"`
	ContextProperties []string `json:"context_properties,omitempty"`
}

// Source is a cited retrieved object.
type Source struct {
	Index      int            `json:"index"`
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties,omitempty"`
	Distance   *float64       `json:"distance,omitempty"`
	Score      *float64       `json:"score,omitempty"`
}

// Usage is token usage in a response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Answer is the JSON form of a RAG answer.
type Answer struct {
	Answer  string   `json:"answer"`
	Model   string   `json:"model,omitempty"`
	Usage   Usage    `json:"usage"`
	Sources []Source `json:"sources,omitempty"`
}

// AnswerFromDomain renders an answer.
func AnswerFromDomain(a rag.Answer) Answer {
	out := Answer{
		Answer: a.Text,
		Model:  a.Model,
		Usage: Usage{
			PromptTokens:     a.Usage.PromptTokens,
			CompletionTokens: a.Usage.CompletionTokens,
			TotalTokens:      a.Usage.TotalTokens,
		},
	}
	for _, s := range a.Sources {
		out.Sources = append(out.Sources, Source{
			Index: s.Index, ID: s.ID, Properties: s.Properties, Distance: s.Distance, Score: s.Score,
		})
	}
	return out
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
