package request

import (
	"fmt"
	"math"
	"slices"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 10
	MaxLimit       = 100
	DefaultAlpha   = 0.5
	MaxAutocut     = 10
)

// Params are the raw search parameters before validation.
type Params struct {
	Mode             mode.Mode
	Query            string
	Vector           []float32
	Image            string // base64
	ObjectID         string
	TargetProperties []string // bm25/hybrid keyword targets
	Alpha            *float64
	MaxDistance      *float64
	Limit            int
	Offset           int
	Autocut          int
	Filter           filter.Node
	ReturnProperties []string
	IncludeVector    bool
	RerankProperty   string
	RerankQuery      string
}

// Request is a validated search query.
type Request struct {
	searchMode       mode.Mode
	query            string
	vector           []float32
	image            string
	objectID         string
	targetProperties []string
	alpha            float64
	maxDistance      *float64
	limit            int
	offset           int
	autocut          int
	filter           filter.Node
	returnProperties []string
	includeVector    bool
	rerankProperty   string
	rerankQuery      string
}

// New validates and normalizes search parameters.
// Defaults: mode=hybrid, limit=DefaultLimit, alpha=0.5. Limit is clamped to MaxLimit.
func New(p Params) (Request, error) {
	return NewWithLimits(p, DefaultLimit, MaxLimit)
}

// NewWithLimits is New with configured default and maximum limits.
func NewWithLimits(p Params, defaultLimit, maxLimit int) (Request, error) {
	m := p.Mode
	if m == "" {
		m = mode.Hybrid
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}
	if len(p.Query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}
	if m.NeedsQuery() && p.Query == "" {
		return Request{}, fmt.Errorf("query is required for %s", m)
	}
	switch m {
	case mode.NearVector:
		if len(p.Vector) == 0 {
			return Request{}, fmt.Errorf("vector is required for %s", m)
		}
	case mode.NearImage:
		if p.Image == "" {
			return Request{}, fmt.Errorf("image is required for %s", m)
		}
	case mode.NearObject:
		if p.ObjectID == "" {
			return Request{}, fmt.Errorf("object id is required for %s", m)
		}
	}

	alpha := DefaultAlpha
	if p.Alpha != nil {
		if m != mode.Hybrid {
			return Request{}, fmt.Errorf("alpha only applies to hybrid search")
		}
		if !finite(*p.Alpha) || *p.Alpha < 0 || *p.Alpha > 1 {
			return Request{}, fmt.Errorf("alpha must be between 0 and 1")
		}
		alpha = *p.Alpha
	}
	if p.MaxDistance != nil {
		if !m.IsVector() {
			return Request{}, fmt.Errorf("max distance only applies to vector search")
		}
		if !finite(*p.MaxDistance) || *p.MaxDistance < 0 {
			return Request{}, fmt.Errorf("max distance must be a finite, non-negative number")
		}
	}
	if len(p.TargetProperties) > 0 && m != mode.BM25 && m != mode.Hybrid {
		return Request{}, fmt.Errorf("target properties only apply to bm25 and hybrid search")
	}
	if p.Offset < 0 {
		return Request{}, fmt.Errorf("offset must not be negative")
	}
	if p.Autocut < 0 || p.Autocut > MaxAutocut {
		return Request{}, fmt.Errorf("autocut must be between 0 and %d", MaxAutocut)
	}
	if p.RerankQuery != "" && p.RerankProperty == "" {
		return Request{}, fmt.Errorf("rerank query needs a rerank property")
	}

	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Request{
		searchMode:       m,
		query:            p.Query,
		vector:           p.Vector,
		image:            p.Image,
		objectID:         p.ObjectID,
		targetProperties: slices.Clone(p.TargetProperties),
		alpha:            alpha,
		maxDistance:      p.MaxDistance,
		limit:            limit,
		offset:           p.Offset,
		autocut:          p.Autocut,
		filter:           p.Filter,
		returnProperties: slices.Clone(p.ReturnProperties),
		includeVector:    p.IncludeVector,
		rerankProperty:   p.RerankProperty,
		rerankQuery:      p.RerankQuery,
	}, nil
}

// Mode returns the search strategy.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Vector returns the query vector (near_vector, or client-side hybrid).
func (r *Request) Vector() []float32 { return r.vector }

// Image returns the base64 query image.
func (r *Request) Image() string { return r.image }

// ObjectID returns the reference object for near_object.
func (r *Request) ObjectID() string { return r.objectID }

// TargetProperties returns the keyword search targets.
func (r *Request) TargetProperties() []string { return r.targetProperties }

// Alpha returns the hybrid weighting (1 = pure vector, 0 = pure keyword).
func (r *Request) Alpha() float64 { return r.alpha }

// MaxDistance returns the vector distance threshold, nil if unset.
func (r *Request) MaxDistance() *float64 { return r.maxDistance }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// Offset returns the number of results to skip.
func (r *Request) Offset() int { return r.offset }

// Autocut returns the autocut jump count (0 = disabled).
func (r *Request) Autocut() int { return r.autocut }

// Filter returns the filter tree.
func (r *Request) Filter() filter.Node { return r.filter }

// ReturnProperties returns the requested properties (empty = all).
func (r *Request) ReturnProperties() []string { return r.returnProperties }

// IncludeVector reports whether vectors should be included in results.
func (r *Request) IncludeVector() bool { return r.includeVector }

// RerankProperty returns the property the reranker scores, empty if reranking is off.
func (r *Request) RerankProperty() string { return r.rerankProperty }

// RerankQuery returns the reranker query (falls back to Query when empty).
func (r *Request) RerankQuery() string {
	if r.rerankQuery == "" {
		return r.query
	}
	return r.rerankQuery
}

// WithFilter returns a copy with the filter replaced (used after schema binding).
func (r Request) WithFilter(f filter.Node) Request {
	r.filter = f
	return r
}

// WithReturnProperties returns a copy with the returned properties replaced.
func (r Request) WithReturnProperties(props []string) Request {
	r.returnProperties = slices.Clone(props)
	return r
}

// WithQueryVector returns a copy carrying a client-side query vector.
// near_text becomes near_vector; hybrid keeps its mode and sends the vector alongside the query.
func (r Request) WithQueryVector(v []float32) Request {
	r.vector = v
	if r.searchMode == mode.NearText {
		r.searchMode = mode.NearVector
	}
	return r
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
