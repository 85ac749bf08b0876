package result

// Scores are the ranking metrics Weaviate reports for a hit.
// Which fields are set depends on the search mode: vector searches report
// distance and certainty, keyword and hybrid searches report score.
type Scores struct {
	Distance     *float64
	Certainty    *float64
	Score        *float64
	ExplainScore string
	RerankScore  *float64
}

// Result is a single search hit.
type Result struct {
	id         string
	properties map[string]any
	scores     Scores
	vector     []float32
	generated  string
}

// New creates a search result.
func New(id string, properties map[string]any, scores Scores, vector []float32) Result {
	return Result{id: id, properties: properties, scores: scores, vector: vector}
}

// ID returns the object identifier.
func (r *Result) ID() string { return r.id }

// Properties returns the returned object properties.
func (r *Result) Properties() map[string]any { return r.properties }

// Scores returns the ranking metrics.
func (r *Result) Scores() Scores { return r.scores }

// Vector returns the object vector, if requested.
func (r *Result) Vector() []float32 { return r.vector }

// Generated returns the per-object generative output (single prompt), if any.
func (r *Result) Generated() string { return r.generated }

// WithGenerated returns a copy carrying per-object generated text.
func (r Result) WithGenerated(text string) Result {
	r.generated = text
	return r
}

// Text returns a property rendered as a string, empty if missing or not a string.
func (r *Result) Text(property string) string {
	s, _ := r.properties[property].(string)
	return s
}

// Generative is the output of a generative search.
type Generative struct {
	Results []Result
	// Grouped is the single answer produced for the grouped task.
	Grouped string
}

// Group is one bucket of a grouped aggregate.
type Group struct {
	Value string
	Count int64
}

// Aggregate is a count over a collection, optionally grouped by a property.
type Aggregate struct {
	Total   int64
	GroupBy string
	Groups  []Group
}
