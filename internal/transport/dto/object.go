package dto

import (
	"fmt"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	dombatch "github.com/saskinosie/weaviate-claude-skills/internal/domain/batch"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
)

// Object is the JSON form of an object.
type Object struct {
	ID         string         `json:"id,omitempty"`
	Properties map[string]any `json:"properties"`
	Vector     []float32      `json:"vector,omitempty"`
}

// ToDomain validates the object.
func (o *Object) ToDomain() (domobj.Object, error) {
	obj, err := domobj.New(o.ID, o.Properties, o.Vector)
	if err != nil {
		return domobj.Object{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return obj, nil
}

// ObjectFromDomain renders an object.
func ObjectFromDomain(o *domobj.Object) Object {
	return Object{ID: o.ID(), Properties: o.Properties(), Vector: o.Vector()}
}

// Page is one page of objects.
type Page struct {
	Objects    []Object `json:"objects"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// PageFromDomain renders a page.
func PageFromDomain(p domobj.Page) Page {
	out := Page{Objects: make([]Object, len(p.Objects)), NextCursor: p.NextCursor}
	for i := range p.Objects {
		out.Objects[i] = ObjectFromDomain(&p.Objects[i])
	}
	return out
}

// BatchRequest is a batch insert.
type BatchRequest struct {
	Objects []Object `json:"objects"`
}

// BatchItem is the outcome for one batch input item.
type BatchItem struct {
	Index     int    `json:"index"`
	ID        string `json:"id,omitempty"`
	Status    string `json:"status"`
	Stage     string `json:"stage,omitempty"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// BatchResponse reports a batch insert.
type BatchResponse struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Retryable int            `json:"retryable"`
	ByStage   map[string]int `json:"failed_by_stage,omitempty"`
	Items     []BatchItem    `json:"items"`
}

// BatchFromDomain renders per-item results and the summary.
func BatchFromDomain(results []dombatch.Result, sum dombatch.Summary) BatchResponse {
	out := BatchResponse{
		Total:     sum.Total,
		Succeeded: sum.Succeeded,
		Failed:    len(sum.Failed),
		Retryable: len(sum.Retryable()),
		Items:     make([]BatchItem, len(results)),
	}
	for stage, n := range sum.ByStage {
		if out.ByStage == nil {
			out.ByStage = map[string]int{}
		}
		out.ByStage[string(stage)] = n
	}
	for i, r := range results {
		item := BatchItem{Index: i, ID: r.ID(), Status: string(r.Status()), Stage: string(r.Stage())}
		if r.Err() != nil {
			item.Error = r.Err().Error()
			item.Retryable = r.Retryable()
		}
		out.Items[i] = item
	}
	return out
}

// DeleteManyRequest is a delete-by-filter.
type DeleteManyRequest struct {
	Where  *Filter `json:"where"`
	DryRun bool    `json:"dry_run,omitempty"`
}

// DeleteManyResponse reports a delete-by-filter.
type DeleteManyResponse struct {
	Matches    int64 `json:"matches"`
	Successful int64 `json:"successful"`
	Failed     int64 `json:"failed"`
	DryRun     bool  `json:"dry_run"`
}

// DeleteManyFromDomain renders a delete summary.
func DeleteManyFromDomain(s dombatch.DeleteSummary) DeleteManyResponse {
	return DeleteManyResponse{Matches: s.Matches, Successful: s.Successful, Failed: s.Failed, DryRun: s.DryRun}
}
