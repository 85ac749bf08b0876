// Package batch holds per-item outcomes of batch writes.
package batch

import (
	"errors"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
)

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Item status values. The zero value marks an item not processed yet.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Stage is where an item failed.
type Stage string

// Failure stages, in pipeline order.
const (
	StageValidate  Stage = "validate"
	StageVectorize Stage = "vectorize"
	StageWrite     Stage = "write"
)

// Result is the outcome of one item.
type Result struct {
	id     string
	status ItemStatus
	stage  Stage
	err    error
}

// Stored reports an item Weaviate accepted.
func Stored(id string) Result { return Result{id: id, status: StatusOK} }

// Failed reports an item rejected at stage.
func Failed(id string, stage Stage, err error) Result {
	return Result{id: id, status: StatusError, stage: stage, err: err}
}

// ID returns the object id, generated ids included.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Stage returns where the item failed; empty for stored items.
func (r Result) Stage() Stage { return r.stage }

// Err returns the failure, if any.
func (r Result) Err() error { return r.err }

// Done reports whether the item has an outcome.
func (r Result) Done() bool { return r.status != "" }

// Retryable reports a failure caused by a transient condition (rate limit,
// quota, timeout, unavailable server) rather than by the object itself.
func (r Result) Retryable() bool {
	if r.status != StatusError {
		return false
	}
	for _, transient := range []error{
		domain.ErrRateLimited, domain.ErrQuotaExceeded, domain.ErrTimeout, domain.ErrUnavailable,
	} {
		if errors.Is(r.err, transient) {
			return true
		}
	}
	return false
}

// FailedObject is an input object that was not stored, kept for reinspection.
type FailedObject struct {
	Index     int
	Object    object.Object
	Stage     Stage
	Err       error
	Retryable bool
}

// Summary aggregates a batch insert.
type Summary struct {
	Total     int
	Succeeded int
	Failed    []FailedObject
	ByStage   map[Stage]int
}

// Retryable returns the failures worth sending again unchanged.
func (s Summary) Retryable() []FailedObject {
	var out []FailedObject
	for _, f := range s.Failed {
		if f.Retryable {
			out = append(out, f)
		}
	}
	return out
}

// Summarize builds a summary from per-item results in input order.
func Summarize(objects []object.Object, results []Result) Summary {
	s := Summary{Total: len(results)}
	for i, r := range results {
		if r.Status() == StatusOK {
			s.Succeeded++
			continue
		}
		fo := FailedObject{Index: i, Stage: r.Stage(), Err: r.Err(), Retryable: r.Retryable()}
		if i < len(objects) {
			fo.Object = objects[i]
		}
		s.Failed = append(s.Failed, fo)
		if s.ByStage == nil {
			s.ByStage = map[Stage]int{}
		}
		s.ByStage[r.Stage()]++
	}
	return s
}

// DeleteSummary is the outcome of a delete-by-filter.
type DeleteSummary struct {
	Matches    int64
	Successful int64
	Failed     int64
	DryRun     bool
}
