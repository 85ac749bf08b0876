package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/usecase/budget"
)

// Period selects the budget window of a report.
type Period string

// Report periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod parses a period name; empty means day.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	}
	return "", fmt.Errorf("%w: period must be day or month, got %q", domain.ErrInvalidRequest, s)
}

func (p Period) window() budget.Period {
	if p == PeriodMonth {
		return budget.Monthly
	}
	return budget.Daily
}

// Report is the token budget state for one period. A zero Limit means unlimited
// and Remaining is then -1.
type Report struct {
	Period           Period
	Start            time.Time
	End              time.Time
	Limit            int64
	Used             int64
	Remaining        int64
	EmbeddingTokens  int64
	GenerationTokens int64
	Exhausted        bool
}

// Service reports token budget usage shared by embeddings and chat.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: time.Now}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period Period) Report {
	if period != PeriodMonth {
		period = PeriodDay
	}
	w := period.window()

	snap := budget.Snapshot{Period: w, Start: w.Start(s.now())}
	if s.br != nil {
		snap = s.br.Snapshot(w)
	}

	return Report{
		Period:           period,
		Start:            snap.Start,
		End:              w.End(snap.Start),
		Limit:            snap.Limit,
		Used:             snap.Used,
		Remaining:        snap.Remaining(),
		EmbeddingTokens:  snap.BySource[budget.SourceEmbedding],
		GenerationTokens: snap.BySource[budget.SourceGeneration],
		Exhausted:        snap.Limit > 0 && snap.Remaining() == 0,
	}
}
