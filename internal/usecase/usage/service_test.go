package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/usecase/budget"
)

type mockBudgetReader struct {
	snaps map[budget.Period]budget.Snapshot
	asked []budget.Period
}

func (m *mockBudgetReader) Snapshot(p budget.Period) budget.Snapshot {
	m.asked = append(m.asked, p)
	return m.snaps[p]
}

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func fixedService(br BudgetReader) *Service {
	svc := New(br)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestGetReport_DailyPeriod(t *testing.T) {
	br := &mockBudgetReader{snaps: map[budget.Period]budget.Snapshot{
		budget.Daily: {
			Period: budget.Daily, Start: budget.Daily.Start(fixedNow), Limit: 10000, Used: 3000,
			BySource: map[budget.Source]int64{budget.SourceEmbedding: 2500, budget.SourceGeneration: 500},
		},
	}}
	r := fixedService(br).GetReport(context.Background(), PeriodDay)

	if r.Period != PeriodDay {
		t.Errorf("expected period %q, got %q", PeriodDay, r.Period)
	}
	if want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC); !r.Start.Equal(want) {
		t.Errorf("start = %v, want %v", r.Start, want)
	}
	if want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC); !r.End.Equal(want) {
		t.Errorf("end = %v, want %v", r.End, want)
	}
	if r.Limit != 10000 || r.Used != 3000 || r.Remaining != 7000 {
		t.Errorf("unexpected budget %+v", r)
	}
	if r.EmbeddingTokens != 2500 || r.GenerationTokens != 500 {
		t.Errorf("unexpected split %+v", r)
	}
	if r.Exhausted {
		t.Error("expected not exhausted")
	}
}

func TestGetReport_MonthlyPeriod(t *testing.T) {
	br := &mockBudgetReader{snaps: map[budget.Period]budget.Snapshot{
		budget.Monthly: {Period: budget.Monthly, Start: budget.Monthly.Start(fixedNow), Limit: 100000, Used: 120000},
	}}
	r := fixedService(br).GetReport(context.Background(), PeriodMonth)

	if len(br.asked) != 1 || br.asked[0] != budget.Monthly {
		t.Errorf("asked for %v", br.asked)
	}
	if want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC); !r.Start.Equal(want) {
		t.Errorf("start = %v, want %v", r.Start, want)
	}
	if want := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC); !r.End.Equal(want) {
		t.Errorf("end = %v, want %v", r.End, want)
	}
	if r.Remaining != 0 || !r.Exhausted {
		t.Errorf("expected exhausted, got %+v", r)
	}
}

func TestGetReport_Unlimited(t *testing.T) {
	r := fixedService(nil).GetReport(context.Background(), PeriodDay)
	if r.Limit != 0 || r.Remaining != -1 || r.Exhausted {
		t.Errorf("expected unlimited report, got %+v", r)
	}
	if want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC); !r.Start.Equal(want) {
		t.Errorf("start = %v, want %v", r.Start, want)
	}
}

func TestGetReport_UnknownPeriodIsDay(t *testing.T) {
	r := fixedService(nil).GetReport(context.Background(), Period("week"))
	if r.Period != PeriodDay {
		t.Errorf("period = %q", r.Period)
	}
}

func TestGetReport_LiveTracker(t *testing.T) {
	tracker := budget.NewTracker("openai", budget.Limits{Daily: 100}, budget.ActionWarn, zap.NewNop())
	tracker.Record(budget.SourceGeneration, 120)

	r := New(tracker).GetReport(context.Background(), PeriodDay)
	if r.Used != 120 || r.GenerationTokens != 120 || r.Remaining != 0 || !r.Exhausted {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestParsePeriod(t *testing.T) {
	for in, want := range map[string]Period{"": PeriodDay, "day": PeriodDay, "month": PeriodMonth} {
		got, err := ParsePeriod(in)
		if err != nil || got != want {
			t.Errorf("ParsePeriod(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePeriod("year"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}
