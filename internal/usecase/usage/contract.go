package usage

import "github.com/saskinosie/weaviate-claude-skills/internal/usecase/budget"

// BudgetReader exposes the current budget windows.
type BudgetReader interface {
	Snapshot(p budget.Period) budget.Snapshot
}
