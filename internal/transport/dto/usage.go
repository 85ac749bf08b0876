package dto

import (
	"time"

	usageuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/usage"
)

// UsageReport is the JSON form of a token budget report.
type UsageReport struct {
	Period           string    `json:"period"`
	PeriodStart      time.Time `json:"period_start"`
	PeriodEnd        time.Time `json:"period_end"`
	TokensLimit      int64     `json:"tokens_limit"`
	TokensUsed       int64     `json:"tokens_used"`
	Remaining        int64     `json:"remaining"`
	EmbeddingTokens  int64     `json:"embedding_tokens"`
	GenerationTokens int64     `json:"generation_tokens"`
	Exhausted        bool      `json:"exhausted"`
}

// UsageFromReport converts a usage report.
func UsageFromReport(r usageuc.Report) UsageReport {
	return UsageReport{
		Period:           string(r.Period),
		PeriodStart:      r.Start,
		PeriodEnd:        r.End,
		TokensLimit:      r.Limit,
		TokensUsed:       r.Used,
		Remaining:        r.Remaining,
		EmbeddingTokens:  r.EmbeddingTokens,
		GenerationTokens: r.GenerationTokens,
		Exhausted:        r.Exhausted,
	}
}
