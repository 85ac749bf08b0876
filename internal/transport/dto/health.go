package dto

import (
	healthuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/health"
)

// HealthComponent is one probe in a Health response.
type HealthComponent struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Health is the /health and `wvskills check` response.
type Health struct {
	Status          string                     `json:"status"`
	Components      map[string]HealthComponent `json:"components"`
	WeaviateURL     string                     `json:"weaviate_url,omitempty"`
	WeaviateVersion string                     `json:"weaviate_version,omitempty"`
	Modules         []string                   `json:"modules,omitempty"`
}

// HealthFromReport renders a health report. withModules adds the enabled module list.
func HealthFromReport(r healthuc.Report, withModules bool) Health {
	h := Health{
		Status:     string(r.Status),
		Components: make(map[string]HealthComponent, len(r.Components)),
	}
	for name, c := range r.Components {
		h.Components[name] = HealthComponent{
			Status:    string(c.Status),
			LatencyMS: c.Latency.Milliseconds(),
			Error:     c.Error,
		}
	}
	if r.Meta != nil {
		h.WeaviateVersion = r.Meta.Version
		if withModules {
			h.Modules = r.Meta.Modules
		}
	}
	return h
}
