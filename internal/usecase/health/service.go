// Package health probes Weaviate, the OpenAI API and the cache in parallel.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/logger"
)

// Status is the aggregated result.
type Status string

const (
	// Healthy: every probe passed.
	Healthy Status = "ok"
	// Degraded: Weaviate is up but an optional dependency failed.
	Degraded Status = "degraded"
	// Down: Weaviate itself is unreachable.
	Down Status = "down"
)

// CheckResult is one probe's outcome.
type CheckResult string

// Probe outcomes.
const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names in Report.Components.
const (
	ComponentWeaviate = "weaviate"
	ComponentLLM      = "llm"
	ComponentCache    = "cache"
)

const defaultProbeTimeout = 5 * time.Second

// Component is the outcome of one probe.
type Component struct {
	Status  CheckResult   `json:"status"`
	Latency time.Duration `json:"-"`
	Error   string        `json:"error,omitempty"`
}

// Report aggregates the probes.
type Report struct {
	Status     Status
	Components map[string]Component
	// Meta is set when Weaviate answered /v1/meta.
	Meta *db.Meta
}

// Healthy reports whether every component passed.
func (r Report) Healthy() bool { return r.Status == Healthy }

type probe struct {
	name     string
	required bool
	run      func(ctx context.Context) error
}

// Service runs the probes.
type Service struct {
	db      Database
	probes  []probe
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithProbeTimeout bounds each probe; the default is five seconds.
func WithProbeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Service. llm and cache may be nil and are then not probed.
func New(database Database, llm Checker, cache Pinger, opts ...Option) *Service {
	s := &Service{db: database, timeout: defaultProbeTimeout}
	s.probes = append(s.probes, probe{name: ComponentWeaviate, required: true, run: database.Ping})
	if llm != nil {
		s.probes = append(s.probes, probe{name: ComponentLLM, run: llm.HealthCheck})
	}
	if cache != nil {
		s.probes = append(s.probes, probe{name: ComponentCache, run: cache.Ping})
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs every probe concurrently, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	components := make([]Component, len(s.probes))

	var wg sync.WaitGroup
	for i, p := range s.probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			components[i] = s.run(ctx, p, log)
		}()
	}
	wg.Wait()

	rep := Report{Status: Healthy, Components: make(map[string]Component, len(s.probes))}
	for i, p := range s.probes {
		c := components[i]
		rep.Components[p.name] = c
		if c.Status == CheckOK {
			continue
		}
		if p.required {
			rep.Status = Down
		} else if rep.Status == Healthy {
			rep.Status = Degraded
		}
	}

	if rep.Components[ComponentWeaviate].Status == CheckOK {
		mctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		m, err := s.db.Meta(mctx)
		if err != nil {
			log.Warn("Weaviate meta unavailable", zap.Error(err))
		} else {
			rep.Meta = m
		}
	}
	return rep
}

func (s *Service) run(ctx context.Context, p probe, log *zap.Logger) Component {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := p.run(ctx)
	c := Component{Status: CheckOK, Latency: time.Since(start)}
	if err != nil {
		log.Warn("Health check failed",
			zap.String("component", p.name),
			zap.Duration("latency", c.Latency),
			zap.Error(err),
		)
		c.Status = CheckError
		c.Error = err.Error()
	}
	return c
}
