package health

import (
	"context"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

// Database is the Weaviate side of the check: readiness plus server metadata.
type Database interface {
	Ping(ctx context.Context) error
	Meta(ctx context.Context) (*db.Meta, error)
}

// Checker is an optional dependency with a liveness probe (the OpenAI API).
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Pinger is the optional key-value cache.
type Pinger interface {
	Ping(ctx context.Context) error
}
