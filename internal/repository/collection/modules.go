package collection

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

const modulesKey = "modules"

type metaReader interface {
	Meta(ctx context.Context) (*db.Meta, error)
}

// Modules lists the instance's enabled modules from /v1/meta, cached for ttl.
type Modules struct {
	meta  metaReader
	cache *cache.Cache
}

// NewModules wraps m. A zero ttl reads /v1/meta on every call.
func NewModules(m metaReader, ttl time.Duration) *Modules {
	mod := &Modules{meta: m}
	if ttl > 0 {
		mod.cache = cache.New(ttl, 2*ttl)
	}
	return mod
}

// Modules returns the enabled module names.
func (m *Modules) Modules(ctx context.Context) ([]string, error) {
	if m.cache != nil {
		if v, ok := m.cache.Get(modulesKey); ok {
			return v.([]string), nil
		}
	}
	meta, err := m.meta.Meta(ctx)
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", db.Translate(err))
	}
	if m.cache != nil {
		m.cache.SetDefault(modulesKey, meta.Modules)
	}
	return meta.Modules, nil
}
