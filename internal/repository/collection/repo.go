package collection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// store is the consumer interface for collections (ISP).
type store interface {
	ListClasses(ctx context.Context) ([]*models.Class, error)
	GetClass(ctx context.Context, name string) (*models.Class, error)
	ClassExists(ctx context.Context, name string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	DeleteClass(ctx context.Context, name string) error
	AddProperty(ctx context.Context, class string, prop *models.Property) error
}

// Repo implements usecase/collection.Repository over the Weaviate schema.
// Class lookups are cached in-process; every schema write through the repo invalidates the entry.
type Repo struct {
	store store
	cache *cache.Cache
}

// New creates a collection repository. A zero ttl disables schema caching.
func New(s store, ttl time.Duration) *Repo {
	r := &Repo{store: s}
	if ttl > 0 {
		r.cache = cache.New(ttl, 2*ttl)
	}
	return r
}

// Create defines the class in Weaviate.
func (r *Repo) Create(ctx context.Context, col domcol.Collection) error {
	name := col.Name()
	exists, err := r.store.ClassExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", name, db.Translate(err))
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	if err := r.store.CreateClass(ctx, toClass(col)); err != nil {
		return fmt.Errorf("create class %s: %w", name, db.Translate(err))
	}
	r.invalidate(name)
	return nil
}

// Get retrieves a collection by name.
func (r *Repo) Get(ctx context.Context, name string) (domcol.Collection, error) {
	if r.cache != nil {
		if v, ok := r.cache.Get(name); ok {
			return v.(domcol.Collection), nil
		}
	}

	class, err := r.store.GetClass(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get class %s: %w", name, db.Translate(err))
	}
	col := fromClass(class)
	if r.cache != nil {
		r.cache.SetDefault(name, col)
	}
	return col, nil
}

// List returns all collections sorted by name.
func (r *Repo) List(ctx context.Context) ([]domcol.Collection, error) {
	classes, err := r.store.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", db.Translate(err))
	}

	collections := make([]domcol.Collection, 0, len(classes))
	for _, c := range classes {
		if c == nil {
			continue
		}
		collections = append(collections, fromClass(c))
	}
	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Name() < collections[j].Name()
	})
	return collections, nil
}

// Exists reports whether a collection is defined.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	if r.cache != nil {
		if _, ok := r.cache.Get(name); ok {
			return true, nil
		}
	}
	ok, err := r.store.ClassExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", name, db.Translate(err))
	}
	return ok, nil
}

// Delete drops the class and all of its objects.
func (r *Repo) Delete(ctx context.Context, name string) error {
	exists, err := r.store.ClassExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", name, db.Translate(err))
	}
	if !exists {
		return domain.ErrNotFound
	}

	r.invalidate(name)
	if err := r.store.DeleteClass(ctx, name); err != nil {
		return fmt.Errorf("delete class %s: %w", name, db.Translate(err))
	}
	return nil
}

// AddProperty appends a property to an existing class.
func (r *Repo) AddProperty(ctx context.Context, col domcol.Collection, p property.Property) error {
	r.invalidate(col.Name())
	if err := r.store.AddProperty(ctx, col.Name(), toProperty(p, col.Vectorizer())); err != nil {
		return fmt.Errorf("add property %s.%s: %w", col.Name(), p.Name(), db.Translate(err))
	}
	return nil
}

func (r *Repo) invalidate(name string) {
	if r.cache != nil {
		r.cache.Delete(name)
	}
}
