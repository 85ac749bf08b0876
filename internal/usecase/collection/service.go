package collection

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/logger"
)

// Service manages collection schemas.
type Service struct {
	schema  Schema
	modules ModuleLister
}

// Option configures a Service.
type Option func(*Service)

// WithModuleCheck makes Create refuse modules that the instance does not enable.
func WithModuleCheck(m ModuleLister) Option {
	return func(s *Service) { s.modules = m }
}

// New creates a collection service.
func New(schema Schema, opts ...Option) *Service {
	s := &Service{schema: schema}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates def and creates the class.
func (s *Service) Create(ctx context.Context, def Definition) (domcol.Collection, error) {
	col, err := def.Build()
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate collection: %w: %w", domain.ErrInvalidSchema, err)
	}
	if err := s.checkModules(ctx, col); err != nil {
		return domcol.Collection{}, err
	}

	if err := s.schema.Create(ctx, col); err != nil {
		return domcol.Collection{}, fmt.Errorf("create collection %s: %w", col.Name(), err)
	}

	logger.FromContext(ctx).Info("Collection created",
		zap.String("collection", col.Name()),
		zap.String("vectorizer", col.Vectorizer().Module()),
		zap.Int("properties", len(col.Properties())),
	)
	return col, nil
}

// Ensure returns the existing collection named by def, creating it when absent.
// created reports whether this call created it. An existing class is returned as is,
// even when its schema differs from def.
func (s *Service) Ensure(ctx context.Context, def Definition) (col domcol.Collection, created bool, err error) {
	existing, err := s.Get(ctx, def.Name)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return domcol.Collection{}, false, err
	}

	col, err = s.Create(ctx, def)
	if err == nil {
		return col, true, nil
	}
	// Lost a race with another creator.
	if errors.Is(err, domain.ErrAlreadyExists) {
		existing, getErr := s.Get(ctx, def.Name)
		return existing, false, getErr
	}
	return domcol.Collection{}, false, err
}

// Get retrieves a collection by name.
func (s *Service) Get(ctx context.Context, name string) (domcol.Collection, error) {
	name = domcol.NormalizeName(name)
	col, err := s.schema.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection %s: %w", name, err)
	}
	return col, nil
}

// List returns all collections sorted by name.
func (s *Service) List(ctx context.Context) ([]domcol.Collection, error) {
	cols, err := s.schema.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return cols, nil
}

// Exists reports whether a collection is defined.
func (s *Service) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := s.schema.Exists(ctx, domcol.NormalizeName(name))
	if err != nil {
		return false, fmt.Errorf("check collection: %w", err)
	}
	return ok, nil
}

// Delete removes a collection and every object in it.
func (s *Service) Delete(ctx context.Context, name string) error {
	name = domcol.NormalizeName(name)
	if err := s.schema.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	logger.FromContext(ctx).Info("Collection deleted", zap.String("collection", name))
	return nil
}

// AddProperty appends a property to an existing collection.
func (s *Service) AddProperty(ctx context.Context, name string, def PropertyDef) (domcol.Collection, error) {
	col, err := s.Get(ctx, name)
	if err != nil {
		return domcol.Collection{}, err
	}

	p, err := def.Build()
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate property: %w: %w", domain.ErrInvalidSchema, err)
	}
	updated, err := col.WithProperty(p)
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("validate property: %w: %w", domain.ErrInvalidSchema, err)
	}

	if err := s.schema.AddProperty(ctx, col, p); err != nil {
		return domcol.Collection{}, fmt.Errorf("add property %s.%s: %w", col.Name(), p.Name(), err)
	}
	logger.FromContext(ctx).Info("Property added",
		zap.String("collection", col.Name()),
		zap.String("property", p.Name()),
		zap.String("data_type", string(p.DataType())),
	)
	return updated, nil
}

// checkModules rejects module settings the instance cannot serve. A failed module
// lookup is logged and does not block the create.
func (s *Service) checkModules(ctx context.Context, col domcol.Collection) error {
	if s.modules == nil {
		return nil
	}
	var wanted []string
	if !col.Vectorizer().IsNone() {
		wanted = append(wanted, col.Vectorizer().Module())
	}
	if g := col.Generative(); g != nil {
		wanted = append(wanted, g.Name())
	}
	if r := col.Reranker(); r != nil {
		wanted = append(wanted, r.Name())
	}
	if len(wanted) == 0 {
		return nil
	}

	enabled, err := s.modules.Modules(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn("Skipping module check", zap.Error(err))
		return nil
	}
	for _, m := range wanted {
		if !slices.Contains(enabled, m) {
			return fmt.Errorf("%w: module %s is not enabled on this Weaviate instance (enabled: %v)",
				domain.ErrInvalidSchema, m, enabled)
		}
	}
	return nil
}
