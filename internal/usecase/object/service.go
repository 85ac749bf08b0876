package object

import (
	"context"
	"fmt"
	"maps"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/media"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/logger"
)

// Service handles single-object CRUD with client-side vectorization
// for collections that have no vectorizer module.
type Service struct {
	repo     Repository
	colls    CollectionReader
	embedder Embedder
}

// New creates an object service. embedder may be nil; objects for
// vectorizer-none collections are then stored without a vector.
func New(repo Repository, colls CollectionReader, embedder Embedder) *Service {
	return &Service{repo: repo, colls: colls, embedder: embedder}
}

// Insert validates and stores a new object. An id is generated when absent.
func (s *Service) Insert(ctx context.Context, collection string, obj domobj.Object) (domobj.Object, error) {
	col, err := s.prepare(ctx, collection, obj.Properties())
	if err != nil {
		return domobj.Object{}, err
	}

	if obj.ID() == "" {
		obj = obj.WithID(domobj.NewID())
	}
	if obj, err = s.vectorize(ctx, col, obj); err != nil {
		return domobj.Object{}, err
	}

	created, err := s.repo.Insert(ctx, col.Name(), obj)
	if err != nil {
		return domobj.Object{}, fmt.Errorf("insert object: %w", err)
	}

	logger.FromContext(ctx).Debug("Object inserted",
		zap.String("collection", col.Name()),
		zap.String("id", created.ID()),
		zap.Bool("client_vector", created.HasVector()),
	)
	return created, nil
}

// InsertImage reads an image file into a blob property and inserts the object.
func (s *Service) InsertImage(
	ctx context.Context, collection, imageProperty, path string, props map[string]any,
) (domobj.Object, error) {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return domobj.Object{}, fmt.Errorf("get collection: %w", err)
	}
	p, ok := col.Property(imageProperty)
	if !ok || p.DataType() != property.Blob {
		return domobj.Object{}, fmt.Errorf("image property %q must be a blob property of %s: %w",
			imageProperty, col.Name(), domain.ErrInvalidSchema)
	}

	img, err := media.Load(path)
	if err != nil {
		return domobj.Object{}, fmt.Errorf("load image %s: %w", path, err)
	}

	all := maps.Clone(props)
	if all == nil {
		all = make(map[string]any, 1)
	}
	all[imageProperty] = img.Base64

	obj, err := domobj.New("", all, nil)
	if err != nil {
		return domobj.Object{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return s.Insert(ctx, col.Name(), obj)
}

// Update merges properties into an existing object (PATCH semantics).
func (s *Service) Update(ctx context.Context, collection string, obj domobj.Object) error {
	col, err := s.prepare(ctx, collection, obj.Properties())
	if err != nil {
		return err
	}
	if obj.ID() == "" {
		return fmt.Errorf("%w: object id is required", domain.ErrInvalidRequest)
	}

	if s.needsVector(col, obj) && touchesVectorizable(col, obj.Properties()) {
		current, err := s.repo.Get(ctx, col.Name(), obj.ID(), false)
		if err != nil {
			return fmt.Errorf("get object: %w", err)
		}
		merged := make(map[string]any, len(current.Properties())+len(obj.Properties()))
		maps.Copy(merged, current.Properties())
		maps.Copy(merged, obj.Properties())
		vec, err := s.embed(ctx, col, merged)
		if err != nil {
			return err
		}
		if vec != nil {
			obj = obj.WithVector(vec)
		}
	}

	if err := s.repo.Update(ctx, col.Name(), obj, true); err != nil {
		return fmt.Errorf("update object: %w", err)
	}
	return nil
}

// Replace overwrites an existing object (PUT semantics).
func (s *Service) Replace(ctx context.Context, collection string, obj domobj.Object) error {
	col, err := s.prepare(ctx, collection, obj.Properties())
	if err != nil {
		return err
	}
	if obj.ID() == "" {
		return fmt.Errorf("%w: object id is required", domain.ErrInvalidRequest)
	}
	if obj, err = s.vectorize(ctx, col, obj); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, col.Name(), obj, false); err != nil {
		return fmt.Errorf("replace object: %w", err)
	}
	return nil
}

// Get retrieves an object, optionally with its vector.
func (s *Service) Get(ctx context.Context, collection, id string, withVector bool) (domobj.Object, error) {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return domobj.Object{}, fmt.Errorf("get collection: %w", err)
	}
	obj, err := s.repo.Get(ctx, col.Name(), id, withVector)
	if err != nil {
		return domobj.Object{}, fmt.Errorf("get object: %w", err)
	}
	return obj, nil
}

// Exists reports whether an object is present.
func (s *Service) Exists(ctx context.Context, collection, id string) (bool, error) {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return false, fmt.Errorf("get collection: %w", err)
	}
	ok, err := s.repo.Exists(ctx, col.Name(), id)
	if err != nil {
		return false, fmt.Errorf("check object: %w", err)
	}
	return ok, nil
}

// Delete removes an object.
func (s *Service) Delete(ctx context.Context, collection, id string) error {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}
	if err := s.repo.Delete(ctx, col.Name(), id); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *Service) prepare(ctx context.Context, collection string, props map[string]any) (domcol.Collection, error) {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return domcol.Collection{}, fmt.Errorf("get collection: %w", err)
	}
	if err := col.CheckProperties(props); err != nil {
		return domcol.Collection{}, fmt.Errorf("%w: %w", domain.ErrInvalidSchema, err)
	}
	return col, nil
}

func (s *Service) needsVector(col domcol.Collection, obj domobj.Object) bool {
	return s.embedder != nil && col.Vectorizer().IsNone() && !obj.HasVector()
}

func (s *Service) vectorize(ctx context.Context, col domcol.Collection, obj domobj.Object) (domobj.Object, error) {
	if !s.needsVector(col, obj) {
		return obj, nil
	}
	vec, err := s.embed(ctx, col, obj.Properties())
	if err != nil {
		return domobj.Object{}, err
	}
	if vec == nil {
		return obj, nil
	}
	return obj.WithVector(vec), nil
}

// embed returns nil when the properties carry no vectorizable text.
func (s *Service) embed(ctx context.Context, col domcol.Collection, props map[string]any) ([]float32, error) {
	text := col.EmbeddingText(props)
	if text == "" {
		return nil, nil
	}
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize object: %w", err)
	}
	return res.Embedding, nil
}

func touchesVectorizable(col domcol.Collection, props map[string]any) bool {
	for _, name := range col.VectorizableProperties() {
		if _, ok := props[name]; ok {
			return true
		}
	}
	return false
}
