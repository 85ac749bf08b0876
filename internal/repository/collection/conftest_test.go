package collection

import (
	"context"
	"testing"
	"time"

	"github.com/weaviate/weaviate/entities/models"

	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	listFn        func(ctx context.Context) ([]*models.Class, error)
	getFn         func(ctx context.Context, name string) (*models.Class, error)
	existsFn      func(ctx context.Context, name string) (bool, error)
	createFn      func(ctx context.Context, class *models.Class) error
	deleteFn      func(ctx context.Context, name string) error
	addPropertyFn func(ctx context.Context, class string, prop *models.Property) error

	getCalls int
}

func (m *mockStore) ListClasses(ctx context.Context) ([]*models.Class, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockStore) GetClass(ctx context.Context, name string) (*models.Class, error) {
	m.getCalls++
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return &models.Class{Class: name, Vectorizer: "none"}, nil
}

func (m *mockStore) ClassExists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CreateClass(ctx context.Context, class *models.Class) error {
	if m.createFn != nil {
		return m.createFn(ctx, class)
	}
	return nil
}

func (m *mockStore) DeleteClass(ctx context.Context, name string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, name)
	}
	return nil
}

func (m *mockStore) AddProperty(ctx context.Context, class string, prop *models.Property) error {
	if m.addPropertyFn != nil {
		return m.addPropertyFn(ctx, class, prop)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, time.Minute), ms
}

func testCollection(t *testing.T) domcol.Collection {
	t.Helper()
	title, err := property.New("title", property.Text, property.Options{Tokenization: property.TokenizationWord})
	if err != nil {
		t.Fatal(err)
	}
	image, err := property.New("image", property.Blob, property.Options{})
	if err != nil {
		t.Fatal(err)
	}
	internal, err := property.New("sku", property.Text, property.Options{SkipVectorization: true})
	if err != nil {
		t.Fatal(err)
	}
	vec, err := domcol.NewVectorizer("multi2vec-clip", domcol.VectorizerOptions{
		ImageFields: []string{"image"},
		TextFields:  []string{"title"},
	})
	if err != nil {
		t.Fatal(err)
	}
	gen, err := domcol.NewGenerative("generative-openai", "gpt-4o", nil)
	if err != nil {
		t.Fatal(err)
	}
	col, err := domcol.New("Product", "catalog", []property.Property{title, image, internal}, vec, &gen, nil)
	if err != nil {
		t.Fatal(err)
	}
	return col
}
