package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// --- Create ---

func TestCreate_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	col := testCollection(t)

	var created *models.Class
	ms.createFn = func(_ context.Context, c *models.Class) error {
		created = c
		return nil
	}

	if err := repo.Create(context.Background(), col); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || created.Class != "Product" || created.Vectorizer != "multi2vec-clip" {
		t.Fatalf("unexpected class: %+v", created)
	}
	if len(created.Properties) != 3 {
		t.Errorf("properties = %d, want 3", len(created.Properties))
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	err := repo.Create(context.Background(), testCollection(t))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_ServerRejects(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createFn = func(_ context.Context, _ *models.Class) error {
		return &db.Error{Op: db.OpCreateClass, Err: db.ErrInvalid}
	}

	err := repo.Create(context.Background(), testCollection(t))
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

// --- Get ---

func TestGet_RoundTripsSchema(t *testing.T) {
	repo, ms := newTestRepo(t)
	col := testCollection(t)
	class := toClass(col)
	ms.getFn = func(_ context.Context, _ string) (*models.Class, error) { return class, nil }

	got, err := repo.Get(context.Background(), "Product")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name() != "Product" || got.Description() != "catalog" {
		t.Errorf("got %s / %s", got.Name(), got.Description())
	}
	if got.Vectorizer().Module() != "multi2vec-clip" || !got.Vectorizer().SupportsImage() {
		t.Errorf("vectorizer = %+v", got.Vectorizer())
	}
	if len(got.Vectorizer().ImageFields()) != 1 || got.Vectorizer().ImageFields()[0] != "image" {
		t.Errorf("image fields = %v", got.Vectorizer().ImageFields())
	}
	if got.Generative() == nil || got.Generative().Model() != "gpt-4o" {
		t.Errorf("generative = %+v", got.Generative())
	}
	if got.Reranker() != nil {
		t.Error("reranker should be nil")
	}
	sku, ok := got.Property("sku")
	if !ok || !sku.SkipVectorization() {
		t.Errorf("sku skip flag lost: %+v", sku)
	}
	title, _ := got.Property("title")
	if title.Tokenization() != property.TokenizationWord {
		t.Errorf("tokenization = %q", title.Tokenization())
	}
}

func TestGet_Cached(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	for range 3 {
		if _, err := repo.Get(ctx, "Article"); err != nil {
			t.Fatal(err)
		}
	}
	if ms.getCalls != 1 {
		t.Errorf("GetClass called %d times, want 1", ms.getCalls)
	}

	if err := repo.AddProperty(ctx, testCollection(t), mustProp(t, "extra")); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(ctx, "Product"); err != nil {
		t.Fatal(err)
	}
	if ms.getCalls != 2 {
		t.Errorf("GetClass called %d times after invalidation, want 2", ms.getCalls)
	}
}

func TestGet_NoCacheWhenTTLZero(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, 0)
	for range 2 {
		_, _ = repo.Get(context.Background(), "Article")
	}
	if ms.getCalls != 2 {
		t.Errorf("GetClass called %d times, want 2", ms.getCalls)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _ string) (*models.Class, error) {
		return nil, &db.Error{Op: db.OpGetClass, Err: db.ErrClassNotFound}
	}

	_, err := repo.Get(context.Background(), "Missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_LegacyEmptyVectorizer(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, name string) (*models.Class, error) {
		return &models.Class{Class: name, Properties: []*models.Property{
			{Name: "body", DataType: []string{"text"}},
			{Name: "broken"},
		}}, nil
	}

	got, err := repo.Get(context.Background(), "Old")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Vectorizer().IsNone() {
		t.Error("empty vectorizer should read as none")
	}
	if len(got.Properties()) != 1 {
		t.Errorf("properties without a data type are skipped, got %d", len(got.Properties()))
	}
}

// --- List ---

func TestList_SortedByName(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.listFn = func(_ context.Context) ([]*models.Class, error) {
		return []*models.Class{{Class: "Zeta"}, nil, {Class: "Alpha"}}, nil
	}

	cols, err := repo.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || cols[0].Name() != "Alpha" || cols[1].Name() != "Zeta" {
		t.Errorf("unexpected order: %v", cols)
	}
}

// --- Delete ---

func TestDelete_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	var deleted bool
	ms.deleteFn = func(_ context.Context, _ string) error {
		deleted = true
		return nil
	}

	err := repo.Delete(context.Background(), "Missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if deleted {
		t.Error("DeleteClass must not be called for a missing class")
	}
}

func TestDelete_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	if err := repo.Delete(context.Background(), "Article"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- AddProperty ---

func TestAddProperty_SkipFlagUsesVectorizerKey(t *testing.T) {
	repo, ms := newTestRepo(t)
	var sent *models.Property
	ms.addPropertyFn = func(_ context.Context, class string, p *models.Property) error {
		if class != "Product" {
			t.Errorf("class = %s", class)
		}
		sent = p
		return nil
	}

	p, err := property.New("notes", property.Text, property.Options{SkipVectorization: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.AddProperty(context.Background(), testCollection(t), p); err != nil {
		t.Fatal(err)
	}
	cfg, ok := sent.ModuleConfig.(map[string]any)
	if !ok {
		t.Fatalf("module config = %T", sent.ModuleConfig)
	}
	if _, ok := cfg["multi2vec-clip"]; !ok {
		t.Errorf("skip config should be keyed by vectorizer, got %v", cfg)
	}
}

func mustProp(t *testing.T, name string) property.Property {
	t.Helper()
	p, err := property.New(name, property.Text, property.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return p
}
