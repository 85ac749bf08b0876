package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// --- Mocks ---

type mockRepo struct {
	created    domcol.Collection
	added      property.Property
	getResult  domcol.Collection
	listResult []domcol.Collection
	exists     bool
	gotName    string
	createErr  error
	getErr     error
	listErr    error
	deleteErr  error
	addErr     error
}

func (m *mockRepo) Create(_ context.Context, col domcol.Collection) error {
	m.created = col
	return m.createErr
}

func (m *mockRepo) Get(_ context.Context, name string) (domcol.Collection, error) {
	m.gotName = name
	return m.getResult, m.getErr
}

func (m *mockRepo) List(_ context.Context) ([]domcol.Collection, error) {
	return m.listResult, m.listErr
}

func (m *mockRepo) Exists(_ context.Context, name string) (bool, error) {
	m.gotName = name
	return m.exists, nil
}

func (m *mockRepo) Delete(_ context.Context, name string) error {
	m.gotName = name
	return m.deleteErr
}

func (m *mockRepo) AddProperty(_ context.Context, _ domcol.Collection, p property.Property) error {
	m.added = p
	return m.addErr
}

func articleDef() Definition {
	return Definition{
		Name:        "article",
		Description: "News articles",
		Properties: []PropertyDef{
			{Name: "title", DataType: "text"},
			{Name: "body", DataType: "text", Tokenization: "word"},
			{Name: "year", DataType: "int"},
		},
		Vectorizer: VectorizerDef{Name: "text2vec-openai", Model: "text-embedding-3-small"},
		Generative: &ModuleDef{Name: "generative-openai", Model: "gpt-4o-mini"},
	}
}

// --- Tests ---

func TestCreate_Success(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	col, err := svc.Create(context.Background(), articleDef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "Article" {
		t.Errorf("expected normalized name 'Article', got %q", col.Name())
	}
	if len(repo.created.Properties()) != 3 {
		t.Errorf("expected 3 properties stored, got %d", len(repo.created.Properties()))
	}
	if col.Generative() == nil || col.Generative().Model() != "gpt-4o-mini" {
		t.Errorf("generative = %+v", col.Generative())
	}
	if col.Vectorizer().Model() != "text-embedding-3-small" {
		t.Errorf("vectorizer model = %q", col.Vectorizer().Model())
	}
}

func TestCreate_InvalidDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Definition)
	}{
		{"bad name", func(d *Definition) { d.Name = "1abc" }},
		{"reserved property", func(d *Definition) { d.Properties[0].Name = "id" }},
		{"bad data type", func(d *Definition) { d.Properties[0].DataType = "varchar" }},
		{"tokenization on int", func(d *Definition) { d.Properties[2].Tokenization = "word" }},
		{"unknown vectorizer", func(d *Definition) { d.Vectorizer.Name = "word2vec" }},
		{"generative wrong family", func(d *Definition) { d.Generative.Name = "reranker-cohere" }},
		{"reranker wrong family", func(d *Definition) { d.Reranker = &ModuleDef{Name: "generative-openai"} }},
		{"image vectorizer without blob", func(d *Definition) {
			d.Vectorizer = VectorizerDef{Name: "multi2vec-clip", ImageFields: []string{"title"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			svc := New(repo)
			def := articleDef()
			tt.mutate(&def)

			_, err := svc.Create(context.Background(), def)
			if !errors.Is(err, domain.ErrInvalidSchema) {
				t.Fatalf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	repo := &mockRepo{createErr: domain.ErrAlreadyExists}
	svc := New(repo)

	_, err := svc.Create(context.Background(), articleDef())
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreate_NoVectorizer(t *testing.T) {
	svc := New(&mockRepo{})
	def := articleDef()
	def.Vectorizer = VectorizerDef{}

	col, err := svc.Create(context.Background(), def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !col.Vectorizer().IsNone() {
		t.Errorf("expected vectorizer none, got %q", col.Vectorizer().Module())
	}
}

func TestGet_NormalizesName(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo)

	if _, err := svc.Get(context.Background(), "article"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.gotName != "Article" {
		t.Errorf("repo got %q, want Article", repo.gotName)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockRepo{getErr: domain.ErrNotFound}
	svc := New(repo)

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList_Error(t *testing.T) {
	repo := &mockRepo{listErr: domain.ErrUnavailable}
	svc := New(repo)

	if _, err := svc.List(context.Background()); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestExists(t *testing.T) {
	repo := &mockRepo{exists: true}
	svc := New(repo)

	ok, err := svc.Exists(context.Background(), "article")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if repo.gotName != "Article" {
		t.Errorf("repo got %q", repo.gotName)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockRepo{deleteErr: domain.ErrNotFound}
	svc := New(repo)

	if err := svc.Delete(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddProperty(t *testing.T) {
	existing, err := articleDef().Build()
	if err != nil {
		t.Fatal(err)
	}
	repo := &mockRepo{getResult: existing}
	svc := New(repo)

	col, err := svc.AddProperty(context.Background(), "Article", PropertyDef{Name: "author", DataType: "text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.added.Name() != "author" {
		t.Errorf("added = %q", repo.added.Name())
	}
	if _, ok := col.Property("author"); !ok {
		t.Error("returned collection lacks the new property")
	}
}

func TestAddProperty_Duplicate(t *testing.T) {
	existing, err := articleDef().Build()
	if err != nil {
		t.Fatal(err)
	}
	repo := &mockRepo{getResult: existing}
	svc := New(repo)

	_, err = svc.AddProperty(context.Background(), "Article", PropertyDef{Name: "Title", DataType: "text"})
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if repo.added.Name() != "" {
		t.Error("repository must not be called for an invalid property")
	}
}

type mockModules struct {
	modules []string
	err     error
	calls   int
}

func (m *mockModules) Modules(context.Context) ([]string, error) {
	m.calls++
	return m.modules, m.err
}

func TestCreate_ModuleCheck(t *testing.T) {
	tests := []struct {
		name    string
		enabled []string
		lookErr error
		wantErr bool
	}{
		{"all enabled", []string{"text2vec-openai", "generative-openai"}, nil, false},
		{"generative missing", []string{"text2vec-openai"}, nil, true},
		{"vectorizer missing", []string{"generative-openai"}, nil, true},
		{"lookup failure does not block", nil, domain.ErrUnavailable, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			svc := New(repo, WithModuleCheck(&mockModules{modules: tt.enabled, err: tt.lookErr}))

			_, err := svc.Create(context.Background(), articleDef())
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidSchema) {
					t.Fatalf("expected ErrInvalidSchema, got %v", err)
				}
				if repo.created.Name() != "" {
					t.Error("class must not be created")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreate_ModuleCheckSkippedWithoutModules(t *testing.T) {
	mods := &mockModules{}
	svc := New(&mockRepo{}, WithModuleCheck(mods))
	def := articleDef()
	def.Vectorizer = VectorizerDef{}
	def.Generative = nil

	if _, err := svc.Create(context.Background(), def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mods.calls != 0 {
		t.Errorf("module lookup made for a collection without modules")
	}
}

func TestEnsure_Existing(t *testing.T) {
	existing, err := articleDef().Build()
	if err != nil {
		t.Fatal(err)
	}
	repo := &mockRepo{getResult: existing}
	svc := New(repo)

	col, created, err := svc.Ensure(context.Background(), articleDef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || col.Name() != "Article" {
		t.Errorf("Ensure = %q, created=%v", col.Name(), created)
	}
	if repo.created.Name() != "" {
		t.Error("existing collection must not be recreated")
	}
}

func TestEnsure_Creates(t *testing.T) {
	repo := &mockRepo{getErr: domain.ErrNotFound}
	svc := New(repo)

	col, created, err := svc.Ensure(context.Background(), articleDef())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || col.Name() != "Article" || repo.created.Name() != "Article" {
		t.Errorf("Ensure = %q, created=%v", col.Name(), created)
	}
}

func TestEnsure_GetFailure(t *testing.T) {
	svc := New(&mockRepo{getErr: domain.ErrUnavailable})

	if _, _, err := svc.Ensure(context.Background(), articleDef()); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
