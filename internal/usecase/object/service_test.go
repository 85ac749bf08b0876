package object

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
)

const id1 = "6f1e0c1a-9a8b-4c1d-8e2f-3a4b5c6d7e8f"

// --- Mocks ---

type mockRepo struct {
	inserted domobj.Object
	updated  domobj.Object
	merge    bool
	current  domobj.Object
	getErr   error
	err      error
}

func (m *mockRepo) Insert(_ context.Context, _ string, obj domobj.Object) (domobj.Object, error) {
	m.inserted = obj
	return obj, m.err
}

func (m *mockRepo) Update(_ context.Context, _ string, obj domobj.Object, merge bool) error {
	m.updated, m.merge = obj, merge
	return m.err
}

func (m *mockRepo) Delete(_ context.Context, _, _ string) error { return m.err }

func (m *mockRepo) Exists(_ context.Context, _, _ string) (bool, error) { return m.err == nil, m.err }

func (m *mockRepo) Get(_ context.Context, _, _ string, _ bool) (domobj.Object, error) {
	return m.current, m.getErr
}

type mockCollReader struct {
	col domcol.Collection
	err error
}

func (m *mockCollReader) Get(_ context.Context, _ string) (domcol.Collection, error) {
	return m.col, m.err
}

type mockEmbedder struct {
	texts []string
	err   error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, Usage: domain.Usage{TotalTokens: 4}}, nil
}

func schema(vectorizer domcol.Vectorizer) domcol.Collection {
	return domcol.Reconstruct("Article", "", []property.Property{
		property.Reconstruct("title", property.Text, property.Options{}),
		property.Reconstruct("body", property.Text, property.Options{}),
		property.Reconstruct("year", property.Int, property.Options{}),
		property.Reconstruct("image", property.Blob, property.Options{}),
	}, vectorizer, nil, nil)
}

func serverVectorizer() domcol.Vectorizer {
	return domcol.ReconstructVectorizer("text2vec-openai", domcol.VectorizerOptions{})
}

func newObject(t *testing.T, id string, props map[string]any) domobj.Object {
	t.Helper()
	o, err := domobj.New(id, props, nil)
	if err != nil {
		t.Fatal(err)
	}
	return o
}

// --- Tests ---

func TestInsert_GeneratesIDAndEmbeds(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{}
	svc := New(repo, &mockCollReader{col: schema(domcol.NoVectorizer())}, emb)

	got, err := svc.Insert(context.Background(), "article", newObject(t, "", map[string]any{
		"title": "Cats", "body": "Cats purr.", "year": 2024,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() == "" {
		t.Error("expected a generated id")
	}
	if !repo.inserted.HasVector() {
		t.Error("expected client-side vector")
	}
	if len(emb.texts) != 1 || emb.texts[0] != "Cats\nCats purr." {
		t.Errorf("embedded texts = %q", emb.texts)
	}
}

func TestInsert_ServerVectorizerSkipsEmbedding(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{}
	svc := New(repo, &mockCollReader{col: schema(serverVectorizer())}, emb)

	if _, err := svc.Insert(context.Background(), "Article", newObject(t, id1, map[string]any{"title": "x"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb.texts) != 0 {
		t.Error("embedder must not be called for a server-side vectorizer")
	}
	if repo.inserted.ID() != id1 {
		t.Errorf("id = %q", repo.inserted.ID())
	}
}

func TestInsert_ExplicitVectorKept(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{}
	svc := New(repo, &mockCollReader{col: schema(domcol.NoVectorizer())}, emb)

	obj, err := domobj.New("", map[string]any{"title": "x"}, []float32{9})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Insert(context.Background(), "Article", obj); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb.texts) != 0 || repo.inserted.Vector()[0] != 9 {
		t.Error("explicit vector must be stored as is")
	}
}

func TestInsert_NoEmbedder(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockCollReader{col: schema(domcol.NoVectorizer())}, nil)

	if _, err := svc.Insert(context.Background(), "Article", newObject(t, "", map[string]any{"title": "x"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.inserted.HasVector() {
		t.Error("expected no vector without an embedder")
	}
}

func TestInsert_UnknownProperty(t *testing.T) {
	svc := New(&mockRepo{}, &mockCollReader{col: schema(serverVectorizer())}, nil)

	_, err := svc.Insert(context.Background(), "Article", newObject(t, "", map[string]any{"author": "x"}))
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestInsert_CollectionNotFound(t *testing.T) {
	svc := New(&mockRepo{}, &mockCollReader{err: domain.ErrNotFound}, nil)

	_, err := svc.Insert(context.Background(), "Missing", newObject(t, "", map[string]any{"title": "x"}))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsert_EmbedError(t *testing.T) {
	emb := &mockEmbedder{err: domain.ErrRateLimited}
	svc := New(&mockRepo{}, &mockCollReader{col: schema(domcol.NoVectorizer())}, emb)

	_, err := svc.Insert(context.Background(), "Article", newObject(t, "", map[string]any{"title": "x"}))
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestUpdate_ReembedsMergedProperties(t *testing.T) {
	repo := &mockRepo{current: domobj.Reconstruct(id1, map[string]any{"title": "Old", "body": "Body"}, nil)}
	emb := &mockEmbedder{}
	svc := New(repo, &mockCollReader{col: schema(domcol.NoVectorizer())}, emb)

	if err := svc.Update(context.Background(), "Article", newObject(t, id1, map[string]any{"title": "New"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.merge {
		t.Error("expected merge update")
	}
	if len(emb.texts) != 1 || emb.texts[0] != "New\nBody" {
		t.Errorf("embedded texts = %q", emb.texts)
	}
	if !repo.updated.HasVector() {
		t.Error("expected refreshed vector")
	}
}

func TestUpdate_NonTextPropertyKeepsVector(t *testing.T) {
	repo := &mockRepo{}
	emb := &mockEmbedder{}
	svc := New(repo, &mockCollReader{col: schema(domcol.NoVectorizer())}, emb)

	if err := svc.Update(context.Background(), "Article", newObject(t, id1, map[string]any{"year": 2020})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emb.texts) != 0 {
		t.Error("embedder must not be called when no text property changes")
	}
}

func TestUpdate_RequiresID(t *testing.T) {
	svc := New(&mockRepo{}, &mockCollReader{col: schema(serverVectorizer())}, nil)

	err := svc.Update(context.Background(), "Article", newObject(t, "", map[string]any{"title": "x"}))
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestReplace(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockCollReader{col: schema(serverVectorizer())}, nil)

	if err := svc.Replace(context.Background(), "Article", newObject(t, id1, map[string]any{"title": "x"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.merge {
		t.Error("replace must not merge")
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockRepo{getErr: domain.ErrObjectNotFound}
	svc := New(repo, &mockCollReader{col: schema(serverVectorizer())}, nil)

	if _, err := svc.Get(context.Background(), "Article", id1, false); !errors.Is(err, domain.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestInsertImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		t.Fatal(err)
	}
	repo := &mockRepo{}
	svc := New(repo, &mockCollReader{col: schema(serverVectorizer())}, nil)

	_, err := svc.InsertImage(context.Background(), "Article", "image", path, map[string]any{"title": "Cat"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b64, ok := repo.inserted.Properties()["image"].(string)
	if !ok || b64 == "" {
		t.Fatalf("image property = %v", repo.inserted.Properties()["image"])
	}
	if repo.inserted.Properties()["title"] != "Cat" {
		t.Error("extra properties lost")
	}
}

func TestInsertImage_NotBlob(t *testing.T) {
	svc := New(&mockRepo{}, &mockCollReader{col: schema(serverVectorizer())}, nil)

	_, err := svc.InsertImage(context.Background(), "Article", "title", "/nonexistent.png", nil)
	if !errors.Is(err, domain.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
}

func TestInsertImage_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text"), 0o600); err != nil {
		t.Fatal(err)
	}
	svc := New(&mockRepo{}, &mockCollReader{col: schema(serverVectorizer())}, nil)

	_, err := svc.InsertImage(context.Background(), "Article", "image", path, nil)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
