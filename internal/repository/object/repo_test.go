package object

import (
	"context"
	"errors"
	"testing"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/batch"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
)

const id1 = "6f1e0c1a-9a8b-4c1d-8e2f-3a4b5c6d7e8f"

func testObject(t *testing.T, id string) domobj.Object {
	t.Helper()
	o, err := domobj.New(id, map[string]any{"title": "Cats"}, []float32{0.1, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestInsert_AssignsServerID(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createFn = func(_ context.Context, obj *models.Object) (*models.Object, error) {
		if obj.Class != "Article" {
			t.Errorf("class = %s", obj.Class)
		}
		if len(obj.Vector) != 2 {
			t.Errorf("vector not forwarded: %v", obj.Vector)
		}
		out := *obj
		out.ID = strfmt.UUID(id1)
		return &out, nil
	}

	got, err := repo.Insert(context.Background(), "Article", testObject(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID() != id1 {
		t.Errorf("ID() = %q, want %q", got.ID(), id1)
	}
}

func TestInsert_Duplicate(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createFn = func(_ context.Context, _ *models.Object) (*models.Object, error) {
		return nil, &db.Error{Op: db.OpCreateObject, Err: db.ErrObjectExists}
	}

	_, err := repo.Insert(context.Background(), "Article", testObject(t, id1))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestUpdate_MergeFlag(t *testing.T) {
	repo, ms := newTestRepo(t)
	var gotMerge bool
	ms.updateFn = func(_ context.Context, obj *models.Object, merge bool) error {
		if obj.ID.String() != id1 {
			t.Errorf("id = %s", obj.ID)
		}
		gotMerge = merge
		return nil
	}

	if err := repo.Update(context.Background(), "Article", testObject(t, id1), true); err != nil {
		t.Fatal(err)
	}
	if !gotMerge {
		t.Error("merge flag not forwarded")
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), "Article", id1, false)
	if !errors.Is(err, domain.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestGet_Hydrates(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, _, id string, withVector bool) (*models.Object, error) {
		if !withVector {
			t.Error("withVector not forwarded")
		}
		return &models.Object{
			ID:         strfmt.UUID(id),
			Properties: map[string]any{"title": "Cats"},
			Vector:     models.C11yVector{1, 2, 3},
		}, nil
	}

	got, err := repo.Get(context.Background(), "Article", id1, true)
	if err != nil {
		t.Fatal(err)
	}
	if got.Properties()["title"] != "Cats" || len(got.Vector()) != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestList_Cursor(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.listFn = func(_ context.Context, q *db.ListQuery) ([]*models.Object, error) {
		if q.After == "" {
			return []*models.Object{{ID: "a"}, {ID: "b"}}, nil
		}
		return []*models.Object{{ID: "c"}}, nil
	}

	page, err := repo.List(context.Background(), "Article", "", 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Objects) != 2 || page.NextCursor != "b" {
		t.Errorf("first page = %+v", page)
	}

	page, err = repo.List(context.Background(), "Article", page.NextCursor, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Objects) != 1 || page.NextCursor != "" {
		t.Errorf("last page = %+v", page)
	}
}

func TestBatchInsert_PerItemResults(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.batchFn = func(_ context.Context, objs []*models.Object) ([]db.BatchItem, error) {
		return []db.BatchItem{
			{ID: objs[0].ID.String()},
			{ID: objs[1].ID.String(), Err: errors.New("invalid property")},
		}, nil
	}

	results, err := repo.BatchInsert(context.Background(), "Article", []domobj.Object{
		testObject(t, id1), testObject(t, "7f1e0c1a-9a8b-4c1d-8e2f-3a4b5c6d7e8f"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Status() != batch.StatusOK || results[1].Status() != batch.StatusError {
		t.Errorf("results = %+v", results)
	}
}

func TestBatchInsert_RequestFailure(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.batchFn = func(_ context.Context, _ []*models.Object) ([]db.BatchItem, error) {
		return nil, &db.Error{Op: db.OpBatchObjects, Err: db.ErrUnavailable}
	}

	_, err := repo.BatchInsert(context.Background(), "Article", []domobj.Object{testObject(t, id1)})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDeleteMany(t *testing.T) {
	repo, ms := newTestRepo(t)
	f, _ := filter.Where("title", filter.Equal, filter.Text("Cats"))
	ms.batchDeleteFn = func(_ context.Context, q *db.DeleteQuery) (*db.DeleteResult, error) {
		if !q.DryRun || q.Filter.IsZero() {
			t.Errorf("query = %+v", q)
		}
		return &db.DeleteResult{Matches: 3, Successful: 0}, nil
	}

	sum, err := repo.DeleteMany(context.Background(), "Article", f, true)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Matches != 3 || !sum.DryRun {
		t.Errorf("summary = %+v", sum)
	}
}
