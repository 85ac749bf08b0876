package object

import (
	"context"
	"testing"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	createFn      func(ctx context.Context, obj *models.Object) (*models.Object, error)
	updateFn      func(ctx context.Context, obj *models.Object, merge bool) error
	deleteFn      func(ctx context.Context, class, id string) error
	existsFn      func(ctx context.Context, class, id string) (bool, error)
	getFn         func(ctx context.Context, class, id string, withVector bool) (*models.Object, error)
	listFn        func(ctx context.Context, q *db.ListQuery) ([]*models.Object, error)
	batchFn       func(ctx context.Context, objs []*models.Object) ([]db.BatchItem, error)
	batchDeleteFn func(ctx context.Context, q *db.DeleteQuery) (*db.DeleteResult, error)
}

func (m *mockStore) CreateObject(ctx context.Context, obj *models.Object) (*models.Object, error) {
	if m.createFn != nil {
		return m.createFn(ctx, obj)
	}
	return obj, nil
}

func (m *mockStore) UpdateObject(ctx context.Context, obj *models.Object, merge bool) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, obj, merge)
	}
	return nil
}

func (m *mockStore) DeleteObject(ctx context.Context, class, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, class, id)
	}
	return nil
}

func (m *mockStore) ObjectExists(ctx context.Context, class, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, class, id)
	}
	return false, nil
}

func (m *mockStore) GetObject(ctx context.Context, class, id string, withVector bool) (*models.Object, error) {
	if m.getFn != nil {
		return m.getFn(ctx, class, id, withVector)
	}
	return nil, &db.Error{Op: db.OpGetObject, Err: db.ErrObjectNotFound}
}

func (m *mockStore) ListObjects(ctx context.Context, q *db.ListQuery) ([]*models.Object, error) {
	if m.listFn != nil {
		return m.listFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) BatchObjects(ctx context.Context, objs []*models.Object) ([]db.BatchItem, error) {
	if m.batchFn != nil {
		return m.batchFn(ctx, objs)
	}
	items := make([]db.BatchItem, len(objs))
	for i, o := range objs {
		items[i] = db.BatchItem{ID: o.ID.String()}
	}
	return items, nil
}

func (m *mockStore) BatchDelete(ctx context.Context, q *db.DeleteQuery) (*db.DeleteResult, error) {
	if m.batchDeleteFn != nil {
		return m.batchDeleteFn(ctx, q)
	}
	return &db.DeleteResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}
