package object

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/batch"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
)

// store is the consumer interface for objects (ISP).
//
//nolint:interfacebloat // object repo covers CRUD, paging and batch endpoints
type store interface {
	CreateObject(ctx context.Context, obj *models.Object) (*models.Object, error)
	UpdateObject(ctx context.Context, obj *models.Object, merge bool) error
	DeleteObject(ctx context.Context, class, id string) error
	ObjectExists(ctx context.Context, class, id string) (bool, error)
	GetObject(ctx context.Context, class, id string, withVector bool) (*models.Object, error)
	ListObjects(ctx context.Context, q *db.ListQuery) ([]*models.Object, error)
	BatchObjects(ctx context.Context, objs []*models.Object) ([]db.BatchItem, error)
	BatchDelete(ctx context.Context, q *db.DeleteQuery) (*db.DeleteResult, error)
}

// Repo implements the object usecase repositories over Weaviate.
type Repo struct {
	store store
}

// New creates an object repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert stores a new object and returns it with its assigned id.
func (r *Repo) Insert(ctx context.Context, class string, obj domobj.Object) (domobj.Object, error) {
	created, err := r.store.CreateObject(ctx, toModel(class, obj))
	if err != nil {
		return domobj.Object{}, fmt.Errorf("create object in %s: %w", class, db.Translate(err))
	}
	id := created.ID.String()
	if id == "" {
		id = obj.ID()
	}
	return obj.WithID(id), nil
}

// Update merges (PATCH) or replaces (PUT) an existing object.
func (r *Repo) Update(ctx context.Context, class string, obj domobj.Object, merge bool) error {
	if err := r.store.UpdateObject(ctx, toModel(class, obj), merge); err != nil {
		return fmt.Errorf("update object %s/%s: %w", class, obj.ID(), db.Translate(err))
	}
	return nil
}

// Delete removes one object.
func (r *Repo) Delete(ctx context.Context, class, id string) error {
	if err := r.store.DeleteObject(ctx, class, id); err != nil {
		return fmt.Errorf("delete object %s/%s: %w", class, id, db.Translate(err))
	}
	return nil
}

// Exists reports whether the object is present.
func (r *Repo) Exists(ctx context.Context, class, id string) (bool, error) {
	ok, err := r.store.ObjectExists(ctx, class, id)
	if err != nil {
		return false, fmt.Errorf("check object %s/%s: %w", class, id, db.Translate(err))
	}
	return ok, nil
}

// Get fetches one object by id.
func (r *Repo) Get(ctx context.Context, class, id string, withVector bool) (domobj.Object, error) {
	m, err := r.store.GetObject(ctx, class, id, withVector)
	if err != nil {
		return domobj.Object{}, fmt.Errorf("get object %s/%s: %w", class, id, db.Translate(err))
	}
	return fromModel(m), nil
}

// List returns one page ordered by id. A full page yields a cursor for the next one.
func (r *Repo) List(ctx context.Context, class, after string, limit int, withVector bool) (domobj.Page, error) {
	objs, err := r.store.ListObjects(ctx, &db.ListQuery{Class: class, After: after, Limit: limit, WithVector: withVector})
	if err != nil {
		return domobj.Page{}, fmt.Errorf("list objects in %s: %w", class, db.Translate(err))
	}

	page := domobj.Page{Objects: make([]domobj.Object, 0, len(objs))}
	for _, m := range objs {
		if m != nil {
			page.Objects = append(page.Objects, fromModel(m))
		}
	}
	if limit > 0 && len(objs) == limit && len(page.Objects) > 0 {
		page.NextCursor = page.Objects[len(page.Objects)-1].ID()
	}
	return page, nil
}

// BatchInsert sends one chunk through the batch endpoint and reports a result per input object.
func (r *Repo) BatchInsert(ctx context.Context, class string, objs []domobj.Object) ([]batch.Result, error) {
	wire := make([]*models.Object, len(objs))
	for i, o := range objs {
		wire[i] = toModel(class, o)
	}

	items, err := r.store.BatchObjects(ctx, wire)
	if err != nil {
		return nil, fmt.Errorf("batch insert into %s: %w", class, db.Translate(err))
	}

	results := make([]batch.Result, len(items))
	for i, it := range items {
		if it.Err != nil {
			results[i] = batch.Failed(it.ID, batch.StageWrite, it.Err)
			continue
		}
		results[i] = batch.Stored(it.ID)
	}
	return results, nil
}

// DeleteMany removes every object matching a bound filter.
func (r *Repo) DeleteMany(ctx context.Context, class string, f filter.Node, dryRun bool) (batch.DeleteSummary, error) {
	res, err := r.store.BatchDelete(ctx, &db.DeleteQuery{Class: class, Filter: f, DryRun: dryRun})
	if err != nil {
		return batch.DeleteSummary{}, fmt.Errorf("delete from %s: %w", class, db.Translate(err))
	}
	return batch.DeleteSummary{
		Matches:    res.Matches,
		Successful: res.Successful,
		Failed:     res.Failed,
		DryRun:     dryRun,
	}, nil
}
