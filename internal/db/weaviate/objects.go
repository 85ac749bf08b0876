package weaviate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
)

// CreateObject inserts one object. Weaviate assigns an id when obj.ID is empty.
func (c *Client) CreateObject(ctx context.Context, obj *models.Object) (*models.Object, error) {
	if err := c.guard(db.OpCreateObject); err != nil {
		return nil, err
	}
	creator := c.wv.Data().Creator().
		WithClassName(obj.Class).
		WithProperties(obj.Properties)
	if obj.ID != "" {
		creator = creator.WithID(obj.ID.String())
	}
	if len(obj.Vector) > 0 {
		creator = creator.WithVector(obj.Vector)
	}

	start := time.Now()
	w, err := creator.Do(ctx)
	metrics.ObserveDB(db.OpCreateObject, start, err)
	if err != nil {
		return nil, wrap(db.OpCreateObject, err)
	}
	if w == nil || w.Object == nil {
		return obj, nil
	}
	return w.Object, nil
}

// UpdateObject patches (merge=true) or replaces an object.
func (c *Client) UpdateObject(ctx context.Context, obj *models.Object, merge bool) error {
	if err := c.guard(db.OpUpdateObject); err != nil {
		return err
	}
	u := c.wv.Data().Updater().
		WithClassName(obj.Class).
		WithID(obj.ID.String()).
		WithProperties(obj.Properties)
	if merge {
		u = u.WithMerge()
	}
	if len(obj.Vector) > 0 {
		u = u.WithVector(obj.Vector)
	}

	start := time.Now()
	err := u.Do(ctx)
	metrics.ObserveDB(db.OpUpdateObject, start, err)
	return wrap(db.OpUpdateObject, err)
}

// DeleteObject removes one object.
func (c *Client) DeleteObject(ctx context.Context, class, id string) error {
	if err := c.guard(db.OpDeleteObject); err != nil {
		return err
	}
	start := time.Now()
	err := c.wv.Data().Deleter().WithClassName(class).WithID(id).Do(ctx)
	metrics.ObserveDB(db.OpDeleteObject, start, err)
	return wrap(db.OpDeleteObject, err)
}

// ObjectExists reports whether an object id is present in a class.
func (c *Client) ObjectExists(ctx context.Context, class, id string) (bool, error) {
	if err := c.guard(db.OpObjectExists); err != nil {
		return false, err
	}
	start := time.Now()
	ok, err := c.wv.Data().Checker().WithClassName(class).WithID(id).Do(ctx)
	metrics.ObserveDB(db.OpObjectExists, start, err)
	if err != nil {
		return false, wrap(db.OpObjectExists, err)
	}
	return ok, nil
}

// GetObject fetches one object by id.
func (c *Client) GetObject(ctx context.Context, class, id string, withVector bool) (*models.Object, error) {
	if err := c.guard(db.OpGetObject); err != nil {
		return nil, err
	}
	g := c.wv.Data().ObjectsGetter().WithClassName(class).WithID(id)
	if withVector {
		g = g.WithVector()
	}

	start := time.Now()
	objs, err := g.Do(ctx)
	metrics.ObserveDB(db.OpGetObject, start, err)
	if err != nil {
		return nil, wrap(db.OpGetObject, err)
	}
	if len(objs) == 0 || objs[0] == nil {
		return nil, &db.Error{Op: db.OpGetObject, Err: db.ErrObjectNotFound}
	}
	return objs[0], nil
}

// ListObjects returns one page of a class ordered by id, starting after q.After.
func (c *Client) ListObjects(ctx context.Context, q *db.ListQuery) ([]*models.Object, error) {
	if err := c.guard(db.OpListObjects); err != nil {
		return nil, err
	}
	g := c.wv.Data().ObjectsGetter().WithClassName(q.Class).WithLimit(q.Limit)
	if q.After != "" {
		g = g.WithAfter(q.After)
	}
	if q.WithVector {
		g = g.WithVector()
	}

	start := time.Now()
	objs, err := g.Do(ctx)
	metrics.ObserveDB(db.OpListObjects, start, err)
	if err != nil {
		return nil, wrap(db.OpListObjects, err)
	}
	return objs, nil
}

// BatchObjects sends objects through the batch endpoint.
// A request-level failure is returned as an error; per-object failures are reported in the items.
func (c *Client) BatchObjects(ctx context.Context, objs []*models.Object) ([]db.BatchItem, error) {
	if err := c.guard(db.OpBatchObjects); err != nil {
		return nil, err
	}
	if len(objs) == 0 {
		return nil, nil
	}

	start := time.Now()
	resp, err := c.wv.Batch().ObjectsBatcher().WithObjects(objs...).Do(ctx)
	metrics.ObserveDB(db.OpBatchObjects, start, err)
	if err != nil {
		return nil, wrap(db.OpBatchObjects, err)
	}
	if len(resp) != len(objs) {
		return nil, &db.Error{
			Op:  db.OpBatchObjects,
			Err: fmt.Errorf("batch returned %d results for %d objects", len(resp), len(objs)),
		}
	}

	items := make([]db.BatchItem, len(resp))
	for i := range resp {
		items[i] = db.BatchItem{ID: resp[i].ID.String(), Err: batchItemError(&resp[i])}
		if items[i].ID == "" {
			items[i].ID = objs[i].ID.String()
		}
	}
	return items, nil
}

func batchItemError(r *models.ObjectsGetResponse) error {
	if r.Result == nil || r.Result.Errors == nil || len(r.Result.Errors.Error) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(r.Result.Errors.Error))
	for _, e := range r.Result.Errors.Error {
		if e != nil {
			msgs = append(msgs, e.Message)
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// BatchDelete removes every object in a class that matches the filter.
func (c *Client) BatchDelete(ctx context.Context, q *db.DeleteQuery) (*db.DeleteResult, error) {
	if err := c.guard(db.OpBatchDelete); err != nil {
		return nil, err
	}
	if q.Filter.IsZero() {
		return nil, &db.Error{Op: db.OpBatchDelete, Err: fmt.Errorf("%w: filter is required", db.ErrInvalid)}
	}
	where, err := toWhere(q.Filter)
	if err != nil {
		return nil, &db.Error{Op: db.OpBatchDelete, Err: fmt.Errorf("%w: %w", db.ErrInvalid, err)}
	}

	start := time.Now()
	resp, err := c.wv.Batch().ObjectsBatchDeleter().
		WithClassName(q.Class).
		WithWhere(where).
		WithDryRun(q.DryRun).
		WithOutput("minimal").
		Do(ctx)
	metrics.ObserveDB(db.OpBatchDelete, start, err)
	if err != nil {
		return nil, wrap(db.OpBatchDelete, err)
	}
	out := &db.DeleteResult{}
	if resp != nil && resp.Results != nil {
		out.Matches = resp.Results.Matches
		out.Successful = resp.Results.Successful
		out.Failed = resp.Results.Failed
	}
	return out, nil
}
