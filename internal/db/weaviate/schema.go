package weaviate

import (
	"context"
	"time"

	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
)

// ListClasses returns every class in the schema.
func (c *Client) ListClasses(ctx context.Context) ([]*models.Class, error) {
	if err := c.guard(db.OpListClasses); err != nil {
		return nil, err
	}
	start := time.Now()
	dump, err := c.wv.Schema().Getter().Do(ctx)
	metrics.ObserveDB(db.OpListClasses, start, err)
	if err != nil {
		return nil, wrap(db.OpListClasses, err)
	}
	if dump == nil {
		return nil, nil
	}
	return dump.Classes, nil
}

// GetClass returns one class definition.
func (c *Client) GetClass(ctx context.Context, name string) (*models.Class, error) {
	if err := c.guard(db.OpGetClass); err != nil {
		return nil, err
	}
	start := time.Now()
	class, err := c.wv.Schema().ClassGetter().WithClassName(name).Do(ctx)
	metrics.ObserveDB(db.OpGetClass, start, err)
	if err != nil {
		return nil, wrap(db.OpGetClass, err)
	}
	if class == nil {
		return nil, &db.Error{Op: db.OpGetClass, Err: db.ErrClassNotFound}
	}
	return class, nil
}

// ClassExists reports whether a class is defined.
func (c *Client) ClassExists(ctx context.Context, name string) (bool, error) {
	if err := c.guard(db.OpClassExists); err != nil {
		return false, err
	}
	start := time.Now()
	ok, err := c.wv.Schema().ClassExistenceChecker().WithClassName(name).Do(ctx)
	metrics.ObserveDB(db.OpClassExists, start, err)
	if err != nil {
		return false, wrap(db.OpClassExists, err)
	}
	return ok, nil
}

// CreateClass defines a new class.
func (c *Client) CreateClass(ctx context.Context, class *models.Class) error {
	if err := c.guard(db.OpCreateClass); err != nil {
		return err
	}
	start := time.Now()
	err := c.wv.Schema().ClassCreator().WithClass(class).Do(ctx)
	metrics.ObserveDB(db.OpCreateClass, start, err)
	return wrap(db.OpCreateClass, err)
}

// DeleteClass removes a class and all of its objects.
func (c *Client) DeleteClass(ctx context.Context, name string) error {
	if err := c.guard(db.OpDeleteClass); err != nil {
		return err
	}
	start := time.Now()
	err := c.wv.Schema().ClassDeleter().WithClassName(name).Do(ctx)
	metrics.ObserveDB(db.OpDeleteClass, start, err)
	return wrap(db.OpDeleteClass, err)
}

// AddProperty appends a property to an existing class.
func (c *Client) AddProperty(ctx context.Context, class string, prop *models.Property) error {
	if err := c.guard(db.OpAddProperty); err != nil {
		return err
	}
	start := time.Now()
	err := c.wv.Schema().PropertyCreator().WithClassName(class).WithProperty(prop).Do(ctx)
	metrics.ObserveDB(db.OpAddProperty, start, err)
	return wrap(db.OpAddProperty, err)
}
