package collection

import (
	"context"

	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
)

// Schema is the class store behind the service.
type Schema interface {
	Create(ctx context.Context, col domcol.Collection) error
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
	AddProperty(ctx context.Context, col domcol.Collection, p property.Property) error
}

// ModuleLister reports the modules enabled on the Weaviate instance.
type ModuleLister interface {
	Modules(ctx context.Context) ([]string, error)
}
