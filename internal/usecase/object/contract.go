package object

import (
	"context"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
)

// Repository defines the storage contract for single objects.
type Repository interface {
	Insert(ctx context.Context, class string, obj domobj.Object) (domobj.Object, error)
	Update(ctx context.Context, class string, obj domobj.Object, merge bool) error
	Delete(ctx context.Context, class, id string) error
	Exists(ctx context.Context, class, id string) (bool, error)
	Get(ctx context.Context, class, id string, withVector bool) (domobj.Object, error)
}

// CollectionReader reads collections for existence and schema validation.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
