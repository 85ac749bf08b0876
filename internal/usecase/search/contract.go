package search

import (
	"context"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
)

// Repository defines the storage contract for search operations.
type Repository interface {
	Search(ctx context.Context, col domcol.Collection, req request.Request) ([]result.Result, error)
	Aggregate(ctx context.Context, class string, f filter.Node, groupBy string) (result.Aggregate, error)
}

// ObjectReader fetches objects directly by id or cursor.
type ObjectReader interface {
	Get(ctx context.Context, class, id string, withVector bool) (domobj.Object, error)
	List(ctx context.Context, class, after string, limit int, withVector bool) (domobj.Page, error)
}

// CollectionReader reads collections for existence and schema validation.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// Embedder vectorizes query text for collections without a vectorizer module.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
