package batch

import (
	"context"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	dombatch "github.com/saskinosie/weaviate-claude-skills/internal/domain/batch"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
)

// Repository sends objects through the batch endpoint and deletes by filter.
type Repository interface {
	BatchInsert(ctx context.Context, class string, objs []domobj.Object) ([]dombatch.Result, error)
	DeleteMany(ctx context.Context, class string, f filter.Node, dryRun bool) (dombatch.DeleteSummary, error)
}

// CollectionReader reads collections for existence and schema validation.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}

// Embedder vectorizes text into embeddings. Implementations that also
// satisfy domain.BatchEmbedder get one API call per chunk.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
