package rag

import (
	"context"

	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
)

// Repository runs retrieval and server-side generative queries.
type Repository interface {
	Search(ctx context.Context, col domcol.Collection, req request.Request) ([]result.Result, error)
	Generate(ctx context.Context, col domcol.Collection, req request.Request, gen rag.Generate) (result.Generative, error)
}

// Preparer checks a request against the schema and embeds the query when needed.
type Preparer interface {
	Prepare(ctx context.Context, col domcol.Collection, req request.Request) (request.Request, error)
}

// CollectionReader reads collections for existence and schema validation.
type CollectionReader interface {
	Get(ctx context.Context, name string) (domcol.Collection, error)
}
