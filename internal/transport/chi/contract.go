package chi

import (
	"context"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	dombatch "github.com/saskinosie/weaviate-claude-skills/internal/domain/batch"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	domobj "github.com/saskinosie/weaviate-claude-skills/internal/domain/object"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/filter"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
	collectionuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/collection"
	healthuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/health"
	raguc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/rag"
	usageuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/usage"
)

// CollectionService manages collections.
type CollectionService interface {
	Create(ctx context.Context, def collectionuc.Definition) (domcol.Collection, error)
	Get(ctx context.Context, name string) (domcol.Collection, error)
	List(ctx context.Context) ([]domcol.Collection, error)
	Delete(ctx context.Context, name string) error
	AddProperty(ctx context.Context, name string, def collectionuc.PropertyDef) (domcol.Collection, error)
}

// ObjectService writes single objects.
type ObjectService interface {
	Insert(ctx context.Context, collection string, obj domobj.Object) (domobj.Object, error)
	Update(ctx context.Context, collection string, obj domobj.Object) error
	Replace(ctx context.Context, collection string, obj domobj.Object) error
	Get(ctx context.Context, collection, id string, withVector bool) (domobj.Object, error)
	Delete(ctx context.Context, collection, id string) error
}

// BatchService writes and deletes objects in bulk.
type BatchService interface {
	Insert(ctx context.Context, collection string, items []domobj.Object) ([]dombatch.Result, dombatch.Summary)
	DeleteMany(ctx context.Context, collection string, f filter.Node, dryRun bool) (dombatch.DeleteSummary, error)
}

// SearchService runs queries and paginated reads.
type SearchService interface {
	Search(ctx context.Context, collection string, req request.Request) ([]result.Result, error)
	FetchAll(ctx context.Context, collection, cursor string, limit int, withVector bool) (domobj.Page, error)
	Aggregate(ctx context.Context, collection string, f filter.Node, groupBy string) (result.Aggregate, error)
}

// RAGService answers questions over collections.
type RAGService interface {
	Generate(ctx context.Context, collection string, req request.Request, gen rag.Generate) (result.Generative, error)
	Ask(ctx context.Context, collection string, p raguc.AskParams) (rag.Answer, error)
	Describe(ctx context.Context, img domain.Image, prompt string) (rag.Answer, error)
	AskAboutImage(
		ctx context.Context, collection string, img domain.Image, question string, limit int, contextProperties []string,
	) (rag.Answer, error)
}

// HealthService aggregates dependency checks.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageService reports the token budget.
type UsageService interface {
	GetReport(ctx context.Context, period usageuc.Period) usageuc.Report
}

// MetaReader reads Weaviate server metadata.
type MetaReader interface {
	Meta(ctx context.Context) (*db.Meta, error)
}
