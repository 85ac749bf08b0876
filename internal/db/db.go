package db

import (
	"context"
	"time"

	"github.com/weaviate/weaviate/entities/models"
)

// Store is the vector database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	SchemaStore
	ObjectStore
	Querier
	Meta(ctx context.Context) (*Meta, error)
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close() error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Meta is the server build and module information.
type Meta struct {
	Version  string
	Hostname string
	Modules  []string
}

// SchemaStore manages classes (collections).
type SchemaStore interface {
	ListClasses(ctx context.Context) ([]*models.Class, error)
	GetClass(ctx context.Context, name string) (*models.Class, error)
	ClassExists(ctx context.Context, name string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	DeleteClass(ctx context.Context, name string) error
	AddProperty(ctx context.Context, class string, prop *models.Property) error
}

// ObjectStore provides object CRUD and batch writes.
//
//nolint:interfacebloat // one method per REST object endpoint
type ObjectStore interface {
	CreateObject(ctx context.Context, obj *models.Object) (*models.Object, error)
	UpdateObject(ctx context.Context, obj *models.Object, merge bool) error
	DeleteObject(ctx context.Context, class, id string) error
	ObjectExists(ctx context.Context, class, id string) (bool, error)
	GetObject(ctx context.Context, class, id string, withVector bool) (*models.Object, error)
	ListObjects(ctx context.Context, q *ListQuery) ([]*models.Object, error)
	BatchObjects(ctx context.Context, objs []*models.Object) ([]BatchItem, error)
	BatchDelete(ctx context.Context, q *DeleteQuery) (*DeleteResult, error)
}

// Querier runs GraphQL searches and aggregations.
type Querier interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	Aggregate(ctx context.Context, q *AggregateQuery) (*AggregateResult, error)
}

// Entry is one key/value pair written by KVStore.MSet.
type Entry struct {
	Key   string
	Value []byte
}

// KVStore provides simple key-value operations (embedding cache, budget counters).
//
//nolint:interfacebloat // single and multi-key variants of the same commands
type KVStore interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one value per key, nil where the key is missing.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	MSet(ctx context.Context, entries []Entry, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Close()
}
