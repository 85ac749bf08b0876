package db

import (
	"errors"
	"fmt"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
)

// Sentinel errors for database operations.
var (
	ErrKeyNotFound    = errors.New("db: key not found")
	ErrClassNotFound  = errors.New("db: class not found")
	ErrClassExists    = errors.New("db: class already exists")
	ErrObjectNotFound = errors.New("db: object not found")
	ErrObjectExists   = errors.New("db: object already exists")
	ErrInvalid        = errors.New("db: invalid request")
	ErrUnauthorized   = errors.New("db: unauthorized")
	ErrUnavailable    = errors.New("db: unavailable")
	ErrTimeout        = errors.New("db: timeout")
	ErrClosed         = errors.New("db: client closed")
)

// Op constants name Weaviate and KV operations for error context and metrics.
const (
	OpReady        = "ready"
	OpMeta         = "meta"
	OpListClasses  = "schema.list"
	OpGetClass     = "schema.get"
	OpClassExists  = "schema.exists"
	OpCreateClass  = "schema.create"
	OpDeleteClass  = "schema.delete"
	OpAddProperty  = "schema.add_property"
	OpCreateObject = "objects.create"
	OpUpdateObject = "objects.update"
	OpDeleteObject = "objects.delete"
	OpObjectExists = "objects.exists"
	OpGetObject    = "objects.get"
	OpListObjects  = "objects.list"
	OpBatchObjects = "batch.objects"
	OpBatchDelete  = "batch.delete"
	OpSearch       = "graphql.get"
	OpAggregate    = "graphql.aggregate"

	OpGet    = "GET"
	OpMGet   = "MGET"
	OpSet    = "SET"
	OpIncrBy = "INCRBY"
	OpExpire = "EXPIRE"
	OpPing   = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

var translations = []struct {
	from error
	to   error
}{
	{ErrClassNotFound, domain.ErrNotFound},
	{ErrClassExists, domain.ErrAlreadyExists},
	{ErrObjectNotFound, domain.ErrObjectNotFound},
	{ErrObjectExists, domain.ErrAlreadyExists},
	{ErrInvalid, domain.ErrInvalidSchema},
	{ErrUnauthorized, domain.ErrUnauthorized},
	{ErrUnavailable, domain.ErrUnavailable},
	{ErrTimeout, domain.ErrTimeout},
	{ErrClosed, domain.ErrClosed},
}

// Translate tags a database error with the matching domain sentinel, keeping the original chain.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	for _, t := range translations {
		if errors.Is(err, t.from) {
			return fmt.Errorf("%w: %w", t.to, err)
		}
	}
	return err
}
