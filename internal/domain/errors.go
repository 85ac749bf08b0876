package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing collection.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate collection.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidSchema signals an invalid schema definition or a request that does not fit the schema.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidRequest signals malformed request parameters.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrObjectNotFound signals a missing object.
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnauthorized signals rejected credentials (database or LLM provider).
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnavailable signals a network failure reaching an external service.
	ErrUnavailable = errors.New("service unavailable")
	// ErrTimeout signals that an external call exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrClosed signals use of a released client handle.
	ErrClosed = errors.New("client closed")

	// ErrRateLimited signals a provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals an exhausted provider quota or local token budget.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrProviderError signals an LLM or embedding provider failure.
	ErrProviderError = errors.New("provider error")

	// ErrGenerativeNotConfigured signals a generative query on a collection without a generative module.
	ErrGenerativeNotConfigured = errors.New("generative module not configured")
	// ErrVectorizerMissing signals a query that needs a vectorizer the collection does not have.
	ErrVectorizerMissing = errors.New("vectorizer missing")
)

// StatusError carries the HTTP status reported by an external service.
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s: %s", e.Service, e.StatusCode, e.Message, e.Err.Error())
}

func (e *StatusError) Unwrap() error { return e.Err }
