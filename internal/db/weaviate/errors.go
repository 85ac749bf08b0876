package weaviate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/fault"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/saskinosie/weaviate-claude-skills/internal/db"
)

var notFoundByOp = map[string]error{
	db.OpGetClass:     db.ErrClassNotFound,
	db.OpDeleteClass:  db.ErrClassNotFound,
	db.OpAddProperty:  db.ErrClassNotFound,
	db.OpUpdateObject: db.ErrObjectNotFound,
	db.OpDeleteObject: db.ErrObjectNotFound,
	db.OpGetObject:    db.ErrObjectNotFound,
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &db.Error{Op: op, Err: classify(op, err)}
}

// classify maps a client failure onto a db sentinel, keeping the server message.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", db.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var ce *fault.WeaviateClientError
	if !errors.As(err, &ce) {
		return err
	}
	if !ce.IsUnexpectedStatusCode {
		cause := ce.DerivedFromError
		if cause == nil {
			cause = err
		}
		var ne net.Error
		if errors.As(cause, &ne) && ne.Timeout() {
			return fmt.Errorf("%w: %s", db.ErrTimeout, cause.Error())
		}
		if errors.Is(cause, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", db.ErrTimeout, cause.Error())
		}
		return fmt.Errorf("%w: %s", db.ErrUnavailable, cause.Error())
	}

	msg := ce.Msg
	switch ce.StatusCode {
	case http.StatusNotFound:
		if s, ok := notFoundByOp[op]; ok {
			return fmt.Errorf("%w: %s", s, msg)
		}
		return fmt.Errorf("%w: %s", db.ErrClassNotFound, msg)
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		if strings.Contains(strings.ToLower(msg), "already exists") {
			if op == db.OpCreateObject {
				return fmt.Errorf("%w: %s", db.ErrObjectExists, msg)
			}
			return fmt.Errorf("%w: %s", db.ErrClassExists, msg)
		}
		return fmt.Errorf("%w: %s", db.ErrInvalid, msg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", db.ErrUnauthorized, msg)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", db.ErrUnavailable, msg)
	}
	return fmt.Errorf("weaviate returned %d: %s", ce.StatusCode, msg)
}

// graphQLError merges a transport error and GraphQL-level errors into one.
func graphQLError(op string, resp *models.GraphQLResponse, err error) error {
	if err != nil {
		return wrap(op, err)
	}
	if resp == nil {
		return &db.Error{Op: op, Err: errors.New("empty graphql response")}
	}
	if len(resp.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		if e != nil {
			msgs = append(msgs, e.Message)
		}
	}
	joined := strings.Join(msgs, "; ")
	sentinel := db.ErrInvalid
	if strings.Contains(joined, `on type "GetObjectsObj"`) || strings.Contains(joined, `on type "AggregateObjectsObj"`) {
		sentinel = db.ErrClassNotFound
	}
	return &db.Error{Op: op, Err: fmt.Errorf("%w: %s", sentinel, joined)}
}

func isPermanent(err error) bool {
	return errors.Is(err, db.ErrUnauthorized) || errors.Is(err, db.ErrClosed)
}
