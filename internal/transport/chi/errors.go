package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/logger"
	"github.com/saskinosie/weaviate-claude-skills/internal/transport/dto"
)

// Error codes in ErrorResponse.Code.
const (
	CodeBadRequest              = "bad_request"
	CodeUnauthorized            = "unauthorized"
	CodeCollectionNotFound      = "collection_not_found"
	CodeObjectNotFound          = "object_not_found"
	CodeAlreadyExists           = "collection_already_exists"
	CodeValidationFailed        = "validation_failed"
	CodeVectorizerMissing       = "vectorizer_missing"
	CodeGenerativeNotConfigured = "generative_not_configured"
	CodeRateLimited             = "rate_limited"
	CodeQuotaExceeded           = "quota_exceeded"
	CodeProviderError           = "provider_error"
	CodeUpstreamUnauthorized    = "upstream_unauthorized"
	CodeUpstreamUnavailable     = "upstream_unavailable"
	CodeUpstreamTimeout         = "upstream_timeout"
	CodeInternalError           = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// errorHandlers are checked in order; the first match wins.
var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeCollectionNotFound),
	sentinelHandler(domain.ErrObjectNotFound, http.StatusNotFound, CodeObjectNotFound),
	sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
	sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, CodeValidationFailed),
	sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
	sentinelHandler(domain.ErrVectorizerMissing, http.StatusBadRequest, CodeVectorizerMissing),
	sentinelHandler(domain.ErrGenerativeNotConfigured, http.StatusBadRequest, CodeGenerativeNotConfigured),
	sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
	sentinelHandler(domain.ErrQuotaExceeded, http.StatusPaymentRequired, CodeQuotaExceeded),
	sentinelHandler(domain.ErrUnauthorized, http.StatusBadGateway, CodeUpstreamUnauthorized),
	sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, CodeProviderError),
	sentinelHandler(domain.ErrUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable),
	sentinelHandler(domain.ErrClosed, http.StatusServiceUnavailable, CodeUpstreamUnavailable),
	sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout, CodeUpstreamTimeout),
}

// clientDetail lists sentinels whose full wrapped message is returned to the client.
var clientDetail = []error{
	domain.ErrNotFound,
	domain.ErrObjectNotFound,
	domain.ErrAlreadyExists,
	domain.ErrInvalidSchema,
	domain.ErrInvalidRequest,
	domain.ErrVectorizerMissing,
	domain.ErrGenerativeNotConfigured,
}

// upstream lists sentinels reported by their bare message.
var upstream = []error{
	domain.ErrRateLimited,
	domain.ErrQuotaExceeded,
	domain.ErrUnauthorized,
	domain.ErrProviderError,
	domain.ErrUnavailable,
	domain.ErrClosed,
	domain.ErrTimeout,
}

// safeDomainMessage returns a message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range clientDetail {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	for _, s := range upstream {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Code: code, Message: message})
}
