package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
)

const codeInsufficientQuota = "insufficient_quota"

// parseAPIError maps an OpenAI client error onto a domain sentinel and keeps
// the provider message for diagnostics.
func parseAPIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err //nolint:wrapcheck // caller cancelled
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		quota := apiErr.Type == codeInsufficientQuota || apiErr.Code == codeInsufficientQuota
		return fmt.Errorf("openai API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, sentinelFor(apiErr.HTTPStatusCode, quota))
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("openai API error %d: %s: %w",
			reqErr.HTTPStatusCode, detail, sentinelFor(reqErr.HTTPStatusCode, false))
	}

	return fmt.Errorf("openai request failed: %w: %w", domain.ErrProviderError, err)
}

func sentinelFor(status int, quota bool) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.ErrUnauthorized
	case status == http.StatusTooManyRequests && quota:
		return domain.ErrQuotaExceeded
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status == http.StatusBadRequest:
		return domain.ErrInvalidRequest
	}
	return domain.ErrProviderError
}

// extractDetail extracts the "detail" field from a JSON error body
// (OpenAI-compatible gateways) or the nested error message.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return parsed.Error.Message
}
