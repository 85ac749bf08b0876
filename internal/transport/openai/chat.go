package openai

import (
	"context"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
)

// Generator implements domain.Generator with the chat completions API.
type Generator struct {
	client *openai.Client
	model  string
	user   string
	logger *zap.Logger
}

// NewGenerator creates a chat completion client. cfg.Model is used when a request names no model.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		client: newClient(cfg),
		model:  cfg.Model,
		user:   cfg.User,
		logger: cfg.Logger,
	}
}

// Complete sends the messages and returns the first choice.
func (g *Generator) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResult, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	creq := openai.ChatCompletionRequest{
		Model:     model,
		Messages:  toMessages(req.Messages),
		MaxTokens: req.MaxTokens,
		User:      g.user,
	}
	if req.Temperature != nil {
		creq.Temperature = *req.Temperature
		// The request field is omitempty, so an explicit zero has to be sent as the smallest float.
		if creq.Temperature == 0 {
			creq.Temperature = math.SmallestNonzeroFloat32
		}
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, creq)
	duration := time.Since(start)

	if err != nil {
		metrics.ChatRequestsTotal.WithLabelValues(model, "error").Inc()
		return domain.ChatResult{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.ChatRequestsTotal.WithLabelValues(model, "error").Inc()
		return domain.ChatResult{}, fmt.Errorf("%w: empty chat completion response", domain.ErrProviderError)
	}

	metrics.ChatRequestsTotal.WithLabelValues(model, "success").Inc()
	metrics.ChatRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
	metrics.ChatTokensTotal.WithLabelValues(model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.ChatTokensTotal.WithLabelValues(model, "completion").Add(float64(resp.Usage.CompletionTokens))

	if resp.Model != "" {
		model = resp.Model
	}
	choice := resp.Choices[0]
	return domain.ChatResult{
		Text:         choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        model,
		Usage: domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// HealthCheck verifies API availability.
func (g *Generator) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, g.client)
}

// toMessages uses plain content for text-only turns and multi-part content
// with data URIs for turns carrying images.
func toMessages(msgs []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		if len(m.Images) == 0 {
			out[i] = openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Text}
			continue
		}
		parts := make([]openai.ChatMessagePart, 0, len(m.Images)+1)
		if m.Text != "" {
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: m.Text})
		}
		for _, img := range m.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: img.DataURI(), Detail: openai.ImageURLDetailAuto},
			})
		}
		out[i] = openai.ChatCompletionMessage{Role: string(m.Role), MultiContent: parts}
	}
	return out
}
