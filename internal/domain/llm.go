package domain

import "context"

// Role tags a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Image is an inlined image payload, base64-encoded.
type Image struct {
	MIME   string
	Base64 string
}

// DataURI renders the image as a data URI understood by vision models.
func (i Image) DataURI() string {
	return "data:" + i.MIME + ";base64," + i.Base64
}

// Message is one role-tagged chat turn, optionally carrying images.
type Message struct {
	Role   Role
	Text   string
	Images []Image
}

// ChatRequest is a chat completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature *float32
}

// ChatResult is the generated answer with usage.
type ChatResult struct {
	Text         string
	FinishReason string
	Model        string
	Usage        Usage
}

// Generator produces chat completions.
type Generator interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResult, error)
}
