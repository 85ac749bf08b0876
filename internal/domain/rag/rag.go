// Package rag holds the prompt and context shaping for retrieval-augmented generation.
package rag

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
)

// Defaults for client-side RAG.
const (
	DefaultMaxContextChars = 8000
	DefaultMaxTokens       = 500
	MaxPromptLength        = 8192
)

// DefaultSystemPrompt frames the model as a grounded assistant.
const DefaultSystemPrompt = "You are a helpful assistant. Answer the question using only the provided context. " +
	"If the context does not contain the answer, say so. Cite sources by their number in brackets."

// DefaultVisionPrompt is used when Describe is called without a question.
const DefaultVisionPrompt = "Describe this image in detail."

var placeholderRegex = regexp.MustCompile(`\{([_A-Za-z][_0-9A-Za-z]*)\}`)

// Generate configures a server-side generative search.
type Generate struct {
	// SinglePrompt runs once per result; {property} placeholders are filled by the server.
	SinglePrompt string
	// GroupedTask runs once over the whole result set.
	GroupedTask       string
	GroupedProperties []string
}

// NewGenerate validates a generative search configuration.
func NewGenerate(singlePrompt, groupedTask string, groupedProperties []string) (Generate, error) {
	if singlePrompt == "" && groupedTask == "" {
		return Generate{}, fmt.Errorf("%w: single prompt or grouped task required", domain.ErrInvalidRequest)
	}
	if len(singlePrompt) > MaxPromptLength || len(groupedTask) > MaxPromptLength {
		return Generate{}, fmt.Errorf("%w: prompt too long (max %d chars)", domain.ErrInvalidRequest, MaxPromptLength)
	}
	if len(groupedProperties) > 0 && groupedTask == "" {
		return Generate{}, fmt.Errorf("%w: grouped properties need a grouped task", domain.ErrInvalidRequest)
	}
	return Generate{SinglePrompt: singlePrompt, GroupedTask: groupedTask, GroupedProperties: groupedProperties}, nil
}

// Placeholders returns the property names referenced by the single prompt.
func (g Generate) Placeholders() []string {
	matches := placeholderRegex.FindAllStringSubmatch(g.SinglePrompt, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Source is a retrieved object cited in an answer.
type Source struct {
	Index      int
	ID         string
	Properties map[string]any
	Distance   *float64
	Score      *float64
}

// Answer is the result of a client-side RAG call.
type Answer struct {
	Text    string
	Model   string
	Usage   domain.Usage
	Sources []Source
}

// BuildContext renders results as a numbered context block.
// Only the listed properties are included (all string properties when empty);
// the block is cut at maxChars on an entry boundary, the first entry is always kept.
func BuildContext(results []result.Result, properties []string, maxChars int) (string, []Source) {
	if maxChars <= 0 {
		maxChars = DefaultMaxContextChars
	}
	var b strings.Builder
	sources := make([]Source, 0, len(results))
	for i := range results {
		r := &results[i]
		entry := renderEntry(i+1, r, properties)
		if b.Len() > 0 && b.Len()+len(entry) > maxChars {
			break
		}
		if b.Len() == 0 && len(entry) > maxChars {
			entry = entry[:maxChars]
		}
		b.WriteString(entry)
		sources = append(sources, Source{
			Index:      i + 1,
			ID:         r.ID(),
			Properties: r.Properties(),
			Distance:   r.Scores().Distance,
			Score:      r.Scores().Score,
		})
	}
	return b.String(), sources
}

func renderEntry(n int, r *result.Result, properties []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d]", n)
	keys := properties
	if len(keys) == 0 {
		keys = stringKeys(r.Properties())
	}
	for _, k := range keys {
		v, ok := r.Properties()[k]
		if !ok || v == nil {
			continue
		}
		fmt.Fprintf(&b, " %s: %v", k, v)
	}
	b.WriteString("\n")
	return b.String()
}

func stringKeys(props map[string]any) []string {
	keys := make([]string, 0, len(props))
	for k, v := range props {
		if _, ok := v.(string); ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// UserPrompt combines the retrieved context with the question.
func UserPrompt(question, context string) string {
	return "Context:\n" + context + "\nQuestion: " + question
}

// Messages builds the chat turns for a grounded question.
func Messages(systemPrompt, question, context string, images ...domain.Image) []domain.Message {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	return []domain.Message{
		{Role: domain.RoleSystem, Text: systemPrompt},
		{Role: domain.RoleUser, Text: UserPrompt(question, context), Images: images},
	}
}
