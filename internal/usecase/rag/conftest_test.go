package rag

import (
	"context"
	"testing"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
	"github.com/saskinosie/weaviate-claude-skills/internal/usecase/budget"
)

type mockRepo struct {
	searchFn   func(ctx context.Context, col domcol.Collection, req request.Request) ([]result.Result, error)
	generateFn func(ctx context.Context, col domcol.Collection, req request.Request, gen rag.Generate) (result.Generative, error)
}

func (m *mockRepo) Search(ctx context.Context, col domcol.Collection, req request.Request) ([]result.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, col, req)
	}
	return nil, nil
}

func (m *mockRepo) Generate(
	ctx context.Context, col domcol.Collection, req request.Request, gen rag.Generate,
) (result.Generative, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, col, req, gen)
	}
	return result.Generative{}, nil
}

type mockPreparer struct {
	err   error
	calls int
}

func (m *mockPreparer) Prepare(_ context.Context, _ domcol.Collection, req request.Request) (request.Request, error) {
	m.calls++
	return req, m.err
}

type mockColls struct {
	col domcol.Collection
	err error
}

func (m *mockColls) Get(_ context.Context, _ string) (domcol.Collection, error) {
	return m.col, m.err
}

type mockGenerator struct {
	completeFn func(ctx context.Context, req domain.ChatRequest) (domain.ChatResult, error)
	last       domain.ChatRequest
}

func (m *mockGenerator) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResult, error) {
	m.last = req
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return domain.ChatResult{
		Text:  "answer",
		Model: req.Model,
		Usage: domain.Usage{PromptTokens: 40, CompletionTokens: 10, TotalTokens: 50},
	}, nil
}

type mockBudget struct {
	checkErr error
	source   budget.Source
	recorded int64
}

func (m *mockBudget) Check(_ context.Context) error { return m.checkErr }

func (m *mockBudget) Record(source budget.Source, tokens int64) {
	m.source = source
	m.recorded += tokens
}

func testCollection(generative bool) domcol.Collection {
	var gen *domcol.Module
	if generative {
		m := domcol.ReconstructModule("generative-openai", "gpt-4o-mini", nil)
		gen = &m
	}
	return domcol.Reconstruct("Article", "", []property.Property{
		property.Reconstruct("title", property.Text, property.Options{}),
		property.Reconstruct("body", property.Text, property.Options{}),
		property.Reconstruct("cover", property.Blob, property.Options{}),
	}, domcol.ReconstructVectorizer("multi2vec-clip", domcol.VectorizerOptions{}), gen, nil)
}

func articles() []result.Result {
	return []result.Result{
		result.New("a", map[string]any{"title": "Cats", "body": "Cats purr.", "cover": "iVBORw0K"}, result.Scores{}, nil),
		result.New("b", map[string]any{"title": "Dogs", "body": "Dogs bark."}, result.Scores{}, nil),
	}
}

func newTestService(t *testing.T, col domcol.Collection, repo *mockRepo, llm domain.Generator) (*Service, *mockPreparer) {
	t.Helper()
	prep := &mockPreparer{}
	return New(repo, prep, &mockColls{col: col}, llm, Config{ChatModel: "gpt-4o-mini", VisionModel: "gpt-4o"}), prep
}
