package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
)

func nearText(t *testing.T) request.Request {
	t.Helper()
	req, err := request.New(request.Params{Mode: mode.NearText, Query: "pets", Limit: 3})
	require.NoError(t, err)
	return req
}

func TestGenerate_NotConfigured(t *testing.T) {
	svc, _ := newTestService(t, testCollection(false), &mockRepo{}, nil)
	gen, _ := rag.NewGenerate("Summarize {title}", "", nil)

	_, err := svc.Generate(context.Background(), "Article", nearText(t), gen)
	assert.ErrorIs(t, err, domain.ErrGenerativeNotConfigured)
}

func TestGenerate_UnknownPlaceholder(t *testing.T) {
	svc, _ := newTestService(t, testCollection(true), &mockRepo{}, nil)
	gen, _ := rag.NewGenerate("Summarize {headline}", "", nil)

	_, err := svc.Generate(context.Background(), "Article", nearText(t), gen)
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)
}

func TestGenerate_UnknownGroupedProperty(t *testing.T) {
	svc, _ := newTestService(t, testCollection(true), &mockRepo{}, nil)
	gen, _ := rag.NewGenerate("", "Compare them", []string{"author"})

	_, err := svc.Generate(context.Background(), "Article", nearText(t), gen)
	assert.ErrorIs(t, err, domain.ErrInvalidSchema)
}

func TestGenerate_ForwardsToRepository(t *testing.T) {
	var got rag.Generate
	repo := &mockRepo{generateFn: func(_ context.Context, col domcol.Collection, _ request.Request, gen rag.Generate) (result.Generative, error) {
		got = gen
		return result.Generative{Results: articles(), Grouped: "both are pets"}, nil
	}}
	svc, prep := newTestService(t, testCollection(true), repo, nil)
	gen, _ := rag.NewGenerate("", "Compare them", []string{"title"})

	out, err := svc.Generate(context.Background(), "article", nearText(t), gen)
	require.NoError(t, err)
	assert.Equal(t, "both are pets", out.Grouped)
	assert.Equal(t, "Compare them", got.GroupedTask)
	assert.Equal(t, 1, prep.calls)
}

func TestGenerate_PrepareErrorStops(t *testing.T) {
	repo := &mockRepo{generateFn: func(context.Context, domcol.Collection, request.Request, rag.Generate) (result.Generative, error) {
		t.Fatal("repository must not be called")
		return result.Generative{}, nil
	}}
	svc, prep := newTestService(t, testCollection(true), repo, nil)
	prep.err = domain.ErrVectorizerMissing
	gen, _ := rag.NewGenerate("Summarize {title}", "", nil)

	_, err := svc.Generate(context.Background(), "Article", nearText(t), gen)
	assert.ErrorIs(t, err, domain.ErrVectorizerMissing)
}

func TestAsk_DefaultHybridRetrieval(t *testing.T) {
	var got request.Request
	repo := &mockRepo{searchFn: func(_ context.Context, _ domcol.Collection, req request.Request) ([]result.Result, error) {
		got = req
		return articles(), nil
	}}
	llm := &mockGenerator{}
	svc, _ := newTestService(t, testCollection(false), repo, llm)

	ans, err := svc.Ask(context.Background(), "Article", AskParams{Question: "What do cats do?"})
	require.NoError(t, err)
	assert.Equal(t, mode.Hybrid, got.Mode())
	assert.Equal(t, "What do cats do?", got.Query())
	assert.Equal(t, DefaultRetrievalLimit, got.Limit())

	assert.Equal(t, "answer", ans.Text)
	assert.Equal(t, "gpt-4o-mini", ans.Model)
	assert.Equal(t, 50, ans.Usage.TotalTokens)
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, "a", ans.Sources[0].ID)

	require.Len(t, llm.last.Messages, 2)
	assert.Equal(t, rag.DefaultSystemPrompt, llm.last.Messages[0].Text)
	user := llm.last.Messages[1].Text
	assert.Contains(t, user, "Cats purr.")
	assert.Contains(t, user, "What do cats do?")
	assert.NotContains(t, user, "iVBORw0K", "blob properties stay out of the prompt")
	assert.Equal(t, rag.DefaultMaxTokens, llm.last.MaxTokens)
}

func TestAsk_CustomRetrievalAndPrompt(t *testing.T) {
	var got request.Request
	repo := &mockRepo{searchFn: func(_ context.Context, _ domcol.Collection, req request.Request) ([]result.Result, error) {
		got = req
		return articles(), nil
	}}
	llm := &mockGenerator{}
	svc, _ := newTestService(t, testCollection(false), repo, llm)
	req := nearText(t)

	_, err := svc.Ask(context.Background(), "Article", AskParams{
		Question:          "Which pets bark?",
		Retrieval:         &req,
		ContextProperties: []string{"title"},
		SystemPrompt:      "Answer in one word.",
	})
	require.NoError(t, err)
	assert.Equal(t, mode.NearText, got.Mode())
	assert.Equal(t, "Answer in one word.", llm.last.Messages[0].Text)
	assert.NotContains(t, llm.last.Messages[1].Text, "Dogs bark.")
	assert.Contains(t, llm.last.Messages[1].Text, "title: Dogs")
}

func TestAsk_Validation(t *testing.T) {
	svc, _ := newTestService(t, testCollection(false), &mockRepo{}, &mockGenerator{})
	_, err := svc.Ask(context.Background(), "Article", AskParams{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	noLLM, _ := newTestService(t, testCollection(false), &mockRepo{}, nil)
	_, err = noLLM.Ask(context.Background(), "Article", AskParams{Question: "q"})
	assert.ErrorIs(t, err, domain.ErrProviderError)
}

func TestAsk_CollectionNotFound(t *testing.T) {
	prep := &mockPreparer{}
	svc := New(&mockRepo{}, prep, &mockColls{err: domain.ErrNotFound}, &mockGenerator{}, Config{})
	_, err := svc.Ask(context.Background(), "Missing", AskParams{Question: "q"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, prep.calls)
}

func TestAsk_ChatErrorPropagates(t *testing.T) {
	llm := &mockGenerator{completeFn: func(context.Context, domain.ChatRequest) (domain.ChatResult, error) {
		return domain.ChatResult{}, domain.ErrRateLimited
	}}
	svc, _ := newTestService(t, testCollection(false), &mockRepo{}, llm)
	_, err := svc.Ask(context.Background(), "Article", AskParams{Question: "q"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestAsk_SearchErrorPropagates(t *testing.T) {
	repo := &mockRepo{searchFn: func(context.Context, domcol.Collection, request.Request) ([]result.Result, error) {
		return nil, domain.ErrUnavailable
	}}
	svc, _ := newTestService(t, testCollection(false), repo, &mockGenerator{})
	_, err := svc.Ask(context.Background(), "Article", AskParams{Question: "q"})
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestDescribe_UsesVisionModel(t *testing.T) {
	llm := &mockGenerator{}
	svc, _ := newTestService(t, testCollection(false), &mockRepo{}, llm)
	img := domain.Image{MIME: "image/png", Base64: "iVBORw0K"}

	ans, err := svc.Describe(context.Background(), img, "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", ans.Model)
	require.Len(t, llm.last.Messages, 1)
	assert.Equal(t, rag.DefaultVisionPrompt, llm.last.Messages[0].Text)
	assert.Equal(t, []domain.Image{img}, llm.last.Messages[0].Images)
	assert.Empty(t, ans.Sources)
}

func TestAskAboutImage_NearImageRetrieval(t *testing.T) {
	var got request.Request
	repo := &mockRepo{searchFn: func(_ context.Context, _ domcol.Collection, req request.Request) ([]result.Result, error) {
		got = req
		return articles(), nil
	}}
	llm := &mockGenerator{}
	svc, _ := newTestService(t, testCollection(false), repo, llm)
	img := domain.Image{MIME: "image/jpeg", Base64: "/9j/4AAQ"}

	ans, err := svc.AskAboutImage(context.Background(), "Article", img, "Which article matches?", 2, nil)
	require.NoError(t, err)
	assert.Equal(t, mode.NearImage, got.Mode())
	assert.Equal(t, "/9j/4AAQ", got.Image())
	assert.Equal(t, 2, got.Limit())
	assert.ElementsMatch(t, []string{"title", "body"}, got.ReturnProperties())

	assert.Equal(t, "gpt-4o", llm.last.Model)
	user := llm.last.Messages[1]
	assert.Equal(t, []domain.Image{img}, user.Images)
	assert.True(t, strings.Contains(user.Text, "Which article matches?"))
	assert.Len(t, ans.Sources, 2)
}
