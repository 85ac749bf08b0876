package rag

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	domcol "github.com/saskinosie/weaviate-claude-skills/internal/domain/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/collection/property"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/rag"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/mode"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/request"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain/search/result"
	"github.com/saskinosie/weaviate-claude-skills/internal/logger"
)

// DefaultRetrievalLimit is the number of objects retrieved for Ask when the caller sets none.
const DefaultRetrievalLimit = 5

// Config holds the chat completion settings for client-side RAG.
type Config struct {
	ChatModel       string
	VisionModel     string
	MaxTokens       int
	Temperature     *float32
	MaxContextChars int
	SystemPrompt    string
}

// AskParams is a grounded question. Retrieval defaults to a hybrid search on the question.
type AskParams struct {
	Question          string
	Retrieval         *request.Request
	ContextProperties []string
	SystemPrompt      string
}

// Service answers questions over collections, via the Weaviate generative
// module or via client-side chat completions.
type Service struct {
	repo     Repository
	preparer Preparer
	colls    CollectionReader
	llm      domain.Generator
	cfg      Config
}

// New creates a RAG service. llm may be nil; only server-side Generate works then.
func New(repo Repository, preparer Preparer, colls CollectionReader, llm domain.Generator, cfg Config) *Service {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = rag.DefaultMaxTokens
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = rag.DefaultMaxContextChars
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.ChatModel
	}
	return &Service{repo: repo, preparer: preparer, colls: colls, llm: llm, cfg: cfg}
}

// Generate runs a search with the collection's generative module.
func (s *Service) Generate(
	ctx context.Context, collection string, req request.Request, gen rag.Generate,
) (result.Generative, error) {
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return result.Generative{}, fmt.Errorf("get collection: %w", err)
	}
	if col.Generative() == nil {
		return result.Generative{}, fmt.Errorf("%w: collection %s", domain.ErrGenerativeNotConfigured, col.Name())
	}
	for _, name := range append(gen.Placeholders(), gen.GroupedProperties...) {
		if _, ok := col.Property(name); !ok {
			return result.Generative{}, fmt.Errorf("%w: prompt references unknown property %q", domain.ErrInvalidSchema, name)
		}
	}

	prepared, err := s.preparer.Prepare(ctx, col, req)
	if err != nil {
		return result.Generative{}, err
	}

	start := time.Now()
	out, err := s.repo.Generate(ctx, col, prepared, gen)
	if err != nil {
		return result.Generative{}, fmt.Errorf("generative search: %w", err)
	}
	logger.FromContext(ctx).Info("Generative search completed",
		zap.String("collection", col.Name()),
		zap.String("module", col.Generative().Name()),
		zap.Int("count", len(out.Results)),
		zap.Bool("grouped", gen.GroupedTask != ""),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// Ask retrieves context from a collection and answers the question with the chat model.
func (s *Service) Ask(ctx context.Context, collection string, p AskParams) (rag.Answer, error) {
	if p.Question == "" {
		return rag.Answer{}, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}
	if s.llm == nil {
		return rag.Answer{}, fmt.Errorf("%w: no chat model configured", domain.ErrProviderError)
	}
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return rag.Answer{}, fmt.Errorf("get collection: %w", err)
	}

	req, err := s.retrieval(p)
	if err != nil {
		return rag.Answer{}, err
	}
	results, err := s.retrieve(ctx, col, req)
	if err != nil {
		return rag.Answer{}, err
	}

	block, sources := rag.BuildContext(results, s.contextProperties(col, p.ContextProperties), s.cfg.MaxContextChars)
	system := p.SystemPrompt
	if system == "" {
		system = s.cfg.SystemPrompt
	}
	return s.complete(ctx, s.cfg.ChatModel, rag.Messages(system, p.Question, block), sources)
}

// Describe asks the vision model about a single image.
func (s *Service) Describe(ctx context.Context, img domain.Image, prompt string) (rag.Answer, error) {
	if s.llm == nil {
		return rag.Answer{}, fmt.Errorf("%w: no chat model configured", domain.ErrProviderError)
	}
	if prompt == "" {
		prompt = rag.DefaultVisionPrompt
	}
	msgs := []domain.Message{{Role: domain.RoleUser, Text: prompt, Images: []domain.Image{img}}}
	return s.complete(ctx, s.cfg.VisionModel, msgs, nil)
}

// AskAboutImage finds objects similar to the image and asks the vision model
// about the image with the retrieved objects as context.
func (s *Service) AskAboutImage(
	ctx context.Context, collection string, img domain.Image, question string, limit int, contextProperties []string,
) (rag.Answer, error) {
	if s.llm == nil {
		return rag.Answer{}, fmt.Errorf("%w: no chat model configured", domain.ErrProviderError)
	}
	if question == "" {
		question = rag.DefaultVisionPrompt
	}
	col, err := s.colls.Get(ctx, domcol.NormalizeName(collection))
	if err != nil {
		return rag.Answer{}, fmt.Errorf("get collection: %w", err)
	}
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	props := s.contextProperties(col, contextProperties)
	req, err := request.New(request.Params{
		Mode:             mode.NearImage,
		Image:            img.Base64,
		Limit:            limit,
		ReturnProperties: props,
	})
	if err != nil {
		return rag.Answer{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	results, err := s.retrieve(ctx, col, req)
	if err != nil {
		return rag.Answer{}, err
	}

	block, sources := rag.BuildContext(results, props, s.cfg.MaxContextChars)
	msgs := rag.Messages(s.cfg.SystemPrompt, question, block, img)
	return s.complete(ctx, s.cfg.VisionModel, msgs, sources)
}

func (s *Service) retrieval(p AskParams) (request.Request, error) {
	if p.Retrieval != nil {
		return *p.Retrieval, nil
	}
	req, err := request.New(request.Params{Mode: mode.Hybrid, Query: p.Question, Limit: DefaultRetrievalLimit})
	if err != nil {
		return request.Request{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	return req, nil
}

func (s *Service) retrieve(ctx context.Context, col domcol.Collection, req request.Request) ([]result.Result, error) {
	prepared, err := s.preparer.Prepare(ctx, col, req)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.Search(ctx, col, prepared)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	return results, nil
}

// contextProperties defaults to the collection's text properties; blobs would flood the prompt.
func (s *Service) contextProperties(col domcol.Collection, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	var out []string
	for _, p := range col.Properties() {
		if p.DataType().IsText() || p.DataType() == property.Date || p.DataType() == property.Number ||
			p.DataType() == property.Int {
			out = append(out, p.Name())
		}
	}
	return out
}

func (s *Service) complete(
	ctx context.Context, model string, msgs []domain.Message, sources []rag.Source,
) (rag.Answer, error) {
	res, err := s.llm.Complete(ctx, domain.ChatRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return rag.Answer{}, fmt.Errorf("chat completion: %w", err)
	}
	return rag.Answer{Text: res.Text, Model: res.Model, Usage: res.Usage, Sources: sources}, nil
}
