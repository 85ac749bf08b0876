// Package app is the composition root shared by the CLI and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/config"
	"github.com/saskinosie/weaviate-claude-skills/internal/db"
	"github.com/saskinosie/weaviate-claude-skills/internal/db/memory"
	dbRedis "github.com/saskinosie/weaviate-claude-skills/internal/db/redis"
	"github.com/saskinosie/weaviate-claude-skills/internal/db/weaviate"
	"github.com/saskinosie/weaviate-claude-skills/internal/domain"
	"github.com/saskinosie/weaviate-claude-skills/internal/metrics"
	budgetrepo "github.com/saskinosie/weaviate-claude-skills/internal/repository/budget"
	collectionrepo "github.com/saskinosie/weaviate-claude-skills/internal/repository/collection"
	"github.com/saskinosie/weaviate-claude-skills/internal/repository/embcache"
	objectrepo "github.com/saskinosie/weaviate-claude-skills/internal/repository/object"
	searchrepo "github.com/saskinosie/weaviate-claude-skills/internal/repository/search"
	chiTransport "github.com/saskinosie/weaviate-claude-skills/internal/transport/chi"
	openaiTransport "github.com/saskinosie/weaviate-claude-skills/internal/transport/openai"
	batchuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/batch"
	"github.com/saskinosie/weaviate-claude-skills/internal/usecase/budget"
	collectionuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/collection"
	embeddinguc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/embedding"
	healthuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/health"
	objectuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/object"
	raguc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/rag"
	searchuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/search"
	usageuc "github.com/saskinosie/weaviate-claude-skills/internal/usecase/usage"
)

const provider = "openai"

// App holds one Weaviate handle and the services built on it.
// Close must be called on every exit path.
type App struct {
	Config config.Config
	Logger *zap.Logger

	DB *weaviate.Client
	KV db.KVStore

	Collections *collectionuc.Service
	Objects     *objectuc.Service
	Batch       *batchuc.Service
	Search      *searchuc.Service
	RAG         *raguc.Service
	Health      *healthuc.Service
	Usage       *usageuc.Service
}

// Options control startup behavior.
type Options struct {
	// WaitForReady blocks until Weaviate answers its readiness probe.
	WaitForReady bool
}

// New connects to Weaviate and the optional key-value store and wires the services.
// On error every handle opened so far is released.
func New(ctx context.Context, cfg config.Config, log *zap.Logger, opts Options) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: log}
	if err := a.build(ctx, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	cfg, log := a.Config, a.Logger

	var err error
	a.DB, err = weaviate.NewClient(weaviate.Config{
		URL:     cfg.Weaviate.URL,
		APIKey:  cfg.Weaviate.APIKey,
		Headers: cfg.WeaviateHeaders(),
		Timeout: time.Duration(cfg.Weaviate.TimeoutSec) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("connect weaviate: %w", err)
	}
	if opts.WaitForReady {
		if err = a.DB.WaitForReady(ctx, time.Duration(cfg.Weaviate.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("weaviate not ready: %w", err)
		}
		log.Info("Connected to Weaviate", zap.String("url", cfg.Weaviate.URL))
	}

	a.KV, err = newKVStore(cfg.Cache)
	if err != nil {
		return fmt.Errorf("connect cache: %w", err)
	}
	if w, ok := a.KV.(readyWaiter); ok && opts.WaitForReady {
		if err = w.WaitForReady(ctx, time.Duration(cfg.Weaviate.ReadinessTimeout)*time.Second); err != nil {
			return fmt.Errorf("cache not ready: %w", err)
		}
	}

	metrics.RegisterProviderMetrics()

	tracker := a.newBudget(ctx)
	// Pass nil interfaces, not typed nil pointers.
	var (
		embBudget    embeddinguc.Budget
		genBudget    raguc.Budget
		budgetReader usageuc.BudgetReader
	)
	if tracker != nil {
		embBudget, genBudget, budgetReader = tracker, tracker, tracker
	}

	embedder := a.newEmbedder(embBudget)
	var (
		llm      domain.Generator
		llmCheck healthuc.Checker
	)
	if g := a.newGenerator(genBudget); g != nil {
		llm, llmCheck = g, g
	}

	collRepo := collectionrepo.New(a.DB, time.Duration(cfg.Cache.SchemaTTLSec)*time.Second)
	objRepo := objectrepo.New(a.DB)
	srchRepo := searchrepo.New(a.DB)

	a.Collections = collectionuc.New(collRepo,
		collectionuc.WithModuleCheck(collectionrepo.NewModules(a.DB, time.Duration(cfg.Cache.SchemaTTLSec)*time.Second)))
	a.Objects = objectuc.New(objRepo, collRepo, embedder)
	a.Batch = batchuc.New(objRepo, collRepo, embedder).WithLimits(cfg.Batch.Size, cfg.Batch.MaxItems)
	a.Search = searchuc.New(srchRepo, objRepo, collRepo, embedder).
		WithPagination(cfg.Query.DefaultLimit, cfg.Query.MaxLimit)
	a.RAG = raguc.New(srchRepo, a.Search, collRepo, llm, raguc.Config{
		ChatModel:   cfg.OpenAI.ChatModel,
		VisionModel: cfg.OpenAI.VisionModel,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
	})
	a.Usage = usageuc.New(budgetReader)

	var cachePing healthuc.Pinger
	if a.KV != nil {
		cachePing = a.KV
	}
	a.Health = healthuc.New(a.DB, llmCheck, cachePing)

	log.Info("Services ready",
		zap.String("cache", cfg.Cache.Driver),
		zap.Bool("openai", embedder != nil),
		zap.Bool("budget", tracker != nil),
	)
	return nil
}

// HTTPServices exposes the services to the HTTP transport.
func (a *App) HTTPServices() chiTransport.Services {
	return chiTransport.Services{
		Collections: a.Collections,
		Objects:     a.Objects,
		Batch:       a.Batch,
		Search:      a.Search,
		RAG:         a.RAG,
		Health:      a.Health,
		Usage:       a.Usage,
		Meta:        a.DB,
	}
}

// Close releases the Weaviate handle and the key-value store. Safe to call twice.
func (a *App) Close() error {
	var errs []error
	if a.KV != nil {
		a.KV.Close()
		a.KV = nil
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && !errors.Is(err, db.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type readyWaiter interface {
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

func newKVStore(cfg config.CacheConfig) (db.KVStore, error) {
	switch cfg.Driver {
	case config.CacheRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			URL:       cfg.URL,
			Addrs:     cfg.Addrs,
			Username:  cfg.Username,
			Password:  cfg.Password,
			DB:        cfg.DB,
			TLS:       cfg.TLS,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.CacheMemory:
		return memory.NewStore(time.Minute), nil
	default:
		return nil, nil
	}
}

// newBudget returns nil when no limit is configured.
func (a *App) newBudget(ctx context.Context) *budget.Tracker {
	b := a.Config.Budget
	if b.DailyTokenLimit <= 0 && b.MonthlyTokenLimit <= 0 {
		return nil
	}
	tracker := budget.NewTracker(provider,
		budget.Limits{Daily: b.DailyTokenLimit, Monthly: b.MonthlyTokenLimit},
		budget.ParseAction(b.Action), a.Logger)
	if a.KV != nil {
		tracker.WithStore(ctx, budgetrepo.New(a.KV))
	}
	return tracker
}

// newEmbedder assembles the decorator chain OpenAI -> Cached -> Instrumented.
// It returns nil without an API key; collections then need a vectorizer module.
func (a *App) newEmbedder(b embeddinguc.Budget) domain.Embedder {
	oc := a.Config.OpenAI
	if oc.APIKey == "" {
		return nil
	}
	var embedder domain.Embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     oc.APIKey,
		BaseURL:    oc.BaseURL,
		Model:      oc.EmbeddingModel,
		Dimensions: oc.Dimensions,
		Provider:   provider,
		Timeout:    time.Duration(oc.TimeoutSec) * time.Second,
		Logger:     a.Logger,
	})
	if a.KV != nil {
		embedder = embcache.New(embedder, a.KV, oc.EmbeddingModel,
			time.Duration(a.Config.Cache.EmbeddingTTLSec)*time.Second, metrics.EmbeddingCacheTotal, a.Logger)
	}
	return embeddinguc.NewInstrumentedEmbedder(embedder, provider, oc.EmbeddingModel, b, a.Logger)
}

// newGenerator returns nil without an API key.
func (a *App) newGenerator(b raguc.Budget) *raguc.InstrumentedGenerator {
	oc := a.Config.OpenAI
	if oc.APIKey == "" {
		return nil
	}
	gen := openaiTransport.NewGenerator(&openaiTransport.Config{
		APIKey:   oc.APIKey,
		BaseURL:  oc.BaseURL,
		Model:    oc.ChatModel,
		Provider: provider,
		Timeout:  time.Duration(oc.TimeoutSec) * time.Second,
		Logger:   a.Logger,
	})
	return raguc.NewInstrumentedGenerator(gen, provider, b, a.Logger)
}
