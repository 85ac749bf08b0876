// Command wvskills-server exposes the collection, ingestion, query and RAG
// workflows over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/saskinosie/weaviate-claude-skills/internal/app"
	"github.com/saskinosie/weaviate-claude-skills/internal/config"
	logpkg "github.com/saskinosie/weaviate-claude-skills/internal/logger"
	chiTransport "github.com/saskinosie/weaviate-claude-skills/internal/transport/chi"
	"github.com/saskinosie/weaviate-claude-skills/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	if err := config.LoadDotEnv(".env"); err != nil {
		panic("failed to load .env: " + err.Error())
	}
	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	build := version.Get()
	logger.Info("Starting wvskills API server",
		zap.String("version", build.Version),
		zap.String("commit", build.Commit),
		zap.String("go", build.GoVersion),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("weaviate_url", cfg.Weaviate.URL),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger, app.Options{WaitForReady: true})
	if err != nil {
		logger.Fatal("Failed to start services", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Error closing services", zap.Error(err))
		}
	}()

	server := chiTransport.NewServer(a.HTTPServices(), chiTransport.QueryLimits{
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
	})
	handler := server.Handler(
		chiTransport.JSONRecoverer(logger),
		chiMiddleware.RequestID,
		chiTransport.WideEventMiddleware(logger),
		chiTransport.APIKeyAuth(cfg.Auth.APIKeys, chiTransport.PublicPaths...),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		logger.Error("HTTP server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
