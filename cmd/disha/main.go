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

	"github.com/disha-ai/disha/internal/config"
	"github.com/disha-ai/disha/internal/gateway"
	"github.com/disha-ai/disha/internal/history"
	"github.com/disha-ai/disha/internal/llm"
	"github.com/disha-ai/disha/internal/logger"
	"github.com/disha-ai/disha/internal/mcpserver"
	"github.com/disha-ai/disha/internal/resume"
	"github.com/disha-ai/disha/internal/server"
	"github.com/disha-ai/disha/internal/workspace"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	// Initialize LLM client
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		logger.L.Error("failed to create llm client", "provider", cfg.LLM.Provider, "error", err)
		os.Exit(1)
	}
	if cfg.LLM.APIKey == "" {
		logger.L.Warn("no API key configured; model features will report errors")
	}

	gw := gateway.New(client,
		gateway.WithSystemPrompt(cfg.LLM.SystemPrompt),
		gateway.WithResumeLimit(cfg.Resume.MaxChars),
	)

	transcripts := history.Open(cfg.History.Path)
	defer transcripts.Close()

	opts := []server.Option{server.WithMaxUpload(cfg.Resume.MaxUploadBytes)}
	if cfg.Storage.Enabled() {
		fetcher, err := resume.NewFetcher(ctx, cfg.Storage)
		if err != nil {
			logger.L.Error("failed to configure resume storage", "bucket", cfg.Storage.Bucket, "error", err)
			os.Exit(1)
		}
		opts = append(opts, server.WithObjectSource(fetcher))
	}
	if cfg.MCP.Enabled {
		opts = append(opts, server.WithMCP(mcpserver.NewSSEHandler(mcpserver.New(gw))))
	}

	registry := workspace.NewRegistry(gw, transcripts,
		workspace.WithMaxLive(cfg.Workspace.MaxLive),
		workspace.WithIdleTTL(cfg.Workspace.IdleTTL),
	)
	handler := server.New(registry, opts...)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.L.Info("starting server", "address", addr, "provider", cfg.LLM.Provider, "model", cfg.LLM.Model, "mcp", cfg.MCP.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.L.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("server forced to shutdown", "error", err)
		return
	}
	logger.L.Info("server stopped gracefully")
}
