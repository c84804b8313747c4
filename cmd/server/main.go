package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/liamcoop/formulas/generation"
	"github.com/liamcoop/formulas/internal/config"
	"github.com/liamcoop/formulas/internal/logger"
	"github.com/liamcoop/formulas/llm/provider"
	"github.com/liamcoop/formulas/policy"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, release, err := provider.New(ctx, cfg.LLM)
	switch {
	case errors.Is(err, provider.ErrMissingCredential):
		logger.Warn("LLM credential not set, generation disabled", "provider", cfg.LLM.Provider)
	case err != nil:
		logger.Error("failed to initialise LLM client, generation disabled", "provider", cfg.LLM.Provider, "error", err)
	default:
		logger.Info("LLM client initialised", "provider", cfg.LLM.Provider, "model", gen.Model())
	}
	defer release()

	server := NewServer(generation.New(gen, policy.Default()), ServerOptions{
		CredentialEnv:  credentialEnv(cfg.LLM.Provider),
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "port", cfg.Server.Port, "llm_configured", gen != nil)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
	}

	logger.Info("Server stopped", "stats", logger.Snapshot())

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = logger.Shutdown(flushCtx)
}

func credentialEnv(p string) string {
	if p == config.ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}
