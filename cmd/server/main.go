package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"stockintel/internal/api"
	"stockintel/internal/config"
	"stockintel/internal/logging"
	"stockintel/pkg/stockintel"
)

func main() {
	cfg := config.Load()

	logger, writer, err := logging.NewLogger(cfg.LogDir, slog.LevelInfo)
	if err != nil {
		slog.Error("failed to initialize logger", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("failed to close log writer", "err", err)
		}
	}()

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	core, err := stockintel.New(stockintel.Options{
		Logger:          logger,
		AlphaVantageKey: cfg.AlphaVantageKey,
		FinnhubKey:      cfg.FinnhubKey,
		NewsAPIKey:      cfg.NewsAPIKey,
		Model: stockintel.ModelOptions{
			Provider: cfg.AIProvider,
			APIKey:   cfg.AIAPIKey,
			BaseURL:  cfg.AIBaseURL,
			Model:    cfg.AIModel,
		},
		ProviderTimeout:  cfg.ProviderTimeout,
		ModelTimeout:     cfg.ModelTimeout,
		ModelRetries:     modelRetriesOption(cfg.ModelRetries),
		CacheTTL:         cfg.CacheTTL,
		SearchMaxResults: cfg.SearchMaxResults,
	})
	if err != nil {
		logger.Error("failed to initialize core", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	handler := api.NewRouter(core)
	if webDir := resolveWebDir(cfg.WebDir); webDir != "" {
		logger.Info("serving SPA", "web_dir", webDir)
		handler = api.WithSPA(handler, webDir)
	}
	handler = middleware.Compress(5)(handler)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A cold analyze holds the response for collection plus a full
		// model retry cycle.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server starting", "addr", addr)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Info("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}

// modelRetriesOption maps the configured retry count to the core option,
// where zero from the environment means no retries at all.
func modelRetriesOption(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

func resolveWebDir(input string) string {
	if input != "" {
		if dirExists(input) {
			return input
		}
		return ""
	}

	candidates := []string{"static", "../static"}
	for _, candidate := range candidates {
		if dirExists(candidate) {
			return candidate
		}
	}
	return ""
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
