package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/romajiapi/internal/api"
	"github.com/dgallion1/romajiapi/internal/config"
	"github.com/dgallion1/romajiapi/internal/morph"
	"github.com/dgallion1/romajiapi/internal/news"
	"github.com/dgallion1/romajiapi/internal/pipeline"
	"github.com/dgallion1/romajiapi/internal/romaji"
	"github.com/dgallion1/romajiapi/internal/translate"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tagger, err := morph.NewKagomeTagger()
	if err != nil {
		log.Error("tagger init failed", "error", err)
		os.Exit(1)
	}
	exceptions, err := romaji.LoadExceptions(cfg.RomajiExceptionsFile)
	if err != nil {
		log.Error("load romaji exceptions", "path", cfg.RomajiExceptionsFile, "error", err)
		os.Exit(1)
	}
	conv := romaji.NewConverter(tagger, exceptions)

	stats := translate.NewStats(time.Hour)
	llm := translate.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.OpenRouterModel, stats)
	tr := translate.NewTranslator(llm, cfg.TranslateChunkSize, cfg.TranslateConcurrency, log)
	if cfg.OpenRouterAPIKey == "" {
		log.Warn("OPENROUTER_API_KEY not set, translation disabled")
	}

	newsClient := news.NewClient(cfg.NewsAPIKey, cfg.NewsAPIBaseURL, cfg.NewsCacheTTL)
	if cfg.NewsAPIKey == "" {
		log.Warn("NEWSAPI_KEY not set, news disabled")
	}

	orch := pipeline.NewOrchestrator(cfg, tr, conv, log)
	orch.Start(ctx)

	srv, err := api.NewServer(api.Deps{
		Romaji:     conv,
		Translator: tr,
		News:       newsClient,
		Jobs:       orch,
		Stats:      stats,
	}, log, cfg)
	if err != nil {
		log.Error("server init failed", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		llm.Close()
		newsClient.Purge()
	}()

	log.Info("starting romajiapi", "port", cfg.Port, "version", api.Version)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
