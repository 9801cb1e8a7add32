// File path: cmd/riskd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Yoshani/team-xc7/internal/api"
	"github.com/Yoshani/team-xc7/internal/catalog"
	"github.com/Yoshani/team-xc7/internal/common"
	"github.com/Yoshani/team-xc7/internal/lineage"
	"github.com/Yoshani/team-xc7/internal/llm"
	"github.com/Yoshani/team-xc7/internal/metrics"
	"github.com/Yoshani/team-xc7/internal/nfr"
	"github.com/Yoshani/team-xc7/internal/retriever"
	"github.com/Yoshani/team-xc7/internal/review"
	"github.com/Yoshani/team-xc7/internal/risk"
	"github.com/Yoshani/team-xc7/internal/vector"
	"github.com/Yoshani/team-xc7/internal/workflow"
)

func main() {
	logger := common.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logger.Warn("riskd: .env file not loaded", "error", err)
	} else {
		logger.Info("riskd: environment loaded from .env")
	}

	addr := flag.String("addr", ":8082", "listen address")
	catalogPath := flag.String("catalog", defaultCatalogPath(), "path to the SQLite catalog database")
	flag.Parse()

	logger.Info("riskd: startup initiated", "addr", *addr, "catalog", *catalogPath)

	catalogCfg, err := catalog.LoadConfig()
	if err != nil {
		fail(logger, "catalog config", err)
	}
	if trimmed := strings.TrimSpace(*catalogPath); trimmed != "" {
		catalogCfg.Path = trimmed
	}
	store, err := catalog.OpenWithConfig(catalogCfg)
	if err != nil {
		fail(logger, "open catalog", err)
	}
	defer store.Close()

	index, err := vector.NewFromEnv()
	if err != nil {
		fail(logger, "vector index", err)
	}

	provider := llm.NewProvider()
	logger.Info("riskd: llm provider ready", "provider", provider.Name())

	tracker, err := lineage.NewTracker()
	if err != nil {
		fail(logger, "lineage tracker", err)
	}

	retr, err := retriever.New(provider, index, store)
	if err != nil {
		fail(logger, "retriever", err)
	}
	generator, err := nfr.New(provider, retr, store, index)
	if err != nil {
		fail(logger, "nfr generator", err)
	}
	classifier, err := review.NewClassifier(store, tracker)
	if err != nil {
		fail(logger, "classifier", err)
	}
	suggester := review.NewSuggester(provider, store)
	synth, err := risk.NewSynthesizer(store)
	if err != nil {
		fail(logger, "risk synthesizer", err)
	}
	estimator := risk.NewEstimator(provider, store)
	aggregator := metrics.NewAggregator(store, nil)

	manager, err := workflow.NewManager(store, tracker, suggester, classifier, estimator, synth, aggregator)
	if err != nil {
		fail(logger, "workflow manager", err)
	}

	// Rebuild in-memory state from the catalog before serving: the lineage
	// forest and the seed embedding index do not survive restarts.
	if err := manager.Hydrate(ctx); err != nil {
		fail(logger, "hydrate lineage", err)
	}
	indexed, err := retr.Sync(ctx)
	if err != nil {
		fail(logger, "sync retrieval corpus", err)
	}
	logger.Info("riskd: retrieval corpus ready", "pairs", indexed)

	server, err := api.NewServer(store, index, tracker, retr, generator, synth, aggregator, suggester, manager)
	if err != nil {
		fail(logger, "server construction", err)
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("riskd: server listening", "addr", *addr, "health", "/healthz")
		fmt.Printf("Serving on %s\n", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("riskd: shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("riskd: shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("riskd: server stopped", "error", err)
			fmt.Println("server stopped:", err)
			os.Exit(1)
		}
	}
	logger.Info("riskd: stopped")
}

func defaultCatalogPath() string {
	return filepath.Join("data", "catalog.db")
}

func fail(logger *slog.Logger, what string, err error) {
	logger.Error("riskd: startup failed", "stage", what, "error", err)
	fmt.Println(what+" error:", err)
	os.Exit(1)
}
