// Command refsync runs the Reference Sync service: a single /update
// endpoint that pulls the pinned game-data branch and rewrites the
// catalog's reference tables.
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

	"golang.org/x/time/rate"

	"maprandovideos.io/videos/internal/application"
	"maprandovideos.io/videos/internal/config"
	"maprandovideos.io/videos/internal/refsync"
)

// updateRateLimit bounds how often an external webhook caller can trigger a
// reparse; a reparse clones/resets a git working copy and rewrites the
// reference tables, too expensive to run on every retry of a flaky caller.
const updateRateLimit = rate.Limit(1.0 / 10.0) // once per 10 seconds

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := config.NewLogger(os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)
	slog.Info("starting refsync service")

	conf, err := config.Load(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	syncer := refsync.NewSyncer(conf.GitRepoURL, conf.GitRepoBranch, conf.GitRepoLocalPath, pool)

	slog.Info("running initial reference sync")
	if err := syncer.Update(ctx); err != nil {
		slog.Error("initial reference sync failed", "error", err)
	}

	limiter := rate.NewLimiter(updateRateLimit, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /update", func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "too many sync requests", http.StatusTooManyRequests)
			return
		}
		if err := syncer.Update(r.Context()); err != nil {
			slog.Error("reference sync failed", "error", err)
			http.Error(w, "reference sync failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", conf.RefSyncPort),
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("refsync server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("refsync service stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down cleanly", "error", err)
	}
}
