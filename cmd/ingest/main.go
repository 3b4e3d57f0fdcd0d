// Command ingest runs the Ingestion API: chunked video upload, submission,
// edit/delete, download, and catalog lookups.
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

	"maprandovideos.io/videos/internal/application"
	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/internal/config"
	"maprandovideos.io/videos/internal/ingest"
	"maprandovideos.io/videos/pkg/objectstore"
	"maprandovideos.io/videos/pkg/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := config.NewLogger(os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)
	slog.Info("starting ingest service")

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

	store, err := objectstore.Open(ctx, conf.VideoStorageBucketURL, conf.VideoStorageKeyPrefix)
	if err != nil {
		slog.Error("failed to open object store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	mq, err := queue.Connect(conf.RabbitURL, conf.RabbitQueue)
	if err != nil {
		slog.Error("failed to connect to message bus", "error", err)
		os.Exit(1)
	}
	defer mq.Close()

	server := ingest.NewServer(catalog.New(pool), store, mq, conf.XZCompressionLvl, conf.MaxUploadPartSize, conf.PublicClientURL)

	addr := fmt.Sprintf(":%d", conf.WebServerPort)
	go func() {
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			slog.Error("ingest server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	slog.Info("ingest service stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down cleanly", "error", err)
	}
}
