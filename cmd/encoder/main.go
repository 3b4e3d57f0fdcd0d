// Command encoder runs the Derivation Worker: it consumes derivation
// messages and produces thumbnail, highlight, and full-video renditions.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"maprandovideos.io/videos/internal/application"
	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/internal/config"
	"maprandovideos.io/videos/internal/derive"
	"maprandovideos.io/videos/pkg/cdn"
	"maprandovideos.io/videos/pkg/objectstore"
	"maprandovideos.io/videos/pkg/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := config.NewLogger(os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)
	slog.Info("starting encoder service")

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

	purger := cdn.New(conf.CDNBaseURL, conf.CDNAPIKey)
	worker := derive.NewWorker(catalog.New(pool), store, conf.FFmpegPath, conf.ScratchDir, purger)

	hostname, _ := os.Hostname()
	consumerTag := fmt.Sprintf("encoder-%s", hostname)

	slog.Info("encoder worker consuming", "consumer_tag", consumerTag, "queue", conf.RabbitQueue)
	if err := worker.Run(ctx, mq, consumerTag); err != nil && ctx.Err() == nil {
		slog.Error("encoder worker stopped", "error", err)
		os.Exit(1)
	}

	slog.Info("encoder service stopping")
}
