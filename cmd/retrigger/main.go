// Command retrigger republishes derivation messages for every video that
// has ever been submitted (crop parameters configured), for operational
// recovery after a broker outage or a derivation worker regression.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"maprandovideos.io/videos/internal/application"
	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/internal/config"
	"maprandovideos.io/videos/internal/messaging"
	"maprandovideos.io/videos/pkg/queue"
)

func main() {
	purgeQueue := flag.Bool("purge-queue", false, "purge the derivation queue before republishing")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := config.NewLogger(os.Getenv("LOG_FORMAT"))
	slog.SetDefault(logger)
	slog.Info("starting retrigger tool", "purge_queue", *purgeQueue)

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

	mq, err := queue.Connect(conf.RabbitURL, conf.RabbitQueue)
	if err != nil {
		slog.Error("failed to connect to message bus", "error", err)
		os.Exit(1)
	}
	defer mq.Close()

	if *purgeQueue {
		purged, err := mq.Purge(ctx)
		if err != nil {
			slog.Error("failed to purge queue", "error", err)
			os.Exit(1)
		}
		slog.Info("purged queue", "discarded", purged)
	}

	queries := catalog.New(pool)
	videos, err := queries.ListVideosForRetrigger(ctx)
	if err != nil {
		slog.Error("failed to list videos", "error", err)
		os.Exit(1)
	}
	slog.Info("retrieved metadata for videos", "count", len(videos))

	for _, v := range videos {
		if err := publishAll(ctx, mq, v); err != nil {
			slog.Error("failed to republish video", "video_id", v.ID, "error", err)
			os.Exit(1)
		}
		slog.Info("republished video", "video_id", v.ID)
	}

	slog.Info("successfully republished all messages", "queue", conf.RabbitQueue)
}

func publishAll(ctx context.Context, mq *queue.Client, v catalog.Video) error {
	messages := []messaging.DerivationMessage{
		messaging.NewThumbnail(v.ID, v.NumParts, zeroIfNil(v.CropCenterX), zeroIfNil(v.CropCenterY), zeroIfNil(v.CropSize), zeroIfNil(v.ThumbnailT)),
		messaging.NewHighlight(v.ID, v.NumParts, zeroIfNil(v.CropCenterX), zeroIfNil(v.CropCenterY), zeroIfNil(v.CropSize), zeroIfNil(v.HighlightStartT), zeroIfNil(v.HighlightEndT)),
		messaging.NewFullVideo(v.ID, v.NumParts),
	}
	for _, m := range messages {
		body, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode %s: %w", m.Kind, err)
		}
		if err := mq.Publish(ctx, body); err != nil {
			return fmt.Errorf("publish %s: %w", m.Kind, err)
		}
	}
	return nil
}

func zeroIfNil(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
