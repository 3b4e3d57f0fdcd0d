// Package derive implements the Derivation Worker: it consumes derivation
// messages, reassembles a video's multi-part xz sequence through parallel
// named pipes into an ffmpeg subprocess, uploads the rendition, purges the
// CDN, and stamps the completion timestamp.
package derive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/internal/messaging"
	"maprandovideos.io/videos/pkg/cdn"
	"maprandovideos.io/videos/pkg/ffmpeg"
	"maprandovideos.io/videos/pkg/fifo"
	"maprandovideos.io/videos/pkg/objectstore"
	"maprandovideos.io/videos/pkg/queue"
	"maprandovideos.io/videos/pkg/xzgzip"
)

// Worker owns the dependencies needed to turn one derivation message into a
// rendition: the catalog (for the completion stamp), the object store (raw
// parts in, rendition out), the transcoder binary, a scratch directory for
// pipes and part files, and the CDN purger.
type Worker struct {
	queries    *catalog.Queries
	store      *objectstore.Store
	ffmpegPath string
	scratchDir string
	purger     cdn.Purger
}

// NewWorker builds a Worker. scratchDir must be writable and is typically
// the process-wide /tmp, per §5's shared-resource note.
func NewWorker(queries *catalog.Queries, store *objectstore.Store, ffmpegPath, scratchDir string, purger cdn.Purger) *Worker {
	return &Worker{queries: queries, store: store, ffmpegPath: ffmpegPath, scratchDir: scratchDir, purger: purger}
}

// Run consumes derivation messages from q with prefetch 1, processing one
// at a time, per §4.5 and §5's concurrency model. Handler errors cause a
// nack-with-requeue; the broker redelivers.
func (w *Worker) Run(ctx context.Context, q *queue.Client, consumerTag string) error {
	return q.Consume(ctx, consumerTag, func(ctx context.Context, body []byte) error {
		var msg messaging.DerivationMessage
		if err := jsonUnmarshal(body, &msg); err != nil {
			slog.Error("derive: malformed message, dropping", "error", err)
			return nil // redelivery would never succeed; drop rather than loop forever
		}
		return w.process(ctx, msg)
	})
}

func (w *Worker) process(ctx context.Context, msg messaging.DerivationMessage) error {
	job, err := newJob(w.scratchDir, msg.VideoID, msg.Kind)
	if err != nil {
		return fmt.Errorf("derive: prepare job: %w", err)
	}
	defer job.cleanup()

	if err := w.materializeParts(ctx, job, msg.NumParts); err != nil {
		return fmt.Errorf("derive: materialize parts: %w", err)
	}

	cmd, outputExt, contentType := w.buildCommand(job, msg)

	proc, err := cmd.Start(ctx)
	if err != nil {
		return fmt.Errorf("derive: start transcoder: %w", err)
	}

	// Feeders run under a cancelable group: the transcoder may exit without
	// ever opening a later pipe (a thumbnail found in part 0), which would
	// otherwise leave that pipe's feeder blocked in open forever.
	feedCtx, cancelFeeders := context.WithCancel(ctx)
	defer cancelFeeders()
	g, gctx := errgroup.WithContext(feedCtx)
	for i, pipe := range job.pipes {
		partPath := job.partPaths[i]
		fifo.Feed(gctx, g, pipe.Path, func(f *os.File) error {
			return feedPart(gctx, partPath, f)
		})
	}

	waitErr := proc.Wait()
	cancelFeeders()
	feedErr := g.Wait()

	if waitErr != nil {
		return fmt.Errorf("derive: transcoder failed: %w", waitErr)
	}
	if feedErr != nil && !errors.Is(feedErr, context.Canceled) {
		return fmt.Errorf("derive: feed part: %w", feedErr)
	}

	renditionKey := fmt.Sprintf("%s/%d.%s", msg.Kind.RenditionDir(), msg.VideoID, outputExt)
	if err := w.uploadRendition(ctx, job.outputPath, renditionKey, contentType); err != nil {
		return fmt.Errorf("derive: upload rendition: %w", err)
	}

	if err := w.purger.Purge(ctx, "/"+renditionKey); err != nil {
		return fmt.Errorf("derive: purge CDN: %w", err)
	}

	if err := w.queries.StampProcessed(ctx, msg.VideoID, msg.Kind.Column()); err != nil {
		return fmt.Errorf("derive: stamp processed: %w", err)
	}

	return nil
}

// materializeParts fetches each part's xz object, decompresses it
// streaming, and writes it to a scratch file the corresponding named pipe
// later feeds from.
func (w *Worker) materializeParts(ctx context.Context, job *job, numParts int32) error {
	for p := int32(0); p < numParts; p++ {
		if err := job.addPart(p); err != nil {
			return err
		}

		key := fmt.Sprintf("avi-xz/%d-%d.avi.xz", job.videoID, p)
		reader, err := w.store.NewReader(ctx, key)
		if err != nil {
			return fmt.Errorf("fetch part %d: %w", p, err)
		}

		xzReader, err := xzgzip.XZReader(reader)
		if err != nil {
			reader.Close()
			return fmt.Errorf("open xz part %d: %w", p, err)
		}

		if err := writeFile(job.partPaths[p], xzReader); err != nil {
			reader.Close()
			return fmt.Errorf("write scratch part %d: %w", p, err)
		}
		reader.Close()
	}
	return job.writeManifest()
}

func (w *Worker) uploadRendition(ctx context.Context, path, key, contentType string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return w.store.Put(ctx, key, f, objectstore.WriteOptions{
		ContentType:  contentType,
		CacheControl: "no-cache",
	})
}

// buildCommand selects the ffmpeg invocation and output metadata for msg's
// kind, per §4.5's filter graphs.
func (w *Worker) buildCommand(job *job, msg messaging.DerivationMessage) (*ffmpeg.Command, string, string) {
	concat := ffmpeg.ConcatManifest(job.manifestPath)
	switch msg.Kind {
	case messaging.KindThumbnail:
		job.outputPath = filepath.Join(job.dir, "thumbnail.png")
		return ffmpeg.ThumbnailCommand(w.ffmpegPath, job.manifestPath, job.outputPath,
			msg.CropSize, msg.CropCenterX, msg.CropCenterY, msg.FrameNumber, concat), "png", "image/png"
	case messaging.KindHighlight:
		job.outputPath = filepath.Join(job.dir, "highlight.webp")
		return ffmpeg.HighlightCommand(w.ffmpegPath, job.manifestPath, job.outputPath,
			msg.CropSize, msg.CropCenterX, msg.CropCenterY, msg.StartFrameNumber, msg.EndFrameNumber, concat), "webp", "image/webp"
	default:
		job.outputPath = filepath.Join(job.dir, "full_video.mp4")
		return ffmpeg.FullVideoCommand(w.ffmpegPath, job.manifestPath, job.outputPath, concat), "mp4", "video/mp4"
	}
}
