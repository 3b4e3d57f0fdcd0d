package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/internal/messaging"
)

func zeroIfNil(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}

// publishDerivations enqueues Thumbnail and Highlight messages, and
// FullVideo only when includeFullVideo is true (edits never re-derive the
// full video: raw bytes are immutable, per §4.4.4). Publication is
// best-effort; duplicates delivered by a retry are harmless since
// derivations are idempotent.
func (s *Server) publishDerivations(ctx context.Context, v *catalog.Video, includeFullVideo bool) error {
	messages := []messaging.DerivationMessage{
		messaging.NewThumbnail(v.ID, v.NumParts, zeroIfNil(v.CropCenterX), zeroIfNil(v.CropCenterY), zeroIfNil(v.CropSize), zeroIfNil(v.ThumbnailT)),
		messaging.NewHighlight(v.ID, v.NumParts, zeroIfNil(v.CropCenterX), zeroIfNil(v.CropCenterY), zeroIfNil(v.CropSize), zeroIfNil(v.HighlightStartT), zeroIfNil(v.HighlightEndT)),
	}
	if includeFullVideo {
		messages = append(messages, messaging.NewFullVideo(v.ID, v.NumParts))
	}

	for _, m := range messages {
		body, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("ingest: encode derivation message: %w", err)
		}
		if err := s.queue.Publish(ctx, body); err != nil {
			return fmt.Errorf("ingest: publish %s: %w", m.Kind, err)
		}
	}
	return nil
}
