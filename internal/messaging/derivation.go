// Package messaging defines the tagged-union derivation messages published
// by the Ingestion API and consumed by the Derivation Worker, mirroring the
// EncodingTask enum in the original source's lib.rs.
package messaging

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which rendition a DerivationMessage asks for.
type Kind string

const (
	KindThumbnail Kind = "ThumbnailImage"
	KindHighlight Kind = "HighlightAnimation"
	KindFullVideo Kind = "FullVideo"
)

// RenditionDir returns the object store key directory for this kind's
// rendition, per the object store key layout in §6.
func (k Kind) RenditionDir() string {
	switch k {
	case KindThumbnail:
		return "png"
	case KindHighlight:
		return "webp"
	default:
		return "mp4"
	}
}

// Column returns the *_processed_ts column name StampProcessed expects for
// this kind.
func (k Kind) Column() string {
	switch k {
	case KindThumbnail:
		return "thumbnail"
	case KindHighlight:
		return "highlight"
	default:
		return "full_video"
	}
}

// DerivationMessage is the JSON-tagged variant published to the queue.
// It is always marshaled as a single-key object: {"<Kind>": {...fields}}.
type DerivationMessage struct {
	Kind Kind

	VideoID  int32
	NumParts int32

	// Thumbnail/Highlight only.
	CropCenterX int32
	CropCenterY int32
	CropSize    int32

	// Thumbnail only.
	FrameNumber int32

	// Highlight only.
	StartFrameNumber int32
	EndFrameNumber   int32
}

type thumbnailPayload struct {
	VideoID     int32 `json:"video_id"`
	NumParts    int32 `json:"num_parts"`
	CropCenterX int32 `json:"crop_center_x"`
	CropCenterY int32 `json:"crop_center_y"`
	CropSize    int32 `json:"crop_size"`
	FrameNumber int32 `json:"frame_number"`
}

type highlightPayload struct {
	VideoID          int32 `json:"video_id"`
	NumParts         int32 `json:"num_parts"`
	CropCenterX      int32 `json:"crop_center_x"`
	CropCenterY      int32 `json:"crop_center_y"`
	CropSize         int32 `json:"crop_size"`
	StartFrameNumber int32 `json:"start_frame_number"`
	EndFrameNumber   int32 `json:"end_frame_number"`
}

type fullVideoPayload struct {
	VideoID  int32 `json:"video_id"`
	NumParts int32 `json:"num_parts"`
}

// NewThumbnail builds a ThumbnailImage derivation message.
func NewThumbnail(videoID, numParts, cropCenterX, cropCenterY, cropSize, frameNumber int32) DerivationMessage {
	return DerivationMessage{
		Kind: KindThumbnail, VideoID: videoID, NumParts: numParts,
		CropCenterX: cropCenterX, CropCenterY: cropCenterY, CropSize: cropSize,
		FrameNumber: frameNumber,
	}
}

// NewHighlight builds a HighlightAnimation derivation message.
func NewHighlight(videoID, numParts, cropCenterX, cropCenterY, cropSize, startFrame, endFrame int32) DerivationMessage {
	return DerivationMessage{
		Kind: KindHighlight, VideoID: videoID, NumParts: numParts,
		CropCenterX: cropCenterX, CropCenterY: cropCenterY, CropSize: cropSize,
		StartFrameNumber: startFrame, EndFrameNumber: endFrame,
	}
}

// NewFullVideo builds a FullVideo derivation message.
func NewFullVideo(videoID, numParts int32) DerivationMessage {
	return DerivationMessage{Kind: KindFullVideo, VideoID: videoID, NumParts: numParts}
}

// MarshalJSON renders the tagged-union shape {"<Kind>": {...}}.
func (m DerivationMessage) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case KindThumbnail:
		return json.Marshal(map[string]thumbnailPayload{
			string(KindThumbnail): {
				VideoID: m.VideoID, NumParts: m.NumParts,
				CropCenterX: m.CropCenterX, CropCenterY: m.CropCenterY, CropSize: m.CropSize,
				FrameNumber: m.FrameNumber,
			},
		})
	case KindHighlight:
		return json.Marshal(map[string]highlightPayload{
			string(KindHighlight): {
				VideoID: m.VideoID, NumParts: m.NumParts,
				CropCenterX: m.CropCenterX, CropCenterY: m.CropCenterY, CropSize: m.CropSize,
				StartFrameNumber: m.StartFrameNumber, EndFrameNumber: m.EndFrameNumber,
			},
		})
	case KindFullVideo:
		return json.Marshal(map[string]fullVideoPayload{
			string(KindFullVideo): {VideoID: m.VideoID, NumParts: m.NumParts},
		})
	default:
		return nil, fmt.Errorf("messaging: unknown derivation kind %q", m.Kind)
	}
}

// UnmarshalJSON parses the tagged-union shape back into a DerivationMessage.
func (m *DerivationMessage) UnmarshalJSON(data []byte) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("messaging: decode envelope: %w", err)
	}
	if len(envelope) != 1 {
		return fmt.Errorf("messaging: expected exactly one tag, got %d", len(envelope))
	}

	for tag, raw := range envelope {
		switch Kind(tag) {
		case KindThumbnail:
			var p thumbnailPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("messaging: decode ThumbnailImage: %w", err)
			}
			*m = NewThumbnail(p.VideoID, p.NumParts, p.CropCenterX, p.CropCenterY, p.CropSize, p.FrameNumber)
		case KindHighlight:
			var p highlightPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("messaging: decode HighlightAnimation: %w", err)
			}
			*m = NewHighlight(p.VideoID, p.NumParts, p.CropCenterX, p.CropCenterY, p.CropSize, p.StartFrameNumber, p.EndFrameNumber)
		case KindFullVideo:
			var p fullVideoPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("messaging: decode FullVideo: %w", err)
			}
			*m = NewFullVideo(p.VideoID, p.NumParts)
		default:
			return fmt.Errorf("messaging: unknown derivation tag %q", tag)
		}
	}
	return nil
}
