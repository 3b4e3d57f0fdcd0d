package ingest

import (
	"fmt"
	"strings"
	"time"

	"maprandovideos.io/videos/internal/catalog"
)

// submissionBody is the shared shape of the submit/edit JSON bodies, per
// §6's "Submission/edit JSON body".
type submissionBody struct {
	VideoID int32 `json:"video_id"`

	RoomID     *int32 `json:"room_id"`
	FromNodeID *int32 `json:"from_node_id"`
	ToNodeID   *int32 `json:"to_node_id"`
	StratID    *int32 `json:"strat_id"`

	Note string `json:"note"`

	CropSize    *int32 `json:"crop_size"`
	CropCenterX *int32 `json:"crop_center_x"`
	CropCenterY *int32 `json:"crop_center_y"`

	ThumbnailT      *int32 `json:"thumbnail_t"`
	HighlightStartT *int32 `json:"highlight_start_t"`
	HighlightEndT   *int32 `json:"highlight_end_t"`

	CopyrightWaiver bool    `json:"copyright_waiver"`
	Status          *string `json:"status"`
}

func (b submissionBody) submitParams() catalog.SubmitParams {
	return catalog.SubmitParams{
		RoomID: b.RoomID, FromNodeID: b.FromNodeID, ToNodeID: b.ToNodeID, StratID: b.StratID,
		Note:            b.Note,
		CropSize:        b.CropSize,
		CropCenterX:     b.CropCenterX,
		CropCenterY:     b.CropCenterY,
		ThumbnailT:      b.ThumbnailT,
		HighlightStartT: b.HighlightStartT,
		HighlightEndT:   b.HighlightEndT,
	}
}

// videoResponse is the JSON shape returned by get/list/submit/edit-video.
type videoResponse struct {
	ID int32 `json:"id"`

	CreatedAccountID int32      `json:"created_account_id"`
	UpdatedAccountID int32      `json:"updated_account_id"`
	SubmittedTS      *time.Time `json:"submitted_ts"`
	UpdatedTS        time.Time  `json:"updated_ts"`
	Permanent        bool       `json:"permanent"`

	NumParts    int32 `json:"num_parts"`
	NextPartNum int32 `json:"next_part_num"`

	RoomID     *int32 `json:"room_id"`
	FromNodeID *int32 `json:"from_node_id"`
	ToNodeID   *int32 `json:"to_node_id"`
	StratID    *int32 `json:"strat_id"`

	Note            string `json:"note"`
	CropCenterX     *int32 `json:"crop_center_x"`
	CropCenterY     *int32 `json:"crop_center_y"`
	CropSize        *int32 `json:"crop_size"`
	ThumbnailT      *int32 `json:"thumbnail_t"`
	HighlightStartT *int32 `json:"highlight_start_t"`
	HighlightEndT   *int32 `json:"highlight_end_t"`

	Status string `json:"status"`

	ThumbnailProcessedTS *time.Time `json:"thumbnail_processed_ts"`
	HighlightProcessedTS *time.Time `json:"highlight_processed_ts"`
	FullVideoProcessedTS *time.Time `json:"full_video_processed_ts"`

	// Rendition URLs under the public client base, only once the
	// corresponding derivation has stamped its completion timestamp.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	HighlightURL string `json:"highlight_url,omitempty"`
	FullVideoURL string `json:"full_video_url,omitempty"`
}

// videoResponse builds the JSON DTO for v, attaching rendition URLs under
// the server's public client base URL for renditions that exist.
func (s *Server) videoResponse(v *catalog.Video) videoResponse {
	r := newVideoResponse(v)
	if s.publicURL != "" {
		base := strings.TrimSuffix(s.publicURL, "/")
		if v.ThumbnailProcessedTS != nil {
			r.ThumbnailURL = fmt.Sprintf("%s/png/%d.png", base, v.ID)
		}
		if v.HighlightProcessedTS != nil {
			r.HighlightURL = fmt.Sprintf("%s/webp/%d.webp", base, v.ID)
		}
		if v.FullVideoProcessedTS != nil {
			r.FullVideoURL = fmt.Sprintf("%s/mp4/%d.mp4", base, v.ID)
		}
	}
	return r
}

func newVideoResponse(v *catalog.Video) videoResponse {
	return videoResponse{
		ID:                   v.ID,
		CreatedAccountID:     v.CreatedAccountID,
		UpdatedAccountID:     v.UpdatedAccountID,
		SubmittedTS:          v.SubmittedTS,
		UpdatedTS:            v.UpdatedTS,
		Permanent:            v.Permanent,
		NumParts:             v.NumParts,
		NextPartNum:          v.NextPartNum,
		RoomID:               v.RoomID,
		FromNodeID:           v.FromNodeID,
		ToNodeID:             v.ToNodeID,
		StratID:              v.StratID,
		Note:                 v.Note,
		CropCenterX:          v.CropCenterX,
		CropCenterY:          v.CropCenterY,
		CropSize:             v.CropSize,
		ThumbnailT:           v.ThumbnailT,
		HighlightStartT:      v.HighlightStartT,
		HighlightEndT:        v.HighlightEndT,
		Status:               string(v.Status),
		ThumbnailProcessedTS: v.ThumbnailProcessedTS,
		HighlightProcessedTS: v.HighlightProcessedTS,
		FullVideoProcessedTS: v.FullVideoProcessedTS,
	}
}

// accountResponse omits the password digest from the account DTO.
type accountResponse struct {
	ID       int32  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

func newAccountResponse(a catalog.Account) accountResponse {
	return accountResponse{ID: a.ID, Username: a.Username, Role: string(a.Role), Active: a.Active}
}

type roomResponse struct {
	RoomID   int32  `json:"room_id"`
	AreaID   int32  `json:"area_id"`
	AreaName string `json:"area_name"`
	Name     string `json:"name"`
}

type nodeResponse struct {
	RoomID int32  `json:"room_id"`
	NodeID int32  `json:"node_id"`
	Name   string `json:"name"`
}

type stratResponse struct {
	RoomID     int32  `json:"room_id"`
	StratID    int32  `json:"strat_id"`
	FromNodeID int32  `json:"from_node_id"`
	ToNodeID   int32  `json:"to_node_id"`
	Name       string `json:"name"`
}

type techResponse struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
}

type techAssignmentBody struct {
	TechID     int32  `json:"tech_id"`
	VideoID    int32  `json:"video_id"`
	Difficulty string `json:"difficulty"`
}
