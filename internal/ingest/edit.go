package ingest

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"maprandovideos.io/videos/internal/auth"
	"maprandovideos.io/videos/internal/catalog"
)

// handleEditVideo applies an edit per §4.4.4: only Editors may approve, and
// non-editors may only edit rows they last updated. Thumbnail and Highlight
// are republished; FullVideo is not, since raw bytes never change on edit.
func (s *Server) handleEditVideo(c echo.Context) error {
	account := accountFromContext(c)
	ctx := c.Request().Context()

	var body submissionBody
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "malformed edit body")
	}

	video, err := s.queries.GetVideo(ctx, body.VideoID)
	if err != nil {
		return c.String(http.StatusNotFound, "video not found")
	}

	isEditor := auth.IsEditor(account)
	if !isEditor && video.UpdatedAccountID != account.ID {
		return c.String(http.StatusForbidden, "Not authorized to edit this video")
	}

	var status *catalog.Status
	if body.Status != nil {
		st := catalog.Status(*body.Status)
		if st == catalog.StatusApproved && !isEditor {
			return c.String(http.StatusForbidden, "Not authorized to edit this video")
		}
		status = &st
	}

	edited, err := s.queries.EditVideo(ctx, body.VideoID, account.ID, catalog.EditParams{
		SubmitParams: body.submitParams(),
		Status:       status,
	})
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to edit video")
	}

	if err := s.publishDerivations(ctx, edited, false); err != nil {
		slog.Error("failed to publish derivation messages", "video_id", edited.ID, "error", err)
		return c.String(http.StatusInternalServerError, "video edited but derivation messages failed to publish")
	}

	return c.JSON(http.StatusOK, s.videoResponse(edited))
}
