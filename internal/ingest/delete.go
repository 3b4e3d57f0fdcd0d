package ingest

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"maprandovideos.io/videos/internal/auth"
)

// handleDeleteVideo deletes by ?video_id=, per §4.4.4: permanent rows are
// refused for every caller; otherwise Editors may delete any row, Default
// users only their own.
func (s *Server) handleDeleteVideo(c echo.Context) error {
	account := accountFromContext(c)
	ctx := c.Request().Context()

	videoID, err := strconv.ParseInt(c.QueryParam("video_id"), 10, 32)
	if err != nil {
		return c.String(http.StatusBadRequest, "missing or malformed video_id")
	}

	video, err := s.queries.GetVideo(ctx, int32(videoID))
	if err != nil {
		return c.String(http.StatusNotFound, "video not found")
	}

	if video.Permanent {
		return c.String(http.StatusForbidden, "video is permanent and may not be deleted")
	}
	if !auth.IsEditor(account) && video.CreatedAccountID != account.ID {
		return c.String(http.StatusForbidden, "Not authorized to delete this video")
	}

	if err := s.queries.DeleteVideo(ctx, int32(videoID)); err != nil {
		return c.String(http.StatusNotFound, "video not found")
	}

	return c.NoContent(http.StatusOK)
}
