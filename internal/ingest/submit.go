package ingest

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleSubmitVideo finalizes an upload per §4.4.3: the caller must own the
// row and have uploaded every declared part; the copyright waiver must be
// checked; three derivation messages are published on success.
func (s *Server) handleSubmitVideo(c echo.Context) error {
	account := accountFromContext(c)
	ctx := c.Request().Context()

	var body submissionBody
	if err := c.Bind(&body); err != nil {
		return c.String(http.StatusBadRequest, "malformed submission body")
	}

	if !body.CopyrightWaiver {
		slog.Error("copyright_waiver not checked", "video_id", body.VideoID, "account_id", account.ID)
		return c.String(http.StatusInternalServerError, "copyright_waiver not checked")
	}

	video, err := s.queries.GetVideo(ctx, body.VideoID)
	if err != nil {
		return c.String(http.StatusNotFound, "video not found")
	}
	if video.CreatedAccountID != account.ID {
		return c.String(http.StatusForbidden, "Not authorized to submit this video")
	}
	if video.NextPartNum != video.NumParts {
		return c.String(http.StatusBadRequest, "not all parts have been uploaded")
	}

	submitted, err := s.queries.SubmitVideo(ctx, body.VideoID, account.ID, body.submitParams())
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to submit video")
	}

	if err := s.queries.ActivateAccount(ctx, account.ID); err != nil {
		slog.Error("failed to activate account", "account_id", account.ID, "error", err)
	}

	if err := s.publishDerivations(ctx, submitted, true); err != nil {
		slog.Error("failed to publish derivation messages", "video_id", submitted.ID, "error", err)
		return c.String(http.StatusInternalServerError, "video submitted but derivation messages failed to publish")
	}

	return c.JSON(http.StatusOK, s.videoResponse(submitted))
}
