package ingest

import (
	"compress/gzip"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"maprandovideos.io/videos/pkg/xzgzip"
)

// handleDownloadVideo fetches the requested part's xz object and
// transcodes it back to gzip for the client, per §4.4.5.
func (s *Server) handleDownloadVideo(c echo.Context) error {
	ctx := c.Request().Context()

	videoID, err := strconv.ParseInt(c.QueryParam("video_id"), 10, 32)
	if err != nil {
		return c.String(http.StatusBadRequest, "missing or malformed video_id")
	}
	partNum, err := strconv.ParseInt(c.QueryParam("part_num"), 10, 32)
	if err != nil {
		return c.String(http.StatusBadRequest, "missing or malformed part_num")
	}

	reader, err := s.store.NewReader(ctx, partObjectKey(int32(videoID), int32(partNum)))
	if err != nil {
		return c.String(http.StatusNotFound, "part not found")
	}
	defer reader.Close()

	xzReader, err := xzgzip.XZReader(reader)
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to open part")
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/gzip")
	c.Response().WriteHeader(http.StatusOK)

	gz, err := gzip.NewWriterLevel(c.Response(), gzip.BestSpeed)
	if err != nil {
		return err
	}
	if _, err := io.Copy(gz, xzReader); err != nil {
		return err
	}
	return gz.Close()
}
