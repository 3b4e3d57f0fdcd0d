package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/pkg/objectstore"
	"maprandovideos.io/videos/pkg/xzgzip"
)

const (
	headerNumParts = "X-MapRandoVideos-NumParts"
	headerPartNum  = "X-MapRandoVideos-PartNum"
	headerVideoID  = "X-MapRandoVideos-VideoId"
)

func partObjectKey(videoID, partNum int32) string {
	return fmt.Sprintf("avi-xz/%d-%d.avi.xz", videoID, partNum)
}

// parseHeaderInt32 parses the named request header as a non-negative int32.
func parseHeaderInt32(c echo.Context, header string) (int32, error) {
	raw := c.Request().Header.Get(header)
	if raw == "" {
		return 0, fmt.Errorf("missing header %s", header)
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("malformed header %s: %w", header, err)
	}
	return int32(v), nil
}

// handleUploadVideo implements the chunked upload protocol of §4.4.2: the
// client asserts NumParts/PartNum on every request and VideoId on every
// request past the first. The body is a gzip stream, re-homed as xz.
func (s *Server) handleUploadVideo(c echo.Context) error {
	account := accountFromContext(c)
	ctx := c.Request().Context()

	numParts, err := parseHeaderInt32(c, headerNumParts)
	if err != nil {
		return c.String(http.StatusBadRequest, "missing or malformed "+headerNumParts)
	}
	partNum, err := parseHeaderInt32(c, headerPartNum)
	if err != nil {
		return c.String(http.StatusBadRequest, "missing or malformed "+headerPartNum)
	}
	videoIDHeader := c.Request().Header.Get(headerVideoID)

	if partNum == 0 {
		if videoIDHeader != "" {
			return c.String(http.StatusBadRequest, "VideoId must not be set on part 0")
		}
		return s.uploadFirstPart(c, ctx, account, numParts)
	}

	if videoIDHeader == "" {
		return c.String(http.StatusBadRequest, "VideoId is required for part "+strconv.Itoa(int(partNum)))
	}
	videoID64, err := strconv.ParseInt(videoIDHeader, 10, 32)
	if err != nil {
		return c.String(http.StatusBadRequest, "malformed "+headerVideoID)
	}
	return s.uploadSubsequentPart(c, ctx, account, int32(videoID64), numParts, partNum)
}

// uploadFirstPart handles PartNum == 0: a fresh video id is allocated, the
// part is transcoded and written, and only then is the cursor advanced past
// part 0. If the write fails the row is left at next_part_num=0 and the
// client must start over with a new part-0 request; it never learned this
// id, so there is nothing to resume.
func (s *Server) uploadFirstPart(c echo.Context, ctx context.Context, account *catalog.Account, numParts int32) error {
	if numParts < 1 {
		return c.String(http.StatusBadRequest, "NumParts must be at least 1")
	}

	video, err := s.queries.InsertVideoPart0(ctx, account.ID, numParts)
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to allocate video")
	}

	if err := s.writePart(ctx, video.ID, 0, c.Request().Body); err != nil {
		return c.String(http.StatusInternalServerError, "failed to write video part")
	}

	ok, err := s.queries.AdvancePartNum(ctx, video.ID, account.ID, 0)
	if err != nil || !ok {
		return c.String(http.StatusInternalServerError, "failed to confirm video part")
	}

	return c.String(http.StatusOK, strconv.Itoa(int(video.ID)))
}

// uploadSubsequentPart handles PartNum > 0: the row must already exist,
// belong to the caller, and have next_part_num == partNum.
func (s *Server) uploadSubsequentPart(c echo.Context, ctx context.Context, account *catalog.Account, videoID, numParts, partNum int32) error {
	video, err := s.queries.GetVideo(ctx, videoID)
	if err != nil {
		return c.String(http.StatusNotFound, "video not found")
	}
	if video.CreatedAccountID != account.ID {
		return c.String(http.StatusForbidden, "Not authorized to upload to this video")
	}
	if video.NumParts != numParts {
		return c.String(http.StatusBadRequest, "NumParts does not match the declared total")
	}
	if partNum >= numParts {
		return c.String(http.StatusBadRequest, fmt.Sprintf("Out-of-sequence part number %d. Expecting %d", partNum, video.NextPartNum))
	}
	if video.NextPartNum != partNum {
		return c.String(http.StatusBadRequest, fmt.Sprintf("Out-of-sequence part number %d. Expecting %d", partNum, video.NextPartNum))
	}

	if err := s.writePart(ctx, videoID, partNum, c.Request().Body); err != nil {
		return c.String(http.StatusInternalServerError, "failed to write video part")
	}

	ok, err := s.queries.AdvancePartNum(ctx, videoID, account.ID, partNum)
	if err != nil {
		return c.String(http.StatusInternalServerError, "failed to confirm video part")
	}
	if !ok {
		current, getErr := s.queries.GetVideo(ctx, videoID)
		expected := partNum
		if getErr == nil {
			expected = current.NextPartNum
		}
		return c.String(http.StatusBadRequest, fmt.Sprintf("Out-of-sequence part number %d. Expecting %d", partNum, expected))
	}

	return c.String(http.StatusOK, strconv.Itoa(int(videoID)))
}

// writePart transcodes body from gzip to xz, buffering the result (parts are
// small by design, per §4.4.2), then writes it to the object store. The
// gzip-compressed request body is capped at s.maxPartBytes; the size of the
// decompressed stream is not limited.
func (s *Server) writePart(ctx context.Context, videoID, partNum int32, body io.Reader) error {
	limited := &limitedReader{r: body, remaining: int64(s.maxPartBytes)}

	var buf bytes.Buffer
	if err := xzgzip.GzipToXZ(&buf, limited, s.xzLevel); err != nil {
		if limited.exceeded {
			slog.Warn("upload part exceeds size limit", "video_id", videoID, "part_num", partNum, "limit", humanize.Bytes(s.maxPartBytes))
			return fmt.Errorf("part exceeds %s limit", humanize.Bytes(s.maxPartBytes))
		}
		return err
	}
	return s.store.Put(ctx, partObjectKey(videoID, partNum), &buf, objectstore.WriteOptions{
		ContentType: "application/x-xz",
	})
}

// limitedReader errors once remaining bytes are exhausted, distinguishing
// "too large" from any other read failure so the caller can report it.
type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		l.exceeded = true
		return 0, fmt.Errorf("ingest: upload part exceeds configured size limit")
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}
