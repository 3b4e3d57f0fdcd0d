package ingest

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"maprandovideos.io/videos/internal/auth"
	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/internal/catalogtest"
	"maprandovideos.io/videos/pkg/objectstore"
	"maprandovideos.io/videos/pkg/queue"
)

// openTestPool mirrors internal/catalog's test harness: a scratch schema
// against TEST_DATABASE_DSN, skipped when that variable is unset.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping ingest integration test")
	}

	ctx := context.Background()
	pool, err := catalogtest.Bootstrap(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, catalogtest.Reset(ctx, pool))
	return pool
}

// openTestQueue connects to TEST_RABBIT_URL, skipped when unset, so this
// package's tests do not require a running broker by default.
func openTestQueue(t *testing.T) *queue.Client {
	t.Helper()
	url := os.Getenv("TEST_RABBIT_URL")
	if url == "" {
		t.Skip("TEST_RABBIT_URL not set; skipping ingest integration test")
	}

	q, err := queue.Connect(url, "ingest-test-"+t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

// testServer bundles the live Server under test with the raw pool, so tests
// can seed rows the ingest API itself has no route to create directly
// (accounts, permanent flags) without inventing catalog methods nothing
// else needs.
type testServer struct {
	*Server
	pool *pgxpool.Pool
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	pool := openTestPool(t)
	q := openTestQueue(t)

	store, err := objectstore.Open(context.Background(), "mem://", "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &testServer{Server: NewServer(catalog.New(pool), store, q, 6, "16M", "https://videos.example.com"), pool: pool}
}

func seedAccount(t *testing.T, s *testServer, username string, role catalog.Role) int32 {
	t.Helper()
	var id int32
	err := s.pool.QueryRow(context.Background(),
		"INSERT INTO account (username, password_digest, role, active) VALUES ($1, $2, $3, true) RETURNING id",
		username, auth.Digest("password"), role).Scan(&id)
	require.NoError(t, err)
	return id
}

// gzipBody compresses payload the way upload clients do: the upload route's
// body is a gzip stream regardless of the at-rest codec.
func gzipBody(t *testing.T, payload string) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return &buf
}

func markPermanent(t *testing.T, s *testServer, videoID int32) {
	t.Helper()
	_, err := s.pool.Exec(context.Background(), "UPDATE video SET permanent = true WHERE id = $1", videoID)
	require.NoError(t, err)
}

func TestHandleSignIn(t *testing.T) {
	s := newTestServer(t)
	seedAccount(t, s, "alice", catalog.RoleDefault)

	req := httptest.NewRequest(http.MethodGet, "/sign-in", nil)
	req.SetBasicAuth("alice", "password")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"permission":"default"`)
}

func TestHandleSignIn_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	seedAccount(t, s, "alice", catalog.RoleDefault)

	req := httptest.NewRequest(http.MethodGet, "/sign-in", nil)
	req.SetBasicAuth("alice", "wrong")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadSubmitLifecycle(t *testing.T) {
	s := newTestServer(t)
	seedAccount(t, s, "alice", catalog.RoleDefault)

	uploadPart := func(videoID string, partNum, numParts int32, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/upload-video", gzipBody(t, body))
		req.SetBasicAuth("alice", "password")
		req.Header.Set(headerNumParts, strconv.Itoa(int(numParts)))
		req.Header.Set(headerPartNum, strconv.Itoa(int(partNum)))
		if videoID != "" {
			req.Header.Set(headerVideoID, videoID)
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		return rec
	}

	first := uploadPart("", 0, 2, "gzip-bytes-part-0")
	require.Equal(t, http.StatusOK, first.Code)
	videoID := first.Body.String()
	require.NotEmpty(t, videoID)

	second := uploadPart(videoID, 1, 2, "gzip-bytes-part-1")
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	replay := uploadPart(videoID, 1, 2, "gzip-bytes-part-1-again")
	require.Equal(t, http.StatusBadRequest, replay.Code)
	require.Contains(t, replay.Body.String(), "Out-of-sequence part number 1. Expecting 2")

	submitBody := `{"video_id":` + videoID + `,"room_id":1,"from_node_id":1,"to_node_id":2,"strat_id":1,"copyright_waiver":true}`
	req := httptest.NewRequest(http.MethodPost, "/submit-video", strings.NewReader(submitBody))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("alice", "password")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandleDeleteVideo_RejectsPermanent(t *testing.T) {
	s := newTestServer(t)
	accountID := seedAccount(t, s, "alice", catalog.RoleEditor)

	video, err := s.queries.InsertVideoPart0(context.Background(), accountID, 1)
	require.NoError(t, err)
	markPermanent(t, s, video.ID)

	req := httptest.NewRequest(http.MethodDelete, "/?video_id="+strconv.Itoa(int(video.ID)), nil)
	req.SetBasicAuth("alice", "password")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "video is permanent and may not be deleted")
}
