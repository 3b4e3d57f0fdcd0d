package derive

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"maprandovideos.io/videos/internal/catalog"
	"maprandovideos.io/videos/internal/messaging"
	"maprandovideos.io/videos/pkg/cdn"
	"maprandovideos.io/videos/pkg/objectstore"
	"maprandovideos.io/videos/pkg/xzgzip"
)

// fakeDB satisfies catalog's DBTX with just enough behavior for
// StampProcessed, recording each statement it runs.
type fakeDB struct {
	mu    sync.Mutex
	execs []string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, sql)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("fakeDB: Query not supported")
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

// writeFakeTranscoder writes a stand-in for ffmpeg: it locates the concat
// manifest after -i, drains every pipe listed in it, and writes fixed bytes
// to the final (output) argument. Draining the pipes is what lets the
// worker's feeders complete, same as the real transcoder.
func writeFakeTranscoder(t *testing.T) string {
	t.Helper()
	script := `#!/bin/sh
manifest=""
prev=""
out=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then manifest="$a"; fi
  prev="$a"
  out="$a"
done
while IFS= read -r line; do
  p=$(printf '%s' "$line" | cut -d"'" -f2)
  cat "$p" > /dev/null
done < "$manifest"
printf 'rendition-bytes' > "$out"
`
	path := filepath.Join(t.TempDir(), "transcoder.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func seedPart(t *testing.T, store *objectstore.Store, videoID, partNum int32, payload string) {
	t.Helper()
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var xzBuf bytes.Buffer
	require.NoError(t, xzgzip.GzipToXZ(&xzBuf, &gz, 6))
	require.NoError(t, store.Put(context.Background(),
		fmt.Sprintf("avi-xz/%d-%d.avi.xz", videoID, partNum), &xzBuf,
		objectstore.WriteOptions{ContentType: "application/x-xz"}))
}

func readObject(t *testing.T, store *objectstore.Store, key string) []byte {
	t.Helper()
	r, err := store.NewReader(context.Background(), key)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return data
}

func TestWorker_ProcessThumbnail_EndToEnd(t *testing.T) {
	ctx := context.Background()

	store, err := objectstore.Open(ctx, "mem://", "")
	require.NoError(t, err)
	defer store.Close()

	seedPart(t, store, 42, 0, "frames-part-0")
	seedPart(t, store, 42, 1, "frames-part-1")

	db := &fakeDB{}
	w := NewWorker(catalog.New(db), store, writeFakeTranscoder(t), t.TempDir(), cdn.NoopPurger{})

	msg := messaging.NewThumbnail(42, 2, 100, 100, 64, 3)
	require.NoError(t, w.process(ctx, msg))

	first := readObject(t, store, "png/42.png")
	require.Equal(t, []byte("rendition-bytes"), first)

	require.Len(t, db.execs, 1)
	require.Contains(t, db.execs[0], "thumbnail_processed_ts")

	// A duplicate delivery overwrites the rendition with identical bytes
	// and stamps the timestamp again: replays are harmless.
	require.NoError(t, w.process(ctx, msg))
	require.Equal(t, first, readObject(t, store, "png/42.png"))
	require.Len(t, db.execs, 2)
}

func TestWorker_ProcessFullVideo_EndToEnd(t *testing.T) {
	ctx := context.Background()

	store, err := objectstore.Open(ctx, "mem://", "")
	require.NoError(t, err)
	defer store.Close()

	seedPart(t, store, 7, 0, "only-part")

	db := &fakeDB{}
	w := NewWorker(catalog.New(db), store, writeFakeTranscoder(t), t.TempDir(), cdn.NoopPurger{})

	require.NoError(t, w.process(ctx, messaging.NewFullVideo(7, 1)))

	require.Equal(t, []byte("rendition-bytes"), readObject(t, store, "mp4/7.mp4"))
	require.Len(t, db.execs, 1)
	require.Contains(t, db.execs[0], "full_video_processed_ts")
}

func TestWorker_ProcessFailsWhenPartMissing(t *testing.T) {
	ctx := context.Background()

	store, err := objectstore.Open(ctx, "mem://", "")
	require.NoError(t, err)
	defer store.Close()

	db := &fakeDB{}
	w := NewWorker(catalog.New(db), store, writeFakeTranscoder(t), t.TempDir(), cdn.NoopPurger{})

	err = w.process(ctx, messaging.NewFullVideo(99, 1))
	require.Error(t, err)
	require.Empty(t, db.execs)
}
