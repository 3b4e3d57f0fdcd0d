package objectstore

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "mem://", "video-parts/")
	require.NoError(t, err)
	defer store.Close()

	payload := []byte("avi-xz-bytes")
	require.NoError(t, store.Put(ctx, "42-0.avi.xz", bytes.NewReader(payload), WriteOptions{ContentType: "application/x-xz"}))

	ok, err := store.Exists(ctx, "42-0.avi.xz")
	require.NoError(t, err)
	require.True(t, ok)

	r, err := store.NewReader(ctx, "42-0.avi.xz")
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, payload, got)

	require.NoError(t, store.Delete(ctx, "42-0.avi.xz"))
	ok, err = store.Exists(ctx, "42-0.avi.xz")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, "mem://", "")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Delete(ctx, "does-not-exist"))
}
