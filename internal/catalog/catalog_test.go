package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"maprandovideos.io/videos/internal/catalogtest"
)

// openTestPool bootstraps a scratch schema against TEST_DATABASE_DSN and
// skips the test when that variable is unset, so this package's tests do
// not require a Postgres instance to be present by default.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping catalog integration test")
	}

	ctx := context.Background()
	pool, err := catalogtest.Bootstrap(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, catalogtest.Reset(ctx, pool))
	return pool
}

func seedAccount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, username string) int32 {
	t.Helper()
	var id int32
	err := pool.QueryRow(ctx,
		"INSERT INTO account (username, password_digest, role) VALUES ($1, $2, $3) RETURNING id",
		username, []byte("digest"), RoleDefault).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestVideoUploadCursor_AdvancesOnlyOnMatch(t *testing.T) {
	ctx := context.Background()
	pool := openTestPool(t)
	q := New(pool)

	accountID := seedAccount(t, ctx, pool, "alice")
	video, err := q.InsertVideoPart0(ctx, accountID, 2)
	require.NoError(t, err)
	require.EqualValues(t, 0, video.NextPartNum)

	ok, err := q.AdvancePartNum(ctx, video.ID, accountID, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = q.AdvancePartNum(ctx, video.ID, accountID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := q.GetVideo(ctx, video.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, got.NextPartNum)

	// Replaying the same part again must not advance further: the
	// precondition next_part_num == 1 is no longer true.
	ok, err = q.AdvancePartNum(ctx, video.ID, accountID, 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSubmitVideo_RequiresAllPartsUploaded(t *testing.T) {
	ctx := context.Background()
	pool := openTestPool(t)
	q := New(pool)

	accountID := seedAccount(t, ctx, pool, "bob")
	video, err := q.InsertVideoPart0(ctx, accountID, 2)
	require.NoError(t, err)

	roomID, fromNode, toNode, stratID := int32(123), int32(2), int32(3), int32(77)
	_, err = q.SubmitVideo(ctx, video.ID, accountID, SubmitParams{
		RoomID: &roomID, FromNodeID: &fromNode, ToNodeID: &toNode, StratID: &stratID,
	})
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := q.AdvancePartNum(ctx, video.ID, accountID, 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = q.AdvancePartNum(ctx, video.ID, accountID, 1)
	require.NoError(t, err)
	require.True(t, ok)

	submitted, err := q.SubmitVideo(ctx, video.ID, accountID, SubmitParams{
		RoomID: &roomID, FromNodeID: &fromNode, ToNodeID: &toNode, StratID: &stratID,
	})
	require.NoError(t, err)
	require.Equal(t, StatusComplete, submitted.Status)
}

func TestSubmitVideo_IncompleteCoordinateYieldsIncomplete(t *testing.T) {
	ctx := context.Background()
	pool := openTestPool(t)
	q := New(pool)

	accountID := seedAccount(t, ctx, pool, "carol")
	video, err := q.InsertVideoPart0(ctx, accountID, 1)
	require.NoError(t, err)

	ok, err := q.AdvancePartNum(ctx, video.ID, accountID, 0)
	require.NoError(t, err)
	require.True(t, ok)

	submitted, err := q.SubmitVideo(ctx, video.ID, accountID, SubmitParams{Note: "wip"})
	require.NoError(t, err)
	require.Equal(t, StatusIncomplete, submitted.Status)
}

func TestDeleteVideo_RejectsPermanent(t *testing.T) {
	ctx := context.Background()
	pool := openTestPool(t)
	q := New(pool)

	accountID := seedAccount(t, ctx, pool, "dora")
	video, err := q.InsertVideoPart0(ctx, accountID, 1)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "UPDATE video SET permanent = true WHERE id = $1", video.ID)
	require.NoError(t, err)

	err = q.DeleteVideo(ctx, video.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileVideos_InvalidatesMissingCoordinate(t *testing.T) {
	ctx := context.Background()
	pool := openTestPool(t)
	q := New(pool)

	accountID := seedAccount(t, ctx, pool, "erin")
	video, err := q.InsertVideoPart0(ctx, accountID, 1)
	require.NoError(t, err)

	roomID, fromNode, toNode, stratID := int32(123), int32(2), int32(3), int32(77)
	_, err = pool.Exec(ctx, `UPDATE video SET next_part_num = num_parts,
		room_id = $2, from_node_id = $3, to_node_id = $4, strat_id = $5, status = 'complete'
		WHERE id = $1`, video.ID, roomID, fromNode, toNode, stratID)
	require.NoError(t, err)

	// No area/room/strat rows exist, so the coordinate cannot resolve.
	require.NoError(t, ReconcileVideos(ctx, pool))

	got, err := q.GetVideo(ctx, video.ID)
	require.NoError(t, err)
	require.Equal(t, StatusIncomplete, got.Status)
}

func TestReconcileVideos_SkipsDisabled(t *testing.T) {
	ctx := context.Background()
	pool := openTestPool(t)
	q := New(pool)

	accountID := seedAccount(t, ctx, pool, "frank")
	video, err := q.InsertVideoPart0(ctx, accountID, 1)
	require.NoError(t, err)

	roomID, fromNode, toNode, stratID := int32(123), int32(2), int32(3), int32(77)
	_, err = pool.Exec(ctx, `UPDATE video SET next_part_num = num_parts,
		room_id = $2, from_node_id = $3, to_node_id = $4, strat_id = $5, status = 'disabled'
		WHERE id = $1`, video.ID, roomID, fromNode, toNode, stratID)
	require.NoError(t, err)

	require.NoError(t, ReconcileVideos(ctx, pool))

	got, err := q.GetVideo(ctx, video.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDisabled, got.Status)
}

func TestListVideos_FiltersByStatusAndRoom(t *testing.T) {
	ctx := context.Background()
	pool := openTestPool(t)
	q := New(pool)

	accountID := seedAccount(t, ctx, pool, "gina")
	roomA, roomB := int32(1), int32(2)

	v1, err := q.InsertVideoPart0(ctx, accountID, 1)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "UPDATE video SET room_id = $2, status = 'complete' WHERE id = $1", v1.ID, roomA)
	require.NoError(t, err)

	v2, err := q.InsertVideoPart0(ctx, accountID, 1)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, "UPDATE video SET room_id = $2, status = 'pending' WHERE id = $1", v2.ID, roomB)
	require.NoError(t, err)

	results, err := q.ListVideos(ctx, ListFilter{
		RoomID:   &roomA,
		Statuses: []Status{StatusComplete, StatusApproved},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, v1.ID, results[0].ID)
}
