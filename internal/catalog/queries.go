package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/microcosm-cc/bluemonday"
)

// ErrNotFound is returned when a single-row lookup matches no rows.
var ErrNotFound = errors.New("catalog: not found")

// notePolicy strips any markup from the freeform note field before it is
// stored. The external UI (out of scope for this service) renders notes
// as-is, so text hygiene is enforced here rather than left to a renderer
// this codebase does not own.
var notePolicy = bluemonday.StrictPolicy()

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx, letting every Queries
// method run either directly against the pool or inside a caller-managed
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the typed façade over the catalog schema.
type Queries struct {
	db DBTX
}

// New wraps db (a pool or a transaction) in a Queries façade.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// GetAccountByUsername looks up an account by its unique username.
func (q *Queries) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	return q.getAccount(ctx, "SELECT id, username, password_digest, role, active FROM account WHERE username = $1", username)
}

// GetAccountByID looks up an account by id.
func (q *Queries) GetAccountByID(ctx context.Context, id int32) (*Account, error) {
	return q.getAccount(ctx, "SELECT id, username, password_digest, role, active FROM account WHERE id = $1", id)
}

func (q *Queries) getAccount(ctx context.Context, query string, arg any) (*Account, error) {
	row := q.db.QueryRow(ctx, query, arg)
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordDigest, &a.Role, &a.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get account: %w", err)
	}
	return &a, nil
}

// ActivateAccount flips an account's active flag to true, a no-op if it is
// already active.
func (q *Queries) ActivateAccount(ctx context.Context, accountID int32) error {
	_, err := q.db.Exec(ctx, "UPDATE account SET active = true WHERE id = $1", accountID)
	if err != nil {
		return fmt.Errorf("catalog: activate account: %w", err)
	}
	return nil
}

// InsertVideoPart0 allocates a new video id from the sequence and inserts
// the row created by the first upload part (PartNum == 0). next_part_num
// starts at 0: the row exists, but part 0 is not yet confirmed written
// until the caller advances the cursor with AdvancePartNum, matching the
// rule that the cursor only moves after a successful object-store write.
func (q *Queries) InsertVideoPart0(ctx context.Context, accountID, numParts int32) (*Video, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO video (created_account_id, updated_account_id, num_parts, next_part_num, status, updated_ts, note)
		VALUES ($1, $1, $2, 0, $3, now(), '')
		RETURNING `+videoColumns,
		accountID, numParts, StatusPending)
	return scanVideo(row)
}

// AdvancePartNum applies the conditional UPDATE that both tests and advances
// next_part_num atomically: it only succeeds when the row belongs to
// accountID and its current next_part_num equals partNum (the part index
// just uploaded). The returned bool reports whether the row matched.
func (q *Queries) AdvancePartNum(ctx context.Context, videoID, accountID, partNum int32) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE video SET next_part_num = $1 + 1
		WHERE id = $2 AND created_account_id = $3 AND next_part_num = $1`,
		partNum, videoID, accountID)
	if err != nil {
		return false, fmt.Errorf("catalog: advance part num: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetVideo fetches a single video row by id.
func (q *Queries) GetVideo(ctx context.Context, id int32) (*Video, error) {
	row := q.db.QueryRow(ctx, videoSelectColumns+" FROM video WHERE id = $1", id)
	return scanVideo(row)
}

const videoColumns = `id, created_account_id, updated_account_id, submitted_ts, updated_ts, permanent,
	num_parts, next_part_num, room_id, from_node_id, to_node_id, strat_id, note,
	crop_center_x, crop_center_y, crop_size, thumbnail_t, highlight_start_t, highlight_end_t,
	status, thumbnail_processed_ts, highlight_processed_ts, full_video_processed_ts`

const videoSelectColumns = `SELECT ` + videoColumns

func scanVideo(row pgx.Row) (*Video, error) {
	var v Video
	err := row.Scan(&v.ID, &v.CreatedAccountID, &v.UpdatedAccountID, &v.SubmittedTS, &v.UpdatedTS, &v.Permanent,
		&v.NumParts, &v.NextPartNum, &v.RoomID, &v.FromNodeID, &v.ToNodeID, &v.StratID, &v.Note,
		&v.CropCenterX, &v.CropCenterY, &v.CropSize, &v.ThumbnailT, &v.HighlightStartT, &v.HighlightEndT,
		&v.Status, &v.ThumbnailProcessedTS, &v.HighlightProcessedTS, &v.FullVideoProcessedTS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: scan video: %w", err)
	}
	return &v, nil
}

// SubmitParams carries the submission/edit JSON body's fields.
type SubmitParams struct {
	RoomID          *int32
	FromNodeID      *int32
	ToNodeID        *int32
	StratID         *int32
	Note            string
	CropSize        *int32
	CropCenterX     *int32
	CropCenterY     *int32
	ThumbnailT      *int32
	HighlightStartT *int32
	HighlightEndT   *int32
}

func (p SubmitParams) hasCompleteCoordinate() bool {
	return p.RoomID != nil && p.FromNodeID != nil && p.ToNodeID != nil && p.StratID != nil
}

// SubmitVideo finalizes an upload: only the row's creator may submit, and
// only once next_part_num == num_parts. Status becomes Complete iff the
// coordinate is fully specified, else Incomplete.
func (q *Queries) SubmitVideo(ctx context.Context, videoID, accountID int32, p SubmitParams) (*Video, error) {
	status := StatusIncomplete
	if p.hasCompleteCoordinate() {
		status = StatusComplete
	}
	note := notePolicy.Sanitize(p.Note)

	row := q.db.QueryRow(ctx, `
		UPDATE video SET
			room_id = $3, from_node_id = $4, to_node_id = $5, strat_id = $6, note = $7,
			crop_size = $8, crop_center_x = $9, crop_center_y = $10,
			thumbnail_t = $11, highlight_start_t = $12, highlight_end_t = $13,
			status = $14, submitted_ts = now(), updated_ts = now(), updated_account_id = $2
		WHERE id = $1 AND created_account_id = $2 AND next_part_num = num_parts
		RETURNING `+videoColumns+``,
		videoID, accountID, p.RoomID, p.FromNodeID, p.ToNodeID, p.StratID, note,
		p.CropSize, p.CropCenterX, p.CropCenterY, p.ThumbnailT, p.HighlightStartT, p.HighlightEndT, status)
	return scanVideo(row)
}

// EditParams carries the fields an edit may change: the submission fields
// plus an optional explicit status. The caller's identity is passed to
// EditVideo separately.
type EditParams struct {
	SubmitParams
	Status *Status
}

// EditVideo applies an authorized edit. Authorization (owner vs. editor, and
// permitting Approved only for editors) is the caller's responsibility;
// EditVideo performs no ownership check and records accountID as the row's
// updated_account_id.
func (q *Queries) EditVideo(ctx context.Context, videoID, accountID int32, p EditParams) (*Video, error) {
	status := p.Status
	if status == nil {
		s := StatusIncomplete
		if p.hasCompleteCoordinate() {
			s = StatusComplete
		}
		status = &s
	}
	note := notePolicy.Sanitize(p.Note)

	row := q.db.QueryRow(ctx, `
		UPDATE video SET
			room_id = $2, from_node_id = $3, to_node_id = $4, strat_id = $5, note = $6,
			crop_size = $7, crop_center_x = $8, crop_center_y = $9,
			thumbnail_t = $10, highlight_start_t = $11, highlight_end_t = $12,
			status = $13, updated_ts = now(), updated_account_id = $14
		WHERE id = $1
		RETURNING `+videoColumns+``,
		videoID, p.RoomID, p.FromNodeID, p.ToNodeID, p.StratID, note,
		p.CropSize, p.CropCenterX, p.CropCenterY, p.ThumbnailT, p.HighlightStartT, p.HighlightEndT,
		*status, accountID)
	return scanVideo(row)
}

// DeleteVideo removes a video row. permanent rows must be rejected by the
// caller before this is invoked; DeleteVideo itself refuses them as a
// second line of defense.
func (q *Queries) DeleteVideo(ctx context.Context, videoID int32) error {
	tag, err := q.db.Exec(ctx, "DELETE FROM video WHERE id = $1 AND permanent = false", videoID)
	if err != nil {
		return fmt.Errorf("catalog: delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// StampProcessed sets one of the three *_processed_ts columns to now().
func (q *Queries) StampProcessed(ctx context.Context, videoID int32, column string) error {
	var sqlCol string
	switch column {
	case "thumbnail":
		sqlCol = "thumbnail_processed_ts"
	case "highlight":
		sqlCol = "highlight_processed_ts"
	case "full_video":
		sqlCol = "full_video_processed_ts"
	default:
		return fmt.Errorf("catalog: unknown rendition column %q", column)
	}
	_, err := q.db.Exec(ctx, fmt.Sprintf("UPDATE video SET %s = now() WHERE id = $1", sqlCol), videoID)
	if err != nil {
		return fmt.Errorf("catalog: stamp %s: %w", column, err)
	}
	return nil
}

