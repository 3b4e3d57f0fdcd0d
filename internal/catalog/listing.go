package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// SortBy selects which timestamp column orders a listing.
type SortBy string

const (
	SortBySubmitted SortBy = "submitted_ts"
	SortByUpdated   SortBy = "updated_ts"
)

// ListFilter assembles the dynamic, positionally-bound WHERE clause for
// ListVideos. Every field is optional; nil/zero fields are omitted from the
// query rather than compared.
type ListFilter struct {
	VideoID          *int32
	RoomID           *int32
	FromNodeID       *int32
	ToNodeID         *int32
	StratID          *int32
	CreatedAccountID *int32
	Statuses         []Status
	SortBy           SortBy
	Descending       bool
	Limit            int32
	Offset           int32
}

// ListVideos builds and runs a dynamically-assembled query, binding every
// filter value positionally — never by string interpolation — so the
// argument list and placeholder count always agree regardless of which
// filters are present.
func (q *Queries) ListVideos(ctx context.Context, f ListFilter) ([]Video, error) {
	var clauses []string
	var args []any

	bind := func(col string, val any) {
		args = append(args, val)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if f.VideoID != nil {
		bind("id", *f.VideoID)
	}
	if f.RoomID != nil {
		bind("room_id", *f.RoomID)
	}
	if f.FromNodeID != nil {
		bind("from_node_id", *f.FromNodeID)
	}
	if f.ToNodeID != nil {
		bind("to_node_id", *f.ToNodeID)
	}
	if f.StratID != nil {
		bind("strat_id", *f.StratID)
	}
	if f.CreatedAccountID != nil {
		bind("created_account_id", *f.CreatedAccountID)
	}
	if len(f.Statuses) > 0 {
		args = append(args, statusStrings(f.Statuses))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := videoSelectColumns + " FROM video"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	sortCol := f.SortBy
	if sortCol == "" {
		sortCol = SortBySubmitted
	}
	direction := "ASC"
	if f.Descending {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortCol, direction)

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))

	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list videos: %w", err)
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		v, err := scanVideoRows(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan listed video: %w", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list videos: %w", err)
	}
	return out, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func scanVideoRows(rows pgx.Rows) (*Video, error) {
	var v Video
	err := rows.Scan(&v.ID, &v.CreatedAccountID, &v.UpdatedAccountID, &v.SubmittedTS, &v.UpdatedTS, &v.Permanent,
		&v.NumParts, &v.NextPartNum, &v.RoomID, &v.FromNodeID, &v.ToNodeID, &v.StratID, &v.Note,
		&v.CropCenterX, &v.CropCenterY, &v.CropSize, &v.ThumbnailT, &v.HighlightStartT, &v.HighlightEndT,
		&v.Status, &v.ThumbnailProcessedTS, &v.HighlightProcessedTS, &v.FullVideoProcessedTS)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
