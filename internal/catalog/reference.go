package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ReferenceData is the full parsed output of one reference-sync pass,
// ready to replace the current reference generation wholesale.
type ReferenceData struct {
	Areas         []Area
	Rooms         []Room
	Nodes         []Node
	Strats        []Strat
	Techs         []Tech
	Notables      []Notable
	NotableStrats []NotableStrat
}

// Pool is the subset of *pgxpool.Pool used to open per-table transactions;
// satisfied directly by *pgxpool.Pool.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RewriteReferenceTables truncates and bulk-loads each reference table in
// its own transaction, so a failure rolls back only that table and leaves
// the others (and the previous generation of the failed one) untouched.
// Call ReconcileVideos only after every table here has committed.
func RewriteReferenceTables(ctx context.Context, pool Pool, data ReferenceData) error {
	steps := []struct {
		table string
		load  func(ctx context.Context, tx pgx.Tx) error
	}{
		{"area", func(ctx context.Context, tx pgx.Tx) error { return copyAreas(ctx, tx, data.Areas) }},
		{"room", func(ctx context.Context, tx pgx.Tx) error { return copyRooms(ctx, tx, data.Rooms) }},
		{"node", func(ctx context.Context, tx pgx.Tx) error { return copyNodes(ctx, tx, data.Nodes) }},
		{"strat", func(ctx context.Context, tx pgx.Tx) error { return copyStrats(ctx, tx, data.Strats) }},
		{"tech", func(ctx context.Context, tx pgx.Tx) error { return copyTechs(ctx, tx, data.Techs) }},
		{"notable", func(ctx context.Context, tx pgx.Tx) error { return copyNotables(ctx, tx, data.Notables) }},
		{"notable_strat", func(ctx context.Context, tx pgx.Tx) error { return copyNotableStrats(ctx, tx, data.NotableStrats) }},
	}

	for _, step := range steps {
		if err := rewriteOneTable(ctx, pool, step.table, step.load); err != nil {
			return fmt.Errorf("catalog: rewrite %s: %w", step.table, err)
		}
	}
	return nil
}

func rewriteOneTable(ctx context.Context, pool Pool, table string, load func(context.Context, pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+table); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	if err := load(ctx, tx); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func copyAreas(ctx context.Context, tx pgx.Tx, rows []Area) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return []any{rows[i].ID, rows[i].Name}, nil
	})
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"area"}, []string{"id", "name"}, src)
	return err
}

func copyRooms(ctx context.Context, tx pgx.Tx, rows []Room) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return []any{rows[i].RoomID, rows[i].AreaID, rows[i].Name}, nil
	})
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"room"}, []string{"room_id", "area_id", "name"}, src)
	return err
}

func copyNodes(ctx context.Context, tx pgx.Tx, rows []Node) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return []any{rows[i].RoomID, rows[i].NodeID, rows[i].Name}, nil
	})
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"node"}, []string{"room_id", "node_id", "name"}, src)
	return err
}

func copyStrats(ctx context.Context, tx pgx.Tx, rows []Strat) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return []any{rows[i].RoomID, rows[i].StratID, rows[i].FromNodeID, rows[i].ToNodeID, rows[i].Name}, nil
	})
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"strat"}, []string{"room_id", "strat_id", "from_node_id", "to_node_id", "name"}, src)
	return err
}

func copyTechs(ctx context.Context, tx pgx.Tx, rows []Tech) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return []any{rows[i].ID, rows[i].Name}, nil
	})
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"tech"}, []string{"id", "name"}, src)
	return err
}

func copyNotables(ctx context.Context, tx pgx.Tx, rows []Notable) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return []any{rows[i].RoomID, rows[i].NotableID, rows[i].Name}, nil
	})
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"notable"}, []string{"room_id", "notable_id", "name"}, src)
	return err
}

func copyNotableStrats(ctx context.Context, tx pgx.Tx, rows []NotableStrat) error {
	src := pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		return []any{rows[i].RoomID, rows[i].NotableID, rows[i].StratID}, nil
	})
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"notable_strat"}, []string{"room_id", "notable_id", "strat_id"}, src)
	return err
}

// ReconcileVideos sets to Incomplete every video whose (room, from-node,
// to-node, strat) coordinate no longer resolves against the current
// reference generation, skipping Disabled rows (tombstones are never
// touched by reconciliation).
func ReconcileVideos(ctx context.Context, db DBTX) error {
	_, err := db.Exec(ctx, `
		UPDATE video v SET status = 'incomplete'
		WHERE v.status <> 'disabled'
		  AND v.room_id IS NOT NULL
		  AND NOT EXISTS (
		      SELECT 1 FROM strat s
		      WHERE s.room_id = v.room_id AND s.strat_id = v.strat_id
		        AND s.from_node_id = v.from_node_id AND s.to_node_id = v.to_node_id
		  )`)
	if err != nil {
		return fmt.Errorf("catalog: reconcile videos: %w", err)
	}
	return nil
}
