package catalog

import (
	"context"
	"fmt"
)

// ListAccounts returns every account's public fields (never the password
// digest) ordered by id, backing GET /list-users.
func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.Query(ctx, "SELECT id, username, role, active FROM account ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("catalog: list accounts: %w", err)
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Username, &a.Role, &a.Active); err != nil {
			return nil, fmt.Errorf("catalog: scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RoomWithArea pairs a room with its resolved area name for the
// rooms-by-area lookup.
type RoomWithArea struct {
	RoomID   int32
	AreaID   int32
	AreaName string
	Name     string
}

// ListRoomsByArea returns every room joined with its area, ordered by area
// then room id, backing GET /rooms-by-area.
func (q *Queries) ListRoomsByArea(ctx context.Context) ([]RoomWithArea, error) {
	rows, err := q.db.Query(ctx, `
		SELECT r.room_id, r.area_id, a.name, r.name
		FROM room r JOIN area a ON a.id = r.area_id
		ORDER BY r.area_id, r.room_id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list rooms by area: %w", err)
	}
	defer rows.Close()

	var out []RoomWithArea
	for rows.Next() {
		var r RoomWithArea
		if err := rows.Scan(&r.RoomID, &r.AreaID, &r.AreaName, &r.Name); err != nil {
			return nil, fmt.Errorf("catalog: scan room: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListNodes returns every node in roomID, backing GET /nodes?room_id=.
func (q *Queries) ListNodes(ctx context.Context, roomID int32) ([]Node, error) {
	rows, err := q.db.Query(ctx, "SELECT room_id, node_id, name FROM node WHERE room_id = $1 ORDER BY node_id", roomID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list nodes: %w", err)
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.RoomID, &n.NodeID, &n.Name); err != nil {
			return nil, fmt.Errorf("catalog: scan node: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ListStrats returns every strat in roomID connecting fromNodeID to
// toNodeID, backing GET /strats?room_id=&from_node_id=&to_node_id=.
func (q *Queries) ListStrats(ctx context.Context, roomID, fromNodeID, toNodeID int32) ([]Strat, error) {
	rows, err := q.db.Query(ctx, `
		SELECT room_id, strat_id, from_node_id, to_node_id, name
		FROM strat WHERE room_id = $1 AND from_node_id = $2 AND to_node_id = $3
		ORDER BY strat_id`, roomID, fromNodeID, toNodeID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list strats: %w", err)
	}
	defer rows.Close()

	var out []Strat
	for rows.Next() {
		var s Strat
		if err := rows.Scan(&s.RoomID, &s.StratID, &s.FromNodeID, &s.ToNodeID, &s.Name); err != nil {
			return nil, fmt.Errorf("catalog: scan strat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListTechs returns every tech, backing GET /tech.
func (q *Queries) ListTechs(ctx context.Context) ([]Tech, error) {
	rows, err := q.db.Query(ctx, "SELECT id, name FROM tech ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("catalog: list techs: %w", err)
	}
	defer rows.Close()

	var out []Tech
	for rows.Next() {
		var t Tech
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("catalog: scan tech: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListVideosForRetrigger returns every video with crop parameters set,
// ordered by id, mirroring trigger-encode-all's source query: a video
// without a configured crop has never been submitted and has nothing to
// derive.
func (q *Queries) ListVideosForRetrigger(ctx context.Context) ([]Video, error) {
	rows, err := q.db.Query(ctx, videoSelectColumns+" FROM video WHERE crop_size IS NOT NULL ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("catalog: list videos for retrigger: %w", err)
	}
	defer rows.Close()

	var out []Video
	for rows.Next() {
		v, err := scanVideoRows(rows)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan retrigger video: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// TechAssignment records an Editor's difficulty rating for a tech,
// evidenced by a specific video.
type TechAssignment struct {
	TechID     int32
	VideoID    int32
	Difficulty string
}

// UpsertTechAssignment records or replaces the difficulty/video evidence
// for techID, backing the Editor-only POST /tech.
func (q *Queries) UpsertTechAssignment(ctx context.Context, a TechAssignment) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO tech_video_assignment (tech_id, video_id, difficulty)
		VALUES ($1, $2, $3)
		ON CONFLICT (tech_id) DO UPDATE SET video_id = $2, difficulty = $3`,
		a.TechID, a.VideoID, a.Difficulty)
	if err != nil {
		return fmt.Errorf("catalog: upsert tech assignment: %w", err)
	}
	return nil
}
