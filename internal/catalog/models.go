// Package catalog is the typed façade over the relational catalog: accounts,
// videos, and the reference tables rewritten wholesale by each reference
// sync. It follows the teacher's sqlc-style shape — a thin Queries wrapper
// with one exported method per operation, each calling an unexported query
// builder — without depending on generated code.
package catalog

import "time"

// Role is an account's two-tier permission level.
type Role string

const (
	RoleDefault Role = "default"
	RoleEditor  Role = "editor"
)

// Account is a registered uploader/editor.
type Account struct {
	ID             int32
	Username       string
	PasswordDigest []byte
	Role           Role
	Active         bool
}

// Status is a video's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusIncomplete Status = "incomplete"
	StatusComplete   Status = "complete"
	StatusApproved   Status = "approved"
	StatusDisabled   Status = "disabled"
)

// Video is the central catalog entity: one uploaded clip plus its metadata,
// chunk-upload cursor, and derivation timestamps.
type Video struct {
	ID int32

	CreatedAccountID int32
	UpdatedAccountID int32
	SubmittedTS      *time.Time
	UpdatedTS        time.Time
	Permanent        bool

	NumParts    int32
	NextPartNum int32

	RoomID     *int32
	FromNodeID *int32
	ToNodeID   *int32
	StratID    *int32

	Note            string
	CropCenterX     *int32
	CropCenterY     *int32
	CropSize        *int32
	ThumbnailT      *int32
	HighlightStartT *int32
	HighlightEndT   *int32

	Status Status

	ThumbnailProcessedTS *time.Time
	HighlightProcessedTS *time.Time
	FullVideoProcessedTS *time.Time
}

// HasCompleteCoordinate reports whether all four coordinate ids are set, the
// precondition for status Complete/Approved.
func (v *Video) HasCompleteCoordinate() bool {
	return v.RoomID != nil && v.FromNodeID != nil && v.ToNodeID != nil && v.StratID != nil
}

// Reference entities, entirely rewritten on each sync.

// Area is one of the fixed ordered vocabulary of 19 region names.
type Area struct {
	ID   int32
	Name string
}

// Room belongs to an Area and carries the composed display name.
type Room struct {
	RoomID int32
	AreaID int32
	Name   string
}

// Node is keyed by (room_id, node_id).
type Node struct {
	RoomID int32
	NodeID int32
	Name   string
}

// Strat is keyed by (room_id, strat_id) and connects two nodes.
type Strat struct {
	RoomID     int32
	StratID    int32
	FromNodeID int32
	ToNodeID   int32
	Name       string
}

// Tech is a named technique from tech.json's extensionTechs tree.
type Tech struct {
	ID   int32
	Name string
}

// Notable is a room-local named requirement-tree leaf.
type Notable struct {
	RoomID     int32
	NotableID  int32
	Name       string
}

// NotableStrat is a (room, notable, strat) edge emitted while walking a
// strat's requirement tree.
type NotableStrat struct {
	RoomID    int32
	NotableID int32
	StratID   int32
}
