package model

import "time"

// EventKind identifies the two kinds of activity events.
type EventKind string

const (
	EventEntry EventKind = "entry"
	EventExit  EventKind = "exit"
)

// ActivityEvent is an immutable log entry for a vehicle check-in or
// check-out. Rows are append-only: nothing updates or deletes them.
//
// Seq is a store-assigned auto-increment used as the deterministic tie-break
// when two events share an OccurredAt timestamp; the total recency order is
// (occurred_at DESC, seq DESC). ID is the stable external identifier.
type ActivityEvent struct {
	Seq          int64     `gorm:"primaryKey;autoIncrement" json:"seq"`
	ID           string    `gorm:"uniqueIndex;size:36;not null" json:"id"`
	Kind         EventKind `gorm:"size:16;not null" json:"kind"`
	LocationID   string    `gorm:"index;size:64;not null" json:"locationId"`
	LocationName string    `gorm:"size:256;not null" json:"locationName"`
	VehicleTag   *string   `gorm:"size:32" json:"vehicleTag"`
	OccurredAt   time.Time `gorm:"index;not null" json:"occurredAt"`
}
