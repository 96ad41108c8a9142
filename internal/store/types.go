package store

import (
	"errors"
	"time"
)

var (
	// ErrLocationNotFound is returned when no location exists for an ID.
	ErrLocationNotFound = errors.New("location not found")

	// ErrVersionMismatch is returned by ConditionalWriteOccupancy when the
	// stored version no longer matches the expected one, meaning another
	// writer mutated the location since it was read.
	ErrVersionMismatch = errors.New("location version mismatch")
)

// EventCursor marks a position in the recency-ordered event stream.
// Events strictly older than (OccurredAt, Seq) come after the cursor.
type EventCursor struct {
	OccurredAt time.Time
	Seq        int64
}
