package ledger

import (
	"fmt"

	"parkwatch-backend/internal/model"
)

// Kind enumerates the ledger's error taxonomy. Callers are expected to
// switch on it exhaustively rather than matching error strings.
type Kind string

const (
	// KindCapacityExceeded and KindUnderflow are business-rule rejections:
	// expected outcomes, no retry implied.
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindUnderflow        Kind = "underflow"

	// KindConcurrencyConflict means another writer mutated the location
	// between the read and the conditional write. Transient; the caller may
	// re-validate against Current and re-issue its intent.
	KindConcurrencyConflict Kind = "concurrency_conflict"

	// KindNotFound means the location does not exist.
	KindNotFound Kind = "not_found"

	// KindStoreUnavailable means the underlying store failed; the caller
	// must assume no mutation occurred.
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is the tagged error returned by ledger operations.
type Error struct {
	Kind       Kind
	LocationID string

	// Current carries the freshest known location state where one is
	// available: the unchanged record on a business-rule rejection, or the
	// refreshed record after a concurrency conflict.
	Current *model.Location

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger: %s for location %s: %v", e.Kind, e.LocationID, e.Err)
	}
	return fmt.Sprintf("ledger: %s for location %s", e.Kind, e.LocationID)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message returns the user-facing description for this error kind.
func (e *Error) Message() string {
	switch e.Kind {
	case KindCapacityExceeded:
		return "Parking is at capacity."
	case KindUnderflow:
		return "No vehicles to exit; parking is already empty."
	case KindConcurrencyConflict:
		return "Someone else updated the count. Refreshing data."
	case KindNotFound:
		return "Unknown parking location."
	default:
		return "Unable to update—try again."
	}
}
