package model

import "time"

// Location represents a parking site with a bounded capacity.
//
// Version is the optimistic-concurrency token: it increases by exactly one
// on every accepted occupancy write, and a write referencing a stale version
// is rejected by the store.
type Location struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:256;not null"`
	Capacity  int    `gorm:"not null"`
	Occupancy int    `gorm:"not null"`
	Version   int64  `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasFreeSpot reports whether at least one more vehicle can check in.
func (l Location) HasFreeSpot() bool {
	return l.Occupancy < l.Capacity
}
