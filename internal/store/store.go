package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parkwatch-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	ListLocations(ctx context.Context) ([]model.Location, error)
	ReadLocation(ctx context.Context, id string) (model.Location, error)

	// ConditionalWriteOccupancy sets the occupancy of a location and bumps
	// its version by one, contingent on the stored version still equaling
	// expectedVersion. Returns ErrVersionMismatch if another writer got
	// there first, in which case nothing was written.
	ConditionalWriteOccupancy(ctx context.Context, id string, newOccupancy int, expectedVersion int64) (model.Location, error)

	// AppendEvent persists a new activity event with a store-assigned ID,
	// sequence number and timestamp.
	AppendEvent(ctx context.Context, kind model.EventKind, locationID, locationName string, vehicleTag *string) (model.ActivityEvent, error)

	// QueryEvents returns up to limit events newest first, strictly older
	// than the cursor when one is given.
	QueryEvents(ctx context.Context, limit int, before *EventCursor) ([]model.ActivityEvent, error)

	// QueryEventsAfterSeq returns events with a sequence number greater
	// than afterSeq in ascending order. Used by the poll fallback to catch
	// up on events appended by other service instances.
	QueryEventsAfterSeq(ctx context.Context, afterSeq int64, limit int) ([]model.ActivityEvent, error)

	// MaxEventSeq returns the highest assigned event sequence number, or
	// zero when the log is empty.
	MaxEventSeq(ctx context.Context) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) ListLocations(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	if err := s.db.WithContext(ctx).Order("name").Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

func (s *gormStore) ReadLocation(ctx context.Context, id string) (model.Location, error) {
	var location model.Location
	err := s.db.WithContext(ctx).First(&location, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Location{}, ErrLocationNotFound
	}
	if err != nil {
		return model.Location{}, fmt.Errorf("failed to read location %s: %w", id, err)
	}
	return location, nil
}

func (s *gormStore) ConditionalWriteOccupancy(ctx context.Context, id string, newOccupancy int, expectedVersion int64) (model.Location, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Location{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"occupancy":  newOccupancy,
			"version":    expectedVersion + 1,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return model.Location{}, fmt.Errorf("conditional write for location %s failed: %w", id, res.Error)
	}

	if res.RowsAffected == 0 {
		// Either the location is gone or someone else bumped the version.
		if _, err := s.ReadLocation(ctx, id); err != nil {
			return model.Location{}, err
		}
		return model.Location{}, ErrVersionMismatch
	}

	return s.ReadLocation(ctx, id)
}

func (s *gormStore) AppendEvent(ctx context.Context, kind model.EventKind, locationID, locationName string, vehicleTag *string) (model.ActivityEvent, error) {
	event := model.ActivityEvent{
		ID:           uuid.NewString(),
		Kind:         kind,
		LocationID:   locationID,
		LocationName: locationName,
		VehicleTag:   vehicleTag,
		OccurredAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&event).Error; err != nil {
		return model.ActivityEvent{}, fmt.Errorf("failed to append activity event: %w", err)
	}
	return event, nil
}

func (s *gormStore) QueryEvents(ctx context.Context, limit int, before *EventCursor) ([]model.ActivityEvent, error) {
	q := s.db.WithContext(ctx).
		Model(&model.ActivityEvent{}).
		Order("occurred_at DESC, seq DESC").
		Limit(limit)

	if before != nil {
		q = q.Where("occurred_at < ? OR (occurred_at = ? AND seq < ?)",
			before.OccurredAt, before.OccurredAt, before.Seq)
	}

	var events []model.ActivityEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	return events, nil
}

func (s *gormStore) QueryEventsAfterSeq(ctx context.Context, afterSeq int64, limit int) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	err := s.db.WithContext(ctx).
		Where("seq > ?", afterSeq).
		Order("occurred_at ASC, seq ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events after seq %d: %w", afterSeq, err)
	}
	return events, nil
}

func (s *gormStore) MaxEventSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.WithContext(ctx).
		Model(&model.ActivityEvent{}).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read max event seq: %w", err)
	}
	return maxSeq, nil
}
