package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"parkwatch-backend/internal/metrics"
	"parkwatch-backend/internal/model"
	"parkwatch-backend/internal/store"
)

// Ledger enforces capacity bounds on location occupancy and serializes
// concurrent mutations through the store's version-checked conditional
// write. It never retries a rejected write on its own.
type Ledger struct {
	store store.Store
	cache *cache.Cache
}

// New creates a ledger backed by the given store. Reads served from the
// local cache expire after ttl; mutations always read fresh.
func New(s store.Store, ttl time.Duration) *Ledger {
	return &Ledger{
		store: s,
		cache: cache.New(ttl, 2*ttl),
	}
}

// GetLocation returns the location, serving a cached copy when one is fresh
// enough. Pass forceRefresh to bypass the cache, e.g. after a conflict.
func (l *Ledger) GetLocation(ctx context.Context, id string, forceRefresh bool) (model.Location, error) {
	if !forceRefresh {
		if cached, found := l.cache.Get(id); found {
			return cached.(model.Location), nil
		}
	}

	location, err := l.refresh(ctx, id)
	if err != nil {
		return model.Location{}, err
	}
	return location, nil
}

// ApplyDelta applies a single check-in (+1) or check-out (-1) to a location.
//
// The sequence is: fresh read, local boundary check, then a conditional
// write gated on the version just read. A version mismatch is surfaced as
// KindConcurrencyConflict with refreshed state attached; the delta is never
// silently replayed on top of newer data.
func (l *Ledger) ApplyDelta(ctx context.Context, id string, delta int) (model.Location, error) {
	if delta != 1 && delta != -1 {
		return model.Location{}, fmt.Errorf("ledger: delta must be +1 or -1, got %d", delta)
	}

	current, err := l.refresh(ctx, id)
	if err != nil {
		return model.Location{}, err
	}

	if delta > 0 && current.Occupancy >= current.Capacity {
		metrics.DeltasRejected.WithLabelValues(string(KindCapacityExceeded)).Inc()
		return model.Location{}, &Error{Kind: KindCapacityExceeded, LocationID: id, Current: &current}
	}
	if delta < 0 && current.Occupancy <= 0 {
		metrics.DeltasRejected.WithLabelValues(string(KindUnderflow)).Inc()
		return model.Location{}, &Error{Kind: KindUnderflow, LocationID: id, Current: &current}
	}

	updated, err := l.store.ConditionalWriteOccupancy(ctx, id, current.Occupancy+delta, current.Version)
	if errors.Is(err, store.ErrVersionMismatch) {
		metrics.DeltasRejected.WithLabelValues(string(KindConcurrencyConflict)).Inc()
		conflictErr := &Error{Kind: KindConcurrencyConflict, LocationID: id, Err: err}
		// Refresh so callers (and the UI behind them) see the state that won.
		if refreshed, refreshErr := l.refresh(ctx, id); refreshErr == nil {
			conflictErr.Current = &refreshed
		}
		return model.Location{}, conflictErr
	}
	if err != nil {
		return model.Location{}, l.wrapStoreError(id, err)
	}

	l.cache.Set(id, updated, cache.DefaultExpiration)
	metrics.DeltasApplied.WithLabelValues(deltaLabel(delta)).Inc()
	return updated, nil
}

// refresh reads the authoritative record and replaces the cached copy.
func (l *Ledger) refresh(ctx context.Context, id string) (model.Location, error) {
	location, err := l.store.ReadLocation(ctx, id)
	if err != nil {
		return model.Location{}, l.wrapStoreError(id, err)
	}
	l.cache.Set(id, location, cache.DefaultExpiration)
	return location, nil
}

func (l *Ledger) wrapStoreError(id string, err error) error {
	if errors.Is(err, store.ErrLocationNotFound) {
		return &Error{Kind: KindNotFound, LocationID: id, Err: err}
	}
	metrics.StoreFaults.Inc()
	return &Error{Kind: KindStoreUnavailable, LocationID: id, Err: err}
}

func deltaLabel(delta int) string {
	if delta > 0 {
		return "entry"
	}
	return "exit"
}
