package activity

import (
	"context"
	"fmt"
	"log"
	"sync"

	"parkwatch-backend/internal/metrics"
	"parkwatch-backend/internal/model"
	"parkwatch-backend/internal/store"
)

// Log is the append-only activity feed. It records check-in/check-out
// events, serves bounded recency-ordered pages, and pushes newly accepted
// events to subscribers in store-accept order.
//
// Delivery always runs through a single dispatch path that walks the store's
// sequence numbers upward, so subscribers never observe events out of order
// even when another service instance appended them.
type Log struct {
	store store.Store

	mu      sync.Mutex
	subs    map[int64]func(model.ActivityEvent)
	nextSub int64
	lastSeq int64
}

// NewLog creates an activity log positioned at the end of the stored stream:
// subscribers receive only events accepted after this point.
func NewLog(ctx context.Context, s store.Store) (*Log, error) {
	lastSeq, err := s.MaxEventSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("activity: failed to position log: %w", err)
	}
	return &Log{
		store:   s,
		subs:    make(map[int64]func(model.ActivityEvent)),
		lastSeq: lastSeq,
	}, nil
}

// Record appends a new event and pushes it (plus any not-yet-dispatched
// predecessors) to subscribers. The append is independent of any ledger
// write: the log is a best-effort audit trail, not a transactional partner.
func (l *Log) Record(ctx context.Context, kind model.EventKind, locationID, locationName string, vehicleTag *string) (model.ActivityEvent, error) {
	event, err := l.store.AppendEvent(ctx, kind, locationID, locationName, vehicleTag)
	if err != nil {
		return model.ActivityEvent{}, err
	}
	metrics.EventsRecorded.Inc()

	// The event is durable even if live delivery lags here; the poller or
	// the next Record catches subscribers up.
	if err := l.Dispatch(ctx); err != nil {
		log.Printf("Activity dispatch after record failed: %v", err)
	}
	return event, nil
}

// FetchRecent returns up to limit events newest first, strictly older than
// the cursor when one is given. Each call is independent and restartable;
// the log never truncates history on its own.
func (l *Log) FetchRecent(ctx context.Context, limit int, before *store.EventCursor) ([]model.ActivityEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	return l.store.QueryEvents(ctx, limit, before)
}

// Subscription is a handle for cancelling a live feed registration.
type Subscription struct {
	cancel func()
	once   sync.Once
}

// Unsubscribe stops further delivery. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Subscribe registers a callback invoked once per newly accepted event, in
// accept order, until the subscription is cancelled. Missed events are not
// replayed; pair with an initial FetchRecent for continuity. Callbacks run
// on the dispatching goroutine and must not block.
func (l *Log) Subscribe(onEvent func(model.ActivityEvent)) *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.nextSub
	l.nextSub++
	l.subs[id] = onEvent

	return &Subscription{cancel: func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}}
}

// Dispatch delivers every event accepted since the last dispatch to all
// subscribers, in ascending sequence order. Called after each Record and by
// the poll fallback.
func (l *Log) Dispatch(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		events, err := l.store.QueryEventsAfterSeq(ctx, l.lastSeq, dispatchBatchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		for _, event := range events {
			for _, onEvent := range l.subs {
				onEvent(event)
			}
			l.lastSeq = event.Seq
		}
		if len(events) < dispatchBatchSize {
			return nil
		}
	}
}

const dispatchBatchSize = 200
