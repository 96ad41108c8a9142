package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"parkwatch-backend/internal/activity"
	"parkwatch-backend/internal/ledger"
	"parkwatch-backend/internal/notification"
	"parkwatch-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	ledger   *ledger.Ledger
	activity *activity.Log
	notifier *notification.WorkerPool
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, l *ledger.Ledger, a *activity.Log, n *notification.WorkerPool, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		ledger:   l,
		activity: a,
		notifier: n,
		webpush:  webpushOptions,
	}
}
