package notification

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestWorkerPool_Dispatch(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// Dispatch a job
	wp.Dispatch("hq")

	// Check if the job is in the channel
	select {
	case job := <-wp.jobs:
		assert.Equal(t, "hq", job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchDropsWhenFull(t *testing.T) {
	db, _ := newTestDB(t)
	wp := NewWorkerPool(1, db, &webpush.Options{})

	// No workers are running, so the buffer (size 1) fills up immediately.
	wp.Dispatch("hq")
	wp.Dispatch("main") // must not block

	assert.Len(t, wp.jobs, 1)
}

func TestWorkerPool_SendsSpotFreedNotification(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)

	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			assert.Equal(t, "https://example.com/push", sub.Endpoint)
			assert.Equal(t, "A parking spot just opened up at Dell HQ!", string(payload))
			wg.Done()
			return &http.Response{
				StatusCode: http.StatusCreated,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	mock.ExpectQuery(`SELECT .* FROM "push_subscriptions".*JOIN .*subscription_location_mapping.*WHERE .*slm\.location_id = \$1`).
		WithArgs("hq").
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/push", "test_p256dh", "test_auth", time.Now()))

	mock.ExpectQuery(`SELECT "name" FROM "locations" WHERE id = \$1 ORDER BY "locations"\."id" LIMIT \$[0-9]+`).
		WithArgs("hq", 1).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Dell HQ"))

	wp.Dispatch("hq")
	wg.Wait()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	gormDB, mock := newTestDB(t)
	wp := NewWorkerPool(1, gormDB, &webpush.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusGone,
				Body:       io.NopCloser(bytes.NewBufferString("")),
			}, nil
		},
	}

	mock.ExpectQuery(`SELECT .* FROM "push_subscriptions".*JOIN .*subscription_location_mapping.*WHERE .*slm\.location_id = \$1`).
		WithArgs("main").
		WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
			AddRow("https://example.com/expired", "test_p256dh", "test_auth", time.Now()))

	mock.ExpectQuery(`SELECT "name" FROM "locations" WHERE id = \$1 ORDER BY "locations"\."id" LIMIT \$[0-9]+`).
		WithArgs("main", 1).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Dell Main"))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "push_subscriptions" WHERE "push_subscriptions"\."endpoint" = \$1`).
		WithArgs("https://example.com/expired").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	wp.Dispatch("main")

	// A short sleep to allow the worker to process the job
	time.Sleep(100 * time.Millisecond)

	assert.NoError(t, mock.ExpectationsWereMet())
}
