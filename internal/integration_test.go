package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"parkwatch-backend/config"
	"parkwatch-backend/internal/activity"
	"parkwatch-backend/internal/api"
	"parkwatch-backend/internal/ledger"
	"parkwatch-backend/internal/model"
	"parkwatch-backend/internal/notification"
	"parkwatch-backend/internal/store"
)

// TestCheckInCheckOutLifecycle drives the whole stack — HTTP handlers,
// ledger, activity log and store — over an in-memory SQLite database.
func TestCheckInCheckOutLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()

	require.NoError(t, testDB.AutoMigrate(
		&model.Location{},
		&model.ActivityEvent{},
		&model.PushSubscription{},
	))

	require.NoError(t, testDB.Create(&model.Location{
		ID: "hq", Name: "Dell HQ", Capacity: 2, Occupancy: 0, Version: 0,
	}).Error)

	appStore := store.NewGormStore(testDB)
	occupancyLedger := ledger.New(appStore, 30*time.Second)
	activityLog, err := activity.NewLog(context.Background(), appStore)
	require.NoError(t, err)
	workerPool := notification.NewWorkerPool(1, testDB, &webpush.Options{})

	handler := api.NewHandler(appStore, occupancyLedger, activityLog, workerPool, &webpush.Options{})
	// High rate limit so sequential test requests never trip the limiter.
	router := api.NewRouter(handler, &config.ServerConfig{RateLimitPerSec: 1000})

	checkIn := func(tag string) *httptest.ResponseRecorder {
		body := []byte("{}")
		if tag != "" {
			body, _ = json.Marshal(map[string]string{"vehicle_tag": tag})
		}
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/locations/hq/checkin", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}
	checkOut := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/api/locations/hq/checkout", nil)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("check-in increments occupancy and records an entry", func(t *testing.T) {
		w := checkIn("ka 01 ab 1234")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Location model.Location      `json:"location"`
			Activity model.ActivityEvent `json:"activity"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Location.Occupancy)
		assert.Equal(t, int64(1), resp.Location.Version)
		assert.Equal(t, model.EventEntry, resp.Activity.Kind)
		require.NotNil(t, resp.Activity.VehicleTag)
		assert.Equal(t, "KA01AB1234", *resp.Activity.VehicleTag, "tag is normalized before recording")
	})

	t.Run("check-in past capacity is rejected without a write", func(t *testing.T) {
		require.Equal(t, http.StatusOK, checkIn("").Code)

		w := checkIn("")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp struct {
			Kind     string         `json:"kind"`
			Location model.Location `json:"location"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "capacity_exceeded", resp.Kind)
		assert.Equal(t, 2, resp.Location.Occupancy)
		assert.Equal(t, int64(2), resp.Location.Version, "rejection must not bump the version")
	})

	t.Run("activity feed pages newest first", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/activities?limit=1", nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var page struct {
			Events     []model.ActivityEvent `json:"events"`
			NextCursor string                `json:"next_cursor"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
		require.Len(t, page.Events, 1)
		require.NotEmpty(t, page.NextCursor)
		newest := page.Events[0]

		w = httptest.NewRecorder()
		req, _ = http.NewRequest(http.MethodGet, "/api/activities?limit=1&before="+page.NextCursor, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var older struct {
			Events []model.ActivityEvent `json:"events"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &older))
		require.Len(t, older.Events, 1)
		assert.NotEqual(t, newest.ID, older.Events[0].ID)
		assert.True(t, older.Events[0].Seq < newest.Seq)
	})

	t.Run("check-out decrements and records an exit", func(t *testing.T) {
		w := checkOut()
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Location model.Location      `json:"location"`
			Activity model.ActivityEvent `json:"activity"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Location.Occupancy)
		assert.Equal(t, int64(3), resp.Location.Version)
		assert.Equal(t, model.EventExit, resp.Activity.Kind)
	})

	t.Run("check-out below zero is rejected", func(t *testing.T) {
		require.Equal(t, http.StatusOK, checkOut().Code)

		w := checkOut()
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "underflow")
	})

	t.Run("stale-version write conflicts and refresh sees the winner", func(t *testing.T) {
		ctx := context.Background()

		// Client A reads the location...
		snapshot, err := appStore.ReadLocation(ctx, "hq")
		require.NoError(t, err)

		// ...client B writes first, advancing the version...
		_, err = appStore.ConditionalWriteOccupancy(ctx, "hq", snapshot.Occupancy+1, snapshot.Version)
		require.NoError(t, err)

		// ...so client A's write against the stale version must lose.
		_, err = appStore.ConditionalWriteOccupancy(ctx, "hq", snapshot.Occupancy+1, snapshot.Version)
		assert.ErrorIs(t, err, store.ErrVersionMismatch)

		refreshed, err := occupancyLedger.GetLocation(ctx, "hq", true)
		require.NoError(t, err)
		assert.Equal(t, snapshot.Version+1, refreshed.Version)
	})

	t.Run("unknown location maps to 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/locations/nowhere", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid vehicle tag maps to 400", func(t *testing.T) {
		w := checkIn("!!")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
