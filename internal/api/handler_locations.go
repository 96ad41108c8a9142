package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parkwatch-backend/internal/ledger"
	"parkwatch-backend/internal/metrics"
	"parkwatch-backend/internal/model"
	"parkwatch-backend/internal/parse"
)

// GetLocations handles the GET /api/locations request.
func (h *Handler) GetLocations(c *gin.Context) {
	locations, err := h.store.ListLocations(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve locations"})
		return
	}
	c.JSON(http.StatusOK, locations)
}

// GetLocation handles the GET /api/locations/{location_id} request.
// ?refresh=true bypasses the ledger's read cache.
func (h *Handler) GetLocation(c *gin.Context) {
	id := c.Param("location_id")
	forceRefresh := c.Query("refresh") == "true"

	location, err := h.ledger.GetLocation(c.Request.Context(), id, forceRefresh)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, location)
}

// CheckIn handles POST /api/locations/{location_id}/checkin.
func (h *Handler) CheckIn(c *gin.Context) {
	h.applyDelta(c, 1, model.EventEntry)
}

// CheckOut handles POST /api/locations/{location_id}/checkout.
func (h *Handler) CheckOut(c *gin.Context) {
	h.applyDelta(c, -1, model.EventExit)
}

type checkRequest struct {
	VehicleTag string `json:"vehicle_tag"`
}

// applyDelta runs the ledger mutation and then the best-effort activity
// append. The two are deliberately not transactional: a failed append never
// rolls back an accepted occupancy write, it is only reported alongside it.
func (h *Handler) applyDelta(c *gin.Context, delta int, kind model.EventKind) {
	id := c.Param("location_id")
	ctx := c.Request.Context()

	var req checkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	tag, err := parse.VehicleTag(req.VehicleTag)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var vehicleTag *string
	if tag != "" {
		vehicleTag = &tag
	}

	location, err := h.ledger.ApplyDelta(ctx, id, delta)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	// A check-out from a full lot means a spot just opened up.
	if delta < 0 && location.Occupancy == location.Capacity-1 {
		h.notifier.Dispatch(location.ID)
	}

	response := gin.H{"location": location}

	event, recordErr := h.activity.Record(ctx, kind, location.ID, location.Name, vehicleTag)
	if recordErr != nil {
		metrics.EventRecordFailures.Inc()
		response["activity_error"] = "Occupancy was updated, but recording the activity failed."
	} else {
		response["activity"] = event
	}

	c.JSON(http.StatusOK, response)
}

// respondLedgerError maps the ledger's error taxonomy onto HTTP statuses.
func respondLedgerError(c *gin.Context, err error) {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	body := gin.H{"error": lerr.Message(), "kind": string(lerr.Kind)}
	if lerr.Current != nil {
		body["location"] = lerr.Current
	}

	switch lerr.Kind {
	case ledger.KindNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, body)
	case ledger.KindCapacityExceeded, ledger.KindUnderflow:
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, body)
	case ledger.KindConcurrencyConflict:
		c.AbortWithStatusJSON(http.StatusConflict, body)
	default:
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, body)
	}
}
