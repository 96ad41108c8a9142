package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parkwatch-backend/internal/activity"
	"parkwatch-backend/internal/store"
)

const defaultActivityPageSize = 20

// GetActivities handles the GET /api/activities request. `limit` bounds the
// page size and `before` is the opaque cursor from a previous page's
// next_cursor, enabling backward (load-more) pagination.
func (h *Handler) GetActivities(c *gin.Context) {
	limit := defaultActivityPageSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	var before *store.EventCursor
	if token := c.Query("before"); token != "" {
		cursor, err := activity.DecodeCursor(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		before = cursor
	}

	events, err := h.activity.FetchRecent(c.Request.Context(), limit, before)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to retrieve activities"})
		return
	}

	response := gin.H{"events": events}
	if len(events) == limit {
		response["next_cursor"] = activity.EncodeCursor(events[len(events)-1])
	}
	c.JSON(http.StatusOK, response)
}
