package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupActivityRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(nil, nil, nil, nil, nil)
	r.GET("/api/activities", handler.GetActivities)
	r.GET("/api/vapid_public_key", handler.GetVAPIDPublicKey)
	return r
}

func TestGetActivities_RejectsInvalidLimit(t *testing.T) {
	router := setupActivityRouter()

	for _, limit := range []string{"0", "-1", "abc"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/api/activities?limit="+limit, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
	}
}

func TestGetActivities_RejectsMalformedCursor(t *testing.T) {
	router := setupActivityRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/activities?before=not-a-cursor", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetVAPIDPublicKey_Unconfigured(t *testing.T) {
	router := setupActivityRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/vapid_public_key", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
