package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"parkwatch-backend/config"
	"parkwatch-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	limitPerSec := cfg.RateLimitPerSec
	if limitPerSec <= 0 {
		limitPerSec = 10
	}
	rateLimiter := mw.RateLimiter(rate.Limit(limitPerSec), 5, cfg.RequestIPHeader)

	// Occupancy listings tolerate a few seconds of staleness; everything
	// mutating or live goes uncached.
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Second
	}
	cacheStore := cache.New(cacheTTL, 10*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/locations", caching, h.GetLocations)
		api.GET("/locations/:location_id", h.GetLocation)
		api.POST("/locations/:location_id/checkin", h.CheckIn)
		api.POST("/locations/:location_id/checkout", h.CheckOut)

		api.GET("/activities", h.GetActivities)
		api.GET("/activities/feed", h.ActivityFeed)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
