package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"ship-tracking-backend/config"
	"ship-tracking-backend/internal/mw"
	"ship-tracking-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s)

	limit := cfg.RateLimitPerSec
	if limit <= 0 {
		limit = 10
	}
	rateLimiter := mw.RateLimiter(rate.Limit(limit), 5)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	responseCache := mw.NewResponseCache(ttl)
	caching := responseCache.Middleware()

	// Registration changes must be visible in the lists right away.
	invalidateVessels := func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() < 300 {
			responseCache.InvalidatePrefix("/api/vessels")
		}
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/vessels", invalidateVessels, handler.RegisterVessel)
		api.GET("/vessels/tracking", caching, handler.GetTrackingVessels)
		api.GET("/vessels/completed", caching, handler.GetCompletedVessels)
		api.GET("/vessels/map", caching, handler.GetMapVessels)
		api.GET("/vessels/:mmsi", handler.GetVessel)
		api.POST("/vessels/:mmsi/deactivate", invalidateVessels, handler.DeactivateVessel)

		api.GET("/ports", caching, handler.GetPorts)
		api.POST("/ports", handler.CreatePort)

		api.GET("/engineers", caching, handler.GetEngineers)
		api.POST("/engineers", handler.CreateEngineer)
		api.PUT("/engineers/:id", handler.UpdateEngineer)
		api.DELETE("/engineers/:id", handler.DeleteEngineer)

		api.GET("/stats/provider-calls", handler.GetProviderStats)
	}

	return r
}
