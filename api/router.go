// Package api wires the HTTP surface: routes, auth, and static
// screenshot serving.
package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loadwire/loadwire/api/handler"
	"github.com/loadwire/loadwire/api/middleware"
	"github.com/loadwire/loadwire/config"
	"github.com/loadwire/loadwire/fetch"
	"github.com/loadwire/loadwire/screenshot"
)

// Version is the reported service version.
const Version = "0.1.0"

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:     Recovery → Logger
//	Protected:  Auth (if an API key is configured)
//
// Health and screenshot files are intentionally outside auth so
// monitoring probes and capture links keep working.
func NewRouter(f *fetch.Fetcher, pool fetch.SlotPool, shots *screenshot.Store, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/health", handler.Health(pool, startTime, Version))
	r.Static(screenshot.PublicPrefix, shots.Dir())

	protected := r.Group("")
	protected.Use(middleware.Auth(cfg.Auth.APIKey))

	protected.POST("/load", handler.Load(f))
	protected.POST("/load/batch", handler.Batch(f))
	protected.POST("/", handler.OpenWebUI(f))

	return r
}
