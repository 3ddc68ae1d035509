package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jinsuh/supplyhub/internal/app"
	iauth "github.com/jinsuh/supplyhub/internal/auth"
	"github.com/jinsuh/supplyhub/internal/cache"
	"github.com/jinsuh/supplyhub/internal/handlers"
	"github.com/jinsuh/supplyhub/internal/middleware"
)

// Dependencies bundles everything the router needs.
type Dependencies struct {
	Config        *app.Config
	JWT           *iauth.JWTService
	Store         cache.Store
	Notifications *handlers.NotificationHandler
	Chat          *handlers.ChatHandler
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Notifications == nil || deps.Chat == nil {
		return nil, fmt.Errorf("handlers must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	if rl := deps.Config.Server.RateLimit; rl.Enabled {
		r.Use(middleware.RateLimit(deps.Store, rl.MaxRequests, rl.Window))
	}

	r.GET("/health", handlers.Health())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.Auth(deps.JWT))

	registerNotificationRoutes(api, deps.Notifications)
	registerChatRoutes(api, deps.Chat)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
