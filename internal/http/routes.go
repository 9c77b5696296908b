package http

import (
	"time"

	"mine_economy/internal/cache"
	"mine_economy/internal/http/handlers"
	"mine_economy/internal/http/middleware"
	"mine_economy/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Limits configures the fixed-window rate limiters.
type Limits struct {
	APIRequests  int
	APIWindow    time.Duration
	GameRequests int
	GameWindow   time.Duration
}

// Deps is everything the router needs.
type Deps struct {
	Handler       *handlers.Handler
	Store         handlers.Pinger
	Redis         *redis.Client // optional
	Limiter       *middleware.RateLimiter
	Limits        Limits
	Version       string
	AllowedOrigin string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := d.Handler

	var cachePing handlers.Pinger
	if d.Redis != nil {
		cachePing = cache.Pinger{Client: d.Redis}
	}
	healthHandler := handlers.NewHealthHandler(d.Store, cachePing, h.Registry.Count, d.Version)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := d.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(d.Redis)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(limiter.ByIP(d.Limits.APIRequests, d.Limits.APIWindow))
	v1.GET("/cases", h.ListCases)
	v1.GET("/leaderboard", h.GetLeaderboard)

	auth := v1.Group("")
	auth.Use(middleware.JWT())
	{
		auth.GET("/me", h.Me)
		auth.GET("/me/cooldowns", h.Cooldowns)
		auth.GET("/me/history", h.History)

		auth.POST("/actions/:action", h.PerformAction)
		auth.POST("/activity/message", h.MessageActivity)
		auth.POST("/activity/voice", h.VoiceActivity)

		auth.GET("/gear", h.GetGear)
		auth.POST("/gear/:kind/upgrade", h.UpgradeGear)
		auth.POST("/cases/:id/open", h.OpenCase)

		auth.POST("/transfer", h.Transfer)
		auth.POST("/sell", h.Sell)
		auth.POST("/admin/grant", h.Grant)
	}

	// Game rate limiter middleware (per user, not per IP)
	gameRL := limiter.ByUser("game", d.Limits.GameRequests, d.Limits.GameWindow)
	games := auth.Group("/games")
	{
		games.POST("", gameRL, h.StartGame)
		games.GET("/:id", h.GetGame)
		games.POST("/:id/actions", gameRL, h.GameAction)
	}

	// WebSocket for live sessions
	r.GET("/ws/games/:id", middleware.JWT(), ws.HandleWS(h.Registry, d.AllowedOrigin))
}
