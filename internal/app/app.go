// Package app assembles the services, the game registry, the router and the
// maintenance jobs from a Config.
package app

import (
	"context"
	"time"

	"mine_economy/internal/cache"
	"mine_economy/internal/config"
	"mine_economy/internal/game"
	httpserver "mine_economy/internal/http"
	"mine_economy/internal/http/handlers"
	"mine_economy/internal/http/middleware"
	"mine_economy/internal/logger"
	"mine_economy/internal/repository"
	"mine_economy/internal/reward"
	"mine_economy/internal/scheduler"
	"mine_economy/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	redis "github.com/redis/go-redis/v9"
)

// Options carries the process-level dependencies. Redis may be nil.
type Options struct {
	Store   repository.Store
	Redis   *redis.Client
	Clock   clockwork.Clock
	Source  reward.Source
	Catalog *reward.Catalog
	Version string
}

type App struct {
	Engine   *gin.Engine
	Registry *game.Registry
	Handler  *handlers.Handler

	cfg      *config.Config
	throttle *cache.MemoryThrottle
	limiter  *middleware.RateLimiter
}

func New(cfg *config.Config, opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Source == nil {
		opts.Source = reward.NewRandomizer()
	}
	if opts.Catalog == nil {
		opts.Catalog = reward.DefaultCatalog()
	}

	local := cache.NewMemoryThrottle(opts.Clock)
	var throttle cache.Throttle = local
	if opts.Redis != nil {
		throttle = cache.NewFallbackThrottle(cache.NewRedisThrottle(opts.Redis, "economy:"), local)
	}

	ledger := service.NewLedgerService(opts.Store, opts.Clock)
	economy := service.NewEconomyService(opts.Store, opts.Clock, opts.Source, throttle, service.EconomyConfig{
		MineCooldown:    cfg.MineCooldown,
		WorkCooldown:    cfg.WorkCooldown,
		ProfitCooldown:  cfg.ProfitCooldown,
		DailyCooldown:   cfg.DailyCooldown,
		MessageCooldown: cfg.MessageCooldown,
		ProfitChance:    cfg.ProfitChance,
	})
	factory := game.NewFactory(cfg.ChoiceTimeout, cfg.TurnTimeout, opts.Source)
	registry := game.NewRegistry(factory, ledger, opts.Clock, cfg.SessionGrace)

	h := &handlers.Handler{
		Ledger:   ledger,
		Economy:  economy,
		Gear:     service.NewGearService(opts.Store, opts.Clock, cfg.GearMaxLevel),
		Cases:    service.NewCaseService(opts.Store, opts.Clock, opts.Source, opts.Catalog),
		Registry: registry,
		IsAdmin:  cfg.IsAdmin,
	}

	limiter := middleware.NewRateLimiter(opts.Redis)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), cors())
	httpserver.RegisterRoutes(r, httpserver.Deps{
		Handler: h,
		Store:   opts.Store,
		Redis:   opts.Redis,
		Limiter: limiter,
		Limits: httpserver.Limits{
			APIRequests:  cfg.APIRateLimit,
			APIWindow:    cfg.APIRateWindow,
			GameRequests: cfg.GameRateLimit,
			GameWindow:   cfg.GameRateWindow,
		},
		Version:       opts.Version,
		AllowedOrigin: cfg.AllowedOrigin,
	})

	return &App{
		Engine:   r,
		Registry: registry,
		Handler:  h,
		cfg:      cfg,
		throttle: local,
		limiter:  limiter,
	}
}

// Schedule registers the maintenance jobs on s.
func (a *App) Schedule(ctx context.Context, s *scheduler.Scheduler) error {
	if err := s.Every(ctx, "session-sweep", a.cfg.SessionSweepInterval, func(ctx context.Context) {
		expired, removed := a.Registry.Sweep(ctx)
		if expired > 0 || removed > 0 {
			logger.Info("game sessions swept", "expired", expired, "removed", removed)
		}
	}); err != nil {
		return err
	}
	if err := s.Every(ctx, "quest-reset", a.cfg.QuestReset, func(ctx context.Context) {
		_, _ = a.Handler.Economy.ResetQuests(ctx)
	}); err != nil {
		return err
	}
	return s.Every(ctx, "throttle-prune", 5*time.Minute, func(context.Context) {
		n := a.throttle.Prune() + a.limiter.PruneLocal()
		logger.Debug("throttle state pruned", "entries", n)
	})
}

// CORS for production (frontend on different domain)
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
