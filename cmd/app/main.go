package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mine_economy/internal/app"
	"mine_economy/internal/cache"
	"mine_economy/internal/config"
	"mine_economy/internal/db"
	"mine_economy/internal/logger"
	"mine_economy/internal/scheduler"
	"mine_economy/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	if err := service.InitJWT(cfg.JWTSecret, cfg.JWTTTL); err != nil {
		logger.Fatal("jwt init failed", "error", err)
	}
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open store failed", "driver", cfg.StorageDriver, "error", err)
	}
	defer store.Close()

	rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// Redis only backs throttles and rate limits; run without it
		logger.Warn("redis unavailable, using in-process limits", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	clock := clockwork.NewRealClock()
	a := app.New(cfg, app.Options{Store: store, Redis: rdb, Clock: clock, Version: version})

	sched, err := scheduler.New(clock)
	if err != nil {
		logger.Fatal("scheduler init failed", "error", err)
	}
	if err := a.Schedule(ctx, sched); err != nil {
		logger.Fatal("schedule jobs failed", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", "port", cfg.AppPort, "driver", cfg.StorageDriver, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sched.Start()
		<-gctx.Done()
		return sched.Shutdown()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}
