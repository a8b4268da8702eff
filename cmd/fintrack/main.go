package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/cli"
	apphttp "fintrack/internal/http"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentApp)

	repo := cli.InitSQLite(logger.WithComponent(applog.ComponentStorage), cfg.SQLiteDBPath)

	dashboardCache := cache.NewLRUCache[*services.Snapshot](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(dashboardCache)
	cacheManager.StartCleanup(10 * time.Minute)

	// a nil *amqp.Client must not become a non-nil Publisher
	var publisher services.Publisher
	if client := cli.InitAMQP(logger.WithComponent(applog.ComponentAMQP), cfg); client != nil {
		publisher = client
	}

	svc := services.NewFinanceService(repo, publisher, services.Options{
		SeedDemoData: cfg.SeedDemoData,
		Cache:        dashboardCache,
	})

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.ServerOptions{
		UserID:             cfg.UserID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              repo.Ping,
		Logger:             logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if err := svc.Close(); err != nil {
			logger.Error("Service close error", "error", err)
		}
	})

	logger.Info("Starting fintrack server",
		"port", cfg.Port,
		"user_id", cfg.UserID,
		"amqp_enabled", cfg.AMQPEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
