package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/cli"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentWorker)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required by the import worker")
		os.Exit(1)
	}

	logger.Info("Starting fintrack-worker", "queue", cfg.AMQPQueue)

	repo := cli.InitSQLite(logger.WithComponent(applog.ComponentStorage), cfg.SQLiteDBPath)
	amqpClient := cli.InitAMQP(logger.WithComponent(applog.ComponentAMQP), cfg)

	// the worker applies batches, it never publishes them
	svc := services.NewFinanceService(repo, nil, services.Options{SeedDemoData: cfg.SeedDemoData})
	processor := services.NewImportProcessor(svc)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
		if err := svc.Close(); err != nil {
			logger.Error("Service close error", "error", err)
		}
	})

	if err := amqpClient.ConsumeImportBatches(ctx, processor.Handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Import consumption failed", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
