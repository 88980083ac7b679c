package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"directpay/internal/config"
	"directpay/internal/database"
	"directpay/internal/logger"
	"directpay/internal/processor"
	"directpay/internal/router"
	"directpay/internal/worker"
)

// @title           DirectPay API
// @version         1.0
// @description     Rent payment ledger: idempotent payment initiation, settlement over simulated rails, and an append-only transaction event log.

// @host      localhost:8080
// @BasePath  /api/v1

const shutdownTimeout = 30 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	if err := dbManager.RunMigrations(database.DefaultMigrationsPath); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	broker, err := worker.NewBroker(appConfig)
	if err != nil {
		return err
	}
	defer broker.Close()

	svc := router.NewServices(dbManager.DB(), processor.NewDispatcher(broker))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The memory broker is only reachable from this process, so it always
	// needs in-process workers.
	workerDone := make(chan error, 1)
	if appConfig.WorkerInline || appConfig.QueueBackend == config.QueueBackendMemory {
		w := worker.New(appConfig, broker, svc.Payments, svc.Schedules)
		go func() { workerDone <- w.Run(ctx) }()
	} else {
		close(workerDone)
	}

	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router.New(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting DirectPay API on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			stop()
			<-workerDone
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}

	stop()
	if err := <-workerDone; err != nil {
		log.Errorf("Worker stopped with error: %v", err)
	}
	log.Info("Server stopped")
	return nil
}
