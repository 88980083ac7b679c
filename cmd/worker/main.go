package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"directpay/internal/config"
	"directpay/internal/database"
	"directpay/internal/logger"
	"directpay/internal/processor"
	"directpay/internal/services"
	"directpay/internal/worker"
)

func main() {
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
	if appConfig.QueueBackend != config.QueueBackendRabbitMQ {
		return fmt.Errorf("the standalone worker needs QUEUE_BACKEND=%s, got %q", config.QueueBackendRabbitMQ, appConfig.QueueBackend)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	broker, err := worker.NewBroker(appConfig)
	if err != nil {
		return err
	}
	defer broker.Close()

	db := dbManager.DB()
	payments := services.NewPaymentService(db, services.NewBankAccountService(db), processor.NewDispatcher(broker))
	schedules := services.NewScheduleService(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("Starting DirectPay worker", "queue", appConfig.RabbitMQQueue)
	if err := worker.New(appConfig, broker, payments, schedules).Run(ctx); err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	log.Info("Worker stopped")
	return nil
}
