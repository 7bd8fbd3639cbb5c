package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wallet-service/config"
	infradb "wallet-service/infra/db"
	"wallet-service/infra/repository"
	"wallet-service/internal/core/broker"
	"wallet-service/internal/core/worker"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))

	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Error("outbox worker needs a shared database, STORAGE_DRIVER=memory is not supported")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := infradb.Connect(
		cfg.Database.Driver,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	rabbit := broker.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err := rabbit.Connect(); err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rabbit.Close()

	if err := rabbit.DeclareExchange(cfg.RabbitMQ.Exchange); err != nil {
		logger.Error("failed to declare exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("connected to rabbitmq", slog.String("exchange", cfg.RabbitMQ.Exchange))

	publisher, err := broker.NewRabbitMQPublisher(rabbit.Channel, cfg.RabbitMQ.Exchange, broker.DefaultBreakerSettings(), logger)
	if err != nil {
		logger.Error("failed to create publisher", slog.String("error", err.Error()))
		os.Exit(1)
	}

	w := worker.NewOutboxWorker(
		repository.NewOutboxRepository(db),
		publisher,
		worker.Options{
			Interval:    cfg.Outbox.PollInterval,
			BatchSize:   cfg.Outbox.BatchSize,
			MaxAttempts: cfg.Outbox.MaxAttempts,
			ClaimLease:  cfg.Outbox.ClaimLease,
		},
		logger,
	)
	w.Run(ctx)
}
