package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger"

	"wallet-service/config"
	_ "wallet-service/docs"
	infradb "wallet-service/infra/db"
	"wallet-service/infra/lock"
	"wallet-service/infra/repository"
	"wallet-service/internal/core/domain/ports"
	"wallet-service/internal/core/handler"
	"wallet-service/internal/core/usecase"
)

const shutdownTimeout = 10 * time.Second

// @title          Wallet Service API
// @version        1.0
// @description    Wallet ledger with manual credit approval, using the outbox pattern for event publishing.
// @host           localhost:8080
// @BasePath       /
// @schemes        http
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeRepo()

	locker, closeLocker, err := openLocker(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeLocker()

	walletHandler := handler.NewHandlerFactory(usecase.NewFactory(repo, locker, logger), cfg.Admin.Token)
	if cfg.Admin.Token == "" {
		logger.Warn("ADMIN_TOKEN is empty, approve and reject are unauthenticated")
	}

	router := mux.NewRouter()
	router.Use(handler.MetricsMiddleware)
	walletHandler.RegisterRoutes(router)
	router.HandleFunc("/health", handler.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler())
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

func openRepository(cfg *config.Config, logger *slog.Logger) (ports.TransactionRepository, func(), error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		logger.Warn("using in-memory storage, the ledger is lost on restart")
		return repository.NewMemoryTransactionRepository(), func() {}, nil
	}

	db, err := infradb.Connect(
		cfg.Database.Driver,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
	)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to database", slog.String("driver", cfg.Database.Driver))

	if err := infradb.Migrate(db, cfg.Database.MigrationsPath, cfg.Database.Name); err != nil {
		closeDB(db, logger)
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return repository.NewTransactionRepository(db), func() { closeDB(db, logger) }, nil
}

func openLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.AccountLocker, func(), error) {
	if cfg.Redis.Addr == "" {
		return lock.NewMemoryLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	logger.Info("connected to redis", slog.String("addr", cfg.Redis.Addr))

	return lock.NewRedisLocker(client, lock.DefaultRedisOptions(), logger), func() { _ = client.Close() }, nil
}

func closeDB(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close database", slog.String("error", err.Error()))
	}
}
