package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gamehub/payment-service/internal/application"
	"github.com/gamehub/payment-service/internal/config"
	"github.com/gamehub/payment-service/internal/infrastructure/messaging"
	"github.com/gamehub/payment-service/internal/infrastructure/persistence/postgres"
	"github.com/gamehub/payment-service/internal/infrastructure/psp"
	"github.com/gamehub/payment-service/internal/interfaces/rest/handlers"
	"github.com/gamehub/payment-service/internal/interfaces/rest/middleware"
	"github.com/gamehub/payment-service/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment service",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	paymentRepo := postgres.NewPaymentRepository(db)
	eventRepo := postgres.NewEventLogRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	idempotencyStore := postgres.NewIdempotencyStore(db)
	coordinator := postgres.NewTransactionCoordinator(db)

	pspClient := psp.NewHTTPPspClient(cfg.Psp)

	paymentService := application.NewPaymentService(
		coordinator,
		paymentRepo,
		eventRepo,
		idempotencyStore,
		pspClient,
		logger,
	)
	webhookHandler := application.NewWebhookHandler(coordinator, pspClient, logger)

	h := handlers.NewHandlers(paymentService, webhookHandler, logger)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	handler := middleware.Recovery(logger)(mux)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.ReadTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	if cfg.Sqs.QueueURL != "" {
		sqsClient, err := messaging.NewSqsClient(ctx, cfg.Sqs)
		if err != nil {
			logger.Error("failed to create SQS client", "error", err)
			os.Exit(1)
		}
		publisher := messaging.NewSqsPublisher(sqsClient, cfg.Sqs.QueueURL, logger)

		dispatcher := worker.NewOutboxDispatcher(
			outboxRepo,
			publisher,
			cfg.Worker.Interval,
			cfg.Worker.BatchSize,
			logger,
		)
		go dispatcher.Start(workerCtx)
	} else {
		logger.Warn("SQS queue URL not configured, outbox dispatcher disabled")
	}

	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
