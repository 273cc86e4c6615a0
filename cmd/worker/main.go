package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agencyportal/internal/app"
	"agencyportal/internal/config"
	"agencyportal/internal/repositories/mongodb"
	"agencyportal/internal/services"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/websocket"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The worker dispatches due payment reminders on a fixed interval.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	appLogger = appLogger.WithField("component", "reminder-worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoDB, err := app.ConnectMongo(cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	redisCache, err := app.ConnectRedis(cfg.Redis)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	firebaseApp, err := app.NewFirebaseApp(ctx, cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize Firebase")
	}
	pushProvider, err := app.NewPushProvider(ctx, cfg.Push, firebaseApp)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize push provider")
	}
	smsProvider, err := app.NewSMSProvider(ctx, cfg.SMS)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize SMS provider")
	}

	// Publish-only relay: the API instances own the sockets.
	publisher := websocket.NewRedisRelay(redisCache, cfg.Realtime.RelayChannel, nil, appLogger)

	db := mongoDB.Database
	reminderRepo := mongodb.NewPaymentReminderRepository(db)
	projectRepo := mongodb.NewProjectRepository(db)
	subscriptionRepo := mongodb.NewUserSubscriptionRepository(db)
	notificationRepo := mongodb.NewNotificationRepository(db)

	notificationService := services.NewNotificationService(notificationRepo, subscriptionRepo, pushProvider, publisher, appLogger)
	reminderService := services.NewReminderService(reminderRepo, projectRepo, subscriptionRepo, notificationService, smsProvider, cfg.SMS.DefaultFrom, cfg.App.Currency, appLogger)

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.MetricsPort),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Error("Metrics server failed")
		}
	}()

	appLogger.WithFields(map[string]interface{}{
		"interval":   cfg.Worker.ReminderInterval.String(),
		"batch_size": cfg.Worker.ReminderBatchSize,
	}).Info("Reminder worker started")

	run(ctx, reminderService, cfg.Worker.ReminderInterval, cfg.Worker.ReminderBatchSize, appLogger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	appLogger.Info("Reminder worker stopped")
}

// run dispatches once immediately, then on every tick until ctx is done.
func run(ctx context.Context, reminders services.ReminderService, interval time.Duration, batchSize int, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report, err := reminders.Dispatch(ctx, batchSize)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Reminder dispatch failed")
		} else if report != nil && report.Sent+report.Skipped+report.Failed > 0 {
			log.WithFields(map[string]interface{}{
				"sent":    report.Sent,
				"skipped": report.Skipped,
				"failed":  report.Failed,
			}).Info("Reminder dispatch finished")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
