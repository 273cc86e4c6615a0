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
	"agencyportal/internal/handlers/admin"
	"agencyportal/internal/handlers/client"
	"agencyportal/internal/handlers/shared"
	"agencyportal/internal/middleware"
	"agencyportal/internal/metrics"
	"agencyportal/internal/repositories/mongodb"
	"agencyportal/internal/services"
	"agencyportal/pkg/database"
	"agencyportal/pkg/identity"
	"agencyportal/pkg/invoice"
	"agencyportal/pkg/oauth"
	"agencyportal/pkg/websocket"
	"agencyportal/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoDB, err := app.ConnectMongo(cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	if cfg.Database.AutoMigrate {
		if err := database.NewMigrator(mongoDB.Database, appLogger).Up(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to run migrations")
		}
	}

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
	paymentProvider, err := app.NewPaymentProvider(cfg.Payment)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize payment provider")
	}
	storageProvider, err := app.NewStorageProvider(ctx, cfg.Storage)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage provider")
	}

	var verifier identity.Verifier = middleware.NewJWTVerifier(cfg.Security.JWTSecret)
	if v, err := app.NewIdentityVerifier(ctx, cfg.Identity, firebaseApp); err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize identity verifier")
	} else if v != nil {
		verifier = v
	}

	// Realtime: events go through redis so every instance reaches its own sockets.
	hub := websocket.NewHub(appLogger)
	go hub.Run(ctx)
	var publisher websocket.Publisher = websocket.LocalPublisher{Hub: hub}
	if cfg.Realtime.RelayChannel != "" {
		relay := websocket.NewRedisRelay(redisCache, cfg.Realtime.RelayChannel, hub, appLogger)
		go relay.Run(ctx)
		publisher = relay
	}

	db := mongoDB.Database
	userRepo := mongodb.NewUserRepository(db, redisCache)
	requestRepo := mongodb.NewRequestRepository(db)
	projectRepo := mongodb.NewProjectRepository(db)
	discountRepo := mongodb.NewDiscountCodeRepository(db)
	notificationRepo := mongodb.NewNotificationRepository(db)
	reminderRepo := mongodb.NewPaymentReminderRepository(db)
	subscriptionRepo := mongodb.NewUserSubscriptionRepository(db)

	notificationService := services.NewNotificationService(notificationRepo, subscriptionRepo, pushProvider, publisher, appLogger)
	userService := services.NewUserService(userRepo, projectRepo, requestRepo, reminderRepo, appLogger)
	requestService := services.NewRequestService(requestRepo, notificationService, appLogger)
	approvalService := services.NewApprovalService(mongoDB, requestRepo, projectRepo, userRepo, notificationRepo, notificationService, appLogger)
	projectService := services.NewProjectService(projectRepo, notificationService, appLogger)
	paymentService := services.NewPaymentService(mongoDB, projectRepo, reminderRepo, paymentProvider, notificationService, cfg.App.Currency, appLogger)
	discountService := services.NewDiscountService(mongoDB, discountRepo, projectRepo, appLogger)
	reminderService := services.NewReminderService(reminderRepo, projectRepo, subscriptionRepo, notificationService, smsProvider, cfg.SMS.DefaultFrom, cfg.App.Currency, appLogger)
	invoiceService := services.NewInvoiceService(projectRepo, invoice.NewRenderer(), storageProvider, cfg.App.InvoiceFrom, cfg.App.Currency, appLogger)

	oauthEnabled := cfg.OAuth.Google.Enabled()
	var authService services.AuthService
	if oauthEnabled {
		google := oauth.NewGoogleOAuthProvider(cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, cfg.OAuth.Google.RedirectURL)
		authService = services.NewAuthService(google, redisCache, userService, services.TokenConfig{
			Secret:     cfg.Security.JWTSecret,
			AccessTTL:  cfg.Security.JWTAccessTokenTTL,
			RefreshTTL: cfg.Security.JWTRefreshTokenTTL,
		}, appLogger)
	}

	handlers := &routes.Handlers{
		Auth:          shared.NewAuthHandler(authService, userService, appLogger),
		User:          shared.NewUserHandler(userService, appLogger),
		Notification:  shared.NewNotificationHandler(notificationService, appLogger),
		Request:       client.NewRequestHandler(requestService, appLogger),
		Project:       client.NewProjectHandler(projectService, paymentService, discountService, invoiceService, appLogger),
		Discount:      client.NewDiscountHandler(discountService, appLogger),
		Reminder:      client.NewReminderHandler(reminderService, appLogger),
		AdminRequest:  admin.NewRequestHandler(requestService, approvalService, appLogger),
		AdminProject:  admin.NewProjectHandler(projectService, paymentService, appLogger),
		AdminDiscount: admin.NewDiscountHandler(discountService, appLogger),
		AdminReminder: admin.NewReminderHandler(reminderService, appLogger),
		AdminUser:     admin.NewUserHandler(userService, appLogger),
	}
	if cfg.Realtime.Enabled {
		handlers.WebSocket = websocket.NewHandler(hub, cfg.Realtime.AllowedOrigins, func(c *gin.Context) (string, bool, bool) {
			actor := middleware.CurrentActor(c)
			return actor.UserID, actor.IsAdmin, actor.UserID != ""
		})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(metrics.Middleware())
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	v1 := router.Group("/api/v1")
	routes.SetupAPIRoutes(v1, handlers, middleware.AuthRequired(verifier, userService, appLogger), oauthEnabled)

	if cfg.Storage.Provider == "" || cfg.Storage.Provider == "local" {
		router.Static(cfg.Storage.Local.RoutePrefix, cfg.Storage.Local.BasePath)
	}

	router.GET("/health", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{"mongodb": "ok", "redis": "ok"}
		status, health := http.StatusOK, "healthy"
		if err := mongoDB.Ping(checkCtx); err != nil {
			checks["mongodb"] = err.Error()
			status, health = http.StatusServiceUnavailable, "unhealthy"
		}
		if err := redisCache.Ping(checkCtx); err != nil {
			checks["redis"] = err.Error()
			status, health = http.StatusServiceUnavailable, "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":  health,
			"version": cfg.App.Version,
			"checks":  checks,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:     router,
		ReadTimeout: cfg.App.ReadTimeout,
	}

	go func() {
		appLogger.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Forced shutdown")
	}
}
