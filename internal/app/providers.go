// Package app builds the infrastructure clients shared by the API server and
// the background worker from configuration.
package app

import (
	"context"
	"fmt"

	"agencyportal/internal/config"
	"agencyportal/internal/utils"
	"agencyportal/pkg/cache"
	"agencyportal/pkg/database"
	"agencyportal/pkg/identity"
	"agencyportal/pkg/logger"
	"agencyportal/pkg/payment"
	"agencyportal/pkg/push"
	"agencyportal/pkg/sms"
	"agencyportal/pkg/storage"

	firebase "firebase.google.com/go/v4"
)

func NewLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  "stdout",
		Caller:  cfg.App.Debug,
		Colors:  !cfg.IsProduction() && cfg.App.LogFormat != "json",
		AppName: utils.AppName,
		Version: cfg.App.Version,
	})
}

func ConnectMongo(cfg *config.DatabaseConfig) (*database.MongoDB, error) {
	return database.NewMongoDB(&database.DatabaseConfig{
		URI:             cfg.URI,
		Database:        cfg.Database,
		MaxPoolSize:     cfg.MaxPoolSize,
		MinPoolSize:     cfg.MinPoolSize,
		ConnectTimeout:  cfg.ConnectTimeout,
		SocketTimeout:   cfg.SocketTimeout,
		UseTransactions: cfg.UseTransactions,
	})
}

func ConnectRedis(cfg *config.RedisConfig) (*cache.RedisCache, error) {
	return cache.NewRedisCache(&cache.RedisConfig{
		URL:          cfg.URL,
		Host:         cfg.Host,
		Port:         cfg.Port,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// NewFirebaseApp returns nil when neither push nor identity uses Firebase.
func NewFirebaseApp(ctx context.Context, cfg *config.Config) (*firebase.App, error) {
	usePush := cfg.Push.Provider == "fcm"
	useIdentity := cfg.Identity.Provider == "firebase"
	if !usePush && !useIdentity {
		return nil, nil
	}

	projectID, credentials := cfg.Identity.ProjectID, cfg.Identity.CredentialsFile
	if usePush && cfg.Push.FCM != nil {
		if projectID == "" {
			projectID = cfg.Push.FCM.ProjectID
		}
		if credentials == "" {
			credentials = cfg.Push.FCM.Credentials
		}
	}

	return push.NewFirebaseApp(ctx, projectID, credentials)
}

func NewPushProvider(ctx context.Context, cfg *config.PushConfig, fb *firebase.App) (push.PushProvider, error) {
	switch cfg.Provider {
	case "fcm":
		if fb == nil {
			return nil, fmt.Errorf("fcm push requires a firebase app")
		}
		return push.NewFCMProvider(ctx, fb)
	case "", "none":
		return push.NoopProvider{}, nil
	}
	return nil, fmt.Errorf("unknown push provider %q", cfg.Provider)
}

func NewSMSProvider(ctx context.Context, cfg *config.SMSConfig) (sms.SMSProvider, error) {
	switch cfg.Provider {
	case "twilio":
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber), nil
	case "sns":
		return sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.SenderID)
	case "", "none":
		return sms.NoopProvider{}, nil
	}
	return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
}

func NewPaymentProvider(cfg *config.PaymentConfig) (payment.PaymentProvider, error) {
	return payment.NewProvider(cfg.DefaultProvider, cfg.Stripe.SecretKey, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
}

func NewStorageProvider(ctx context.Context, cfg *config.StorageConfig) (storage.StorageProvider, error) {
	switch cfg.Provider {
	case "s3":
		return storage.NewAWSS3Storage(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.CDNDomain)
	case "gcs":
		return storage.NewGCPStorage(ctx, cfg.GCP.Bucket, cfg.GCP.CredentialsFile, cfg.GCP.CDNDomain)
	case "", "local":
		return storage.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}

// NewIdentityVerifier returns nil for the jwt provider; the caller falls back
// to the portal's own token verifier.
func NewIdentityVerifier(ctx context.Context, cfg *config.IdentityConfig, fb *firebase.App) (identity.Verifier, error) {
	if cfg.Provider != "firebase" {
		return nil, nil
	}
	if fb == nil {
		return nil, fmt.Errorf("firebase identity requires a firebase app")
	}
	return identity.NewFirebaseVerifier(ctx, fb)
}
