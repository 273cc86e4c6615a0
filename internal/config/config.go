package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "change-me-in-production"

type Config struct {
	App      *AppConfig      `yaml:"app"`
	Database *DatabaseConfig `yaml:"database"`
	Redis    *RedisConfig    `yaml:"redis"`
	Security *SecurityConfig `yaml:"security"`
	Identity *IdentityConfig `yaml:"identity"`
	SMS      *SMSConfig      `yaml:"sms"`
	Push     *PushConfig     `yaml:"push"`
	Payment  *PaymentConfig  `yaml:"payment"`
	OAuth    *OAuthConfig    `yaml:"oauth"`
	Storage  *StorageConfig  `yaml:"storage"`
	Realtime *RealtimeConfig `yaml:"realtime"`
	Worker   *WorkerConfig   `yaml:"worker"`
}

type AppConfig struct {
	Name        string        `yaml:"name"`
	Version     string        `yaml:"version"`
	Environment string        `yaml:"environment"`
	Port        int           `yaml:"port"`
	Host        string        `yaml:"host"`
	BaseURL     string        `yaml:"base_url"`
	Debug       bool          `yaml:"debug"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	Currency    string        `yaml:"currency"`
	InvoiceFrom string        `yaml:"invoice_from"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server and workers.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type SecurityConfig struct {
	JWTSecret          string        `yaml:"jwt_secret"`
	JWTAccessTokenTTL  time.Duration `yaml:"jwt_access_token_ttl"`
	JWTRefreshTokenTTL time.Duration `yaml:"jwt_refresh_token_ttl"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
}

// IdentityConfig selects how bearer tokens are verified: Firebase ID tokens
// or the portal's own HS256 session tokens.
type IdentityConfig struct {
	Provider        string `yaml:"provider"`
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// Load reads the environment, after applying a .env file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		App:      loadAppConfig(),
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Security: loadSecurityConfig(),
		Identity: loadIdentityConfig(),
		SMS:      loadSMSConfig(),
		Push:     loadPushConfig(),
		Payment:  loadPaymentConfig(),
		OAuth:    loadOAuthConfig(),
		Storage:  loadStorageConfig(),
		Realtime: loadRealtimeConfig(),
		Worker:   loadWorkerConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func loadAppConfig() *AppConfig {
	return &AppConfig{
		Name:            getEnv("APP_NAME", "AgencyPortal"),
		Version:         getEnv("APP_VERSION", "1.0.0"),
		Environment:     getEnv("APP_ENV", "development"),
		Port:            getEnvAsInt("APP_PORT", 8080),
		Host:            getEnv("APP_HOST", "0.0.0.0"),
		BaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:           getEnvAsBool("APP_DEBUG", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		Currency:        strings.ToUpper(getEnv("APP_CURRENCY", "USD")),
		InvoiceFrom:     getEnv("INVOICE_FROM", "AgencyPortal"),
		ReadTimeout:     getEnvAsDuration("APP_READ_TIMEOUT", 15*time.Second),
		ShutdownTimeout: getEnvAsDuration("APP_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func loadSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		JWTSecret:          getEnv("JWT_SECRET", defaultJWTSecret),
		JWTAccessTokenTTL:  getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
		JWTRefreshTokenTTL: getEnvAsDuration("JWT_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
	}
}

func loadIdentityConfig() *IdentityConfig {
	return &IdentityConfig{
		Provider:        getEnv("IDENTITY_PROVIDER", "jwt"),
		ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
	}
}

// Validate rejects combinations that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT %d is out of range", c.App.Port))
	}
	if c.App.Environment == "production" && c.Security.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}

	switch c.Identity.Provider {
	case "jwt":
	case "firebase":
		if c.Identity.ProjectID == "" {
			errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required for the firebase identity provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.Identity.Provider))
	}

	switch c.Storage.Provider {
	case "local":
	case "s3":
		if c.Storage.AWS.Bucket == "" {
			errs = append(errs, errors.New("AWS_S3_BUCKET is required for s3 storage"))
		}
	case "gcs":
		if c.Storage.GCP.Bucket == "" {
			errs = append(errs, errors.New("GCP_STORAGE_BUCKET is required for gcs storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider))
	}

	switch c.Payment.DefaultProvider {
	case "", "none":
	case "stripe":
		if c.Payment.Stripe.SecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required for the stripe provider"))
		}
	case "razorpay":
		if c.Payment.Razorpay.KeyID == "" || c.Payment.Razorpay.KeySecret == "" {
			errs = append(errs, errors.New("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required for the razorpay provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown PAYMENT_DEFAULT_PROVIDER %q", c.Payment.DefaultProvider))
	}

	if c.Worker.ReminderInterval <= 0 {
		errs = append(errs, errors.New("WORKER_REMINDER_INTERVAL must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
