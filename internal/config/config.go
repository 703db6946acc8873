package config

import (
	"errors"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	Port            string
	ShutdownTimeout time.Duration
	LogLevel        string

	Mongo     MongoConfig
	Auth      AuthConfig
	Payment   PaymentConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

type MongoConfig struct {
	URI          string
	DBName       string
	Transactions bool
}

type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AdminEmail      string
	AdminPassword   string
	LoginPerMinute  int
}

type PaymentConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

type StorageConfig struct {
	Driver        string
	UploadDir     string
	PublicBaseURL string
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3Prefix      string
}

type TelemetryConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	SampleRate     float64
	ServiceVersion string
	Environment    string
}

var (
	ErrMissingMongoURI  = errors.New("MONGO_URI is required")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required")
)

// Load reads an optional .env file, then the process environment, into AppEnv.
func Load() error {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not loaded", "error", err)
	}

	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}
	AppEnv = cfg
	return nil
}

func fromEnv() Config {
	return Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15, time.Second),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		Mongo: MongoConfig{
			URI:          getEnvOrDefault("MONGO_URI", ""),
			DBName:       getEnvOrDefault("DB_NAME", "ecommerce"),
			Transactions: getBoolEnv("MONGO_TRANSACTIONS", true),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnvOrDefault("JWT_SECRET", ""),
			AccessTokenTTL:  getDurationEnv("ACCESS_TOKEN_TTL", 20, time.Minute),
			RefreshTokenTTL: getDurationEnv("REFRESH_TOKEN_TTL", 7, 24*time.Hour),
			AdminEmail:      getEnvOrDefault("ADMIN_EMAIL", ""),
			AdminPassword:   getEnvOrDefault("ADMIN_PASSWORD", ""),
			LoginPerMinute:  getIntEnv("LOGIN_RATE_LIMIT", 5),
		},
		Payment: PaymentConfig{
			KeyID:     getEnvOrDefault("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnvOrDefault("RAZORPAY_KEY_SECRET", ""),
			Currency:  getEnvOrDefault("PAYMENT_CURRENCY", "INR"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			LockTTL:  getDurationEnv("LOCK_TTL", 10, time.Second),
		},
		Storage: StorageConfig{
			Driver:        getEnvOrDefault("STORAGE_DRIVER", "local"),
			UploadDir:     getEnvOrDefault("UPLOAD_DIR", "./public/uploads"),
			PublicBaseURL: getEnvOrDefault("PUBLIC_BASE_URL", "/public/uploads"),
			S3Bucket:      getEnvOrDefault("S3_BUCKET", ""),
			S3Region:      getEnvOrDefault("S3_REGION", "ap-south-1"),
			S3Endpoint:    getEnvOrDefault("S3_ENDPOINT", ""),
			S3Prefix:      getEnvOrDefault("S3_PREFIX", "products/"),
		},
		Telemetry: TelemetryConfig{
			Enabled:        getBoolEnv("OTEL_ENABLED", false),
			OTLPEndpoint:   getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     getFloatEnv("OTEL_SAMPLE_RATE", 1.0),
			ServiceVersion: getEnvOrDefault("SERVICE_VERSION", "dev"),
			Environment:    getEnvOrDefault("ENVIRONMENT", "development"),
		},
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, ErrMissingMongoURI)
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	return errors.Join(errs...)
}

// PaymentsEnabled reports whether gateway credentials were configured.
func (c Config) PaymentsEnabled() bool {
	return c.Payment.KeyID != "" && c.Payment.KeySecret != ""
}
