package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"

	"github.com/mukeshkumar44/e-commerce-backend/internal/config"
	"github.com/mukeshkumar44/e-commerce-backend/internal/database"
	"github.com/mukeshkumar44/e-commerce-backend/internal/gateway/razorpay"
	"github.com/mukeshkumar44/e-commerce-backend/internal/handlers"
	"github.com/mukeshkumar44/e-commerce-backend/internal/locker"
	"github.com/mukeshkumar44/e-commerce-backend/internal/metrics"
	"github.com/mukeshkumar44/e-commerce-backend/internal/middleware"
	"github.com/mukeshkumar44/e-commerce-backend/internal/repository/mongodb"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/auth"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/cart"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/catalog"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/order"
	"github.com/mukeshkumar44/e-commerce-backend/internal/service/payment"
	"github.com/mukeshkumar44/e-commerce-backend/internal/storage"
	"github.com/mukeshkumar44/e-commerce-backend/internal/telemetry"
)

const serviceName = "e-commerce-backend"

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.Load(); err != nil {
		return err
	}
	cfg := config.AppEnv

	logger := telemetry.NewLogger(telemetry.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return err
	}

	client, err := database.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	db := client.Database(cfg.Mongo.DBName)
	logger.Info("mongodb connected", "database", db.Name())

	if err := database.EnsureIndexes(ctx, db, logger); err != nil {
		logger.Warn("index setup incomplete", "error", err)
	}

	locks, closeLocks := newLocker(cfg.Redis, logger)
	defer closeLocks()

	m, err := metrics.New(otel.GetMeterProvider())
	if err != nil {
		return err
	}

	images, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}

	products := mongodb.NewProductStore(db)
	categories := mongodb.NewCategoryStore(db)
	carts := mongodb.NewCartStore(db)
	orderStore := mongodb.NewOrderStore(db)

	accounts := auth.NewService(mongodb.NewUserStore(db), mongodb.NewRefreshTokenStore(db), auth.Config{
		JWTSecret:       cfg.Auth.JWTSecret,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
	}, logger)
	if err := accounts.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	orders := order.NewService(order.Dependencies{
		Products: products,
		Orders:   orderStore,
		Carts:    carts,
		Tx:       mongodb.NewTransactor(client, cfg.Mongo.Transactions),
		Locks:    locks,
		Metrics:  m,
		Logger:   logger,
	})

	var gateway payment.Gateway
	if cfg.PaymentsEnabled() {
		gateway = razorpay.NewClient(cfg.Payment.KeyID, cfg.Payment.KeySecret, logger)
	} else {
		logger.Warn("razorpay keys not set, payment intents disabled")
	}

	loginLimiter := middleware.NewPerMinuteLimiter(cfg.Auth.LoginPerMinute)
	go loginLimiter.Run(ctx)

	router := handlers.NewRouter(handlers.Deps{
		Logger:       logger,
		Auth:         accounts,
		Carts:        cart.NewService(products, carts, locks, m, logger),
		Orders:       orders,
		Payments:     payment.NewService(gateway, orders, cfg.Payment.KeySecret, cfg.Payment.Currency, m, logger),
		Products:     catalog.NewProductService(products, categories, logger),
		Categories:   catalog.NewCategoryService(categories, products, logger),
		Images:       images,
		LoginLimiter: loginLimiter,
		Ready:        func(ctx context.Context) error { return database.Ping(ctx, client) },
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	disconnect(shutdownCtx, client, logger)
	if err := tel.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown failed", "error", err)
	}
	return nil
}

// newLocker uses redis when an address is configured so several instances
// share locks, and an in-process locker otherwise.
func newLocker(cfg config.RedisConfig, logger *slog.Logger) (locker.Locker, func()) {
	if cfg.Addr == "" {
		return locker.NewLocal(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	logger.Info("using redis locks", "addr", cfg.Addr)
	return locker.NewRedis(client, cfg.LockTTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
}

func disconnect(ctx context.Context, client *mongo.Client, logger *slog.Logger) {
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("mongodb disconnect failed", "error", err)
	}
}
