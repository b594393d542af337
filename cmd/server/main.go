package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	httpapi "rentacar-backend/internal/api/http"
	"rentacar-backend/internal/config"
	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/ratelimit"
	"rentacar-backend/internal/repository/postgres"
	"rentacar-backend/internal/security"
	"rentacar-backend/internal/service"

	_ "github.com/lib/pq"
)

const verificationKeyPrefix = "rentacar:attempts:"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentACar Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)
	repos := store.Repositories()
	clock := domain.SystemClock{}

	// Payment verification attempts are bounded in Redis. Without Redis the
	// rental service runs unlimited.
	var limiter service.AttemptLimiter
	if cfg.Redis.Addr != "" {
		client, err := ratelimit.NewRedisClient(ratelimit.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			logger.Warn("Redis unavailable, verification attempts are not limited", "addr", cfg.Redis.Addr, "error", err)
		} else {
			defer client.Close()
			limiter = ratelimit.NewRedisAttemptLimiter(client, verificationKeyPrefix, cfg.Rental.MaxVerificationAttempts, cfg.Rental.VerificationWindow())
			logger.Info("Redis connection established", "addr", cfg.Redis.Addr)
		}
	}

	// Initialize Services
	emailSvc := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	noteSvc := service.NewNotificationService(store.NotificationRepository, store.UserRepository, emailSvc, clock)
	policy := service.RentalPolicy{
		LoyaltyDiscountPercentage:     decimal.NewFromFloat(cfg.Rental.LoyaltyDiscountPercentage),
		LateReturnBlockDays:           cfg.Rental.LateReturnBlockDays,
		LateReturnSurchargePercentage: decimal.NewFromFloat(cfg.Rental.LateReturnSurchargePercentage),
	}
	rentalSvc := service.NewRentalService(store, repos, noteSvc, limiter, service.NewCodeGenerator(), clock, policy)
	vehicleSvc := service.NewVehicleService(store, repos, clock)
	reviewSvc := service.NewReviewService(store, repos, noteSvc, clock)
	reportSvc := service.NewReportService(store, noteSvc, clock, cfg.Rental.ReportPenaltyBlockDays)
	availability := service.NewAvailabilityChecker(store.RentalRepository)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)

	// Initialize HTTP handlers
	router := httpapi.NewRouter(httpapi.Handlers{
		Rentals:       httpapi.NewRentalHandler(rentalSvc),
		Vehicles:      httpapi.NewVehicleHandler(vehicleSvc, availability),
		Reviews:       httpapi.NewReviewHandler(reviewSvc, reportSvc),
		Notifications: httpapi.NewNotificationHandler(noteSvc),
	}, tokenManager)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to serve HTTP", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped. Goodbye!")
}
