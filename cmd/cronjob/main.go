package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"rentacar-backend/internal/config"
	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/events"
	"rentacar-backend/internal/jobs"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository/postgres"
	"rentacar-backend/internal/scheduler"
	"rentacar-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'send-return-reminders', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting RentACar Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories
	store := postgres.NewStore(db)
	clock := domain.SystemClock{}

	// Initialize Services
	emailService := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	noteService := service.NewNotificationService(store.NotificationRepository, store.UserRepository, emailService, clock)

	// Connect to the broker. Without it the outbox keeps accumulating and is
	// relayed once a later run reaches RabbitMQ.
	var publisher events.Publisher
	if cfg.RabbitMQ.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		mq, err := events.Dial(ctx, cfg.RabbitMQ.URL)
		cancel()
		if err != nil {
			logger.Warn("RabbitMQ unavailable, outbox relay disabled", "error", err)
		} else if err := mq.DeclareExchange(cfg.RabbitMQ.Exchange); err != nil {
			logger.Warn("Failed to declare exchange, outbox relay disabled", "exchange", cfg.RabbitMQ.Exchange, "error", err)
			mq.Close()
		} else {
			defer mq.Close()
			publisher = events.NewRabbitPublisher(mq, cfg.RabbitMQ.Exchange)
			logger.Info("RabbitMQ connection established", "exchange", cfg.RabbitMQ.Exchange)
		}
	}

	jobServices := &jobs.Services{
		Notifier: noteService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, store.Repositories(), jobServices, publisher, cfg, clock)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.", "jobs", cronScheduler.EntryCount())

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "send-return-reminders":
		jobRunner.SendReturnReminders()
	case "release-expired-blocks":
		jobRunner.ReleaseExpiredBlocks()
	case "relay-outbox":
		jobRunner.RelayOutbox()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - send-return-reminders\n")
		fmt.Printf("  - release-expired-blocks\n")
		fmt.Printf("  - relay-outbox\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
}
