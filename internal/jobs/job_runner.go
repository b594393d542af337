package jobs

import (
	"context"
	"time"

	"rentacar-backend/internal/config"
	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/events"
	"rentacar-backend/internal/logger"
	"rentacar-backend/internal/repository"
	"rentacar-backend/internal/service"
)

// jobTimeout bounds a single job execution.
const jobTimeout = 5 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	uow       repository.UnitOfWork
	repos     repository.Repositories
	services  *Services
	publisher events.Publisher
	config    *config.Config
	clock     domain.Clock
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Notifier service.Notifier
}

// NewJobRunner creates a new job runner. publisher may be nil, in which case
// the outbox relay is skipped.
func NewJobRunner(uow repository.UnitOfWork, repos repository.Repositories, services *Services, publisher events.Publisher, cfg *config.Config, clock domain.Clock) *JobRunner {
	return &JobRunner{
		uow:       uow,
		repos:     repos,
		services:  services,
		publisher: publisher,
		config:    cfg,
		clock:     clock,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) (int, error)) {
	log := logger.WithJob(jobName)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked", "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log.Info("Starting job")
	processed, err := jobFunc(ctx)
	if err != nil {
		log.Error("Job failed", "processed", processed, "error", err)
		return
	}
	log.Info("Job completed", "processed", processed)
}

// RunAll runs every job once (for manual execution)
func (jr *JobRunner) RunAll() {
	jr.ReleaseExpiredBlocks()
	jr.SendReturnReminders()
	jr.RelayOutbox()
}
