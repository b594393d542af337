package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rentacar-backend/internal/config"
	"rentacar-backend/internal/domain"
	"rentacar-backend/internal/jobs"
	"rentacar-backend/internal/repository"
)

func newRunner(cfg config.SchedulerConfig) *jobs.JobRunner {
	return jobs.NewJobRunner(nil, repository.Repositories{}, &jobs.Services{}, nil,
		&config.Config{Scheduler: cfg}, domain.SystemClock{})
}

func TestNewScheduler_RegistersJobs(t *testing.T) {
	s := NewScheduler(newRunner(config.SchedulerConfig{
		SendReturnReminders:  "0 0 8 * * *",
		ReleaseExpiredBlocks: "0 */15 * * * *",
		RelayOutbox:          "*/10 * * * * *",
	}))
	assert.Equal(t, 3, s.EntryCount())

	s.Start()
	s.Stop()
}

func TestNewScheduler_SkipsInvalidSpecs(t *testing.T) {
	s := NewScheduler(newRunner(config.SchedulerConfig{
		SendReturnReminders:  "not a cron spec",
		ReleaseExpiredBlocks: "0 */15 * * * *",
		RelayOutbox:          "*/10 * * * * *",
	}))
	assert.Equal(t, 2, s.EntryCount())
}
