package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler runs the source sync periodically in the background.
type Scheduler struct {
	scheduler *gocron.Scheduler
	syncer    *Syncer
}

// NewScheduler creates a scheduler for syncer. It does nothing until Start.
func NewScheduler(syncer *Syncer) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		syncer:    syncer,
	}
}

// Start schedules a sync every interval, the first one after one interval
// has passed. Runs never overlap.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("sync interval must be positive, got %s", interval)
	}
	_, err := s.scheduler.Every(interval).SingletonMode().WaitForSchedule().Do(func() {
		if _, err := s.syncer.RunSync(ctx); err != nil {
			s.syncer.log.Error("Scheduled sync failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}
	s.scheduler.StartAsync()
	s.syncer.log.Info("Background sync scheduled", "interval", interval.String())
	return nil
}

// Stop terminates the scheduler.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
