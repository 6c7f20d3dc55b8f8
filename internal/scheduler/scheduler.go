package scheduler

import (
	"fmt"
	"log/slog"
	"time"

	"botadmin/lib/sl"

	"github.com/robfig/cron/v3"
)

// Purger drops expired access codes and reports how many were removed.
type Purger interface {
	PurgeExpiredCodes() int
}

// Scheduler runs the periodic expiry sweep.
type Scheduler struct {
	cron     *cron.Cron
	log      *slog.Logger
	purger   Purger
	schedule string
}

func New(schedule string, purger Purger, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		log:      log.With(sl.Module("scheduler")),
		purger:   purger,
		schedule: schedule,
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.purge); err != nil {
		return fmt.Errorf("register purge job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.With(slog.String("schedule", s.schedule)).Info("scheduler started")
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) purge() {
	removed := s.purger.PurgeExpiredCodes()
	if removed > 0 {
		s.log.With(slog.Int("removed", removed)).Info("expired codes purged")
	}
}
