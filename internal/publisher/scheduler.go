package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/starford/mosaic/internal/apperr"
)

// Runner is anything that publishes once.
type Runner interface {
	Publish(ctx context.Context) (Result, error)
}

// Scheduler triggers Publish periodically. Runs execute on the scheduler's
// goroutine, so they never overlap.
type Scheduler struct {
	pub      Runner
	interval time.Duration
	onStart  bool
	log      *slog.Logger
}

// NewScheduler creates a scheduler. With onStart set the first run happens
// immediately instead of after one interval.
func NewScheduler(pub Runner, interval time.Duration, onStart bool, log *slog.Logger) *Scheduler {
	return &Scheduler{pub: pub, interval: interval, onStart: onStart, log: log}
}

// Run blocks until ctx is cancelled or a publish fails fatally. Only the
// fatal error is returned; download failures and recovered swaps are logged
// and retried at the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return errors.Newf("publish interval must be positive, got %s", s.interval)
	}
	s.log.Info("publish scheduler started", "interval", s.interval, "on_start", s.onStart)

	if s.onStart {
		if err := s.tick(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("publish scheduler stopped")
			return nil
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) error {
	_, err := s.pub.Publish(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperr.ErrPublishFatal):
		s.log.Error("publish scheduler halted", "error", err)
		return err
	default:
		// The previous live dataset is untouched; try again next tick.
		return nil
	}
}
