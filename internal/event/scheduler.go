package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StatusScheduler periodically refreshes event statuses.
type StatusScheduler struct {
	sched gocron.Scheduler
}

// StartStatusScheduler runs Service.RefreshStatuses every interval until Stop.
// Overlapping runs are skipped.
func StartStatusScheduler(ctx context.Context, svc *Service, interval, duration time.Duration, logger *slog.Logger) (*StatusScheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			runCtx, cancel := context.WithTimeout(ctx, interval)
			defer cancel()

			changed, err := svc.RefreshStatuses(runCtx, duration)
			if err != nil {
				logger.Error("event status refresh failed", slog.Any("error", err))
				return
			}
			if changed > 0 {
				logger.Info("event statuses refreshed", slog.Int("changed", changed))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule status refresh: %w", err)
	}

	sched.Start()
	return &StatusScheduler{sched: sched}, nil
}

// Stop waits for a running refresh and shuts the scheduler down.
func (s *StatusScheduler) Stop() error {
	return s.sched.Shutdown()
}
