package jobs

import (
	"context"

	"go.uber.org/zap"
)

// Maintainer is the part of session.Manager the casino jobs drive.
type Maintainer interface {
	ResetDailyTasks(ctx context.Context) (int, error)
	SaveAll(ctx context.Context) (int, error)
}

// ScheduleCasino registers the daily task reset and the profile flush.
func ScheduleCasino(s *Scheduler, m Maintainer, dailyReset, flush string) error {
	if err := s.Add("daily_reset", dailyReset, func(ctx context.Context) error {
		_, err := m.ResetDailyTasks(ctx)
		return err
	}); err != nil {
		return err
	}
	return s.Add("flush", flush, func(ctx context.Context) error {
		n, err := m.SaveAll(ctx)
		s.logger.Debug("profiles flushed", zap.Int("sessions", n))
		return err
	})
}
