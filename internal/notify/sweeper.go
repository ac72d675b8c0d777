package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically removes read notifications older than the retention.
type Sweeper struct {
	cron      *cron.Cron
	store     Store
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewSweeper(store Store, retention time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		cron:      cron.New(),
		store:     store,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start schedules the sweep with a standard cron spec (e.g. "@daily").
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Warn("Notification sweep failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Notification sweeper started", "schedule", schedule, "retention", s.retention)
	return nil
}

func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep deletes read notifications created before now minus the retention.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteReadBefore(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("Swept read notifications", "removed", removed)
	}
	return removed, nil
}
