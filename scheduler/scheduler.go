package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"ads_migrator/config"
)

// Scheduler triggers migration runs in daemon mode, either on a cron
// expression or a fixed interval. Runs never overlap: a trigger that fires
// while a run is in flight is dropped.
type Scheduler struct {
	cfg     *config.Config
	runOnce func(ctx context.Context) error
	cron    *cron.Cron
	ticker  *time.Ticker
	stopCh  chan struct{}
	busy    chan struct{}
}

func New(cfg *config.Config, runOnce func(ctx context.Context) error) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		runOnce: runOnce,
		cron:    cron.New(),
		stopCh:  make(chan struct{}),
		busy:    make(chan struct{}, 1),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.trigger(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
		return nil
	}

	if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.trigger(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
		return nil
	}

	return fmt.Errorf("daemon mode needs MIGRATE_CRON or MIGRATE_INTERVAL")
}

func (s *Scheduler) trigger(ctx context.Context) {
	select {
	case s.busy <- struct{}{}:
	default:
		log.Println("Previous migration still running, skipping trigger")
		return
	}
	defer func() { <-s.busy }()

	if err := s.runOnce(ctx); err != nil {
		log.Printf("Scheduled migration error: %v", err)
	}
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}
