package alerts

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps robfig/cron and manages the periodic alert sweep.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	spec    string // cron spec, e.g. "@every 1h"
}

// NewScheduler creates a Scheduler that sweeps every intervalHours hours.
func NewScheduler(sweeper *Sweeper, intervalHours int) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cron.DefaultLogger)),
		sweeper: sweeper,
		spec:    fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so fresh postings are matched without waiting for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[alerts] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[alerts] Cron stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	log.Println("[alerts] Sweep cycle started")
	if err := s.sweeper.Run(ctx); err != nil {
		log.Printf("[alerts] Sweep error: %v", err)
	}
}
