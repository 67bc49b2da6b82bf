package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reconciler runs one reconciliation pass
type Reconciler interface {
	RunPass(ctx context.Context) error
}

// Scheduler runs the reconciliation pass on a fixed period while a
// session is active. Start is idempotent: calling it twice without a
// Stop in between does not produce a second polling loop. Stop waits
// for any in-flight pass, including the immediate first one, before
// returning.
type Scheduler struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *logrus.Logger

	mu      sync.Mutex
	wg      sync.WaitGroup
	cron    *cron.Cron
	started bool
}

// NewScheduler creates a new scheduler
func NewScheduler(reconciler Reconciler, interval time.Duration, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
	}
}

// Start starts the periodic reconciliation and runs an immediate first
// pass
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.logger.Warn("Scheduler already started, ignoring")
		return nil
	}

	s.logger.WithField("interval", s.interval).Info("Starting scheduler")

	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.runReconcile()
	})
	if err != nil {
		return fmt.Errorf("failed to add reconcile job: %w", err)
	}

	s.cron.Start()
	s.started = true

	// The immediate first pass is not a cron entry, so it is tracked
	// through the wait group for Stop to drain.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runReconcile()
	}()

	return nil
}

// Stop cancels the recurring timer and waits for any in-flight pass,
// cron-fired or immediate, to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.started = false
}

// runReconcile executes one reconciliation pass
func (s *Scheduler) runReconcile() {
	s.logger.Info("Running scheduled reconciliation")
	ctx := context.Background()

	if err := s.reconciler.RunPass(ctx); err != nil {
		s.logger.WithError(err).Error("Reconciliation pass failed")
	}
}
