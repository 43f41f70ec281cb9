package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/internal/infrastructure"
	"go.uber.org/zap"
)

// Reaper periodically removes staged files older than the retention window.
// It is the backstop for deletions that never ran, e.g. after a crash.
// With a journal attached it also prunes old history rows.
type Reaper struct {
	store            *infrastructure.StagingStore
	config           *domain.StagingConfig
	journal          domain.AcquisitionRepository
	journalRetention time.Duration
	logger           *zap.Logger
	scheduler        *cron.Cron
	mu               sync.RWMutex
	sweepMu          sync.Mutex
	running          bool
	lastSweep        time.Time
	stopChan         chan struct{}
}

// NewReaper creates a new reaper
func NewReaper(store *infrastructure.StagingStore, config *domain.StagingConfig, logger *zap.Logger) *Reaper {
	return &Reaper{
		store:  store,
		config: config,
		logger: logger,
	}
}

// SetJournal makes every sweep also delete journal rows older than retention
func (r *Reaper) SetJournal(journal domain.AcquisitionRepository, retention time.Duration) {
	r.journal = journal
	r.journalRetention = retention
}

// Start sweeps once and then every SweepInterval until Stop is called or ctx ends
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reaper already running")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every "+r.config.SweepInterval.String(), func() { r.Sweep() }); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	r.scheduler = scheduler
	r.stopChan = make(chan struct{})
	r.running = true
	r.mu.Unlock()

	r.logger.Info("reaper_started",
		zap.Duration("interval", r.config.SweepInterval),
		zap.Duration("retention", r.config.RetentionWindow))

	// clear whatever a previous process left behind
	r.Sweep()
	scheduler.Start()

	go func(stop chan struct{}) {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-stop:
		}
	}(r.stopChan)

	return nil
}

// Stop stops the schedule and waits for a running sweep to finish
func (r *Reaper) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return fmt.Errorf("reaper not running")
	}
	r.running = false
	scheduler := r.scheduler
	close(r.stopChan)
	r.mu.Unlock()

	<-scheduler.Stop().Done()
	r.logger.Info("reaper_stopped")
	return nil
}

// IsRunning returns whether the periodic sweep is scheduled
func (r *Reaper) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// LastSweep returns when the most recent sweep finished
func (r *Reaper) LastSweep() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastSweep
}

// Sweep removes every staged file older than the retention window and returns
// how many were removed. Failures are logged and never returned.
func (r *Reaper) Sweep() int {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()

	cutoff := time.Now().Add(-r.config.RetentionWindow)
	removed := 0

	files, err := r.store.List()
	if err != nil {
		r.logger.Warn("sweep_list_failed", zap.Error(err))
	}

	for _, f := range files {
		if !f.CreatedAt.Before(cutoff) {
			// List is oldest first
			break
		}
		if err := r.store.Delete(f.Path); err != nil {
			r.logger.Warn("sweep_delete_failed", zap.String("file", f.Name()), zap.Error(err))
			continue
		}
		removed++
	}

	r.pruneJournal()

	r.mu.Lock()
	r.lastSweep = time.Now()
	r.mu.Unlock()

	if removed > 0 {
		r.logger.Info("sweep_finished", zap.Int("removed", removed))
	} else {
		r.logger.Debug("sweep_finished", zap.Int("removed", 0))
	}
	return removed
}

func (r *Reaper) pruneJournal() {
	if r.journal == nil || r.journalRetention <= 0 {
		return
	}
	pruned, err := r.journal.DeleteOlderThan(time.Now().Add(-r.journalRetention))
	if err != nil {
		r.logger.Warn("journal_prune_failed", zap.Error(err))
		return
	}
	if pruned > 0 {
		r.logger.Info("journal_pruned", zap.Int64("rows", pruned))
	}
}
