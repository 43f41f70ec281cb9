package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/yourusername/vidgrab-go/internal/infrastructure"
	"go.uber.org/zap"
)

// DeletionScheduler removes served files after a grace period
type DeletionScheduler struct {
	store   *infrastructure.StagingStore
	grace   time.Duration
	logger  *zap.Logger
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*ScheduledDeletion
}

// ScheduledDeletion is a handle to one pending deletion
type ScheduledDeletion struct {
	id        uint64
	path      string
	timer     *time.Timer
	scheduler *DeletionScheduler
}

// NewDeletionScheduler creates a new deletion scheduler
func NewDeletionScheduler(store *infrastructure.StagingStore, grace time.Duration, logger *zap.Logger) *DeletionScheduler {
	return &DeletionScheduler{
		store:   store,
		grace:   grace,
		logger:  logger,
		pending: make(map[uint64]*ScheduledDeletion),
	}
}

// Schedule deletes path once the grace period has elapsed
func (s *DeletionScheduler) Schedule(path string) *ScheduledDeletion {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	d := &ScheduledDeletion{
		id:        s.nextID,
		path:      path,
		scheduler: s,
	}
	s.pending[d.id] = d
	d.timer = time.AfterFunc(s.grace, func() { s.fire(d) })
	return d
}

// Cancel prevents the deletion. It returns false if the file was already removed
// or the deletion is in progress.
func (d *ScheduledDeletion) Cancel() bool {
	s := d.scheduler
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[d.id]; !ok {
		return false
	}
	d.timer.Stop()
	delete(s.pending, d.id)
	return true
}

// Pending returns how many deletions have not run yet
func (s *DeletionScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush runs every pending deletion now and returns how many ran
func (s *DeletionScheduler) Flush() int {
	s.mu.Lock()
	due := make([]*ScheduledDeletion, 0, len(s.pending))
	for id, d := range s.pending {
		d.timer.Stop()
		delete(s.pending, id)
		due = append(due, d)
	}
	s.mu.Unlock()

	for _, d := range due {
		s.remove(d.path)
	}
	return len(due)
}

func (s *DeletionScheduler) fire(d *ScheduledDeletion) {
	s.mu.Lock()
	if _, ok := s.pending[d.id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, d.id)
	s.mu.Unlock()

	s.remove(d.path)
}

func (s *DeletionScheduler) remove(path string) {
	// the reaper may have got there first, Delete tolerates that
	if err := s.store.Delete(path); err != nil {
		s.logger.Warn("deferred_delete_failed", zap.String("file", filepath.Base(path)), zap.Error(err))
		return
	}
	s.logger.Debug("deferred_delete", zap.String("file", filepath.Base(path)))
}
