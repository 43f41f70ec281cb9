package app

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vidgrab-go/internal/infrastructure"
	"go.uber.org/zap"
)

func newTestScheduler(t *testing.T, grace time.Duration) (*DeletionScheduler, *infrastructure.StagingStore) {
	t.Helper()
	store, err := infrastructure.NewStagingStore(t.TempDir())
	require.NoError(t, err)
	return NewDeletionScheduler(store, grace, zap.NewNop()), store
}

func gone(path string) func() bool {
	return func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}
}

func TestDeletionScheduler_Schedule(t *testing.T) {
	s, store := newTestScheduler(t, 30*time.Millisecond)
	path := stageFile(t, store, "youtube_x.mp4", 10, 0)

	d := s.Schedule(path)
	assert.Equal(t, 1, s.Pending())

	assert.Eventually(t, gone(path), 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 10*time.Millisecond)

	// too late to cancel
	assert.False(t, d.Cancel())
}

func TestDeletionScheduler_Cancel(t *testing.T) {
	s, store := newTestScheduler(t, 50*time.Millisecond)
	path := stageFile(t, store, "youtube_x.mp4", 10, 0)

	d := s.Schedule(path)
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())
	assert.Equal(t, 0, s.Pending())

	time.Sleep(150 * time.Millisecond)
	assert.FileExists(t, path)
}

func TestDeletionScheduler_Flush(t *testing.T) {
	s, store := newTestScheduler(t, time.Hour)
	a := stageFile(t, store, "youtube_a.mp4", 10, 0)
	b := stageFile(t, store, "youtube_b.mp4", 10, 0)

	s.Schedule(a)
	handle := s.Schedule(b)
	assert.Equal(t, 2, s.Pending())

	assert.Equal(t, 2, s.Flush())
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
	assert.Equal(t, 0, s.Pending())
	assert.False(t, handle.Cancel())
	assert.Equal(t, 0, s.Flush())
}

func TestDeletionScheduler_FileAlreadyGone(t *testing.T) {
	s, store := newTestScheduler(t, time.Hour)
	path := stageFile(t, store, "youtube_a.mp4", 10, 0)
	require.NoError(t, os.Remove(path))

	s.Schedule(path)
	assert.Equal(t, 1, s.Flush())
}
