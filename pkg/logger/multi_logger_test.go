package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMultiLogger_WritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	core, observed := observer.New(zap.InfoLevel)

	ml, err := NewMultiLogger(MultiLoggerConfig{
		Level:   "info",
		LogsDir: dir,
		Console: zap.New(core),
	})
	require.NoError(t, err)

	ml.LogAcquisitionEvent("acquisition served", zap.String("file", "youtube_20240101_120000_abc.mp4"))
	ml.LogReaperEvent("sweep finished", zap.Int("removed", 3))
	ml.LogAppError("backend failed", zap.String("backend", "extractor"))
	require.NoError(t, ml.Close())

	// console receives a copy of everything
	assert.Equal(t, 3, observed.Len())

	reader := NewLogReader(dir)

	entries, err := reader.ReadLogs(CategoryAcquisition, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acquisition served", entries[0].Message)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "acquisition", entries[0].Category)
	assert.NotEmpty(t, entries[0].Timestamp)
	assert.Equal(t, "youtube_20240101_120000_abc.mp4", entries[0].Fields["file"])

	entries, err = reader.ReadLogs(CategoryReaper, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.EqualValues(t, 3, entries[0].Fields["removed"])

	entries, err = reader.ReadLogs(CategoryError, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Level)
}

func TestMultiLogger_ErrorCategoryDropsInfo(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "debug", LogsDir: dir})
	require.NoError(t, err)

	ml.Error().Info("not an error")
	require.NoError(t, ml.Close())

	entries, err := NewLogReader(dir).ReadTodayLogs(CategoryError, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{Level: "info"})
	assert.Error(t, err)
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("reaper")
	assert.True(t, ok)
	assert.Equal(t, CategoryReaper, c)

	_, ok = ParseCategory("queue")
	assert.False(t, ok)
}

func TestLoggerAdapter_SingleMode(t *testing.T) {
	core, observed := observer.New(zap.InfoLevel)
	adapter := NewSingleLoggerAdapter(zap.New(core))

	adapter.Acquisition().Info("a")
	adapter.Reaper().Info("b")
	adapter.General().Info("c")

	assert.Equal(t, 3, observed.Len())
	assert.Nil(t, adapter.MultiLogger())
}
