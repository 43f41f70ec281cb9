package logger

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, reader *LogReader, category LogCategory, lines ...string) string {
	t.Helper()
	path := reader.GetTodayLogPath(category)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func TestLogReader_ReadLogs(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	writeLog(t, reader, CategoryAcquisition,
		`{"level":"info","ts":"2024-01-01T12:00:00.000Z","msg":"first","category":"acquisition"}`,
		`{"level":"info","ts":"2024-01-01T12:00:01.000Z","msg":"second","category":"acquisition","platform":"youtube"}`,
		`plain text line`,
	)

	t.Run("all entries", func(t *testing.T) {
		entries, err := reader.ReadTodayLogs(CategoryAcquisition, 0)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "first", entries[0].Message)
		assert.Equal(t, "2024-01-01T12:00:00.000Z", entries[0].Timestamp)
		assert.Equal(t, "youtube", entries[1].Fields["platform"])
		assert.Equal(t, "plain text line", entries[2].Message)
		assert.Equal(t, "acquisition", entries[2].Category)
	})

	t.Run("limit keeps the newest", func(t *testing.T) {
		entries, err := reader.ReadTodayLogs(CategoryAcquisition, 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "second", entries[0].Message)
	})

	t.Run("missing file", func(t *testing.T) {
		entries, err := reader.ReadTodayLogs(CategoryReaper, 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestLogReader_SearchLogs(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	writeLog(t, reader, CategoryAcquisition,
		`{"level":"info","msg":"acquisition served","platform":"tiktok"}`,
		`{"level":"warn","msg":"acquisition rejected","platform":"youtube"}`,
	)

	entries, err := reader.SearchLogs(CategoryAcquisition, time.Now(), "TikTok", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acquisition served", entries[0].Message)

	entries, err = reader.SearchLogs(CategoryAcquisition, time.Now(), "warn", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acquisition rejected", entries[0].Message)
}

func TestLogReader_TailLogs(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	path := writeLog(t, reader, CategoryReaper, `{"level":"info","msg":"old"}`)

	entries := make(chan LogEntry, 4)
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- reader.TailLogs(CategoryReaper, entries, stop) }()

	// give the tailer time to seek to the end before appending
	time.Sleep(500 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"level":"info","msg":"new"}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case entry := <-entries:
		assert.Equal(t, "new", entry.Message)
	case <-time.After(3 * time.Second):
		t.Fatal("no entry received")
	}

	close(stop)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("tail did not stop")
	}
}

func TestLogReader_TailLogsStopsWhileWaitingForFile(t *testing.T) {
	reader := NewLogReader(t.TempDir())
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- reader.TailLogs(CategoryError, make(chan LogEntry), stop) }()

	close(stop)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("tail did not stop")
	}
}
