package app

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/internal/infrastructure"
	"github.com/yourusername/vidgrab-go/pkg/logger"
	"go.uber.org/zap"
)

// stubBackend is a FetchBackend whose behaviour is set per test
type stubBackend struct {
	fetchCalls int32
	probeCalls int32
	fetch      func(ctx context.Context, req domain.FetchRequest) (*domain.FetchOutcome, error)
	probe      func(ctx context.Context, url string) (*domain.MediaInfo, error)
}

func (b *stubBackend) Name() string { return "stub" }

func (b *stubBackend) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchOutcome, error) {
	atomic.AddInt32(&b.fetchCalls, 1)
	return b.fetch(ctx, req)
}

func (b *stubBackend) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	atomic.AddInt32(&b.probeCalls, 1)
	if b.probe == nil {
		return nil, domain.NewFetchError(domain.ErrorKindExtraction, "no metadata", nil)
	}
	return b.probe(ctx, url)
}

// writesFile returns a fetch func that stages a file of the given size
func writesFile(ext string, size int64) func(context.Context, domain.FetchRequest) (*domain.FetchOutcome, error) {
	return func(ctx context.Context, req domain.FetchRequest) (*domain.FetchOutcome, error) {
		path := req.Target + "." + ext
		if err := createSized(path, size); err != nil {
			return nil, err
		}
		return domain.LocalFileOutcome(&domain.StagedFile{Path: path, CreatedAt: time.Now(), SizeBytes: size}), nil
	}
}

// createSized creates a sparse file so large sizes cost no disk
func createSized(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func stageFile(t *testing.T, store *infrastructure.StagingStore, name string, size int64, age time.Duration) string {
	t.Helper()
	path := filepath.Join(store.Dir(), name)
	require.NoError(t, createSized(path, size))
	if age > 0 {
		then := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(path, then, then))
	}
	return path
}

type testEnv struct {
	orch    *Orchestrator
	store   *infrastructure.StagingStore
	repo    *infrastructure.SQLiteAcquisitionRepository
	backend *stubBackend
	config  *domain.Config
}

func newTestEnv(t *testing.T, backend *stubBackend, mutate func(*domain.Config)) *testEnv {
	t.Helper()

	config := domain.DefaultConfig()
	config.Staging.Dir = t.TempDir()
	config.Staging.DeletionGrace = 50 * time.Millisecond
	if mutate != nil {
		mutate(config)
	}

	store, err := infrastructure.NewStagingStore(config.Staging.Dir)
	require.NoError(t, err)

	repo, err := infrastructure.NewSQLiteAcquisitionRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	// Nop, not zaptest: deferred deletions may log after the test returns
	nop := zap.NewNop()
	reaper := NewReaper(store, &config.Staging, nop)
	reaper.SetJournal(repo, config.History.Retention)
	orch := NewOrchestrator(
		backend,
		infrastructure.NewDirectBackend(http.DefaultClient, "vidgrab-test"),
		store,
		reaper,
		NewDeletionScheduler(store, config.Staging.DeletionGrace, nop),
		repo,
		config,
		logger.NewSingleLoggerAdapter(nop),
	)

	return &testEnv{orch: orch, store: store, repo: repo, backend: backend, config: config}
}

func videoRequest(url string) domain.DownloadRequest {
	return domain.DownloadRequest{URL: url, Format: domain.FormatVideo, Quality: domain.QualityBest}
}
