package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/internal/infrastructure"
	"github.com/yourusername/vidgrab-go/pkg/logger"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend stages a file of size bytes and reports a fixed title
type fakeBackend struct {
	size int64
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchOutcome, error) {
	path := req.Target + "." + req.Format.Extension()
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(b.size); err != nil {
		f.Close()
		return nil, err
	}
	f.Close()
	return domain.LocalFileOutcome(&domain.StagedFile{Path: path, CreatedAt: time.Now(), SizeBytes: b.size}), nil
}

func (b *fakeBackend) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	return &domain.MediaInfo{Title: "Test Clip", Duration: 42}, nil
}

type testServer struct {
	router *gin.Engine
	store  *infrastructure.StagingStore
	reaper *app.Reaper
}

func newTestServer(t *testing.T, size int64, mutate func(*domain.Config)) *testServer {
	t.Helper()

	config := domain.DefaultConfig()
	config.Staging.Dir = t.TempDir()
	config.Staging.DeletionGrace = 50 * time.Millisecond
	config.Logging.Dir = t.TempDir()
	if mutate != nil {
		mutate(config)
	}

	store, err := infrastructure.NewStagingStore(config.Staging.Dir)
	require.NoError(t, err)

	repo, err := infrastructure.NewSQLiteAcquisitionRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	nop := zap.NewNop()
	adapter := logger.NewSingleLoggerAdapter(nop)
	reaper := app.NewReaper(store, &config.Staging, nop)
	orch := app.NewOrchestrator(
		&fakeBackend{size: size},
		infrastructure.NewDirectBackend(http.DefaultClient, config.Fetch.UserAgent),
		store,
		reaper,
		app.NewDeletionScheduler(store, config.Staging.DeletionGrace, nop),
		repo,
		config,
		adapter,
	)

	return &testServer{
		router: SetupRouter(orch, reaper, adapter, &config.Server, config.Logging.Dir),
		store:  store,
		reaper: reaper,
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, 64, nil)

	w := s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, body["timestamp"])

	assert.Equal(t, http.StatusServiceUnavailable, s.do(http.MethodGet, "/ready", "").Code)

	require.NoError(t, s.reaper.Start(context.Background()))
	defer s.reaper.Stop()
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/ready", "").Code)
}

func TestInfoEndpoint(t *testing.T) {
	s := newTestServer(t, 64, nil)

	w := s.do(http.MethodPost, "/api/info", `{"url":"https://youtu.be/abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	info := body["info"].(map[string]interface{})
	assert.Equal(t, "Test Clip", info["title"])
	assert.Equal(t, "YouTube", info["platform"])
	assert.EqualValues(t, 42, info["duration"])

	w = s.do(http.MethodPost, "/api/info", `{"url":"https://example.com/clip"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unsupported platform", decode(t, w)["error"])

	w = s.do(http.MethodPost, "/api/info", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "URL is required", decode(t, w)["error"])
}

func TestDownloadEndpoint(t *testing.T) {
	s := newTestServer(t, 2048, nil)

	w := s.do(http.MethodPost, "/api/download", `{"url":"https://www.tiktok.com/@u/video/1","format":"video","quality":"720"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	disposition := w.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="tiktok_`), disposition)
	assert.True(t, strings.HasSuffix(disposition, `.mp4"`), disposition)
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.Equal(t, 2048, w.Body.Len())

	// staged file outlives the response only by the grace period
	assert.Eventually(t, func() bool {
		files, err := s.store.List()
		return err == nil && len(files) == 0
	}, 2*time.Second, 20*time.Millisecond)

	w = s.do(http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["served"])

	w = s.do(http.MethodGet, "/api/history?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])
}

func TestDownloadEndpoint_Errors(t *testing.T) {
	t.Run("oversize", func(t *testing.T) {
		s := newTestServer(t, 250*1000*1000, nil)
		w := s.do(http.MethodPost, "/api/download", `{"url":"https://www.youtube.com/watch?v=x"}`)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.NotEmpty(t, decode(t, w)["error"])

		files, err := s.store.List()
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("bad format", func(t *testing.T) {
		s := newTestServer(t, 64, nil)
		w := s.do(http.MethodPost, "/api/download", `{"url":"https://www.youtube.com/watch?v=x","format":"gif"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported platform", func(t *testing.T) {
		s := newTestServer(t, 64, nil)
		w := s.do(http.MethodPost, "/api/download", `{"url":"https://example.com/v.mp4"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, 64, nil)
		w := s.do(http.MethodPost, "/api/download", `{"url":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCleanEndpoint(t *testing.T) {
	s := newTestServer(t, 64, nil)

	old := filepath.Join(s.store.Dir(), "youtube_old.mp4")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0644))
	then := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, then, then))

	w := s.do(http.MethodPost, "/api/clean", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["cleaned"])
}

func TestRateLimitedEndpoints(t *testing.T) {
	s := newTestServer(t, 64, func(c *domain.Config) {
		c.Server.RateLimit = 0.001
		c.Server.RateBurst = 1
	})

	assert.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/clean", `{}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodPost, "/api/clean", `{}`).Code)

	// health is never limited
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
}

func TestLogRoutes(t *testing.T) {
	s := newTestServer(t, 64, nil)

	w := s.do(http.MethodGet, "/api/logs/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["categories"], 3)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/logs/reaper", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/logs/queue", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/logs/reaper?date=yesterday", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/logs/reaper/search", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/logs/reaper/export", "").Code)
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t, 64, nil)
	w := s.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
