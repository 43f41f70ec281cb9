package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vidgrab-go/api"
	"github.com/yourusername/vidgrab-go/internal/app"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/internal/infrastructure"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

const version = "1.0.0"

var configPath = flag.String("config", "", "Path to config file (default: ./configs/config.yaml, ~/.vidgrab, /etc/vidgrab)")

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vidgrab-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	console, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Category files: acquisition, reaper, error
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.Dir,
		Console: console,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer multiLog.Close()

	logAdapter := logger.NewLoggerAdapter(multiLog)
	log := logAdapter.General()

	log.Info("Starting vidgrab server",
		zap.String("version", version),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("backend", config.Fetch.Backend),
		zap.String("staging_dir", config.Staging.Dir))

	if config.Fetch.InsecureSkipVerify {
		log.Warn("TLS certificate verification is disabled for outbound fetches (fetch.insecure_skip_verify)")
	}

	store, err := infrastructure.NewStagingStore(config.Staging.Dir)
	if err != nil {
		return err
	}

	backends, err := infrastructure.NewBackends(config, store, multiLog)
	if err != nil {
		return err
	}

	var repo domain.AcquisitionRepository
	if config.History.Enabled {
		sqliteRepo, err := infrastructure.NewSQLiteAcquisitionRepository(config.History.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize history: %w", err)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	}

	reaper := app.NewReaper(store, &config.Staging, logAdapter.Reaper())
	if repo != nil {
		reaper.SetJournal(repo, config.History.Retention)
	}
	deletions := app.NewDeletionScheduler(store, config.Staging.DeletionGrace, logAdapter.Acquisition())
	orch := app.NewOrchestrator(
		backends.Primary,
		backends.Stream,
		store,
		reaper,
		deletions,
		repo,
		config,
		logAdapter,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := reaper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reaper: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(orch, reaper, logAdapter, &config.Server, config.Logging.Dir)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-serverErr:
		log.Error("HTTP server failed", zap.Error(err))
		reaper.Stop()
		deletions.Flush()
		return err
	}

	log.Info("Shutting down server...")

	// in-flight downloads may take up to the download timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Limits.DownloadTimeout+10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := reaper.Stop(); err != nil {
		log.Warn("Error stopping reaper", zap.Error(err))
	}

	flushed := deletions.Flush()
	log.Info("Server exited", zap.Int("deletions_flushed", flushed))
	return nil
}
