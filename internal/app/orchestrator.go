package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/internal/infrastructure"
	"github.com/yourusername/vidgrab-go/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrHistoryDisabled is returned by history queries when no journal is configured
var ErrHistoryDisabled = errors.New("acquisition history is disabled")

// Delivery is a staged file ready to be streamed to the client
type Delivery struct {
	AcquisitionID string
	Path          string
	FileName      string
	ContentType   string
	Size          int64
	Platform      domain.Platform
}

// Orchestrator drives one acquisition from validation to a served file
type Orchestrator struct {
	backend   domain.FetchBackend
	stream    domain.StreamFetcher
	store     *infrastructure.StagingStore
	reaper    *Reaper
	deletions *DeletionScheduler
	repo      domain.AcquisitionRepository
	config    *domain.Config
	log       *logger.LoggerAdapter
	probes    singleflight.Group
}

// NewOrchestrator creates a new orchestrator. repo may be nil to disable history.
func NewOrchestrator(
	backend domain.FetchBackend,
	stream domain.StreamFetcher,
	store *infrastructure.StagingStore,
	reaper *Reaper,
	deletions *DeletionScheduler,
	repo domain.AcquisitionRepository,
	config *domain.Config,
	log *logger.LoggerAdapter,
) *Orchestrator {
	return &Orchestrator{
		backend:   backend,
		stream:    stream,
		store:     store,
		reaper:    reaper,
		deletions: deletions,
		repo:      repo,
		config:    config,
		log:       log,
	}
}

// BackendName returns the name of the configured fetch backend
func (o *Orchestrator) BackendName() string {
	return o.backend.Name()
}

// Acquire validates the request, fetches the media into the staging directory
// and returns the file to serve. On any error nothing is left staged for it.
func (o *Orchestrator) Acquire(ctx context.Context, req domain.DownloadRequest) (*Delivery, error) {
	acq := domain.NewAcquisition(req, o.backend.Name())
	o.record(acq, true)

	platform, err := validateTarget(req.URL)
	if err != nil {
		return nil, o.fail(acq, err)
	}
	acq.MarkProcessing(platform)
	o.record(acq, false)

	// opportunistic sweep so a busy server does not wait for the next tick
	o.reaper.Sweep()

	if err := o.checkCapacity(); err != nil {
		return nil, o.fail(acq, err)
	}

	target := o.store.Stage(string(platform))
	ceiling := o.config.Limits.CeilingFor(req.Format)

	o.log.Acquisition().Info("acquisition_started",
		zap.String("id", acq.ID),
		zap.String("url", req.URL),
		zap.String("platform", string(platform)),
		zap.String("format", string(req.Format)),
		zap.String("quality", string(req.Quality)),
		zap.String("backend", o.backend.Name()))

	// a client disconnect does not abort the fetch, only the download timeout does
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.Limits.DownloadTimeout)
	defer cancel()

	file, err := o.fetch(fetchCtx, req, target, ceiling)
	if err != nil {
		o.store.DeleteArtifacts(target)
		return nil, o.fail(acq, err)
	}

	size, err := o.store.SizeOf(file.Path)
	if err != nil {
		o.store.DeleteArtifacts(target)
		return nil, o.fail(acq, domain.NewStorageError("Staged file disappeared", err))
	}
	if size > ceiling {
		o.store.DeleteArtifacts(target)
		return nil, o.fail(acq, domain.NewSizeLimitError(fmt.Sprintf("File is too large (%s, limit %s)",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(ceiling)))))
	}

	ext, contentType := req.Format.ServedExtension(filepath.Ext(file.Path))
	delivery := &Delivery{
		AcquisitionID: acq.ID,
		Path:          file.Path,
		FileName:      filepath.Base(target) + "." + ext,
		ContentType:   contentType,
		Size:          size,
		Platform:      platform,
	}

	acq.MarkServed(delivery.FileName, size)
	o.record(acq, false)
	o.log.Acquisition().Info("acquisition_served",
		zap.String("id", acq.ID),
		zap.String("file", delivery.FileName),
		zap.String("size", humanize.IBytes(uint64(size))))

	return delivery, nil
}

// fetch runs the primary backend and, for redirect and picker outcomes, the
// secondary stream fetch
func (o *Orchestrator) fetch(ctx context.Context, req domain.DownloadRequest, target string, ceiling int64) (*domain.StagedFile, error) {
	outcome, err := o.backend.Fetch(ctx, domain.FetchRequest{
		DownloadRequest: req,
		Target:          target,
		MaxBytes:        ceiling,
	})
	if err != nil {
		return nil, err
	}
	if outcome == nil {
		return nil, domain.NewFetchError(domain.ErrorKindUnclassified, "Backend returned no result", nil)
	}

	file := outcome.File
	if outcome.Kind != domain.OutcomeLocalFile {
		mediaURL, ok := outcome.StreamURL()
		if !ok {
			return nil, domain.NewFetchError(domain.ErrorKindUnclassified, "Backend returned no media URL", nil)
		}
		o.log.Acquisition().Debug("acquisition_streaming",
			zap.String("outcome", string(outcome.Kind)),
			zap.Int("candidates", len(outcome.Candidates)))

		file, err = o.stream.FetchStream(ctx, mediaURL, target, req.Format, ceiling)
		if err != nil {
			return nil, err
		}
	}

	if file == nil || !o.store.Contains(file.Path) {
		return nil, domain.NewFetchError(domain.ErrorKindUnclassified, "Backend returned no staged file", nil)
	}
	return file, nil
}

// checkCapacity rejects new work while the staging directory is at its cap
func (o *Orchestrator) checkCapacity() error {
	usage, err := o.store.Usage()
	if err != nil {
		return domain.NewStorageError("Staging directory is not readable", err)
	}
	if usage >= o.config.Staging.MaxTotalBytes {
		return domain.NewStorageError(fmt.Sprintf("Staging area is full (%s), try again later",
			humanize.IBytes(uint64(usage))), nil)
	}
	return nil
}

// Release schedules deletion of a delivered file after the grace period
func (o *Orchestrator) Release(d *Delivery) *ScheduledDeletion {
	return o.deletions.Schedule(d.Path)
}

// Info probes metadata for a URL. Probe failures degrade to a placeholder
// title; only an invalid URL is an error.
func (o *Orchestrator) Info(ctx context.Context, rawURL string) (*domain.MediaInfo, error) {
	rawURL = strings.TrimSpace(rawURL)
	platform, err := validateTarget(rawURL)
	if err != nil {
		return nil, err
	}

	v, err, shared := o.probes.Do(rawURL, func() (interface{}, error) {
		// a shared probe must outlive the first caller's cancellation
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.Limits.ProbeTimeout)
		defer cancel()
		return o.backend.Probe(probeCtx, rawURL)
	})

	probed, _ := v.(*domain.MediaInfo)
	if err != nil || probed == nil {
		if domain.KindOf(err) == domain.ErrorKindValidation {
			return nil, err
		}
		o.log.Acquisition().Info("probe_fallback",
			zap.String("url", rawURL),
			zap.String("backend", o.backend.Name()),
			zap.Error(err))
		title := platform.PlaceholderTitle()
		return &domain.MediaInfo{
			Title:             title,
			Platform:          platform.DisplayName(),
			SuggestedFilename: domain.SanitizeFilename(title),
		}, nil
	}

	info := *probed
	if info.Title == "" {
		info.Title = platform.PlaceholderTitle()
	}
	info.Platform = platform.DisplayName()
	info.SuggestedFilename = domain.SanitizeFilename(info.Title)

	o.log.Acquisition().Debug("probe_finished", zap.String("url", rawURL), zap.Bool("shared", shared))
	return &info, nil
}

// Clean runs a sweep now and returns how many files were removed
func (o *Orchestrator) Clean() int {
	removed := o.reaper.Sweep()
	o.log.Reaper().Info("manual_clean", zap.Int("removed", removed))
	return removed
}

// Stats returns journal statistics
func (o *Orchestrator) Stats() (*domain.AcquisitionStats, error) {
	if o.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return o.repo.GetStats()
}

// History returns the most recent acquisitions
func (o *Orchestrator) History(limit int) ([]*domain.Acquisition, error) {
	if o.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return o.repo.FindRecent(limit)
}

// validateTarget is the pre-dispatch gate: no backend is called for a URL that fails it
func validateTarget(rawURL string) (domain.Platform, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", domain.NewValidationError("URL is required")
	}
	platform := domain.DetectPlatform(rawURL)
	if !domain.ValidatePlatform(platform) {
		return "", domain.NewValidationError("Unsupported platform")
	}
	return platform, nil
}

// fail records the error on the journal entry and logs it
func (o *Orchestrator) fail(acq *domain.Acquisition, err error) error {
	acq.MarkError(err)
	o.record(acq, false)

	fields := []zap.Field{
		zap.String("id", acq.ID),
		zap.String("url", acq.URL),
		zap.String("kind", string(acq.ErrorKind)),
		zap.Error(err),
	}
	o.log.Acquisition().Warn("acquisition_"+string(acq.Status), fields...)

	switch acq.ErrorKind {
	case domain.ErrorKindUnclassified, domain.ErrorKindStorage:
		o.log.Error().Error("acquisition failed", fields...)
	}
	return err
}

// record persists the journal entry. Journal failures never fail the request.
func (o *Orchestrator) record(acq *domain.Acquisition, create bool) {
	if o.repo == nil {
		return
	}
	var err error
	if create {
		err = o.repo.Create(acq)
	} else {
		err = o.repo.Update(acq)
	}
	if err != nil {
		o.log.Error().Error("failed to record acquisition", zap.String("id", acq.ID), zap.Error(err))
	}
}
