package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
	"go.uber.org/zap"
)

// CommandRunner runs an external program. Tests swap it for a fake.
type CommandRunner func(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error

// processWaitDelay bounds how long Run waits for output pipes after ctx ends
const processWaitDelay = 2 * time.Second

// ExecRunner runs the program with os/exec. When ctx ends the program and
// everything it spawned (ffmpeg for merges and audio extraction) is killed.
func ExecRunner(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	// exec.CommandContext passes args straight to the process, no shell quoting involved
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	killProcessGroup(cmd)
	cmd.WaitDelay = processWaitDelay
	return cmd.Run()
}

// ExtractorBackend implements FetchBackend on top of yt-dlp
type ExtractorBackend struct {
	config      *domain.ExtractorConfig
	fetch       *domain.FetchConfig
	store       *StagingStore
	logsDir     string
	eventLogger *logger.MultiLogger
	run         CommandRunner
}

// NewExtractorBackend creates a new yt-dlp backend
func NewExtractorBackend(
	config *domain.ExtractorConfig,
	fetch *domain.FetchConfig,
	store *StagingStore,
	logsDir string,
	eventLogger *logger.MultiLogger,
) *ExtractorBackend {
	return &ExtractorBackend{
		config:      config,
		fetch:       fetch,
		store:       store,
		logsDir:     logsDir,
		eventLogger: eventLogger,
		run:         ExecRunner,
	}
}

// SetRunner replaces the command runner
func (b *ExtractorBackend) SetRunner(run CommandRunner) {
	b.run = run
}

// Name returns the backend name
func (b *ExtractorBackend) Name() string {
	return "extractor"
}

// FormatSelector maps a quality to a yt-dlp format expression, falling back
// progressively to whatever is available.
func FormatSelector(q domain.Quality) string {
	h := q.Height()
	if h == 0 {
		return "best[ext=mp4]/best"
	}
	return fmt.Sprintf("best[height<=%d][ext=mp4]/best[height<=%d]/best", h, h)
}

// buildArgs builds the yt-dlp argument list for a download
func (b *ExtractorBackend) buildArgs(req domain.FetchRequest) []string {
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--newline",
		"--no-mtime",
		"--user-agent", b.fetch.UserAgent,
		"-o", req.Target + ".%(ext)s",
	}

	if req.MaxBytes > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(req.MaxBytes, 10))
	}

	if req.Format == domain.FormatAudio {
		args = append(args, "-f", "bestaudio/best", "-x", "--audio-format", b.config.AudioFormat)
	} else {
		args = append(args, "-f", FormatSelector(req.Quality))
	}

	return append(b.commonArgs(), append(args, req.URL)...)
}

// commonArgs are shared by downloads and probes
func (b *ExtractorBackend) commonArgs() []string {
	var args []string
	if b.config.CookieFile != "" && fileExists(b.config.CookieFile) {
		args = append(args, "--cookies", b.config.CookieFile)
	}
	if b.fetch.InsecureSkipVerify {
		args = append(args, "--no-check-certificates")
	}
	return append(args, b.config.ExtraArgs...)
}

// Fetch downloads the media into req.Target.<ext>
func (b *ExtractorBackend) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchOutcome, error) {
	args := b.buildArgs(req)

	var output bytes.Buffer
	var sink io.Writer = &output

	// Raw process output also goes to the daily extractor log (like cmd > file 2>&1)
	extractorLog, err := b.openLogFile()
	if err != nil {
		b.logAppError("Failed to open extractor log", zap.Error(err))
	} else {
		defer extractorLog.Close()
		sink = io.MultiWriter(&output, extractorLog)
		b.writeLogHeader(extractorLog, filepath.Base(req.Target), ShellEscapeCommand(b.config.Binary, args...))
	}

	runErr := b.run(ctx, sink, sink, b.config.Binary, args...)
	if runErr != nil {
		b.store.DeleteArtifacts(req.Target)
		ferr := classifyExtractorFailure(ctx, runErr, output.String())
		b.writeLogFooter(extractorLog, false, ferr.Error())
		return nil, ferr
	}

	file, err := b.store.FindArtifact(req.Target)
	if err != nil {
		b.store.DeleteArtifacts(req.Target)
		var ferr *domain.FetchError
		if strings.Contains(output.String(), "larger than max-filesize") {
			ferr = domain.NewSizeLimitError(fmt.Sprintf("File exceeds the %s limit", humanize.IBytes(uint64(req.MaxBytes))))
		} else {
			ferr = domain.NewFetchError(domain.ErrorKindUnclassified, "Extractor finished without producing a file", err)
		}
		b.writeLogFooter(extractorLog, false, ferr.Error())
		return nil, ferr
	}

	if req.MaxBytes > 0 && file.SizeBytes > req.MaxBytes {
		b.store.DeleteArtifacts(req.Target)
		ferr := domain.NewSizeLimitError(fmt.Sprintf("File is too large (%s, limit %s)",
			humanize.IBytes(uint64(file.SizeBytes)), humanize.IBytes(uint64(req.MaxBytes))))
		b.writeLogFooter(extractorLog, false, ferr.Error())
		return nil, ferr
	}

	b.writeLogFooter(extractorLog, true, fmt.Sprintf("Downloaded: %s (%s)", file.Name(), humanize.IBytes(uint64(file.SizeBytes))))
	return domain.LocalFileOutcome(file), nil
}

// extractorInfo is the subset of yt-dlp's --dump-single-json output we use
type extractorInfo struct {
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Uploader  string  `json:"uploader"`
	Channel   string  `json:"channel"`
}

// Probe reads metadata with --dump-single-json without downloading
func (b *ExtractorBackend) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	args := append(b.commonArgs(),
		"--dump-single-json",
		"--skip-download",
		"--no-playlist",
		"--no-warnings",
		"--user-agent", b.fetch.UserAgent,
		url,
	)

	var stdout, stderr bytes.Buffer
	if err := b.run(ctx, &stdout, &stderr, b.config.Binary, args...); err != nil {
		return nil, classifyExtractorFailure(ctx, err, stderr.String())
	}

	var info extractorInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, domain.NewFetchError(domain.ErrorKindExtraction, "Could not read video information", err)
	}

	uploader := info.Uploader
	if uploader == "" {
		uploader = info.Channel
	}

	return &domain.MediaInfo{
		Title:             info.Title,
		Duration:          info.Duration,
		Thumbnail:         info.Thumbnail,
		Uploader:          uploader,
		Platform:          domain.DetectPlatform(url).DisplayName(),
		SuggestedFilename: domain.SanitizeFilename(info.Title),
	}, nil
}

// classifyExtractorFailure turns a failed run into a structured error.
// The classification lives here so nothing downstream inspects messages.
func classifyExtractorFailure(ctx context.Context, runErr error, output string) *domain.FetchError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.NewTimeoutError(runErr)
	}

	var execErr *exec.Error
	if errors.As(runErr, &execErr) {
		return domain.NewFetchError(domain.ErrorKindUnclassified, "Extractor is not installed", runErr)
	}

	switch kind, _ := classifyMessage(output); kind {
	case domain.ErrorKindAccessDenied:
		return domain.NewFetchError(domain.ErrorKindAccessDenied, "This video is private or requires login", runErr)
	case domain.ErrorKindUnavailable:
		return domain.NewFetchError(domain.ErrorKindUnavailable, "Video is unavailable or has been removed", runErr)
	}

	lower := strings.ToLower(output)
	switch {
	case strings.Contains(lower, "larger than max-filesize"):
		return domain.NewSizeLimitError("File exceeds the size limit")
	case strings.Contains(lower, "unsupported url"):
		return domain.NewFetchError(domain.ErrorKindExtraction, "This URL is not supported", runErr)
	}

	if line := lastErrorLine(output); line != "" {
		return domain.NewFetchError(domain.ErrorKindExtraction, line, runErr)
	}
	return domain.NewFetchError(domain.ErrorKindUnclassified, "Download failed", runErr)
}

// lastErrorLine returns the final "ERROR:" line of yt-dlp output without its prefix
func lastErrorLine(output string) string {
	lines := strings.Split(output, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
			if len(line) > 300 {
				line = line[:300]
			}
			return line
		}
	}
	return ""
}

// openLogFile opens today's extractor log file
func (b *ExtractorBackend) openLogFile() (*os.File, error) {
	if b.logsDir == "" {
		return nil, fmt.Errorf("logs directory not configured")
	}
	if err := os.MkdirAll(b.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	dateStr := time.Now().Format("20060102")
	logPath := filepath.Join(b.logsDir, "extractor-"+dateStr+".log")
	return os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

// writeLogHeader writes the run start marker
func (b *ExtractorBackend) writeLogHeader(file *os.File, name, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] Fetch: %s ===\n", timestamp, name)
	fmt.Fprintf(file, "$ %s\n", cmdLine)
}

// writeLogFooter writes the run end marker
func (b *ExtractorBackend) writeLogFooter(file *os.File, success bool, message string) {
	if file == nil {
		return
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(file, "[%s] %s: %s\n", timestamp, status, message)
	file.WriteString("=== END ===\n\n")
}

func (b *ExtractorBackend) logAppError(msg string, fields ...zap.Field) {
	if b.eventLogger != nil {
		b.eventLogger.LogAppError(msg, fields...)
	}
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
