package infrastructure

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yourusername/vidgrab-go/internal/domain"
)

// streamChunkSize is the buffer size used when copying a media body to disk
const streamChunkSize = 8 * 1024

var contentTypeToExt = map[string]string{
	"video/mp4":        "mp4",
	"video/webm":       "webm",
	"video/quicktime":  "mov",
	"video/x-matroska": "mkv",
	"audio/mpeg":       "mp3",
	"audio/mp4":        "m4a",
	"audio/ogg":        "ogg",
	"audio/wav":        "wav",
}

var errSizeExceeded = errors.New("size ceiling exceeded")

// NewHTTPClient builds the client shared by the HTTP based backends.
// Request lifetimes are bounded by the caller's context.
func NewHTTPClient(cfg *domain.FetchConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via fetch.insecure_skip_verify
	}
	return &http.Client{Transport: transport}
}

// DirectBackend streams a media URL straight into the staging directory
type DirectBackend struct {
	client    *http.Client
	userAgent string
}

// NewDirectBackend creates a new direct stream backend
func NewDirectBackend(client *http.Client, userAgent string) *DirectBackend {
	return &DirectBackend{
		client:    client,
		userAgent: userAgent,
	}
}

// Name returns the backend name
func (b *DirectBackend) Name() string {
	return "direct"
}

// Fetch treats the request URL as a media URL and streams it
func (b *DirectBackend) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchOutcome, error) {
	file, err := b.FetchStream(ctx, req.URL, req.Target, req.Format, req.MaxBytes)
	if err != nil {
		return nil, err
	}
	return domain.LocalFileOutcome(file), nil
}

// Probe is not supported for bare media URLs; callers fall back to a placeholder
func (b *DirectBackend) Probe(ctx context.Context, rawURL string) (*domain.MediaInfo, error) {
	return nil, domain.NewFetchError(domain.ErrorKindExtraction, "Metadata is not available for direct downloads", nil)
}

// FetchStream downloads mediaURL to target + "." + ext in chunks. Any failure
// after the file was created removes it before returning.
func (b *DirectBackend) FetchStream(ctx context.Context, mediaURL, target string, format domain.FormatKind, maxBytes int64) (*domain.StagedFile, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, domain.NewFetchError(domain.ErrorKindExtraction, "Invalid media URL", err)
	}
	httpReq.Header.Set("User-Agent", b.userAgent)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, "Failed to reach media host", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp.StatusCode); err != nil {
		return nil, err
	}

	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return nil, domain.NewSizeLimitError(fmt.Sprintf("File is too large (%s, limit %s)",
			humanize.IBytes(uint64(resp.ContentLength)), humanize.IBytes(uint64(maxBytes))))
	}

	ext, _ := format.ServedExtension(extensionFromResponse(resp, mediaURL))
	filePath := target + "." + ext

	out, err := os.OpenFile(filePath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, domain.NewStorageError("Failed to create staged file", err)
	}

	written, copyErr := copyBounded(out, resp.Body, maxBytes)
	closeErr := out.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = &writeError{closeErr}
	}
	if copyErr != nil {
		os.Remove(filePath)
		return nil, streamError(ctx, copyErr, maxBytes)
	}

	return &domain.StagedFile{
		Path:      filePath,
		CreatedAt: time.Now(),
		SizeBytes: written,
	}, nil
}

// writeError marks a failure on the local side of a copy
type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// copyBounded copies src to dst in streamChunkSize pieces and stops as soon as
// more than maxBytes have been read. maxBytes <= 0 means unbounded.
func copyBounded(dst io.Writer, src io.Reader, maxBytes int64) (int64, error) {
	buf := make([]byte, streamChunkSize)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			total += int64(n)
			if maxBytes > 0 && total > maxBytes {
				return total, errSizeExceeded
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return total, &writeError{werr}
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

func streamError(ctx context.Context, err error, maxBytes int64) *domain.FetchError {
	var we *writeError
	switch {
	case errors.Is(err, errSizeExceeded):
		return domain.NewSizeLimitError(fmt.Sprintf("File exceeds the %s limit", humanize.IBytes(uint64(maxBytes))))
	case errors.As(err, &we):
		return domain.NewStorageError("Failed to write staged file", we.err)
	default:
		return transportError(ctx, "Media stream was interrupted", err)
	}
}

func transportError(ctx context.Context, message string, err error) *domain.FetchError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTimeoutError(err)
	}
	return domain.NewFetchError(domain.ErrorKindUnclassified, message, err)
}

func statusError(code int) *domain.FetchError {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.NewFetchError(domain.ErrorKindAccessDenied, "Access to this media was denied", nil)
	case code == http.StatusNotFound || code == http.StatusGone:
		return domain.NewFetchError(domain.ErrorKindUnavailable, "Media not found", nil)
	default:
		return domain.NewFetchError(domain.ErrorKindUnclassified, fmt.Sprintf("Media host returned status %d", code), nil)
	}
}

func extensionFromResponse(resp *http.Response, mediaURL string) string {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			if ext, ok := contentTypeToExt[mediaType]; ok {
				return ext
			}
		}
	}
	if u, err := url.Parse(mediaURL); err == nil {
		return path.Ext(u.Path)
	}
	return ""
}
