package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

// maxAPIResponseBytes caps how much of a conversion API reply is read
const maxAPIResponseBytes = 1 << 20

// remoteAPIRequest is the payload posted to the conversion endpoint
type remoteAPIRequest struct {
	URL         string `json:"url"`
	VQuality    string `json:"vQuality"`
	IsAudioOnly bool   `json:"isAudioOnly"`
	AudioFormat string `json:"aFormat,omitempty"`
}

type remoteAPIPickerItem struct {
	URL string `json:"url"`
}

// remoteAPIResponse covers every documented response shape
type remoteAPIResponse struct {
	Status string                `json:"status"`
	URL    string                `json:"url"`
	Text   string                `json:"text"`
	Picker []remoteAPIPickerItem `json:"picker"`
}

// RemoteAPIBackend delegates extraction to a third-party conversion API.
// It never writes to disk itself: it returns redirect or picker outcomes that
// the orchestrator streams with a DirectBackend.
type RemoteAPIBackend struct {
	config    *domain.RemoteConfig
	client    *http.Client
	userAgent string
}

// NewRemoteAPIBackend creates a new remote conversion API backend
func NewRemoteAPIBackend(config *domain.RemoteConfig, client *http.Client, userAgent string) *RemoteAPIBackend {
	return &RemoteAPIBackend{
		config:    config,
		client:    client,
		userAgent: userAgent,
	}
}

// Name returns the backend name
func (b *RemoteAPIBackend) Name() string {
	return "remote"
}

// Fetch asks the API to resolve req.URL into a media URL
func (b *RemoteAPIBackend) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchOutcome, error) {
	payload := remoteAPIRequest{
		URL:         req.URL,
		VQuality:    qualityHint(req.Quality),
		IsAudioOnly: req.Format == domain.FormatAudio,
	}
	if payload.IsAudioOnly {
		payload.AudioFormat = req.Format.Extension()
	}

	resp, err := b.post(ctx, payload)
	if err != nil {
		return nil, err
	}

	switch resp.Status {
	case "stream", "redirect", "tunnel":
		if resp.URL == "" {
			return nil, domain.NewFetchError(domain.ErrorKindUnclassified, "Conversion service returned no media URL", nil)
		}
		return domain.RedirectOutcome(resp.URL), nil
	case "picker":
		candidates := make([]string, 0, len(resp.Picker))
		for _, item := range resp.Picker {
			if item.URL != "" {
				candidates = append(candidates, item.URL)
			}
		}
		if len(candidates) == 0 {
			return nil, domain.NewFetchError(domain.ErrorKindUnclassified, "Conversion service returned an empty picker", nil)
		}
		return domain.PickerOutcome(candidates), nil
	case "error":
		message := strings.TrimSpace(resp.Text)
		if message == "" {
			message = "Conversion service reported an error"
		}
		kind, ok := classifyMessage(message)
		if !ok {
			kind = domain.ErrorKindExtraction
		}
		return nil, domain.NewFetchError(kind, message, nil)
	default:
		return nil, domain.NewFetchError(domain.ErrorKindUnclassified, "Unexpected response from conversion service", nil)
	}
}

// Probe is not offered by conversion APIs; callers fall back to a placeholder
func (b *RemoteAPIBackend) Probe(ctx context.Context, url string) (*domain.MediaInfo, error) {
	return nil, domain.NewFetchError(domain.ErrorKindExtraction, "Metadata is not available from the conversion service", nil)
}

func (b *RemoteAPIBackend) post(ctx context.Context, payload remoteAPIRequest) (*remoteAPIResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewFetchError(domain.ErrorKindUnclassified, "Conversion service is misconfigured", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", b.userAgent)
	if b.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Api-Key "+b.config.APIKey)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, "Failed to reach conversion service", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return nil, transportError(ctx, "Failed to read conversion service response", err)
	}

	// error replies come with 4xx codes and a JSON body, so decode before looking at the status
	var out remoteAPIResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Status == "" {
		if serr := statusError(resp.StatusCode); serr != nil {
			return nil, serr
		}
		return nil, domain.NewFetchError(domain.ErrorKindUnclassified, "Unexpected response from conversion service", err)
	}
	return &out, nil
}

// qualityHint maps a Quality to the API's vQuality value
func qualityHint(q domain.Quality) string {
	if h := q.Height(); h > 0 {
		return strconv.Itoa(h)
	}
	return "max"
}
