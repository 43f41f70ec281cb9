package domain

import (
	"context"
	"path/filepath"
	"time"
)

// StagedFile is a file written into the staging directory
type StagedFile struct {
	Path      string
	CreatedAt time.Time
	SizeBytes int64
}

// Name returns the file's base name
func (f *StagedFile) Name() string {
	return filepath.Base(f.Path)
}

// OutcomeKind discriminates the successful shapes of a FetchOutcome
type OutcomeKind string

const (
	OutcomeLocalFile      OutcomeKind = "local_file"
	OutcomeRemoteRedirect OutcomeKind = "redirect"
	OutcomePicker         OutcomeKind = "picker"
)

// FetchOutcome is what a backend produced for one fetch attempt.
// Failures are reported through the error return as a *FetchError instead.
type FetchOutcome struct {
	Kind        OutcomeKind
	File        *StagedFile
	RedirectURL string
	Candidates  []string
}

// LocalFileOutcome wraps a staged file
func LocalFileOutcome(file *StagedFile) *FetchOutcome {
	return &FetchOutcome{Kind: OutcomeLocalFile, File: file}
}

// RedirectOutcome points at a media URL that still has to be streamed
func RedirectOutcome(url string) *FetchOutcome {
	return &FetchOutcome{Kind: OutcomeRemoteRedirect, RedirectURL: url}
}

// PickerOutcome carries a list of candidate media URLs
func PickerOutcome(candidates []string) *FetchOutcome {
	return &FetchOutcome{Kind: OutcomePicker, Candidates: candidates}
}

// StreamURL returns the URL a secondary fetch should stream. Pickers always
// resolve to their first candidate.
func (o *FetchOutcome) StreamURL() (string, bool) {
	switch o.Kind {
	case OutcomeRemoteRedirect:
		return o.RedirectURL, o.RedirectURL != ""
	case OutcomePicker:
		if len(o.Candidates) > 0 && o.Candidates[0] != "" {
			return o.Candidates[0], true
		}
	}
	return "", false
}

// FetchRequest is handed to a backend for one acquisition
type FetchRequest struct {
	DownloadRequest
	// Target is the staged base path without extension. Backends write
	// Target + "." + ext and nothing else.
	Target   string
	MaxBytes int64
}

// MediaInfo is the metadata reported by /api/info
type MediaInfo struct {
	Title             string  `json:"title"`
	Duration          float64 `json:"duration"`
	Thumbnail         string  `json:"thumbnail"`
	Platform          string  `json:"platform"`
	Uploader          string  `json:"uploader"`
	SuggestedFilename string  `json:"suggested_filename"`
}

// FetchBackend turns a URL into media. One implementation is selected at startup.
type FetchBackend interface {
	// Name identifies the backend in logs and history
	Name() string

	// Fetch retrieves the requested media, bounded by ctx and req.MaxBytes
	Fetch(ctx context.Context, req FetchRequest) (*FetchOutcome, error)

	// Probe reads metadata without downloading media
	Probe(ctx context.Context, url string) (*MediaInfo, error)
}

// StreamFetcher downloads a resolved media URL straight into the staging directory
type StreamFetcher interface {
	FetchStream(ctx context.Context, mediaURL, target string, format FormatKind, maxBytes int64) (*StagedFile, error)
}
