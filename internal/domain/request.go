package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatKind selects between a video container and an audio-only extraction
type FormatKind string

const (
	FormatVideo FormatKind = "video"
	FormatAudio FormatKind = "audio"
)

// Extension returns the file extension served for this format
func (f FormatKind) Extension() string {
	if f == FormatAudio {
		return "mp3"
	}
	return "mp4"
}

// ContentType returns the MIME type served for this format
func (f FormatKind) ContentType() string {
	if f == FormatAudio {
		return "audio/mpeg"
	}
	return "video/mp4"
}

var servedExtensions = map[FormatKind]map[string]string{
	FormatVideo: {
		"mp4":  "video/mp4",
		"webm": "video/webm",
		"mkv":  "video/x-matroska",
		"mov":  "video/quicktime",
	},
	FormatAudio: {
		"mp3":  "audio/mpeg",
		"m4a":  "audio/mp4",
		"opus": "audio/ogg",
		"ogg":  "audio/ogg",
		"wav":  "audio/wav",
	},
}

// ServedExtension returns actual if it is a known extension for this format,
// otherwise the format's default. The result never carries a leading dot.
func (f FormatKind) ServedExtension(actual string) (ext, contentType string) {
	actual = strings.ToLower(strings.TrimPrefix(actual, "."))
	if ct, ok := servedExtensions[f][actual]; ok {
		return actual, ct
	}
	return f.Extension(), f.ContentType()
}

// Quality is the requested maximum vertical resolution
type Quality string

const (
	QualityBest Quality = "best"
	Quality1080 Quality = "1080"
	Quality720  Quality = "720"
	Quality480  Quality = "480"
	Quality360  Quality = "360"
)

// Height returns the pixel height cap, or 0 for QualityBest
func (q Quality) Height() int {
	if q == QualityBest {
		return 0
	}
	h, err := strconv.Atoi(string(q))
	if err != nil {
		return 0
	}
	return h
}

// ParseFormatKind parses a format string. Empty input means video.
func ParseFormatKind(s string) (FormatKind, error) {
	switch FormatKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatVideo:
		return FormatVideo, nil
	case FormatAudio:
		return FormatAudio, nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid format: %s", s))
}

// ParseQuality parses a quality string. Accepts "720" and "720p"; empty input means best.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "p"))
	switch q {
	case "", QualityBest:
		return QualityBest, nil
	case Quality1080, Quality720, Quality480, Quality360:
		return q, nil
	}
	return "", NewValidationError(fmt.Sprintf("invalid quality: %s", s))
}

// DownloadRequest is one client request for media. It is never mutated after construction.
type DownloadRequest struct {
	URL     string
	Format  FormatKind
	Quality Quality
}

// NewDownloadRequest builds a request from raw client input
func NewDownloadRequest(url, format, quality string) (DownloadRequest, error) {
	f, err := ParseFormatKind(format)
	if err != nil {
		return DownloadRequest{}, err
	}
	q, err := ParseQuality(quality)
	if err != nil {
		return DownloadRequest{}, err
	}
	return DownloadRequest{
		URL:     strings.TrimSpace(url),
		Format:  f,
		Quality: q,
	}, nil
}
