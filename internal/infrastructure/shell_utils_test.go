package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "/tmp/staging/youtube_20240101_120000_a1b2c3d4e5f6", "/tmp/staging/youtube_20240101_120000_a1b2c3d4e5f6"},
		{"empty", "", "''"},
		{"spaces", "/tmp/path with spaces", "'/tmp/path with spaces'"},
		{"output template", "/tmp/base.%(ext)s", "'/tmp/base.%(ext)s'"},
		{"format selector", "best[height<=720][ext=mp4]/best", "'best[height<=720][ext=mp4]/best'"},
		{"dollar", "/tmp/$HOME", "'/tmp/$HOME'"},
		{"single quote", "/tmp/it's a test", `'/tmp/it'"'"'s a test'`},
		{"query string", "https://youtube.com/watch?v=1&t=2", "'https://youtube.com/watch?v=1&t=2'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	got := ShellEscapeCommand("yt-dlp", "--no-playlist", "-o", "/tmp/my staging/x.%(ext)s", "-f", "bestaudio/best")
	assert.Equal(t, "yt-dlp --no-playlist -o '/tmp/my staging/x.%(ext)s' -f bestaudio/best", got)

	assert.Equal(t, "'/opt/my tools/yt-dlp' --version", ShellEscapeCommand("/opt/my tools/yt-dlp", "--version"))
}
