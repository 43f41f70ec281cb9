package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.Equal(t, 10000, config.Server.Port)
	assert.Zero(t, config.Server.RateLimit)
	assert.Equal(t, 30*time.Minute, config.Staging.RetentionWindow)
	assert.Equal(t, 30*time.Minute, config.Staging.SweepInterval)
	assert.Equal(t, 5*time.Second, config.Staging.DeletionGrace)
	assert.Equal(t, int64(200_000_000), config.Limits.MaxVideoBytes)
	assert.Equal(t, int64(100_000_000), config.Limits.MaxAudioBytes)
	assert.Equal(t, 30*time.Second, config.Limits.ProbeTimeout)
	assert.Equal(t, 120*time.Second, config.Limits.DownloadTimeout)
	assert.Equal(t, "extractor", config.Fetch.Backend)
	assert.False(t, config.Fetch.InsecureSkipVerify)
	assert.Equal(t, "yt-dlp", config.Extractor.Binary)
	assert.Equal(t, DefaultHistoryDatabase, config.History.DatabasePath)
	assert.Equal(t, "info", config.Logging.Level)
}

func TestLimitsConfig_CeilingFor(t *testing.T) {
	limits := DefaultConfig().Limits

	assert.Equal(t, limits.MaxVideoBytes, limits.CeilingFor(FormatVideo))
	assert.Equal(t, limits.MaxAudioBytes, limits.CeilingFor(FormatAudio))
}
