package domain

import (
	"os"
	"path/filepath"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Staging   StagingConfig   `mapstructure:"staging"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Remote    RemoteConfig    `mapstructure:"remote"`
	History   HistoryConfig   `mapstructure:"history"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host      string  `mapstructure:"host"`
	Port      int     `mapstructure:"port" validate:"min=1,max=65535"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"` // requests per second, 0 disables
	RateBurst int     `mapstructure:"rate_burst" validate:"gte=0"`
}

// StagingConfig describes the shared staging directory and its retention policy
type StagingConfig struct {
	Dir             string        `mapstructure:"dir" validate:"required"`
	MaxTotalSize    string        `mapstructure:"max_total_size" validate:"required"`
	MaxTotalBytes   int64         `mapstructure:"-"`
	RetentionWindow time.Duration `mapstructure:"retention_window" validate:"gt=0"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	DeletionGrace   time.Duration `mapstructure:"deletion_grace" validate:"gte=0"`
}

// LimitsConfig bounds the size and duration of a single acquisition
type LimitsConfig struct {
	MaxVideoSize    string        `mapstructure:"max_video_size" validate:"required"`
	MaxAudioSize    string        `mapstructure:"max_audio_size" validate:"required"`
	MaxVideoBytes   int64         `mapstructure:"-"`
	MaxAudioBytes   int64         `mapstructure:"-"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout" validate:"gt=0"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout" validate:"gt=0"`
}

// CeilingFor returns the maximum allowed size in bytes for a format
func (l LimitsConfig) CeilingFor(format FormatKind) int64 {
	if format == FormatAudio {
		return l.MaxAudioBytes
	}
	return l.MaxVideoBytes
}

// FetchConfig selects the fetch backend and its outbound HTTP behaviour
type FetchConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=extractor remote direct"`
	UserAgent string `mapstructure:"user_agent" validate:"required"`
	// InsecureSkipVerify disables TLS certificate checks for every outbound
	// fetch. Only meant for hosts with broken certificate chains.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

// ExtractorConfig contains yt-dlp specific configuration
type ExtractorConfig struct {
	Binary      string   `mapstructure:"binary" validate:"required"`
	CookieFile  string   `mapstructure:"cookie_file"`
	AudioFormat string   `mapstructure:"audio_format" validate:"oneof=mp3 m4a opus"`
	ExtraArgs   []string `mapstructure:"extra_args"`
}

// RemoteConfig contains configuration for the remote conversion API backend
type RemoteConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
}

// HistoryConfig controls the acquisition journal
type HistoryConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	DatabasePath string        `mapstructure:"database_path"`
	Retention    time.Duration `mapstructure:"retention" validate:"gt=0"` // rows older than this are pruned by the reaper
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	Dir        string `mapstructure:"dir" validate:"required"`
}

const (
	DefaultPort             = 10000
	DefaultHistoryDatabase  = "file::memory:?cache=shared"
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultMaxVideoBytes    = 200_000_000
	defaultMaxAudioBytes    = 100_000_000
	defaultMaxTotalBytes    = 2_000_000_000
	defaultRetentionWindow  = 30 * time.Minute
	defaultDeletionGrace    = 5 * time.Second
	defaultProbeTimeout     = 30 * time.Second
	defaultDownloadTimeout  = 120 * time.Second
	defaultHistoryRetention = 24 * time.Hour
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	base := filepath.Join(os.TempDir(), "vidgrab")
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      DefaultPort,
			RateLimit: 0,
			RateBurst: 5,
		},
		Staging: StagingConfig{
			Dir:             filepath.Join(base, "staging"),
			MaxTotalSize:    "2GB",
			MaxTotalBytes:   defaultMaxTotalBytes,
			RetentionWindow: defaultRetentionWindow,
			SweepInterval:   defaultRetentionWindow,
			DeletionGrace:   defaultDeletionGrace,
		},
		Limits: LimitsConfig{
			MaxVideoSize:    "200MB",
			MaxAudioSize:    "100MB",
			MaxVideoBytes:   defaultMaxVideoBytes,
			MaxAudioBytes:   defaultMaxAudioBytes,
			ProbeTimeout:    defaultProbeTimeout,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Fetch: FetchConfig{
			Backend:   "extractor",
			UserAgent: DefaultUserAgent,
		},
		Extractor: ExtractorConfig{
			Binary:      "yt-dlp",
			AudioFormat: "mp3",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: DefaultHistoryDatabase,
			Retention:    defaultHistoryRetention,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			Dir:        filepath.Join(base, "logs"),
		},
	}
}
