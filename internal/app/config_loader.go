package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/yourusername/vidgrab-go/internal/domain"
)

// EnvPrefix is the prefix for environment overrides, e.g. VIDGRAB_STAGING_DIR
const EnvPrefix = "VIDGRAB"

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.vidgrab")
		v.AddConfigPath("/etc/vidgrab")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Hosting platforms hand out the listen port as a bare PORT variable
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		config.Server.Port = p
	}

	config = expandPaths(config)

	if err := resolveSizes(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so AutomaticEnv can override it without a config file
func setDefaults(v *viper.Viper, c *domain.Config) {
	v.SetDefault("server.host", c.Server.Host)
	v.SetDefault("server.port", c.Server.Port)
	v.SetDefault("server.rate_limit", c.Server.RateLimit)
	v.SetDefault("server.rate_burst", c.Server.RateBurst)

	v.SetDefault("staging.dir", c.Staging.Dir)
	v.SetDefault("staging.max_total_size", c.Staging.MaxTotalSize)
	v.SetDefault("staging.retention_window", c.Staging.RetentionWindow)
	v.SetDefault("staging.sweep_interval", c.Staging.SweepInterval)
	v.SetDefault("staging.deletion_grace", c.Staging.DeletionGrace)

	v.SetDefault("limits.max_video_size", c.Limits.MaxVideoSize)
	v.SetDefault("limits.max_audio_size", c.Limits.MaxAudioSize)
	v.SetDefault("limits.probe_timeout", c.Limits.ProbeTimeout)
	v.SetDefault("limits.download_timeout", c.Limits.DownloadTimeout)

	v.SetDefault("fetch.backend", c.Fetch.Backend)
	v.SetDefault("fetch.user_agent", c.Fetch.UserAgent)
	v.SetDefault("fetch.insecure_skip_verify", c.Fetch.InsecureSkipVerify)

	v.SetDefault("extractor.binary", c.Extractor.Binary)
	v.SetDefault("extractor.cookie_file", c.Extractor.CookieFile)
	v.SetDefault("extractor.audio_format", c.Extractor.AudioFormat)
	v.SetDefault("extractor.extra_args", c.Extractor.ExtraArgs)

	v.SetDefault("remote.endpoint", c.Remote.Endpoint)
	v.SetDefault("remote.api_key", c.Remote.APIKey)

	v.SetDefault("history.enabled", c.History.Enabled)
	v.SetDefault("history.database_path", c.History.DatabasePath)
	v.SetDefault("history.retention", c.History.Retention)

	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.output_path", c.Logging.OutputPath)
	v.SetDefault("logging.dir", c.Logging.Dir)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Staging.Dir = expandPath(config.Staging.Dir)
	config.Logging.Dir = expandPath(config.Logging.Dir)
	config.Extractor.CookieFile = expandPath(config.Extractor.CookieFile)

	// sqlite URIs such as file::memory: are passed through untouched
	if !strings.HasPrefix(config.History.DatabasePath, "file:") {
		config.History.DatabasePath = expandPath(config.History.DatabasePath)
	}

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// resolveSizes parses the human readable size settings into byte counts
func resolveSizes(config *domain.Config) error {
	sizes := []struct {
		key   string
		value string
		dst   *int64
	}{
		{"staging.max_total_size", config.Staging.MaxTotalSize, &config.Staging.MaxTotalBytes},
		{"limits.max_video_size", config.Limits.MaxVideoSize, &config.Limits.MaxVideoBytes},
		{"limits.max_audio_size", config.Limits.MaxAudioSize, &config.Limits.MaxAudioBytes},
	}

	for _, s := range sizes {
		n, err := humanize.ParseBytes(s.value)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		if n == 0 {
			return fmt.Errorf("%s must be greater than zero", s.key)
		}
		*s.dst = int64(n)
	}
	return nil
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	if config.Fetch.Backend == "remote" && config.Remote.Endpoint == "" {
		return fmt.Errorf("remote.endpoint is required when fetch.backend is remote")
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history.database_path is required when history is enabled")
	}

	if config.Limits.MaxVideoBytes > config.Staging.MaxTotalBytes ||
		config.Limits.MaxAudioBytes > config.Staging.MaxTotalBytes {
		return fmt.Errorf("staging.max_total_size must be at least the largest per-file limit")
	}

	return nil
}
