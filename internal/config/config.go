package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Upstream    UpstreamConfig `toml:"upstream"`
	Refresh     RefreshConfig  `toml:"refresh"`
	Session     SessionConfig  `toml:"session"`
	Export      ExportConfig   `toml:"export"`
	Audit       AuditConfig    `toml:"audit"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// UpstreamConfig contains WSSI API settings.
// The API key here is the lowest-priority fallback; the session store
// and WSSI_API_KEY env take precedence at runtime.
type UpstreamConfig struct {
	URL     string `toml:"url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the upstream request timeout.
func (c *UpstreamConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// RefreshConfig contains aggregation refresh loop settings.
type RefreshConfig struct {
	Interval string `toml:"interval"`
}

// GetInterval parses and returns the automatic refresh interval.
func (c *RefreshConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// SessionConfig contains session store (BadgerDB) settings.
type SessionConfig struct {
	Path         string `toml:"path"`
	PollInterval string `toml:"poll_interval"`
}

// GetPollInterval parses and returns the tier-state poll interval.
func (c *SessionConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// ExportConfig contains brief export settings.
type ExportConfig struct {
	OutputDir string `toml:"output_dir"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the PDF conversion timeout.
func (c *ExportConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// AuditConfig contains export audit log (SQLite) settings.
type AuditConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	config.Environment = normalizeEnvironment(config.Environment)

	return config, nil
}

// applyEnvOverrides applies WSSI_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("WSSI_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("WSSI_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("WSSI_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if url := os.Getenv("WSSI_API_URL"); url != "" {
		config.Upstream.URL = url
	}
	if key := os.Getenv("WSSI_API_KEY"); key != "" {
		config.Upstream.APIKey = key
	}
	if interval := os.Getenv("WSSI_REFRESH_INTERVAL"); interval != "" {
		config.Refresh.Interval = interval
	}
	if path := os.Getenv("WSSI_SESSION_PATH"); path != "" {
		config.Session.Path = path
	}
	if dir := os.Getenv("WSSI_EXPORT_DIR"); dir != "" {
		config.Export.OutputDir = dir
	}
	if path := os.Getenv("WSSI_AUDIT_PATH"); path != "" {
		config.Audit.Path = path
	}
	if level := os.Getenv("WSSI_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("WSSI_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks mandatory fields and returns a list of human-readable
// issues. An empty list means the config is usable.
func (c *Config) Validate() []string {
	var issues []string
	if c.Upstream.URL == "" {
		issues = append(issues, "upstream.url is required (the WSSI API base URL)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port %d is out of range (1-65535)", c.Server.Port))
	}
	if c.Session.Path == "" {
		issues = append(issues, "session.path is required (BadgerDB directory for tier state)")
	}
	return issues
}

// IsDevMode returns true when the environment is dev.
// The environment value is normalized at load time ("development" -> "dev").
func (c *Config) IsDevMode() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "dev"
}

// BaseURL returns the deck's own base URL for links and tool output.
func (c *Config) BaseURL() string {
	host := c.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, c.Server.Port)
}

// normalizeEnvironment maps environment aliases to their canonical short forms.
// "development" -> "dev", "production" -> "prod". All other values pass through unchanged.
func normalizeEnvironment(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development":
		return "dev"
	case "production":
		return "prod"
	default:
		return env
	}
}
