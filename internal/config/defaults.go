package config

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "prod",
		Server: ServerConfig{
			Port: 4310,
			Host: "localhost",
		},
		Upstream: UpstreamConfig{
			URL:     "http://localhost:8000",
			Timeout: "30s",
		},
		Refresh: RefreshConfig{
			Interval: "5m",
		},
		Session: SessionConfig{
			Path:         "./data/session",
			PollInterval: "15s",
		},
		Export: ExportConfig{
			OutputDir: "./exports",
			Timeout:   "60s",
		},
		Audit: AuditConfig{
			Path: "./data/audit.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Outputs:    []string{"console", "file"},
			FilePath:   "./logs/wssi-deck.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}
