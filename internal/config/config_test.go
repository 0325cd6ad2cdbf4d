package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 4310 {
		t.Errorf("expected default port 4310, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
	if cfg.Upstream.URL != "http://localhost:8000" {
		t.Errorf("expected default upstream URL http://localhost:8000, got %s", cfg.Upstream.URL)
	}
	if cfg.Session.Path != "./data/session" {
		t.Errorf("expected default session path ./data/session, got %s", cfg.Session.Path)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFiles_NoFiles(t *testing.T) {
	cfg, err := LoadFromFiles()
	if err != nil {
		t.Fatalf("LoadFromFiles with no files should not error: %v", err)
	}
	if cfg.Server.Port != 4310 {
		t.Errorf("expected default port 4310, got %d", cfg.Server.Port)
	}
}

func TestLoadFromFiles_ValidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[server]
port = 9090
host = "0.0.0.0"

[upstream]
url = "http://wssi-api:8000"
api_key = "file-key"
timeout = "10s"

[session]
path = "/tmp/test-session"

[logging]
level = "debug"
format = "json"
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Server.Host)
	}
	if cfg.Upstream.URL != "http://wssi-api:8000" {
		t.Errorf("expected upstream URL http://wssi-api:8000, got %s", cfg.Upstream.URL)
	}
	if cfg.Upstream.APIKey != "file-key" {
		t.Errorf("expected upstream key file-key, got %s", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.GetTimeout() != 10*time.Second {
		t.Errorf("expected upstream timeout 10s, got %v", cfg.Upstream.GetTimeout())
	}
	if cfg.Session.Path != "/tmp/test-session" {
		t.Errorf("expected session path /tmp/test-session, got %s", cfg.Session.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFiles_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "partial.toml")

	// Only override port; everything else should stay default
	content := `
[server]
port = 3000
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("expected port 3000, got %d", cfg.Server.Port)
	}
	// Host should remain the default
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
}

func TestLoadFromFiles_MultipleFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.toml")
	baseContent := `
[server]
port = 3000
host = "base-host"
`
	if err := os.WriteFile(base, []byte(baseContent), 0644); err != nil {
		t.Fatal(err)
	}

	override := filepath.Join(dir, "override.toml")
	overrideContent := `
[server]
port = 4000
`
	if err := os.WriteFile(override, []byte(overrideContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(base, override)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	// Port should be overridden by the second file
	if cfg.Server.Port != 4000 {
		t.Errorf("expected port 4000 from override, got %d", cfg.Server.Port)
	}
	// Host should come from the base file
	if cfg.Server.Host != "base-host" {
		t.Errorf("expected host base-host from base file, got %s", cfg.Server.Host)
	}
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/path.toml")
	if err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestLoadFromFiles_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "invalid.toml")

	if err := os.WriteFile(tomlPath, []byte("this is not valid {{toml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromFiles(tomlPath)
	if err == nil {
		t.Error("expected error for invalid TOML, got nil")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("WSSI_SERVER_PORT", "9999")
	t.Setenv("WSSI_SERVER_HOST", "env-host")
	t.Setenv("WSSI_API_URL", "http://env-api:8000")
	t.Setenv("WSSI_API_KEY", "env-key")
	t.Setenv("WSSI_SESSION_PATH", "/env/session")
	t.Setenv("WSSI_LOG_LEVEL", "error")

	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9999 {
		t.Errorf("expected env port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "env-host" {
		t.Errorf("expected env host env-host, got %s", cfg.Server.Host)
	}
	if cfg.Upstream.URL != "http://env-api:8000" {
		t.Errorf("expected env upstream URL http://env-api:8000, got %s", cfg.Upstream.URL)
	}
	if cfg.Upstream.APIKey != "env-key" {
		t.Errorf("expected env upstream key env-key, got %s", cfg.Upstream.APIKey)
	}
	if cfg.Session.Path != "/env/session" {
		t.Errorf("expected env session path /env/session, got %s", cfg.Session.Path)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("expected env log level error, got %s", cfg.Logging.Level)
	}
}

func TestApplyEnvOverrides_InvalidPort(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Setenv("WSSI_SERVER_PORT", "not-a-number")

	applyEnvOverrides(cfg)

	// Port should remain default when env var is not a valid integer
	if cfg.Server.Port != 4310 {
		t.Errorf("expected default port 4310 for invalid env, got %d", cfg.Server.Port)
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 7777, "flag-host")

	if cfg.Server.Port != 7777 {
		t.Errorf("expected flag port 7777, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "flag-host" {
		t.Errorf("expected flag host flag-host, got %s", cfg.Server.Host)
	}
}

func TestApplyFlagOverrides_ZeroPortNoOverride(t *testing.T) {
	cfg := NewDefaultConfig()

	ApplyFlagOverrides(cfg, 0, "")

	// No override when port is 0 and host is empty
	if cfg.Server.Port != 4310 {
		t.Errorf("expected default port 4310, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("expected default host localhost, got %s", cfg.Server.Host)
	}
}

func TestEnvOverridesFileConfig(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "test.toml")

	content := `
[server]
port = 3000
`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WSSI_SERVER_PORT", "5555")

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	// Env should override file value
	if cfg.Server.Port != 5555 {
		t.Errorf("expected env override port 5555, got %d", cfg.Server.Port)
	}
}

func TestValidate_MissingUpstreamURL(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Upstream.URL = ""

	issues := cfg.Validate()
	if len(issues) == 0 {
		t.Fatal("expected validation issue for empty upstream URL")
	}
}

func TestValidate_PortOutOfRange(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.Port = 99999

	issues := cfg.Validate()
	if len(issues) == 0 {
		t.Fatal("expected validation issue for out-of-range port")
	}
}

func TestValidate_DefaultsPass(t *testing.T) {
	cfg := NewDefaultConfig()

	if issues := cfg.Validate(); len(issues) != 0 {
		t.Errorf("expected default config to validate, got issues: %v", issues)
	}
}

func TestIsDevMode(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.IsDevMode() {
		t.Error("default environment should not be dev mode")
	}

	cfg.Environment = "dev"
	if !cfg.IsDevMode() {
		t.Error("expected dev mode for environment=dev")
	}
}

func TestNormalizeEnvironment_Aliases(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "env.toml")

	content := `environment = "development"`
	if err := os.WriteFile(tomlPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFiles(tomlPath)
	if err != nil {
		t.Fatalf("LoadFromFiles failed: %v", err)
	}

	if cfg.Environment != "dev" {
		t.Errorf("expected environment normalized to dev, got %s", cfg.Environment)
	}
	if !cfg.IsDevMode() {
		t.Error("expected dev mode after normalization")
	}
}

func TestBaseURL_WildcardHost(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 4310

	if got := cfg.BaseURL(); got != "http://localhost:4310" {
		t.Errorf("expected http://localhost:4310 for wildcard host, got %s", got)
	}
}

func TestGetInterval_Invalid(t *testing.T) {
	c := RefreshConfig{Interval: "bogus"}
	if c.GetInterval() != 5*time.Minute {
		t.Errorf("expected fallback interval 5m, got %v", c.GetInterval())
	}
}
