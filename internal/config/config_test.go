package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"racing-telemetry/ingestion/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.UDPPort != 20777 {
		t.Errorf("UDPPort = %d, want 20777", cfg.UDPPort)
	}
	if cfg.MaxBatchBytes != 1048576 {
		t.Errorf("MaxBatchBytes = %d, want 1048576", cfg.MaxBatchBytes)
	}
	if err := cfg.Validate(); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("Validate() without connection string = %v, want ErrConfiguration", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(c *Config) {}, true},
		{"missing connection string", func(c *Config) { c.ConnectionString = "" }, false},
		{"port zero", func(c *Config) { c.UDPPort = 0 }, false},
		{"port too large", func(c *Config) { c.UDPPort = 70000 }, false},
		{"zero batch", func(c *Config) { c.MaxBatchBytes = 0 }, false},
		{"negative max len", func(c *Config) { c.StreamMaxLen = -1 }, false},
		{"unknown encoding", func(c *Config) { c.PayloadEncoding = "protobuf" }, false},
		{"msgpack", func(c *Config) { c.PayloadEncoding = "msgpack" }, true},
		{"zero send timeout", func(c *Config) { c.SendTimeout = 0 }, false},
		{"zero lane capacity", func(c *Config) { c.LaneCapacity = 0 }, false},
		{"bad forward address", func(c *Config) { c.ForwardAddresses = []string{"localhost"} }, false},
		{"forward address", func(c *Config) { c.ForwardAddresses = []string{"127.0.0.1:20778"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.ConnectionString = "redis://localhost:6379/0"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("Validate() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestApplyFileConfig(t *testing.T) {
	path := writeFile(t, "ingestion.toml", `
connection_string = "redis://cache:6379/2"
udp_port = 20800
max_batch_bytes = 262144
payload_encoding = "msgpack"
connect_timeout = "2s"
forward_addresses = ["127.0.0.1:20778", " "]
log_level = "debug"
`)

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}

	cfg := Default()
	cfg.UDPPort = 30000
	if err := ApplyFileConfig(&cfg, fc, map[string]bool{"port": true}); err != nil {
		t.Fatalf("ApplyFileConfig: %v", err)
	}

	if cfg.ConnectionString != "redis://cache:6379/2" {
		t.Errorf("ConnectionString = %s", cfg.ConnectionString)
	}
	if cfg.UDPPort != 30000 {
		t.Errorf("UDPPort = %d, want flag value 30000", cfg.UDPPort)
	}
	if cfg.MaxBatchBytes != 262144 {
		t.Errorf("MaxBatchBytes = %d, want 262144", cfg.MaxBatchBytes)
	}
	if cfg.PayloadEncoding != "msgpack" {
		t.Errorf("PayloadEncoding = %s, want msgpack", cfg.PayloadEncoding)
	}
	if cfg.ConnectTimeout != 2*time.Second {
		t.Errorf("ConnectTimeout = %v, want 2s", cfg.ConnectTimeout)
	}
	if cfg.SendTimeout != 5*time.Second {
		t.Errorf("SendTimeout = %v, want default 5s", cfg.SendTimeout)
	}
	if len(cfg.ForwardAddresses) != 1 || cfg.ForwardAddresses[0] != "127.0.0.1:20778" {
		t.Errorf("ForwardAddresses = %v", cfg.ForwardAddresses)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
}

func TestApplyFileConfig_BadDuration(t *testing.T) {
	cfg := Default()
	err := ApplyFileConfig(&cfg, FileConfig{SendTimeout: "soon"}, map[string]bool{})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestLoadFileConfig_InvalidTOML(t *testing.T) {
	path := writeFile(t, "bad.toml", "udp_port = \nthis is not toml")
	if _, err := LoadFileConfig(path); err == nil {
		t.Error("LoadFileConfig() expected error for invalid TOML")
	}
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFileConfig() expected error for missing file")
	}
}

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("STREAM_CONNECTION_STRING", "postgres://racer:pw@db:5432/telemetry")
	t.Setenv("UDP_PORT", "20999")
	t.Setenv("SEND_TIMEOUT", "750ms")
	t.Setenv("FORWARD_ADDRESSES", "127.0.0.1:1,127.0.0.1:2")
	t.Setenv("ADMIN_API_KEYS", "k1,k2")
	t.Setenv("LOG_FORMAT", "json")

	cfg := Default()
	cfg.LogFormat = "console"
	if err := ApplyEnvConfig(&cfg, map[string]bool{"log-format": true}); err != nil {
		t.Fatalf("ApplyEnvConfig: %v", err)
	}

	if cfg.ConnectionString != "postgres://racer:pw@db:5432/telemetry" {
		t.Errorf("ConnectionString = %s", cfg.ConnectionString)
	}
	if cfg.UDPPort != 20999 {
		t.Errorf("UDPPort = %d, want 20999", cfg.UDPPort)
	}
	if cfg.SendTimeout != 750*time.Millisecond {
		t.Errorf("SendTimeout = %v, want 750ms", cfg.SendTimeout)
	}
	if len(cfg.ForwardAddresses) != 2 {
		t.Errorf("ForwardAddresses = %v", cfg.ForwardAddresses)
	}
	if len(cfg.AdminAPIKeys) != 2 || cfg.AdminAPIKeys[1] != "k2" {
		t.Errorf("AdminAPIKeys = %v", cfg.AdminAPIKeys)
	}
	if cfg.LogFormat != "console" {
		t.Errorf("LogFormat = %s, want flag value console", cfg.LogFormat)
	}
}

func TestApplyEnvConfig_InvalidNumber(t *testing.T) {
	t.Setenv("UDP_PORT", "not-a-port")
	cfg := Default()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestApplyEnvConfig_ZeroStreamMaxLen(t *testing.T) {
	t.Setenv("STREAM_MAX_LEN", "0")

	cfg := Default()
	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig: %v", err)
	}
	if cfg.StreamMaxLen != 0 {
		t.Errorf("StreamMaxLen = %d, want 0 (trimming disabled)", cfg.StreamMaxLen)
	}
}

func TestApplyFileConfig_StreamMaxLen(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int64
	}{
		{"zero disables trimming", "stream_max_len = 0\n", 0},
		{"explicit cap", "stream_max_len = 250\n", 250},
		{"absent keeps default", "udp_port = 20777\n", 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := LoadFileConfig(writeFile(t, "ingestion.toml", tt.content))
			if err != nil {
				t.Fatalf("LoadFileConfig: %v", err)
			}
			cfg := Default()
			if err := ApplyFileConfig(&cfg, fc, map[string]bool{}); err != nil {
				t.Fatalf("ApplyFileConfig: %v", err)
			}
			if cfg.StreamMaxLen != tt.want {
				t.Errorf("StreamMaxLen = %d, want %d", cfg.StreamMaxLen, tt.want)
			}
		})
	}
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "ingestion.toml", `
connection_string = "redis://from-file:6379/0"
udp_port = 21000
stream_max_len = 500
`)
	envFile := writeFile(t, ".env", "STREAM_CONNECTION_STRING=redis://from-dotenv:6379/0\nSTREAM_MAX_LEN=900\n")
	t.Setenv("UDP_PORT", "22000")
	// godotenv populates the process environment; make sure t cleans it up.
	t.Setenv("STREAM_CONNECTION_STRING", "")
	os.Unsetenv("STREAM_CONNECTION_STRING")
	t.Setenv("STREAM_MAX_LEN", "")
	os.Unsetenv("STREAM_MAX_LEN")

	cfg := Default()
	cfg.EnvFile = envFile
	if err := Load(&cfg, file, map[string]bool{}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ConnectionString != "redis://from-dotenv:6379/0" {
		t.Errorf("ConnectionString = %s, want env file value", cfg.ConnectionString)
	}
	if cfg.UDPPort != 22000 {
		t.Errorf("UDPPort = %d, want env value 22000", cfg.UDPPort)
	}
	if cfg.StreamMaxLen != 900 {
		t.Errorf("StreamMaxLen = %d, want 900", cfg.StreamMaxLen)
	}
}

func TestLoad_MissingConnectionString(t *testing.T) {
	t.Setenv("STREAM_CONNECTION_STRING", "")
	os.Unsetenv("STREAM_CONNECTION_STRING")

	cfg := Default()
	cfg.EnvFile = filepath.Join(t.TempDir(), "absent.env")
	err := Load(&cfg, "", map[string]bool{})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("Load error = %v, want ErrConfiguration", err)
	}
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.ConnectionString = "redis://:hunter2@cache:6379/0?password=hunter2"
	cfg.AdminAPIKeys = []string{"secret-key"}

	m := cfg.Masked()
	if strings.Contains(m.ConnectionString, "hunter2") {
		t.Errorf("masked connection string leaks password: %s", m.ConnectionString)
	}
	if !strings.Contains(m.ConnectionString, "cache:6379") {
		t.Errorf("masked connection string lost host: %s", m.ConnectionString)
	}
	if strings.Contains(strings.Join(m.AdminAPIKeys, ","), "secret-key") {
		t.Errorf("masked api keys leak: %v", m.AdminAPIKeys)
	}
	if cfg.ConnectionString == m.ConnectionString {
		t.Error("Masked modified the original")
	}
}

func TestHTTPEnabled(t *testing.T) {
	for port, want := range map[string]bool{"8001": true, "": false, "0": false} {
		cfg := Config{HTTPPort: port}
		if got := cfg.HTTPEnabled(); got != want {
			t.Errorf("HTTPEnabled(%q) = %v, want %v", port, got, want)
		}
	}
}
