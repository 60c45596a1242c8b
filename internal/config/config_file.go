package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"racing-telemetry/ingestion/internal/domain"
)

// FileConfig mirrors Config with string durations for TOML.
type FileConfig struct {
	ConnectionString string   `toml:"connection_string"`
	MaxBatchBytes    int      `toml:"max_batch_bytes"`
	StreamMaxLen     *int64   `toml:"stream_max_len"`
	PayloadEncoding  string   `toml:"payload_encoding"`
	ConnectTimeout   string   `toml:"connect_timeout"`
	SendTimeout      string   `toml:"send_timeout"`
	UDPAddr          string   `toml:"udp_addr"`
	UDPPort          int      `toml:"udp_port"`
	ForwardAddresses []string `toml:"forward_addresses"`
	LaneCapacity     int      `toml:"lane_capacity"`
	HTTPPort         string   `toml:"http_port"`
	AdminAPIKeys     []string `toml:"admin_api_keys"`
	LogLevel         string   `toml:"log_level"`
	LogFormat        string   `toml:"log_format"`
	EnvFile          string   `toml:"env_file"`
}

func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// ApplyFileConfig copies set values from fc into cfg, skipping changed flags.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("connection-string", fc.ConnectionString, &cfg.ConnectionString)
	s.setInt("max-batch-bytes", fc.MaxBatchBytes, &cfg.MaxBatchBytes)
	s.setInt64("stream-max-len", fc.StreamMaxLen, &cfg.StreamMaxLen)
	s.setString("encoding", fc.PayloadEncoding, &cfg.PayloadEncoding)
	if err := s.parseDuration("connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.parseDuration("send-timeout", fc.SendTimeout, &cfg.SendTimeout); err != nil {
		return err
	}
	s.setString("udp-addr", fc.UDPAddr, &cfg.UDPAddr)
	s.setInt("port", fc.UDPPort, &cfg.UDPPort)
	s.setStrings("forward", fc.ForwardAddresses, &cfg.ForwardAddresses)
	s.setInt("lane-capacity", fc.LaneCapacity, &cfg.LaneCapacity)
	s.setString("http-port", fc.HTTPPort, &cfg.HTTPPort)
	s.setStrings("admin-api-keys", fc.AdminAPIKeys, &cfg.AdminAPIKeys)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("env-file", fc.EnvFile, &cfg.EnvFile)

	return nil
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is ignored.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: env file %s: %v", domain.ErrConfiguration, path, err)
	}
	return nil
}
