package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"racing-telemetry/ingestion/internal/domain"
)

const (
	// DefaultUDPPort is where the game broadcasts telemetry unless told otherwise.
	DefaultUDPPort = 20777

	// DefaultMaxBatchBytes matches the 1MB per-batch limit of common stream brokers.
	DefaultMaxBatchBytes = 1 << 20
)

type Config struct {
	// Delivery
	ConnectionString string
	MaxBatchBytes    int
	StreamMaxLen     int64
	PayloadEncoding  string
	ConnectTimeout   time.Duration
	SendTimeout      time.Duration

	// Ingest
	UDPAddr          string
	UDPPort          int
	ForwardAddresses []string
	LaneCapacity     int

	// Admin HTTP
	HTTPPort     string
	AdminAPIKeys []string

	// Logging
	LogLevel  string
	LogFormat string

	EnvFile string
}

func Default() Config {
	return Config{
		MaxBatchBytes:   DefaultMaxBatchBytes,
		StreamMaxLen:    100000,
		PayloadEncoding: "json",
		ConnectTimeout:  5 * time.Second,
		SendTimeout:     5 * time.Second,
		UDPAddr:         "0.0.0.0",
		UDPPort:         DefaultUDPPort,
		LaneCapacity:    4096,
		HTTPPort:        "8001",
		LogLevel:        "info",
		LogFormat:       "console",
		EnvFile:         ".env",
	}
}

// Load layers the TOML file at path (if any), the env file, and the process
// environment over cfg. Fields whose flag is in changed keep their flag value.
func Load(cfg *Config, path string, changed map[string]bool) error {
	if path != "" {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return fmt.Errorf("%w: load config: %v", domain.ErrConfiguration, err)
		}
		if err := ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := LoadEnvFile(cfg.EnvFile); err != nil {
		return err
	}
	if err := ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}
	return cfg.Validate()
}

// Validate reports the first missing or out-of-range setting as ErrConfiguration.
func (c *Config) Validate() error {
	if c.ConnectionString == "" {
		return fmt.Errorf("%w: no stream connection string specified (STREAM_CONNECTION_STRING)", domain.ErrConfiguration)
	}
	if c.UDPPort <= 0 || c.UDPPort > 65535 {
		return fmt.Errorf("%w: udp port %d out of range", domain.ErrConfiguration, c.UDPPort)
	}
	if c.MaxBatchBytes <= 0 {
		return fmt.Errorf("%w: max batch bytes must be positive", domain.ErrConfiguration)
	}
	if c.StreamMaxLen < 0 {
		return fmt.Errorf("%w: stream max len must not be negative", domain.ErrConfiguration)
	}
	switch c.PayloadEncoding {
	case "json", "msgpack":
	default:
		return fmt.Errorf("%w: payload encoding %q (want json or msgpack)", domain.ErrConfiguration, c.PayloadEncoding)
	}
	if c.ConnectTimeout <= 0 || c.SendTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", domain.ErrConfiguration)
	}
	if c.LaneCapacity <= 0 {
		return fmt.Errorf("%w: lane capacity must be positive", domain.ErrConfiguration)
	}
	for _, addr := range c.ForwardAddresses {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%w: forward address %q: %v", domain.ErrConfiguration, addr, err)
		}
	}
	return nil
}

// HTTPEnabled reports whether the admin listener should start.
func (c *Config) HTTPEnabled() bool {
	return c.HTTPPort != "" && c.HTTPPort != "0"
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err != nil || u.Host == "" {
			c.ConnectionString = "*****"
		} else {
			// query strings may carry a password too
			u.RawQuery = ""
			c.ConnectionString = u.Redacted()
		}
	}
	if len(c.AdminAPIKeys) > 0 {
		c.AdminAPIKeys = []string{fmt.Sprintf("(%d keys)", len(c.AdminAPIKeys))}
	}
	return c
}
