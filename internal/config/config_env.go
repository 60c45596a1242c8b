package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"racing-telemetry/ingestion/internal/domain"
)

// EnvConfig is the environment surface. Unset variables leave zero values,
// which ApplyEnvConfig treats as "not provided". StreamMaxLen is a pointer
// because 0 is a meaningful value.
type EnvConfig struct {
	ConnectionString string        `env:"STREAM_CONNECTION_STRING"`
	MaxBatchBytes    int           `env:"MAX_BATCH_BYTES"`
	StreamMaxLen     *int64        `env:"STREAM_MAX_LEN"`
	PayloadEncoding  string        `env:"PAYLOAD_ENCODING"`
	ConnectTimeout   time.Duration `env:"CONNECT_TIMEOUT"`
	SendTimeout      time.Duration `env:"SEND_TIMEOUT"`
	UDPAddr          string        `env:"UDP_ADDR"`
	UDPPort          int           `env:"UDP_PORT"`
	ForwardAddresses []string      `env:"FORWARD_ADDRESSES" envSeparator:","`
	LaneCapacity     int           `env:"LANE_CAPACITY"`
	HTTPPort         string        `env:"HTTP_PORT"`
	AdminAPIKeys     []string      `env:"ADMIN_API_KEYS" envSeparator:","`
	LogLevel         string        `env:"LOG_LEVEL"`
	LogFormat        string        `env:"LOG_FORMAT"`
}

// ApplyEnvConfig overlays environment variables on cfg, skipping changed flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	var ec EnvConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("%w: parse env: %v", domain.ErrConfiguration, err)
	}

	s := newConfigSetter(changed)
	s.setString("connection-string", ec.ConnectionString, &cfg.ConnectionString)
	s.setInt("max-batch-bytes", ec.MaxBatchBytes, &cfg.MaxBatchBytes)
	s.setInt64("stream-max-len", ec.StreamMaxLen, &cfg.StreamMaxLen)
	s.setString("encoding", ec.PayloadEncoding, &cfg.PayloadEncoding)
	s.setDuration("connect-timeout", ec.ConnectTimeout, &cfg.ConnectTimeout)
	s.setDuration("send-timeout", ec.SendTimeout, &cfg.SendTimeout)
	s.setString("udp-addr", ec.UDPAddr, &cfg.UDPAddr)
	s.setInt("port", ec.UDPPort, &cfg.UDPPort)
	s.setStrings("forward", ec.ForwardAddresses, &cfg.ForwardAddresses)
	s.setInt("lane-capacity", ec.LaneCapacity, &cfg.LaneCapacity)
	s.setString("http-port", ec.HTTPPort, &cfg.HTTPPort)
	s.setStrings("admin-api-keys", ec.AdminAPIKeys, &cfg.AdminAPIKeys)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)
	s.setString("log-format", ec.LogFormat, &cfg.LogFormat)

	return nil
}
