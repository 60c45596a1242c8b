package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"racing-telemetry/ingestion/internal/domain"
	"racing-telemetry/ingestion/internal/pipeline"
)

// Settings are shared by every producer the dialer builds.
type Settings struct {
	ConnectionString string
	MaxBatchBytes    int
	StreamMaxLen     int64
	ConnectTimeout   time.Duration
	SendTimeout      time.Duration
	ContentType      string
}

// Dialer parses the connection string once and builds one producer per destination.
type Dialer struct {
	settings Settings
	backend  string

	redisOpts *redis.Options
	pgConfig  *pgxpool.Config
}

const (
	BackendRedis     = "redis"
	BackendTimescale = "timescale"
)

func NewDialer(s Settings) (*Dialer, error) {
	if s.ConnectionString == "" {
		return nil, fmt.Errorf("%w: connection string is required", domain.ErrConfiguration)
	}

	u, err := url.Parse(s.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: parse connection string: %v", domain.ErrConfiguration, err)
	}

	d := &Dialer{settings: s}
	switch strings.ToLower(u.Scheme) {
	case "redis", "rediss":
		opts, err := redis.ParseURL(s.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%w: redis url: %v", domain.ErrConfiguration, err)
		}
		if s.ConnectTimeout > 0 {
			opts.DialTimeout = s.ConnectTimeout
		}
		if s.SendTimeout > 0 {
			opts.ReadTimeout = s.SendTimeout
			opts.WriteTimeout = s.SendTimeout
		}
		d.backend = BackendRedis
		d.redisOpts = opts

	case "postgres", "postgresql":
		cfg, err := pgxpool.ParseConfig(s.ConnectionString)
		if err != nil {
			return nil, fmt.Errorf("%w: postgres url: %v", domain.ErrConfiguration, err)
		}
		if s.ConnectTimeout > 0 {
			cfg.ConnConfig.ConnectTimeout = s.ConnectTimeout
		}
		d.backend = BackendTimescale
		d.pgConfig = cfg

	default:
		return nil, fmt.Errorf("%w: %w: %q", domain.ErrConfiguration, domain.ErrUnsupportedScheme, u.Scheme)
	}

	return d, nil
}

// Backend names the transport selected by the connection string scheme.
func (d *Dialer) Backend() string {
	return d.backend
}

// Dial builds a producer bound to destination. It satisfies pipeline.Connector.
func (d *Dialer) Dial(ctx context.Context, destination string) (pipeline.Producer, error) {
	switch d.backend {
	case BackendRedis:
		opts := *d.redisOpts
		p, err := NewRedisStreamProducer(ctx, &opts, destination, d.settings)
		if err != nil {
			return nil, err
		}
		return p, nil
	case BackendTimescale:
		p, err := NewTimescaleProducer(ctx, d.pgConfig.Copy(), destination, d.settings)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedScheme, d.backend)
	}
}
