package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"racing-telemetry/ingestion/internal/domain"
)

// RedisStreamProducer appends batches to one Redis stream, one entry per event.
type RedisStreamProducer struct {
	client        *redis.Client
	stream        string
	maxLen        int64
	maxBatchBytes int
	sendTimeout   time.Duration
	contentType   string

	// serializes sends so entries keep submission order
	mu sync.Mutex
}

func NewRedisStreamProducer(ctx context.Context, opts *redis.Options, stream string, s Settings) (*RedisStreamProducer, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := withTimeout(ctx, s.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis stream %s: %v", domain.ErrConnection, stream, err)
	}

	return &RedisStreamProducer{
		client:        client,
		stream:        stream,
		maxLen:        s.StreamMaxLen,
		maxBatchBytes: s.MaxBatchBytes,
		sendTimeout:   s.SendTimeout,
		contentType:   s.ContentType,
	}, nil
}

func (p *RedisStreamProducer) Destination() string { return p.stream }

func (p *RedisStreamProducer) MaxBatchBytes() int { return p.maxBatchBytes }

func (p *RedisStreamProducer) SendBatch(ctx context.Context, batch *domain.Batch) error {
	if batch.Empty() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := withTimeout(ctx, p.sendTimeout)
	defer cancel()

	pipe := p.client.Pipeline()
	for _, event := range batch.Events() {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: p.maxLen,
			Approx: p.maxLen > 0,
			Values: []interface{}{"content_type", p.contentType, "data", event},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: xadd %s (batch=%d): %v", domain.ErrDelivery, p.stream, batch.Count(), err)
	}
	return nil
}

func (p *RedisStreamProducer) Close() error {
	return p.client.Close()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
