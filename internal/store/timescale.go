package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"racing-telemetry/ingestion/internal/domain"
)

// EventsTable is the hypertable created by scripts/init_db.
const EventsTable = "telemetry_events"

var eventColumns = []string{
	"received_at",
	"stream",
	"content_type",
	"payload",
}

type copier interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// TimescaleProducer writes batches into telemetry_events, tagged with its stream name.
type TimescaleProducer struct {
	db            copier
	closeDB       func()
	stream        string
	maxBatchBytes int
	sendTimeout   time.Duration
	contentType   string

	mu sync.Mutex
}

func NewTimescaleProducer(ctx context.Context, cfg *pgxpool.Config, stream string, s Settings) (*TimescaleProducer, error) {
	connectCtx, cancel := withTimeout(ctx, s.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: db pool for %s: %v", domain.ErrConnection, stream, err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping db for %s: %v", domain.ErrConnection, stream, err)
	}

	return newTimescaleProducer(pool, pool.Close, stream, s), nil
}

func newTimescaleProducer(db copier, closeDB func(), stream string, s Settings) *TimescaleProducer {
	return &TimescaleProducer{
		db:            db,
		closeDB:       closeDB,
		stream:        stream,
		maxBatchBytes: s.MaxBatchBytes,
		sendTimeout:   s.SendTimeout,
		contentType:   s.ContentType,
	}
}

func (p *TimescaleProducer) Destination() string { return p.stream }

func (p *TimescaleProducer) MaxBatchBytes() int { return p.maxBatchBytes }

func (p *TimescaleProducer) SendBatch(ctx context.Context, batch *domain.Batch) error {
	if batch.Empty() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := withTimeout(ctx, p.sendTimeout)
	defer cancel()

	now := time.Now().UTC()
	rows := make([][]interface{}, batch.Count())
	for i, event := range batch.Events() {
		rows[i] = []interface{}{now, p.stream, p.contentType, event}
	}

	_, err := p.db.CopyFrom(ctx, pgx.Identifier{EventsTable}, eventColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("%w: CopyFrom failed for %s batch of %d: %v", domain.ErrDelivery, p.stream, batch.Count(), err)
	}
	return nil
}

func (p *TimescaleProducer) Close() error {
	if p.closeDB != nil {
		p.closeDB()
	}
	return nil
}
