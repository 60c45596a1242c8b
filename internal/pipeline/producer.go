package pipeline

import (
	"context"

	"racing-telemetry/ingestion/internal/domain"
)

// Producer is a long-lived delivery handle bound to one destination stream.
// Implementations serialize SendBatch so batches leave in submission order.
type Producer interface {
	Destination() string

	// MaxBatchBytes is the capacity used for batches sent through this producer.
	MaxBatchBytes() int

	// SendBatch delivers every event in batch. Errors are returned, not retried.
	SendBatch(ctx context.Context, batch *domain.Batch) error

	Close() error
}

// Connector builds a producer for destination. It may block on network I/O.
type Connector func(ctx context.Context, destination string) (Producer, error)
