package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"racing-telemetry/ingestion/internal/domain"
)

// sendLog records sends across producers so tests can check relative order.
type sendLog struct {
	mu    sync.Mutex
	sends []string
}

func (l *sendLog) add(destination string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sends = append(l.sends, destination)
}

func (l *sendLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.sends...)
}

type fakeProducer struct {
	destination string
	maxBytes    int
	sendErr     error
	log         *sendLog

	mu      sync.Mutex
	batches []*domain.Batch
	closed  bool
}

func (f *fakeProducer) Destination() string { return f.destination }
func (f *fakeProducer) MaxBatchBytes() int  { return f.maxBytes }

func (f *fakeProducer) SendBatch(ctx context.Context, batch *domain.Batch) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.batches = append(f.batches, batch)
	f.mu.Unlock()
	if f.log != nil {
		f.log.add(f.destination)
	}
	return nil
}

func (f *fakeProducer) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeProducer) sent() []*domain.Batch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Batch{}, f.batches...)
}

// fakeConnector counts constructions and hands out fakeProducers.
type fakeConnector struct {
	maxBytes int
	sendErr  error
	log      *sendLog

	calls atomic.Int64
	fail  atomic.Bool

	mu        sync.Mutex
	producers map[string][]*fakeProducer
}

func newFakeConnector(maxBytes int) *fakeConnector {
	return &fakeConnector{
		maxBytes:  maxBytes,
		log:       &sendLog{},
		producers: make(map[string][]*fakeProducer),
	}
}

var errUnreachable = errors.New("dial tcp: connection refused")

func (c *fakeConnector) connect(ctx context.Context, destination string) (Producer, error) {
	c.calls.Add(1)
	if c.fail.Load() {
		return nil, errUnreachable
	}
	p := &fakeProducer{
		destination: destination,
		maxBytes:    c.maxBytes,
		sendErr:     c.sendErr,
		log:         c.log,
	}
	c.mu.Lock()
	c.producers[destination] = append(c.producers[destination], p)
	c.mu.Unlock()
	return p, nil
}

func (c *fakeConnector) built(destination string) []*fakeProducer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeProducer{}, c.producers[destination]...)
}
