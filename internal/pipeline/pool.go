package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"racing-telemetry/ingestion/internal/domain"
	"racing-telemetry/ingestion/internal/metrics"
)

// ErrPoolClosed is returned by GetOrCreate after Close.
var ErrPoolClosed = errors.New("ingestion: producer pool closed")

// ProducerPool holds at most one producer per destination for the life of the process.
type ProducerPool struct {
	connect Connector
	log     zerolog.Logger

	mu        sync.RWMutex
	producers map[string]Producer
	closed    bool

	// Concurrent first uses of one destination share a single construction.
	inflight singleflight.Group
}

func NewProducerPool(connect Connector, log zerolog.Logger) *ProducerPool {
	return &ProducerPool{
		connect:   connect,
		log:       log.With().Str("component", "producer_pool").Logger(),
		producers: make(map[string]Producer),
	}
}

// GetOrCreate returns the producer for name, connecting on first use.
// A failed connection is not cached.
func (p *ProducerPool) GetOrCreate(ctx context.Context, name string) (Producer, error) {
	if pr, ok := p.lookup(name); ok {
		return pr, nil
	}

	v, err, _ := p.inflight.Do(name, func() (any, error) {
		if pr, ok := p.lookup(name); ok {
			return pr, nil
		}
		if p.isClosed() {
			return nil, ErrPoolClosed
		}

		// Shared by every waiter: detached from the first caller's cancellation.
		pr, err := p.connect(context.WithoutCancel(ctx), name)
		if err != nil {
			if !errors.Is(err, domain.ErrConnection) {
				err = fmt.Errorf("%w: %s: %v", domain.ErrConnection, name, err)
			}
			return nil, err
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			pr.Close()
			return nil, ErrPoolClosed
		}
		p.producers[name] = pr
		p.mu.Unlock()

		metrics.ProducersCreated.Add(1)
		p.log.Info().Str("destination", name).Msg("producer created")
		return pr, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Producer), nil
}

func (p *ProducerPool) lookup(name string) (Producer, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pr, ok := p.producers[name]
	return pr, ok
}

func (p *ProducerPool) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Len returns the number of registered producers.
func (p *ProducerPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.producers)
}

// Destinations returns the registered destination names, sorted.
func (p *ProducerPool) Destinations() []string {
	p.mu.RLock()
	names := make([]string, 0, len(p.producers))
	for name := range p.producers {
		names = append(names, name)
	}
	p.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Close closes every producer and empties the pool. It is called once at shutdown.
func (p *ProducerPool) Close() error {
	p.mu.Lock()
	producers := p.producers
	p.producers = make(map[string]Producer)
	p.closed = true
	p.mu.Unlock()

	var errs []error
	for name, pr := range producers {
		if err := pr.Close(); err != nil {
			p.log.Warn().Err(err).Str("destination", name).Msg("producer close failed")
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
