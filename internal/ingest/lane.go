package ingest

import (
	"context"
	"sync"

	"github.com/eapache/queue"

	"racing-telemetry/ingestion/internal/domain"
)

// lane hands packets of one type to the handler in arrival order.
type lane struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  *queue.Queue
	capacity int
	closed   bool
}

func newLane(capacity int) *lane {
	l := &lane{
		pending:  queue.New(),
		capacity: capacity,
	}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// push enqueues pkt. It returns false if the lane is full or closed.
func (l *lane) push(pkt *domain.Packet) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.pending.Length() >= l.capacity {
		return false
	}
	l.pending.Add(pkt)
	l.cond.Signal()
	return true
}

// run drains the lane until it is closed and empty.
func (l *lane) run(ctx context.Context, handle func(context.Context, *domain.Packet)) {
	for {
		l.mu.Lock()
		for l.pending.Length() == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.pending.Length() == 0 {
			l.mu.Unlock()
			return
		}
		pkt := l.pending.Remove().(*domain.Packet)
		l.mu.Unlock()

		handle(ctx, pkt)
	}
}

func (l *lane) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.cond.Broadcast()
}

func (l *lane) depth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending.Length()
}
