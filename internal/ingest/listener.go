package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"racing-telemetry/ingestion/internal/domain"
	"racing-telemetry/ingestion/internal/metrics"
)

// maxDatagram is above the largest packet the game sends.
const maxDatagram = 2048

// Handler receives every decoded packet.
type Handler interface {
	OnPacket(ctx context.Context, pkt *domain.Packet)
}

type Options struct {
	// Addr is the UDP host:port to bind.
	Addr string

	// ForwardAddresses receive a copy of every raw datagram before decoding.
	ForwardAddresses []string

	// LaneCapacity bounds the backlog per packet type; packets beyond it are dropped.
	LaneCapacity int
}

// Listener reads telemetry datagrams and fans them out to one lane per packet type.
type Listener struct {
	conn     *net.UDPConn
	handler  Handler
	capacity int
	log      zerolog.Logger

	forwardConn *net.UDPConn
	forwardTo   []*net.UDPAddr

	mu    sync.Mutex
	lanes map[domain.PacketType]*lane
	wg    sync.WaitGroup
}

func Listen(opts Options, handler Handler, log zerolog.Logger) (*Listener, error) {
	laddr, err := net.ResolveUDPAddr("udp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", opts.Addr, err)
	}

	var forwardTo []*net.UDPAddr
	for _, a := range opts.ForwardAddresses {
		raddr, err := net.ResolveUDPAddr("udp", a)
		if err != nil {
			return nil, fmt.Errorf("resolve forward address %s: %w", a, err)
		}
		forwardTo = append(forwardTo, raddr)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp %s: %w", opts.Addr, err)
	}

	l := &Listener{
		conn:      conn,
		handler:   handler,
		capacity:  opts.LaneCapacity,
		log:       log.With().Str("component", "udp_listener").Logger(),
		forwardTo: forwardTo,
		lanes:     make(map[domain.PacketType]*lane),
	}
	if l.capacity <= 0 {
		l.capacity = 4096
	}

	if len(forwardTo) > 0 {
		fc, err := net.ListenUDP("udp", nil)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("open forward socket: %w", err)
		}
		l.forwardConn = fc
	}

	return l, nil
}

func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Backlog returns the number of packets waiting across all lanes.
func (l *Listener) Backlog() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, ln := range l.lanes {
		total += ln.depth()
	}
	return total
}

// Run reads until ctx is done, then drains every lane before returning.
func (l *Listener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	// Packets already queued at shutdown are still delivered.
	handlerCtx := context.WithoutCancel(ctx)

	l.log.Info().Str("addr", l.Addr().String()).Msg("listening for telemetry")

	buf := make([]byte, maxDatagram)
	var runErr error
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			l.log.Warn().Err(err).Msg("read failed")
			continue
		}
		receivedAt := time.Now()
		metrics.PacketsReceived.Add(1)

		l.forward(buf[:n])

		pkt, err := Decode(buf[:n], receivedAt)
		if err != nil {
			metrics.DecodeFailures.Add(1)
			l.log.Debug().Err(err).Int("bytes", n).Msg("dropping undecodable datagram")
			continue
		}

		if !l.laneFor(handlerCtx, pkt.Type).push(pkt) {
			metrics.LaneDrops.Add(1)
			l.log.Warn().Str("packet_type", pkt.Type.String()).Msg("lane full, dropping packet")
		}
	}

	l.mu.Lock()
	for _, ln := range l.lanes {
		ln.close()
	}
	l.mu.Unlock()
	l.wg.Wait()

	if l.forwardConn != nil {
		if err := l.forwardConn.Close(); err != nil {
			runErr = err
		}
	}
	l.log.Info().Msg("listener stopped")
	return runErr
}

func (l *Listener) laneFor(ctx context.Context, tag domain.PacketType) *lane {
	l.mu.Lock()
	defer l.mu.Unlock()

	ln, ok := l.lanes[tag]
	if !ok {
		ln = newLane(l.capacity)
		l.lanes[tag] = ln
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			ln.run(ctx, l.handler.OnPacket)
		}()
	}
	return ln
}

func (l *Listener) forward(datagram []byte) {
	for _, addr := range l.forwardTo {
		if _, err := l.forwardConn.WriteToUDP(datagram, addr); err != nil {
			metrics.ForwardFailures.Add(1)
			l.log.Debug().Err(err).Str("to", addr.String()).Msg("forward failed")
		}
	}
}
