package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"racing-telemetry/ingestion/internal/codec"
	"racing-telemetry/ingestion/internal/domain"
	"racing-telemetry/ingestion/internal/metrics"
)

// Dispatcher sends each packet, alone in a fresh batch, to the stream of its type.
type Dispatcher struct {
	pool  *ProducerPool
	codec codec.Codec
	log   zerolog.Logger
}

func NewDispatcher(pool *ProducerPool, c codec.Codec, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		pool:  pool,
		codec: c,
		log:   log.With().Str("component", "dispatcher").Logger(),
	}
}

// OnPacket is the ingest entry point. Failures are logged and counted inside
// Dispatch and never reach the caller.
func (d *Dispatcher) OnPacket(ctx context.Context, pkt *domain.Packet) {
	_ = d.dispatch(ctx, pkt.Type, pkt.ReceivedAt, pkt)
}

// Dispatch delivers payload to the destination resolved from tag.
func (d *Dispatcher) Dispatch(ctx context.Context, tag domain.PacketType, payload any) error {
	return d.dispatch(ctx, tag, time.Time{}, payload)
}

func (d *Dispatcher) dispatch(ctx context.Context, tag domain.PacketType, receivedAt time.Time, payload any) error {
	destination := Resolve(tag)
	log := d.log.With().
		Str("packet_type", tag.String()).
		Str("destination", destination).
		Logger()
	log.Debug().Msg("processing packet")

	data, err := d.codec.Encode(codec.NewEnvelope(tag, destination, receivedAt, payload))
	if err != nil {
		metrics.EncodeFailures.Add(1)
		log.Error().Err(err).Msg("encode failed")
		return err
	}

	producer, err := d.pool.GetOrCreate(ctx, destination)
	if err != nil {
		metrics.ConnectionErrors.Add(1)
		log.Error().Err(err).Msg("producer unavailable")
		return err
	}

	batch := domain.NewBatch(producer.MaxBatchBytes())
	if !batch.TryAdd(data) {
		metrics.PayloadTooLarge.Add(1)
		log.Warn().
			Int("payload_bytes", len(data)).
			Int("max_batch_bytes", batch.MaxBytes()).
			Msg("couldn't add event to batch, dropping")
		return fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrPayloadTooLarge, len(data), batch.MaxBytes())
	}

	if err := producer.SendBatch(ctx, batch); err != nil {
		if !errors.Is(err, domain.ErrDelivery) {
			err = fmt.Errorf("%w: %s: %v", domain.ErrDelivery, destination, err)
		}
		metrics.DeliveryErrors.Add(1)
		log.Error().Err(err).Msg("send batch failed")
		return err
	}

	metrics.DispatchSuccess.Add(1)
	return nil
}
