package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"racing-telemetry/ingestion/internal/domain"
)

const (
	EncodingJSON    = "json"
	EncodingMsgpack = "msgpack"
)

// Envelope is what lands on a destination stream for every packet.
type Envelope struct {
	ID          string `json:"id" msgpack:"id"`
	PacketType  string `json:"packet_type" msgpack:"packet_type"`
	Destination string `json:"destination" msgpack:"destination"`
	ReceivedAt  int64  `json:"received_at_ms" msgpack:"received_at_ms"`
	Data        any    `json:"data" msgpack:"data"`
}

// NewEnvelope wraps payload with a fresh id. A zero receivedAt is replaced by now.
func NewEnvelope(tag domain.PacketType, destination string, receivedAt time.Time, payload any) Envelope {
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}
	return Envelope{
		ID:          uuid.New().String(),
		PacketType:  tag.String(),
		Destination: destination,
		ReceivedAt:  receivedAt.UnixMilli(),
		Data:        payload,
	}
}

type Codec interface {
	Encode(env Envelope) ([]byte, error)
	ContentType() string
}

// New returns the codec registered for encoding.
func New(encoding string) (Codec, error) {
	switch encoding {
	case "", EncodingJSON:
		return JSON{}, nil
	case EncodingMsgpack:
		return Msgpack{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown payload encoding %q", domain.ErrConfiguration, encoding)
	}
}

type JSON struct{}

func (JSON) Encode(env Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	return b, nil
}

func (JSON) ContentType() string { return "application/json" }

type Msgpack struct{}

func (Msgpack) Encode(env Envelope) ([]byte, error) {
	b, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	return b, nil
}

func (Msgpack) ContentType() string { return "application/msgpack" }
