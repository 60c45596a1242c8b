package ingest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"racing-telemetry/ingestion/internal/domain"
)

// ErrShortPacket is returned for datagrams smaller than their header.
var ErrShortPacket = errors.New("ingest: datagram shorter than header")

const (
	// Packet formats 2021 and 2022.
	legacyHeaderLen = 24
	// Packet formats 2023 onward add the game year and an overall frame id.
	headerLen = 29

	firstYearFormat = 2023
)

// Decode splits a datagram into its header and body. The body is copied, so
// the caller may reuse datagram.
func Decode(datagram []byte, receivedAt time.Time) (*domain.Packet, error) {
	if len(datagram) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortPacket, len(datagram))
	}

	le := binary.LittleEndian
	var h domain.Header
	h.PacketFormat = le.Uint16(datagram[0:2])

	var n int
	if h.PacketFormat >= firstYearFormat {
		if len(datagram) < headerLen {
			return nil, fmt.Errorf("%w: format %d needs %d bytes, got %d", ErrShortPacket, h.PacketFormat, headerLen, len(datagram))
		}
		h.GameYear = datagram[2]
		h.GameMajorVersion = datagram[3]
		h.GameMinorVersion = datagram[4]
		h.PacketVersion = datagram[5]
		h.PacketID = datagram[6]
		h.SessionUID = le.Uint64(datagram[7:15])
		h.SessionTime = math.Float32frombits(le.Uint32(datagram[15:19]))
		h.FrameIdentifier = le.Uint32(datagram[19:23])
		h.OverallFrameIdentifier = le.Uint32(datagram[23:27])
		h.PlayerCarIndex = datagram[27]
		h.SecondaryPlayerCarIndex = datagram[28]
		n = headerLen
	} else {
		if len(datagram) < legacyHeaderLen {
			return nil, fmt.Errorf("%w: format %d needs %d bytes, got %d", ErrShortPacket, h.PacketFormat, legacyHeaderLen, len(datagram))
		}
		h.GameMajorVersion = datagram[2]
		h.GameMinorVersion = datagram[3]
		h.PacketVersion = datagram[4]
		h.PacketID = datagram[5]
		h.SessionUID = le.Uint64(datagram[6:14])
		h.SessionTime = math.Float32frombits(le.Uint32(datagram[14:18]))
		h.FrameIdentifier = le.Uint32(datagram[18:22])
		h.PlayerCarIndex = datagram[22]
		h.SecondaryPlayerCarIndex = datagram[23]
		n = legacyHeaderLen
	}

	body := make([]byte, len(datagram)-n)
	copy(body, datagram[n:])

	return &domain.Packet{
		Type:       domain.PacketType(h.PacketID),
		ReceivedAt: receivedAt,
		Header:     h,
		Body:       body,
	}, nil
}
