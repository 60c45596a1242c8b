package domain

import (
	"strconv"
	"time"
)

// PacketType is the packet id carried in every telemetry header.
type PacketType uint8

const (
	PacketMotion PacketType = iota
	PacketSession
	PacketLapData
	PacketEvent
	PacketParticipants
	PacketCarSetups
	PacketCarTelemetry
	PacketCarStatus
	PacketFinalClassification
	PacketLobbyInfo
	PacketCarDamage
	PacketSessionHistory
)

// PacketTypes is the closed set of packet types the ingest adapter subscribes to.
var PacketTypes = []PacketType{
	PacketMotion,
	PacketSession,
	PacketLapData,
	PacketEvent,
	PacketParticipants,
	PacketCarSetups,
	PacketCarTelemetry,
	PacketCarStatus,
	PacketFinalClassification,
	PacketLobbyInfo,
	PacketCarDamage,
	PacketSessionHistory,
}

var packetTypeNames = [...]string{
	PacketMotion:              "motion",
	PacketSession:             "session",
	PacketLapData:             "lapData",
	PacketEvent:               "event",
	PacketParticipants:        "participants",
	PacketCarSetups:           "carSetups",
	PacketCarTelemetry:        "carTelemetry",
	PacketCarStatus:           "carStatus",
	PacketFinalClassification: "finalClassification",
	PacketLobbyInfo:           "lobbyInfo",
	PacketCarDamage:           "carDamage",
	PacketSessionHistory:      "sessionHistory",
}

// Known reports whether t belongs to the enumerated packet set.
func (t PacketType) Known() bool {
	return int(t) < len(packetTypeNames)
}

func (t PacketType) String() string {
	if t.Known() {
		return packetTypeNames[t]
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// Header is the common prefix of every telemetry datagram.
type Header struct {
	PacketFormat            uint16  `json:"packet_format" msgpack:"packet_format"`
	GameYear                uint8   `json:"game_year,omitempty" msgpack:"game_year,omitempty"`
	GameMajorVersion        uint8   `json:"game_major_version" msgpack:"game_major_version"`
	GameMinorVersion        uint8   `json:"game_minor_version" msgpack:"game_minor_version"`
	PacketVersion           uint8   `json:"packet_version" msgpack:"packet_version"`
	PacketID                uint8   `json:"packet_id" msgpack:"packet_id"`
	SessionUID              uint64  `json:"session_uid" msgpack:"session_uid"`
	SessionTime             float32 `json:"session_time" msgpack:"session_time"`
	FrameIdentifier         uint32  `json:"frame_identifier" msgpack:"frame_identifier"`
	OverallFrameIdentifier  uint32  `json:"overall_frame_identifier,omitempty" msgpack:"overall_frame_identifier,omitempty"`
	PlayerCarIndex          uint8   `json:"player_car_index" msgpack:"player_car_index"`
	SecondaryPlayerCarIndex uint8   `json:"secondary_player_car_index" msgpack:"secondary_player_car_index"`
}

// Packet is one decoded datagram. Body holds everything after the header.
type Packet struct {
	Type       PacketType `json:"-" msgpack:"-"`
	ReceivedAt time.Time  `json:"-" msgpack:"-"`

	Header Header `json:"header" msgpack:"header"`
	Body   []byte `json:"body" msgpack:"body"`
}
