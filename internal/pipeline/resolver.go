package pipeline

import "racing-telemetry/ingestion/internal/domain"

// DefaultDestination receives every packet type without its own stream.
const DefaultDestination = "game-telemetry"

// Resolve maps a packet type to the stream it is delivered to. It never fails:
// unmapped and unknown types go to DefaultDestination.
func Resolve(tag domain.PacketType) string {
	switch tag {
	case domain.PacketEvent:
		return "event"
	case domain.PacketMotion:
		return "motion"
	case domain.PacketCarSetups:
		return "car-setups"
	case domain.PacketLapData:
		return "lap-data"
	case domain.PacketSession:
		return "session"
	case domain.PacketParticipants:
		return DefaultDestination
	case domain.PacketCarTelemetry:
		return "car-telemetry"
	case domain.PacketCarStatus:
		return "car-status"
	case domain.PacketCarDamage:
		return "car-damage"
	default:
		return DefaultDestination
	}
}

// Destinations lists every stream Resolve can return, in packet id order.
func Destinations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tag := range domain.PacketTypes {
		name := Resolve(tag)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
