package chat

import "time"

// FlightState is the single shared send token.
type FlightState int

const (
	FlightIdle FlightState = iota
	FlightAwaiting
)

func (s FlightState) String() string {
	if s == FlightAwaiting {
		return "awaiting"
	}
	return "idle"
}

// Flight describes the outstanding agent call, if any. Seq increases with
// every accepted send so a stale outcome can be told apart from the
// current one.
type Flight struct {
	State          FlightState
	Seq            uint64
	ConversationID string
	StartedAt      time.Time
}
