package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventStateUpdate carries the full authoritative state of a room.
	EventStateUpdate EventKind = iota
	// EventAction relays a game action from another player.
	EventAction
	// EventError notifies a client about a rejected command.
	EventError
)

// Event is sent to clients to describe what happened in a room.
type Event struct {
	Kind   EventKind
	Room   string
	State  State
	Action *ActionRelay
	Error  *CoreError
}

// ActionRelay is the envelope forwarded for a game action. Data is never inspected.
type ActionRelay struct {
	Action string
	Data   json.RawMessage
	From   string
}
