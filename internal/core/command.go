package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom attaches the connection to a game room.
	CommandJoinRoom CommandKind = iota
	// CommandUpdateState merges a partial update into the room state.
	CommandUpdateState
	// CommandRelayAction forwards an opaque game action to the other players.
	CommandRelayAction
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join_room"
	case CommandUpdateState:
		return "update_state"
	case CommandRelayAction:
		return "relay_action"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a connection.
type Command struct {
	Kind        CommandKind
	ConnID      string
	StudentID   string
	TherapistID string

	// Room is the key the client asked to join; empty means the canonical key.
	Room string
	// Patch is set for CommandUpdateState.
	Patch Patch
	// Action and Data are set for CommandRelayAction.
	Action string
	Data   json.RawMessage
}

// RoomKey returns the canonical room key addressed by the command.
func (c *Command) RoomKey() string {
	return RoomKey(c.StudentID, c.TherapistID)
}
