package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoinGameRoom = "join-game-room"
	InboundTypeGameUpdate   = "game-update"
	InboundTypeGameAction   = "game-action"

	OutboundTypeGameStateUpdate = "game-state-update"
	OutboundTypeGameAction      = "game-action"
	OutboundTypeError           = "error"
)

// JoinGameRoomData asks to join the game room of a student and therapist.
// Room may be omitted; when set it must equal the canonical room key.
type JoinGameRoomData struct {
	StudentID   string `json:"studentId"`
	TherapistID string `json:"therapistId"`
	Room        string `json:"room,omitempty"`
}

// GameUpdateData carries a partial game state update.
type GameUpdateData struct {
	StudentID   string          `json:"studentId"`
	TherapistID string          `json:"therapistId"`
	GameData    json.RawMessage `json:"gameData"`
}

// GameActionData is an opaque game action to relay to the other player.
type GameActionData struct {
	Action      string          `json:"action"`
	Data        json.RawMessage `json:"data,omitempty"`
	StudentID   string          `json:"studentId"`
	TherapistID string          `json:"therapistId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// GameActionRelay is the data of an outbound game-action message.
type GameActionRelay struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
	From   string          `json:"from"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
