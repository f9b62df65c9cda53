package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Player identifies whose turn it is in the word game.
type Player string

const (
	// PlayerTherapist is the therapist side of a game room.
	PlayerTherapist Player = "therapist"
	// PlayerStudent is the student side of a game room.
	PlayerStudent Player = "student"
)

// Valid reports whether p is one of the two known roles.
func (p Player) Valid() bool {
	return p == PlayerTherapist || p == PlayerStudent
}

const (
	fieldScore         = "score"
	fieldCurrentPlayer = "currentPlayer"
	fieldCurrentWord   = "currentWord"
)

// State is the authoritative shared game state of a room.
//
// Known fields are typed; anything else the game canvas sends (for example
// the option list of the current word) lives in Extra and is carried
// through untouched. Extra is never mutated in place once stored on a room,
// so a State value can be handed to writer goroutines without copying.
type State struct {
	Score         float64
	CurrentPlayer Player
	CurrentWord   string
	Extra         map[string]json.RawMessage
}

// InitialState returns the state every new room starts with.
func InitialState() State {
	return State{
		Score:         0,
		CurrentPlayer: PlayerTherapist,
		CurrentWord:   "",
	}
}

// MarshalJSON flattens known and extension fields into one object.
func (s State) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+3)
	for k, v := range s.Extra {
		out[k] = v
	}
	out[fieldScore] = s.Score
	out[fieldCurrentPlayer] = s.CurrentPlayer
	out[fieldCurrentWord] = s.CurrentWord
	return json.Marshal(out)
}

// UnmarshalJSON decodes a flat state object, the inverse of MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = State{}.overlay(p)
	return nil
}

// Patch is a partial state update. Nil known fields and missing Extra keys
// are left as they are by Merge.
type Patch struct {
	Score         *float64
	CurrentPlayer *Player
	CurrentWord   *string
	Extra         map[string]json.RawMessage
}

// Empty reports whether applying the patch would change nothing.
func (p Patch) Empty() bool {
	return p.Score == nil && p.CurrentPlayer == nil && p.CurrentWord == nil && len(p.Extra) == 0
}

// UnmarshalJSON decodes a gameData object. Known fields are type checked;
// a JSON null on a known field counts as absent.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("game data must be an object: %w", err)
	}

	*p = Patch{}
	for key, value := range raw {
		if key != fieldScore && key != fieldCurrentPlayer && key != fieldCurrentWord {
			if p.Extra == nil {
				p.Extra = make(map[string]json.RawMessage)
			}
			p.Extra[key] = append(json.RawMessage(nil), value...)
			continue
		}
		if isNull(value) {
			continue
		}

		switch key {
		case fieldScore:
			var score float64
			if err := json.Unmarshal(value, &score); err != nil {
				return errors.New("score must be a number")
			}
			p.Score = &score
		case fieldCurrentPlayer:
			var player Player
			if err := json.Unmarshal(value, &player); err != nil || !player.Valid() {
				return fmt.Errorf("currentPlayer must be %q or %q", PlayerTherapist, PlayerStudent)
			}
			p.CurrentPlayer = &player
		case fieldCurrentWord:
			var word string
			if err := json.Unmarshal(value, &word); err != nil {
				return errors.New("currentWord must be a string")
			}
			p.CurrentWord = &word
		}
	}
	return nil
}

// MarshalJSON encodes only the fields present in the patch.
func (p Patch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+3)
	for k, v := range p.Extra {
		out[k] = v
	}
	if p.Score != nil {
		out[fieldScore] = *p.Score
	}
	if p.CurrentPlayer != nil {
		out[fieldCurrentPlayer] = *p.CurrentPlayer
	}
	if p.CurrentWord != nil {
		out[fieldCurrentWord] = *p.CurrentWord
	}
	return json.Marshal(out)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
