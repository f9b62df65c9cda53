package core

import "encoding/json"

// Merge overlays patch onto the room state and stores the result as the
// room's new state. The overlay is shallow: a structured Extra value is
// replaced as a whole.
func Merge(room *Room, patch Patch) State {
	next := room.state.overlay(patch)
	room.state = next
	return next
}

func (s State) overlay(p Patch) State {
	next := s
	if p.Score != nil {
		next.Score = *p.Score
	}
	if p.CurrentPlayer != nil {
		next.CurrentPlayer = *p.CurrentPlayer
	}
	if p.CurrentWord != nil {
		next.CurrentWord = *p.CurrentWord
	}
	if len(p.Extra) == 0 {
		return next
	}

	// Fresh map: the previous one may still be referenced by queued events.
	extra := make(map[string]json.RawMessage, len(s.Extra)+len(p.Extra))
	for k, v := range s.Extra {
		extra[k] = v
	}
	for k, v := range p.Extra {
		extra[k] = v
	}
	next.Extra = extra
	return next
}
