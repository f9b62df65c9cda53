package core

import (
	"fmt"
	"sort"
	"time"
)

// RoomKey returns the canonical key of the game room shared by a student and a therapist.
// The key is not injective when ids contain hyphens: ("a-b", "c") and ("a", "b-c")
// share "game-a-b-c". Store-issued ids are fixed-length UUIDs, which keeps them apart.
func RoomKey(studentID, therapistID string) string {
	return fmt.Sprintf("game-%s-%s", studentID, therapistID)
}

// Room is the ephemeral game state of one therapist-student pairing together
// with the connections currently joined to it.
type Room struct {
	Key         string
	StudentID   string
	TherapistID string
	CreatedAt   time.Time

	members map[string]struct{}
	state   State
}

// NewRoom constructs a room with no members and the initial state.
func NewRoom(key, studentID, therapistID string) *Room {
	return &Room{
		Key:         key,
		StudentID:   studentID,
		TherapistID: therapistID,
		CreatedAt:   time.Now(),
		members:     make(map[string]struct{}),
		state:       InitialState(),
	}
}

// AddMember inserts a connection into the room. Returns true if newly added.
func (r *Room) AddMember(connID string) bool {
	if _, exists := r.members[connID]; exists {
		return false
	}
	r.members[connID] = struct{}{}
	return true
}

// RemoveMember deletes a connection from the room. Returns true if removed.
func (r *Room) RemoveMember(connID string) bool {
	if _, exists := r.members[connID]; !exists {
		return false
	}
	delete(r.members, connID)
	return true
}

// HasMember reports whether connID is joined to the room.
func (r *Room) HasMember(connID string) bool {
	_, ok := r.members[connID]
	return ok
}

// Members returns the joined connection ids in sorted order.
func (r *Room) Members() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Size returns the number of joined connections.
func (r *Room) Size() int {
	return len(r.members)
}

// Empty returns true if no connections are in the room.
func (r *Room) Empty() bool {
	return len(r.members) == 0
}

// State returns the current authoritative state.
func (r *Room) State() State {
	return r.state
}
