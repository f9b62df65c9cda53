package core

import "sort"

// Tracker maintains room membership for connections and tears rooms down
// once their last connection is gone.
type Tracker struct {
	registry *Registry
}

// NewTracker creates a tracker over the given registry.
func NewTracker(registry *Registry) *Tracker {
	return &Tracker{registry: registry}
}

// Join adds connID to the room. Joining twice is a no-op; the result
// reports whether the connection was newly added.
func (t *Tracker) Join(room *Room, connID string) bool {
	return room.AddMember(connID)
}

// OnDisconnect removes connID from every room and deletes the rooms left
// empty. It returns the keys of the deleted rooms in sorted order.
//
// Membership is not indexed by connection, so this walks all rooms.
// A connection -> rooms index would be the next step if room counts grow.
func (t *Tracker) OnDisconnect(connID string) []string {
	var removed []string
	t.registry.ForEachRoom(func(room *Room) {
		if !room.RemoveMember(connID) {
			return
		}
		if room.Empty() {
			t.registry.Remove(room.Key)
			removed = append(removed, room.Key)
		}
	})
	sort.Strings(removed)
	return removed
}
