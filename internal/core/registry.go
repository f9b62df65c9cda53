package core

// Registry owns every live game room, keyed by room key.
//
// It is not safe for concurrent use; the Hub loop is its only caller.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room stored under key, creating it with the
// initial state when absent. created reports whether a new room was made.
func (r *Registry) GetOrCreate(key, studentID, therapistID string) (room *Room, created bool) {
	if room, ok := r.rooms[key]; ok {
		return room, false
	}
	room = NewRoom(key, studentID, therapistID)
	r.rooms[key] = room
	return room, true
}

// Get looks a room up without creating it.
func (r *Registry) Get(key string) (*Room, bool) {
	room, ok := r.rooms[key]
	return room, ok
}

// Remove deletes the room stored under key.
func (r *Registry) Remove(key string) {
	delete(r.rooms, key)
}

// ForEachRoom calls visit for every room. visit may remove the room it is given.
func (r *Registry) ForEachRoom(visit func(*Room)) {
	for _, room := range r.rooms {
		visit(room)
	}
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}
