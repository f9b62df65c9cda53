package core

import (
	"context"

	"github.com/rs/zerolog"
)

// Stats is a point-in-time snapshot of hub occupancy.
type Stats struct {
	Rooms       int
	Connections int
}

// Hub serializes every game room mutation on a single goroutine. Registry,
// rooms and dispatcher are only touched from Run, so none of them lock.
type Hub struct {
	registry   *Registry
	tracker    *Tracker
	dispatcher *Dispatcher

	register   chan *Client
	unregister chan *Client
	commands   chan *Command
	stats      chan chan Stats
	done       chan struct{}

	log *zerolog.Logger
}

// NewHub creates a game hub with its own registry.
func NewHub(logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	registry := NewRegistry()
	return &Hub{
		registry:   registry,
		tracker:    NewTracker(registry),
		dispatcher: NewDispatcher(logger),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan *Command, 64),
		stats:      make(chan chan Stats),
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Run processes hub traffic until ctx is cancelled. Each command runs to
// completion before the next one is read.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.dispatcher.Attach(c)
			h.log.Debug().Str("conn_id", c.ID).Msg("client registered")
		case c := <-h.unregister:
			h.disconnect(c)
		case cmd := <-h.commands:
			h.handle(cmd)
		case reply := <-h.stats:
			reply <- Stats{Rooms: h.registry.Len(), Connections: h.dispatcher.Len()}
		}
	}
}

// RegisterClient makes the client reachable for room events.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient detaches the client, removes it from every room and
// closes its event channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Submit queues a command for the hub loop.
func (h *Hub) Submit(ctx context.Context, cmd *Command) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}

	select {
	case h.commands <- cmd:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats asks the hub loop for current occupancy.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.stats <- reply:
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// handle is the single dispatch point for inbound commands.
func (h *Hub) handle(cmd *Command) {
	if !h.dispatcher.Attached(cmd.ConnID) {
		h.log.Debug().Str("conn_id", cmd.ConnID).Stringer("kind", cmd.Kind).Msg("command from unknown connection ignored")
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		h.joinRoom(cmd)
	case CommandUpdateState:
		h.updateState(cmd)
	case CommandRelayAction:
		h.relayAction(cmd)
	default:
		h.log.Warn().Int("kind", int(cmd.Kind)).Msg("unknown command kind")
	}
}

func (h *Hub) joinRoom(cmd *Command) {
	key := cmd.RoomKey()
	if cmd.Room != "" && cmd.Room != key {
		h.dispatcher.SendToRequester(cmd.ConnID, &Event{
			Kind:  EventError,
			Room:  cmd.Room,
			Error: coreError(ErrCodeRoomMismatch, "room does not match student and therapist"),
		})
		return
	}

	room, created := h.registry.GetOrCreate(key, cmd.StudentID, cmd.TherapistID)
	h.tracker.Join(room, cmd.ConnID)

	h.log.Info().
		Str("conn_id", cmd.ConnID).
		Str("room", key).
		Bool("created", created).
		Int("members", room.Size()).
		Msg("joined game room")

	h.dispatcher.SendToRequester(cmd.ConnID, &Event{
		Kind:  EventStateUpdate,
		Room:  key,
		State: room.State(),
	})
}

func (h *Hub) updateState(cmd *Command) {
	key := cmd.RoomKey()
	room, ok := h.registry.Get(key)
	if !ok {
		h.log.Debug().Str("conn_id", cmd.ConnID).Str("room", key).Msg("update for missing room dropped")
		return
	}

	state := Merge(room, cmd.Patch)
	delivered := h.dispatcher.BroadcastExcept(room, cmd.ConnID, &Event{
		Kind:  EventStateUpdate,
		Room:  key,
		State: state,
	})

	h.log.Debug().Str("conn_id", cmd.ConnID).Str("room", key).Int("delivered", delivered).Msg("game state updated")
}

func (h *Hub) relayAction(cmd *Command) {
	key := cmd.RoomKey()
	room, ok := h.registry.Get(key)
	if !ok {
		h.log.Debug().Str("conn_id", cmd.ConnID).Str("room", key).Msg("action for missing room dropped")
		return
	}

	h.dispatcher.BroadcastExcept(room, cmd.ConnID, &Event{
		Kind: EventAction,
		Room: key,
		Action: &ActionRelay{
			Action: cmd.Action,
			Data:   cmd.Data,
			From:   cmd.ConnID,
		},
	})
}

func (h *Hub) disconnect(c *Client) {
	if _, ok := h.dispatcher.Detach(c.ID); !ok {
		return
	}
	close(c.Events)

	for _, key := range h.tracker.OnDisconnect(c.ID) {
		h.log.Info().Str("room", key).Msg("game room closed")
	}
	h.log.Debug().Str("conn_id", c.ID).Msg("client unregistered")
}

func (h *Hub) shutdown() {
	h.dispatcher.CloseAll()
	h.registry = NewRegistry()
	h.tracker = NewTracker(h.registry)
}
