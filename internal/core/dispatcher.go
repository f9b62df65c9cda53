package core

import "github.com/rs/zerolog"

// Dispatcher delivers events to connected clients. Delivery is fire and
// forget: an event that does not fit into a client's queue is dropped for
// that client.
type Dispatcher struct {
	clients map[string]*Client
	log     *zerolog.Logger
}

// NewDispatcher creates a dispatcher with no attached clients.
func NewDispatcher(logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		clients: make(map[string]*Client),
		log:     logger,
	}
}

// Attach makes a client reachable by its connection id.
func (d *Dispatcher) Attach(c *Client) {
	d.clients[c.ID] = c
}

// Detach forgets a client. It returns the client if it was attached.
func (d *Dispatcher) Detach(connID string) (*Client, bool) {
	c, ok := d.clients[connID]
	if ok {
		delete(d.clients, connID)
	}
	return c, ok
}

// Attached reports whether connID belongs to a live client.
func (d *Dispatcher) Attached(connID string) bool {
	_, ok := d.clients[connID]
	return ok
}

// CloseAll closes the event channel of every attached client and detaches them.
func (d *Dispatcher) CloseAll() {
	for id, c := range d.clients {
		close(c.Events)
		delete(d.clients, id)
	}
}

// Len returns the number of attached clients.
func (d *Dispatcher) Len() int {
	return len(d.clients)
}

// SendToRequester delivers ev to exactly one connection.
func (d *Dispatcher) SendToRequester(connID string, ev *Event) bool {
	c, ok := d.clients[connID]
	if !ok {
		return false
	}
	return d.deliver(c, ev)
}

// BroadcastExcept delivers ev to every member of room other than sender and
// returns how many clients accepted it.
func (d *Dispatcher) BroadcastExcept(room *Room, sender string, ev *Event) int {
	delivered := 0
	for connID := range room.members {
		if connID == sender {
			continue
		}
		c, ok := d.clients[connID]
		if !ok {
			continue
		}
		if d.deliver(c, ev) {
			delivered++
		}
	}
	return delivered
}

func (d *Dispatcher) deliver(c *Client, ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		d.log.Debug().Str("conn_id", c.ID).Str("room", ev.Room).Msg("dropping event for slow consumer")
		return false
	}
}
