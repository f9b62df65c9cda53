package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for kind %v", kind)
			}
			if ev != nil && ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

// newTestHub returns a hub whose handle method can be driven directly
// without starting the loop.
func newTestHub(t *testing.T, ids ...string) (*Hub, map[string]*Client) {
	t.Helper()

	hub := NewHub(nil)
	clients := make(map[string]*Client, len(ids))
	for _, id := range ids {
		c := NewClient(id, 8)
		hub.dispatcher.Attach(c)
		clients[id] = c
	}
	return hub, clients
}

func ptr[T any](v T) *T {
	return &v
}
