package domain

import "sync"

// Conn is one live bidirectional session bound to an authenticated
// identity. The hub owns its lifetime: a Conn is created on transport
// connect, registered once, and never reused after Unregister.
type Conn struct {
	id       string
	identity Identity

	// rooms and activeRoom are guarded by the owning hub's mutex.
	rooms      map[string]struct{}
	activeRoom string

	sendMu sync.Mutex
	closed bool
	events chan Event
}

func NewConn(id string, identity Identity, buffer int) *Conn {
	return &Conn{
		id:       id,
		identity: identity,
		rooms:    make(map[string]struct{}),
		events:   make(chan Event, buffer),
	}
}

func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Identity() Identity {
	return c.identity
}

// Events is the outbound channel the transport drains. The hub closes it
// when the connection is unregistered.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// deliver enqueues an event without blocking. Events to a full or closed
// channel are dropped; a slow consumer must never stall the hub.
func (c *Conn) deliver(ev Event) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
	}
}

func (c *Conn) closeEvents() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.events)
	}
}
