package domain

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Ingest persists an accepted message and enriches it with the sender's
// display name. The hub broadcasts whatever Ingest returns and never
// re-queries identity data mid-broadcast.
type Ingest interface {
	Persist(ctx context.Context, room string, sender Identity, text string) (Message, error)
}

// PresenceScope selects who receives presence-updated events.
type PresenceScope string

const (
	// PresenceGlobal delivers presence updates to every registered
	// connection.
	PresenceGlobal PresenceScope = "global"
	// PresenceRoom delivers presence updates per room, to that room's
	// members only.
	PresenceRoom PresenceScope = "room"
)

// Hub tracks live connections, their identities and room subscriptions, and
// fans out messages and ephemeral signals to the right subset of
// connections. All shared state is guarded by a single mutex; broadcasts
// snapshot the member list before delivering so joins and leaves
// mid-broadcast stay consistent.
//
// Messages for a room are broadcast in the order their persistence step
// completes. Two concurrent sends may be delivered out of submission order
// when their store latencies differ; the store's own ids and timestamps
// are the ordering authority.
type Hub struct {
	mu    sync.Mutex
	conns map[string]*Conn

	presence *PresenceRegistry
	rooms    *Membership
	typing   *TypingTracker
	ingest   Ingest
	scope    PresenceScope
}

func NewHub(presence *PresenceRegistry, rooms *Membership, ingest Ingest, typingTTL time.Duration, scope PresenceScope) *Hub {
	h := &Hub{
		conns:    make(map[string]*Conn),
		presence: presence,
		rooms:    rooms,
		ingest:   ingest,
		scope:    scope,
	}
	h.typing = NewTypingTracker(typingTTL, h.typingExpired)
	return h
}

// Register binds a newly authenticated connection. Registering the same
// connection twice fails with ErrAlreadyRegistered and leaves hub state
// untouched.
func (h *Hub) Register(c *Conn) error {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; ok {
		h.mu.Unlock()
		return ErrAlreadyRegistered
	}
	h.conns[c.id] = c
	h.mu.Unlock()

	if h.presence.AddConnection(c.identity, c.id) {
		h.broadcastPresence()
	}
	return nil
}

// Unregister tears down a connection: it leaves every joined room, clears
// typing marks the user no longer backs, updates presence, and closes the
// outbound channel. It is safe to call for a connection whose registration
// never completed, and safe to call more than once.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.id)
	joined := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		joined = append(joined, room)
	}
	c.rooms = make(map[string]struct{})
	c.activeRoom = ""
	h.mu.Unlock()

	for _, room := range joined {
		h.rooms.Leave(room, c.id)
		h.clearTyping(c, room)
	}

	if h.presence.RemoveConnection(c.identity.ID, c.id) {
		h.broadcastPresence()
	}

	c.closeEvents()
}

// JoinRoom subscribes the connection to room, creating the room on first
// join. The joined room becomes the connection's active room. Joining a
// room twice is a no-op.
func (h *Hub) JoinRoom(c *Conn, room string) error {
	h.mu.Lock()
	if _, ok := h.conns[c.id]; !ok {
		h.mu.Unlock()
		return ErrNotRegistered
	}
	if _, ok := c.rooms[room]; ok {
		h.mu.Unlock()
		return nil
	}
	c.rooms[room] = struct{}{}
	c.activeRoom = room
	h.mu.Unlock()

	h.rooms.Join(room, c.id)
	return nil
}

// LeaveRoom removes the subscription. If the user's typing mark in that
// room is no longer backed by any of their connections it is cleared and a
// stop signal is emitted. Leaving a room that was never joined is a no-op.
func (h *Hub) LeaveRoom(c *Conn, room string) {
	h.mu.Lock()
	if _, ok := c.rooms[room]; !ok {
		h.mu.Unlock()
		return
	}
	delete(c.rooms, room)
	if c.activeRoom == room {
		c.activeRoom = ""
		for r := range c.rooms {
			c.activeRoom = r
			break
		}
	}
	h.mu.Unlock()

	h.rooms.Leave(room, c.id)
	h.clearTyping(c, room)
}

// Broadcast delivers ev to every connection currently subscribed to room,
// optionally skipping one connection (used for typing signals; messages
// are echoed back to their sender).
func (h *Hub) Broadcast(room string, ev Event, exclude string) {
	members := h.rooms.Members(room)
	if len(members) == 0 {
		return
	}

	h.mu.Lock()
	targets := make([]*Conn, 0, len(members))
	for _, id := range members {
		if id == exclude {
			continue
		}
		if c, ok := h.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.deliver(ev)
	}
}

// DispatchSend validates text, persists it through the ingest pipeline and
// broadcasts the stored message to the connection's active room. On
// persistence failure no broadcast occurs. The hub holds no lock across
// the persistence step, so unrelated sends are never serialized by it.
func (h *Hub) DispatchSend(ctx context.Context, c *Conn, text string) error {
	h.mu.Lock()
	_, registered := h.conns[c.id]
	room := c.activeRoom
	h.mu.Unlock()

	if !registered {
		return ErrNotRegistered
	}
	if room == "" {
		return ErrNoActiveRoom
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrEmptyMessage
	}

	if _, ok := h.typing.Stop(room, c.identity.ID); ok {
		h.Broadcast(room, NewTypingStoppedEvent(room, c.identity), c.id)
	}

	msg, err := h.ingest.Persist(ctx, room, c.identity, trimmed)
	if err != nil {
		return err
	}

	h.Broadcast(room, NewMessageEvent(msg), "")
	return nil
}

// Typing records a typing event for the connection's active room and
// broadcasts a start signal on the leading edge only, excluding the
// originating connection.
func (h *Hub) Typing(c *Conn) {
	room, ok := h.activeRoom(c)
	if !ok {
		return
	}
	if h.typing.Start(room, c.identity) {
		h.Broadcast(room, NewTypingStartedEvent(room, c.identity), c.id)
	}
}

// StopTyping clears the user's typing mark in the active room and emits
// one stop signal if a mark existed.
func (h *Hub) StopTyping(c *Conn) {
	room, ok := h.activeRoom(c)
	if !ok {
		return
	}
	if user, cleared := h.typing.Stop(room, c.identity.ID); cleared {
		h.Broadcast(room, NewTypingStoppedEvent(room, user), c.id)
	}
}

func (h *Hub) activeRoom(c *Conn) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c.id]; !ok {
		return "", false
	}
	if c.activeRoom == "" {
		return "", false
	}
	return c.activeRoom, true
}

// clearTyping drops the user's typing mark in room unless another of their
// connections is still subscribed there, so closing one tab does not clear
// an indicator still backed by a second tab.
func (h *Hub) clearTyping(c *Conn, room string) {
	if h.userStillInRoom(room, c.identity.ID, c.id) {
		return
	}
	if user, cleared := h.typing.Stop(room, c.identity.ID); cleared {
		h.Broadcast(room, NewTypingStoppedEvent(room, user), "")
	}
}

func (h *Hub) userStillInRoom(room, userID, exceptConn string) bool {
	members := h.rooms.Members(room)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, id := range members {
		if id == exceptConn {
			continue
		}
		if c, ok := h.conns[id]; ok && c.identity.ID == userID {
			return true
		}
	}
	return false
}

func (h *Hub) typingExpired(room string, user Identity) {
	h.Broadcast(room, NewTypingStoppedEvent(room, user), "")
}

func (h *Hub) broadcastPresence() {
	ev := NewPresenceEvent(h.presence.OnlineUsers())

	switch h.scope {
	case PresenceRoom:
		for _, room := range h.rooms.Rooms() {
			h.Broadcast(room, ev, "")
		}
	default:
		h.mu.Lock()
		targets := make([]*Conn, 0, len(h.conns))
		for _, c := range h.conns {
			targets = append(targets, c)
		}
		h.mu.Unlock()

		for _, c := range targets {
			c.deliver(ev)
		}
	}
}
