package domain

import "sync"

// Membership maps room identifiers to the set of connection ids subscribed
// to them. Rooms come into existence on first join and are never deleted;
// an empty room is just an empty set.
type Membership struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{}
}

func NewMembership() *Membership {
	return &Membership{
		rooms: make(map[string]map[string]struct{}),
	}
}

func (m *Membership) Join(room, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.rooms[room]
	if !ok {
		set = make(map[string]struct{})
		m.rooms[room] = set
	}
	set[connID] = struct{}{}
}

func (m *Membership) Leave(room, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if set, ok := m.rooms[room]; ok {
		delete(set, connID)
	}
}

// Members returns a snapshot of the room's connection ids. Callers iterate
// the snapshot so joins and leaves mid-broadcast cannot skip or double-hit
// a connection.
func (m *Membership) Members(room string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.rooms[room]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(set))
	for id := range set {
		members = append(members, id)
	}
	return members
}

func (m *Membership) MemberCount(room string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.rooms[room])
}

// Rooms returns every room seen so far, including empty ones.
func (m *Membership) Rooms() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms := make([]string, 0, len(m.rooms))
	for room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
