package domain

import (
	"sort"
	"sync"
)

// PresenceRegistry is the single source of truth for who is online. A user
// is online iff at least one of their connections is registered; the entry
// for a user is removed outright when its connection set empties so the
// registry stays bounded by the number of online users.
type PresenceRegistry struct {
	mu      sync.Mutex
	entries map[string]*presenceEntry
}

type presenceEntry struct {
	identity Identity
	conns    map[string]struct{}
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		entries: make(map[string]*presenceEntry),
	}
}

// AddConnection records a live connection for user. It reports whether the
// user transitioned offline -> online; duplicate adds of the same pair are
// idempotent and never report a transition.
func (p *PresenceRegistry) AddConnection(user Identity, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[user.ID]
	if !ok {
		p.entries[user.ID] = &presenceEntry{
			identity: user,
			conns:    map[string]struct{}{connID: {}},
		}
		return true
	}
	entry.conns[connID] = struct{}{}
	return false
}

// RemoveConnection drops a connection for user and reports whether the user
// transitioned online -> offline. Removing a pair that was never added is a
// no-op, which defends against double-disconnect races.
func (p *PresenceRegistry) RemoveConnection(userID, connID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[userID]
	if !ok {
		return false
	}
	if _, ok := entry.conns[connID]; !ok {
		return false
	}
	delete(entry.conns, connID)
	if len(entry.conns) > 0 {
		return false
	}
	delete(p.entries, userID)
	return true
}

func (p *PresenceRegistry) IsOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.entries[userID]
	return ok
}

// OnlineUsers returns the identities currently online, sorted by display
// name for stable output.
func (p *PresenceRegistry) OnlineUsers() []Identity {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]Identity, 0, len(p.entries))
	for _, entry := range p.entries {
		users = append(users, entry.identity)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName != users[j].DisplayName {
			return users[i].DisplayName < users[j].DisplayName
		}
		return users[i].ID < users[j].ID
	})
	return users
}

// ConnectionCount reports the number of live connections for user.
func (p *PresenceRegistry) ConnectionCount(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[userID]
	if !ok {
		return 0
	}
	return len(entry.conns)
}
