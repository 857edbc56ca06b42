package domain

import (
	"sync"
	"time"
)

// DefaultTypingTTL is the window after which a typing mark auto-expires
// when no further typing events arrive.
const DefaultTypingTTL = 2 * time.Second

type typingKey struct {
	room   string
	userID string
}

type typingMark struct {
	user  Identity
	gen   uint64
	timer *time.Timer
}

// TypingTracker holds at most one typing mark per (room, user) pair. Marks
// are keyed by user rather than connection so a user typing from two tabs
// shares one mark. Each armed timer carries a generation taken from a
// per-key counter that only ever increases, including across mark removal
// and re-creation; a timer that fired late can therefore never clear a
// newer mark for the same pair.
type TypingTracker struct {
	mu       sync.Mutex
	ttl      time.Duration
	marks    map[typingKey]*typingMark
	gens     map[typingKey]uint64
	onExpire func(room string, user Identity)
}

// NewTypingTracker creates a tracker. onExpire runs on the timer goroutine,
// outside the tracker lock, whenever a mark times out.
func NewTypingTracker(ttl time.Duration, onExpire func(room string, user Identity)) *TypingTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingTracker{
		ttl:      ttl,
		marks:    make(map[typingKey]*typingMark),
		gens:     make(map[typingKey]uint64),
		onExpire: onExpire,
	}
}

// Start records a typing event for (room, user). It reports true only on
// the Idle -> Typing edge; repeats before expiry extend the window and
// report false.
func (t *TypingTracker) Start(room string, user Identity) bool {
	key := typingKey{room: room, userID: user.ID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if mark, ok := t.marks[key]; ok {
		mark.timer.Stop()
		t.arm(key, mark)
		return false
	}

	mark := &typingMark{user: user}
	t.marks[key] = mark
	t.arm(key, mark)
	return true
}

// Stop clears the mark for (room, user) and cancels its timer. It reports
// the marked identity and true if a mark existed, so a typing session can
// never produce two stop signals.
func (t *TypingTracker) Stop(room, userID string) (Identity, bool) {
	key := typingKey{room: room, userID: userID}

	t.mu.Lock()
	defer t.mu.Unlock()

	mark, ok := t.marks[key]
	if !ok {
		return Identity{}, false
	}
	mark.timer.Stop()
	delete(t.marks, key)
	return mark.user, true
}

// Active reports whether a mark currently exists for (room, user).
func (t *TypingTracker) Active(room, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.marks[typingKey{room: room, userID: userID}]
	return ok
}

// arm schedules expiry for mark under a fresh generation. Caller holds the
// lock.
func (t *TypingTracker) arm(key typingKey, mark *typingMark) {
	t.gens[key]++
	gen := t.gens[key]
	mark.gen = gen
	mark.timer = time.AfterFunc(t.ttl, func() { t.expire(key, gen) })
}

func (t *TypingTracker) expire(key typingKey, gen uint64) {
	t.mu.Lock()
	mark, ok := t.marks[key]
	if !ok || mark.gen != gen {
		t.mu.Unlock()
		return
	}
	delete(t.marks, key)
	user := mark.user
	t.mu.Unlock()

	if t.onExpire != nil {
		t.onExpire(key.room, user)
	}
}
