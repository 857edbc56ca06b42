package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngest struct {
	mu    sync.Mutex
	saved []Message
	err   error
}

func (f *fakeIngest) Persist(ctx context.Context, room string, sender Identity, text string) (Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return Message{}, f.err
	}
	msg := NewMessage(fmt.Sprintf("m%d", len(f.saved)+1), room, sender.ID, sender.DisplayName, text, time.Now())
	f.saved = append(f.saved, msg)
	return msg, nil
}

func (f *fakeIngest) persisted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func newTestHub(ttl time.Duration) (*Hub, *fakeIngest) {
	ingest := &fakeIngest{}
	hub := NewHub(NewPresenceRegistry(), NewMembership(), ingest, ttl, PresenceGlobal)
	return hub, ingest
}

// drain empties the connection's buffered events without blocking. Hub
// deliveries run on the calling goroutine, so anything broadcast before
// drain is already in the buffer.
func drain(c *Conn) []Event {
	var events []Event
	for {
		select {
		case ev, ok := <-c.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		default:
			return events
		}
	}
}

func eventsOfType(events []Event, typ EventType) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestHub_RegisterTwiceFails(t *testing.T) {
	hub, _ := newTestHub(time.Minute)
	conn := NewConn("c1", NewIdentity("u1", "alice"), 16)

	require.NoError(t, hub.Register(conn))
	assert.ErrorIs(t, hub.Register(conn), ErrAlreadyRegistered)

	// the connection stays usable after the rejected call
	require.NoError(t, hub.JoinRoom(conn, "general"))
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	hub, _ := newTestHub(time.Minute)
	conn := NewConn("c1", NewIdentity("u1", "alice"), 16)

	// unregister before register completed is a no-op
	hub.Unregister(conn)
	assert.False(t, hub.presence.IsOnline("u1"))

	require.NoError(t, hub.Register(conn))
	hub.Unregister(conn)
	hub.Unregister(conn)
	assert.False(t, hub.presence.IsOnline("u1"))
}

func TestHub_PresenceNotificationsOnTransitionsOnly(t *testing.T) {
	hub, _ := newTestHub(time.Minute)

	observer := NewConn("obs", NewIdentity("u9", "observer"), 16)
	require.NoError(t, hub.Register(observer))
	drain(observer)

	alice := NewIdentity("u1", "alice")
	tab1 := NewConn("c1", alice, 16)
	tab2 := NewConn("c2", alice, 16)

	require.NoError(t, hub.Register(tab1))
	online := eventsOfType(drain(observer), EventPresence)
	require.Len(t, online, 1, "offline->online fires exactly one notification")
	assert.Equal(t, []Identity{alice, {ID: "u9", DisplayName: "observer"}}, online[0].Online)

	require.NoError(t, hub.Register(tab2))
	assert.Empty(t, eventsOfType(drain(observer), EventPresence), "second tab does not change aggregate state")

	hub.Unregister(tab1)
	assert.Empty(t, eventsOfType(drain(observer), EventPresence), "user still online via second tab")
	assert.True(t, hub.presence.IsOnline("u1"))

	hub.Unregister(tab2)
	offline := eventsOfType(drain(observer), EventPresence)
	require.Len(t, offline, 1, "online->offline fires exactly one notification")
	assert.Equal(t, []Identity{{ID: "u9", DisplayName: "observer"}}, offline[0].Online)
	assert.False(t, hub.presence.IsOnline("u1"))
}

func TestHub_LeaveRoomStopsDelivery(t *testing.T) {
	hub, _ := newTestHub(time.Minute)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	b := NewConn("c2", NewIdentity("u2", "bob"), 16)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	require.NoError(t, hub.JoinRoom(a, "general"))
	require.NoError(t, hub.JoinRoom(b, "general"))
	drain(a)
	drain(b)

	hub.LeaveRoom(b, "general")

	require.NoError(t, hub.DispatchSend(context.Background(), a, "hi"))
	assert.Len(t, eventsOfType(drain(a), EventMessage), 1)
	assert.Empty(t, eventsOfType(drain(b), EventMessage), "broadcast must not reach a member that left")
}

func TestHub_DispatchSendEchoesToSender(t *testing.T) {
	hub, ingest := newTestHub(time.Minute)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	b := NewConn("c2", NewIdentity("u2", "bob"), 16)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	require.NoError(t, hub.JoinRoom(a, "general"))
	require.NoError(t, hub.JoinRoom(b, "general"))
	drain(a)
	drain(b)

	require.NoError(t, hub.DispatchSend(context.Background(), a, "hi"))

	for _, conn := range []*Conn{a, b} {
		got := eventsOfType(drain(conn), EventMessage)
		require.Len(t, got, 1)
		assert.Equal(t, "hi", got[0].Message.Body)
		assert.Equal(t, "alice", got[0].Message.SenderName)
		assert.Equal(t, "general", got[0].Message.Room)
	}
	assert.Equal(t, 1, ingest.persisted())
}

func TestHub_DispatchSendValidation(t *testing.T) {
	hub, ingest := newTestHub(time.Minute)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.JoinRoom(a, "general"))
	drain(a)

	assert.ErrorIs(t, hub.DispatchSend(context.Background(), a, "   \t\n"), ErrEmptyMessage)
	assert.Equal(t, 0, ingest.persisted(), "whitespace-only text never reaches the pipeline")
	assert.Empty(t, eventsOfType(drain(a), EventMessage))

	// no active room
	hub.LeaveRoom(a, "general")
	assert.ErrorIs(t, hub.DispatchSend(context.Background(), a, "hi"), ErrNoActiveRoom)

	// unregistered connection
	ghost := NewConn("c9", NewIdentity("u9", "ghost"), 16)
	assert.ErrorIs(t, hub.DispatchSend(context.Background(), ghost, "hi"), ErrNotRegistered)
}

func TestHub_DispatchSendStoreFailureDropsBroadcast(t *testing.T) {
	hub, ingest := newTestHub(time.Minute)
	ingest.err = fmt.Errorf("%w: connection refused", ErrStoreUnavailable)

	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	b := NewConn("c2", NewIdentity("u2", "bob"), 16)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	require.NoError(t, hub.JoinRoom(a, "general"))
	require.NoError(t, hub.JoinRoom(b, "general"))
	drain(a)
	drain(b)

	err := hub.DispatchSend(context.Background(), a, "hi")
	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.Empty(t, eventsOfType(drain(a), EventMessage))
	assert.Empty(t, eventsOfType(drain(b), EventMessage))

	// the connection survives the failure
	ingest.err = nil
	require.NoError(t, hub.DispatchSend(context.Background(), a, "hi again"))
	assert.Len(t, eventsOfType(drain(b), EventMessage), 1)
}

func TestHub_TypingLeadingEdgeAndExpiry(t *testing.T) {
	hub, _ := newTestHub(60 * time.Millisecond)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	b := NewConn("c2", NewIdentity("u2", "bob"), 16)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	require.NoError(t, hub.JoinRoom(a, "general"))
	require.NoError(t, hub.JoinRoom(b, "general"))
	drain(a)
	drain(b)

	hub.Typing(b)
	hub.Typing(b) // repeat before expiry

	started := eventsOfType(drain(a), EventTypingStarted)
	require.Len(t, started, 1, "exactly one typing-started for the session")
	assert.Equal(t, "bob", started[0].User.DisplayName)
	assert.Empty(t, eventsOfType(drain(b), EventTypingStarted), "originator is excluded")

	require.Eventually(t, func() bool {
		return len(eventsOfType(drain(a), EventTypingStopped)) == 1
	}, time.Second, 5*time.Millisecond, "expiry emits exactly one typing-stopped")

	// expired session cannot fire a second stop
	hub.StopTyping(b)
	assert.Empty(t, eventsOfType(drain(a), EventTypingStopped))
}

func TestHub_ExplicitStopTyping(t *testing.T) {
	hub, _ := newTestHub(time.Minute)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	b := NewConn("c2", NewIdentity("u2", "bob"), 16)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	require.NoError(t, hub.JoinRoom(a, "general"))
	require.NoError(t, hub.JoinRoom(b, "general"))
	drain(a)
	drain(b)

	hub.Typing(b)
	hub.StopTyping(b)
	hub.StopTyping(b) // second stop is a no-op

	drain(b)
	assert.Len(t, eventsOfType(drain(a), EventTypingStopped), 1)
}

func TestHub_DisconnectClearsTypingAndPresence(t *testing.T) {
	hub, _ := newTestHub(time.Minute)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	b := NewConn("c2", NewIdentity("u2", "bob"), 16)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(b))
	require.NoError(t, hub.JoinRoom(a, "general"))
	require.NoError(t, hub.JoinRoom(b, "general"))
	drain(a)
	drain(b)

	hub.Typing(b)
	drain(a)

	hub.Unregister(b)

	events := drain(a)
	assert.Len(t, eventsOfType(events, EventTypingStopped), 1)
	presence := eventsOfType(events, EventPresence)
	require.Len(t, presence, 1)
	assert.Equal(t, []Identity{{ID: "u1", DisplayName: "alice"}}, presence[0].Online)
}

func TestHub_SharedTypingMarkAcrossTabs(t *testing.T) {
	hub, _ := newTestHub(time.Minute)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	bob := NewIdentity("u2", "bob")
	tab1 := NewConn("c2", bob, 16)
	tab2 := NewConn("c3", bob, 16)
	for _, c := range []*Conn{a, tab1, tab2} {
		require.NoError(t, hub.Register(c))
		require.NoError(t, hub.JoinRoom(c, "general"))
	}
	drain(a)

	hub.Typing(tab1)
	require.Len(t, eventsOfType(drain(a), EventTypingStarted), 1)

	// closing one tab must not clear the mark still backed by the other
	hub.Unregister(tab1)
	assert.Empty(t, eventsOfType(drain(a), EventTypingStopped))
	assert.True(t, hub.typing.Active("general", "u2"))

	hub.Unregister(tab2)
	assert.Len(t, eventsOfType(drain(a), EventTypingStopped), 1)
	assert.False(t, hub.typing.Active("general", "u2"))
}

func TestHub_ActiveRoomFollowsLastJoin(t *testing.T) {
	hub, _ := newTestHub(time.Minute)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	watcher := NewConn("c2", NewIdentity("u2", "bob"), 16)
	require.NoError(t, hub.Register(a))
	require.NoError(t, hub.Register(watcher))
	require.NoError(t, hub.JoinRoom(watcher, "first"))

	require.NoError(t, hub.JoinRoom(a, "first"))
	require.NoError(t, hub.JoinRoom(a, "second"))
	drain(watcher)

	require.NoError(t, hub.DispatchSend(context.Background(), a, "to second"))
	assert.Empty(t, eventsOfType(drain(watcher), EventMessage), "send targets the active room")

	hub.LeaveRoom(a, "second")
	require.NoError(t, hub.DispatchSend(context.Background(), a, "back to first"))
	got := eventsOfType(drain(watcher), EventMessage)
	require.Len(t, got, 1)
	assert.Equal(t, "back to first", got[0].Message.Body)
}

func TestHub_UnregisterClosesEventChannel(t *testing.T) {
	hub, _ := newTestHub(time.Minute)
	a := NewConn("c1", NewIdentity("u1", "alice"), 16)
	require.NoError(t, hub.Register(a))

	hub.Unregister(a)

	_, open := <-a.Events()
	assert.False(t, open, "events channel closes on unregister")
}

func TestHub_ConcurrentJoinSendLeave(t *testing.T) {
	hub, ingest := newTestHub(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := NewIdentity(fmt.Sprintf("u%d", n), fmt.Sprintf("user%d", n))
			conn := NewConn(fmt.Sprintf("c%d", n), user, 64)
			assert.NoError(t, hub.Register(conn))
			assert.NoError(t, hub.JoinRoom(conn, "general"))
			hub.Typing(conn)
			assert.NoError(t, hub.DispatchSend(context.Background(), conn, fmt.Sprintf("hello from %d", n)))
			hub.LeaveRoom(conn, "general")
			hub.Unregister(conn)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, ingest.persisted())
	assert.Empty(t, hub.presence.OnlineUsers())
	assert.Empty(t, hub.rooms.Members("general"))
}
