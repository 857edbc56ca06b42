package domain

type EventType int

const (
	EventMessage EventType = iota
	EventPresence
	EventTypingStarted
	EventTypingStopped
)

func (t EventType) String() string {
	switch t {
	case EventMessage:
		return "message-received"
	case EventPresence:
		return "presence-updated"
	case EventTypingStarted:
		return "typing-started"
	case EventTypingStopped:
		return "typing-stopped"
	default:
		return "unknown"
	}
}

// Event is an outbound notification fanned out by the hub. Which fields are
// set depends on Type: Message for EventMessage, Online for EventPresence,
// User for the typing events.
type Event struct {
	Type    EventType
	Room    string
	Message Message
	Online  []Identity
	User    Identity
}

func NewMessageEvent(msg Message) Event {
	return Event{
		Type:    EventMessage,
		Room:    msg.Room,
		Message: msg,
	}
}

func NewPresenceEvent(online []Identity) Event {
	return Event{
		Type:   EventPresence,
		Online: online,
	}
}

func NewTypingStartedEvent(room string, user Identity) Event {
	return Event{
		Type: EventTypingStarted,
		Room: room,
		User: user,
	}
}

func NewTypingStoppedEvent(room string, user Identity) Event {
	return Event{
		Type: EventTypingStopped,
		Room: room,
		User: user,
	}
}

func (e Event) String() string {
	switch e.Type {
	case EventMessage:
		return e.Type.String() + ": " + e.Message.SenderName + " - " + e.Message.Body
	case EventTypingStarted, EventTypingStopped:
		return e.Type.String() + ": " + e.User.DisplayName + " in " + e.Room
	default:
		return e.Type.String()
	}
}
