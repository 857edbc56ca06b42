package adaptor

import (
	"time"

	"github.com/preesha73/chathub/server/domain"
)

// Inbound event types accepted on the socket.
const (
	typeJoinRoom   = "join-room"
	typeLeaveRoom  = "leave-room"
	typeSend       = "send"
	typeTyping     = "typing"
	typeStopTyping = "stop-typing"
)

type clientEvent struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
	Text string `json:"text,omitempty"`
}

type serverEvent struct {
	Type    string       `json:"type"`
	Room    string       `json:"room,omitempty"`
	Message *wireMessage `json:"message,omitempty"`
	Online  []wireUser   `json:"online,omitempty"`
	User    *wireUser    `json:"user,omitempty"`
}

type wireMessage struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	SenderID  string    `json:"sender_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type wireUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toWireMessage(m domain.Message) *wireMessage {
	return &wireMessage{
		ID:        m.ID,
		Room:      m.Room,
		SenderID:  m.SenderID,
		Sender:    m.SenderName,
		Text:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

func toWireUsers(users []domain.Identity) []wireUser {
	out := make([]wireUser, len(users))
	for i, u := range users {
		out[i] = wireUser{ID: u.ID, Name: u.DisplayName}
	}
	return out
}

func encodeEvent(ev domain.Event) serverEvent {
	out := serverEvent{
		Type: ev.Type.String(),
		Room: ev.Room,
	}
	switch ev.Type {
	case domain.EventMessage:
		out.Message = toWireMessage(ev.Message)
	case domain.EventPresence:
		out.Online = toWireUsers(ev.Online)
	case domain.EventTypingStarted, domain.EventTypingStopped:
		out.User = &wireUser{ID: ev.User.ID, Name: ev.User.DisplayName}
	}
	return out
}
