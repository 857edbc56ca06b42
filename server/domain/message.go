package domain

import "time"

// Message is a persisted chat message. The store assigns ID and CreatedAt;
// a Message is immutable once created.
type Message struct {
	ID         string
	Room       string
	SenderID   string
	SenderName string
	Body       string
	CreatedAt  time.Time
}

func NewMessage(id, room, senderID, senderName, body string, createdAt time.Time) Message {
	return Message{
		ID:         id,
		Room:       room,
		SenderID:   senderID,
		SenderName: senderName,
		Body:       body,
		CreatedAt:  createdAt,
	}
}
