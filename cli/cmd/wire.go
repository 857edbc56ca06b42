package cmd

import "time"

// Wire types matching the server's websocket and REST payloads.

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
