package chat

import "time"

// Session is the ordered history for one user identifier.
type Session struct {
	UserID    string    `json:"userId"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Inbound is a text turn delivered by a transport.
type Inbound struct {
	UserID   string
	UserName string
	Text     string
}
