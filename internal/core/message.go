package core

import "time"

// Message is a relayed chat message. It is never stored.
type Message struct {
	From      string
	Text      string
	CreatedAt time.Time
}
