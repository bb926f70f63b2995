package core

import "sync"

const defaultClientBuffer = 16

// Client is one transport connection as seen by the core layer.
// The transport writes Commands and drains Events; the hub owns everything else.
type Client struct {
	ID         string
	RemoteAddr string
	Commands   chan *Command
	Events     chan *Event

	closeOnce sync.Once
}

// NewClient constructs a client with initialized channels.
// A non-positive buffer falls back to the default event buffer size.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan *Event, buffer),
	}
}

// closeCommands ends the command stream. Safe to call more than once.
func (c *Client) closeCommands() {
	c.closeOnce.Do(func() {
		close(c.Commands)
	})
}
