package core

// Stats is the aggregate presence snapshot pushed to every connection.
type Stats struct {
	OnlineUsers  int
	WaitingUsers int
	ActiveChats  int
}

func (h *Hub) stats() Stats {
	return Stats{
		OnlineUsers:  h.registry.Len(),
		WaitingUsers: h.pool.Len(),
		ActiveChats:  h.pairs.Len(),
	}
}

// markPresence records that a membership count changed during the current command.
func (h *Hub) markPresence() {
	h.presenceDirty = true
}

// flushPresence broadcasts stats once per command, only if something changed.
func (h *Hub) flushPresence() {
	if !h.presenceDirty {
		return
	}
	h.presenceDirty = false
	h.broadcastStats()
}

func (h *Hub) broadcastStats() {
	event := &Event{Kind: EventOnlineStats, Stats: h.stats()}
	h.registry.ForEach(func(c *Client) {
		h.send(c, event)
	})
}
