package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventWaiting tells the client it was put in the waiting pool.
	EventWaiting EventKind = iota
	// EventPaired tells the client it has a partner.
	EventPaired
	// EventMessage delivers a message from the partner.
	EventMessage
	// EventStrangerTyping tells the client its partner is typing.
	EventStrangerTyping
	// EventStrangerStoppedTyping tells the client its partner stopped typing.
	EventStrangerStoppedTyping
	// EventStrangerLeft tells the client its partner is gone.
	EventStrangerLeft
	// EventOnlineStats carries aggregate presence counts.
	EventOnlineStats
	// EventError notifies clients about a domain error.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventWaiting:
		return "waiting"
	case EventPaired:
		return "paired"
	case EventMessage:
		return "message"
	case EventStrangerTyping:
		return "stranger_typing"
	case EventStrangerStoppedTyping:
		return "stranger_stopped_typing"
	case EventStrangerLeft:
		return "stranger_left"
	case EventOnlineStats:
		return "online_stats"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
// Broadcast events are shared between clients and must not be mutated.
type Event struct {
	Kind            EventKind
	PartnerID       string
	SharedInterests []string
	Message         Message
	Stats           Stats
	Error           *CoreError
}
