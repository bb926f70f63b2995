package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

const (
	ProtocolVersion = 1

	InboundTypeJoin          = "join"
	InboundTypeMessage       = "message"
	InboundTypeTyping        = "user_typing"
	InboundTypeStoppedTyping = "user_stopped_typing"
	InboundTypeLeave         = "leave"
	InboundTypeNext          = "next"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventWaiting               = "waiting"
	EventPaired                = "paired"
	EventMessage               = "message"
	EventStrangerTyping        = "stranger_typing"
	EventStrangerStoppedTyping = "stranger_stopped_typing"
	EventStrangerLeft          = "stranger_left"
	EventOnlineStats           = "online_stats"
)

// JoinData asks to be paired with a stranger. UserID is chosen by the client
// and reused across reconnects.
type JoinData struct {
	UserID    string   `json:"userId" validate:"required,max=128"`
	Interests []string `json:"interests,omitempty" validate:"max=64,dive,max=256"`
	Protocol  int      `json:"protocol,omitempty"`
}

// MessageData is a chat line for the current partner.
type MessageData struct {
	Text   string `json:"text" validate:"required,max=2000"`
	UserID string `json:"userId,omitempty"`
}

// TypingData carries typing indicators. UserID is informational only.
type TypingData struct {
	UserID string `json:"userId,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventPairedData announces the new partner.
type EventPairedData struct {
	PartnerID       string   `json:"partnerId"`
	SharedInterests []string `json:"sharedInterests,omitempty"`
}

// EventMessageData is a chat line relayed from the partner.
type EventMessageData struct {
	Text string `json:"text"`
	From string `json:"from"`
	TS   int64  `json:"ts"`
}

// EventOnlineStatsData is broadcast to every connection.
type EventOnlineStatsData struct {
	OnlineUsers  int `json:"onlineUsers"`
	WaitingUsers int `json:"waitingUsers"`
	ActiveChats  int `json:"activeChats"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
