package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin binds the connection to a user id and asks for a partner.
	CommandJoin CommandKind = iota
	// CommandSendMessage relays a chat message to the current partner.
	CommandSendMessage
	// CommandTyping tells the partner the user started typing.
	CommandTyping
	// CommandStoppedTyping tells the partner the user stopped typing.
	CommandStoppedTyping
	// CommandLeave ends the current chat or search without closing the connection.
	CommandLeave
	// CommandNext ends the current chat and immediately searches for a new partner.
	CommandNext
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoin:
		return "join"
	case CommandSendMessage:
		return "message"
	case CommandTyping:
		return "typing"
	case CommandStoppedTyping:
		return "stopped_typing"
	case CommandLeave:
		return "leave"
	case CommandNext:
		return "next"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind      CommandKind
	UserID    string
	Interests []string
	Message   Message
}
