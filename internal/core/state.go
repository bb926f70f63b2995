package core

// State is the phase of a connected user.
// Users without a live connection have no state at all.
type State int

const (
	// StateIdle is a bound user that is neither searching nor chatting.
	StateIdle State = iota
	// StateWaiting is a user sitting in the waiting pool.
	StateWaiting
	// StatePaired is a user with exactly one partner.
	StatePaired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StatePaired:
		return "paired"
	default:
		return "unknown"
	}
}

// user is the hub's record of a bound user id.
type user struct {
	state     State
	interests []string
}
