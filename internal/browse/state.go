package browse

// State is the controller's position in the query lifecycle.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateQuerying
	StateCommitted
	StateRejected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateQuerying:
		return "querying"
	case StateCommitted:
		return "committed"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Event drives a State transition.
type Event int

const (
	// EventInput is any user filter action (search submit, category, clear).
	EventInput Event = iota
	EventValid
	EventInvalid
	EventAccepted
	EventFailed
	// EventAck returns a resting Committed/Rejected state to Idle.
	EventAck
	EventTeardown
)

func (e Event) String() string {
	switch e {
	case EventInput:
		return "input"
	case EventValid:
		return "valid"
	case EventInvalid:
		return "invalid"
	case EventAccepted:
		return "accepted"
	case EventFailed:
		return "failed"
	case EventAck:
		return "ack"
	case EventTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

// Next is the pure transition function. Pairs not listed leave s unchanged.
//
// A Rejected state can still see an earlier, still-current request settle:
// rejection never issues or cancels a request.
func Next(s State, e Event) State {
	if e == EventTeardown {
		return StateIdle
	}

	switch s {
	case StateIdle, StateCommitted:
		switch e {
		case EventInput:
			return StateValidating
		case EventAck:
			return StateIdle
		}
	case StateValidating:
		switch e {
		case EventValid:
			return StateQuerying
		case EventInvalid:
			return StateRejected
		}
	case StateQuerying:
		switch e {
		case EventInput:
			return StateValidating
		case EventAccepted:
			return StateCommitted
		case EventFailed:
			return StateIdle
		}
	case StateRejected:
		switch e {
		case EventInput:
			return StateValidating
		case EventAccepted:
			return StateCommitted
		case EventAck:
			return StateIdle
		}
	}
	return s
}
