package session

import "errors"

type State int

const (
	StateUnknown State = iota
	StateVerifying
	StateAuthenticated
	StateAnonymous
)

var ErrInvalidTransition = errors.New("invalid session state transition")

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "invalid"
	}
}

// transitions lists the allowed moves. A second verification may start
// while one is in flight; the last to resolve wins.
var transitions = map[State]map[State]struct{}{
	StateUnknown: {
		StateVerifying: {},
		StateAnonymous: {},
	},
	StateVerifying: {
		StateVerifying:     {},
		StateAuthenticated: {},
		StateAnonymous:     {},
	},
	StateAuthenticated: {
		StateVerifying:     {},
		StateAuthenticated: {},
		StateAnonymous:     {},
	},
	StateAnonymous: {
		StateVerifying:     {},
		StateAuthenticated: {},
		StateAnonymous:     {},
	},
}

func canTransition(from, to State) bool {
	if allowed, ok := transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}
