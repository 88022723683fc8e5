package pam

// State is the lifecycle position of an Authenticator.
type State string

const (
	StateCreated       State = "created"
	StateAuthenticated State = "authenticated"
	StateSessionOpen   State = "session_open"
)

// stateTransitions lists every move the Authenticator may make. Moves back
// to StateCreated are rollbacks and always revoke credentials first.
var stateTransitions = map[State]map[State]struct{}{
	StateCreated: {
		StateAuthenticated: {},
	},
	StateAuthenticated: {
		StateSessionOpen: {},
		StateCreated:     {},
	},
	StateSessionOpen: {
		StateAuthenticated: {},
	},
}

func canTransition(from, to State) bool {
	if allowed, ok := stateTransitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

// HasCredentials reports whether credentials are established in this state.
func (s State) HasCredentials() bool {
	return s == StateAuthenticated || s == StateSessionOpen
}
