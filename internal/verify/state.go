package verify

// State is the explicit phase of one verification attempt. Transitions are
// owned by Stage; every failure path resolves deterministically to
// StateFailed, never to an ambiguous flag combination.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateAwaitingPopup
	StateVerifying
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateAwaitingPopup:
		return "awaiting_popup"
	case StateVerifying:
		return "verifying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the attempt has reached an end state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
