package domain

// State is the lifecycle state of a secrets cache.
type State int32

const (
	// StateUninitialized is the state before Initialize succeeds (and after Close).
	StateUninitialized State = iota
	// StateInitializing is held while Initialize derives keys and loads state.
	StateInitializing
	// StateReady allows Set and Get.
	StateReady
)

// String returns a lowercase name suitable for logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}
