package renderer

// State is the lifecycle stage of a Renderer. Transitions only move forward.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	}
	return "unknown"
}
