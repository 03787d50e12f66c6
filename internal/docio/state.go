package docio

// State is a step of a load or save session.
type State uint8

const (
	StateIdle State = iota
	StateOpening
	StateMounting
	StateQueryingInfo
	StateReading
	StateCheckingConflict
	StateWriting
	StateClosing
	StateCompleted
	StateFailed
	StateCancelled
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateOpening:          "opening",
	StateMounting:         "mounting",
	StateQueryingInfo:     "querying info",
	StateReading:          "reading",
	StateCheckingConflict: "checking conflict",
	StateWriting:          "writing",
	StateClosing:          "closing",
	StateCompleted:        "completed",
	StateFailed:           "failed",
	StateCancelled:        "cancelled",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether the session has ended.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}
