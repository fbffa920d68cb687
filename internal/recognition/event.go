package recognition

// Event is one normalized callback from the recognition stream.
// Interim events are replaced wholesale by the next event for the same
// in-progress utterance; final events are settled and safe to persist.
type Event struct {
	IsFinal      bool
	Speaker      int
	Text         string
	UtteranceEnd bool
	LastWordEnd  float64
}

// State describes the lifecycle of a live recognition connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
