package agent

// State is a node of the agent loop state machine.
type State int

const (
	StateIdle State = iota
	StatePrompting
	StateParsing
	StateExecuting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrompting:
		return "prompting"
	case StateParsing:
		return "parsing"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Transition describes one state change; see Options.OnTransition.
type Transition struct {
	Agent string
	RunID string
	Turn  int
	From  State
	To    State
}
