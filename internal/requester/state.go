package requester

import "fmt"

// State is a step of one report request.
type State int

const (
	Drafting State = iota
	AwaitingModel
	Validating
	Escalating
	Done
	Failed
)

var stateNames = [...]string{"drafting", "awaiting_model", "validating", "escalating", "done", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transitions can follow.
func (s State) Terminal() bool { return s == Done || s == Failed }

// allowed lists the legal successors of every state.
var allowed = map[State][]State{
	Drafting:      {AwaitingModel, Failed},
	AwaitingModel: {Validating, Escalating, Failed},
	Validating:    {Done, Escalating},
	Escalating:    {AwaitingModel, Failed},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition is handed to observers on every state change.
type Transition struct {
	From        State
	To          State
	Attempt     int
	Temperature float64
	// Err is the failure that caused the move, if any.
	Err error
}

// Observer is notified synchronously on each transition.
type Observer func(Transition)
