package executor

// State is the scheduler's view of one operator. The only legal transitions
// are Pending -> Ready -> Running -> Completed, and Running -> Failed.
// Dependents of a failed operator stay Pending forever; the run report marks
// them blocked.
type State int

const (
	// Pending means at least one dependency has not completed.
	Pending State = iota
	// Ready means every dependency completed and the operator awaits dispatch.
	Ready
	// Running means the operator was handed to the worker pool.
	Running
	// Completed means every repeat of the operator succeeded.
	Completed
	// Failed means some repeat failed, crashed, or timed out.
	Failed
)

var stateNames = [...]string{"pending", "ready", "running", "completed", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}
