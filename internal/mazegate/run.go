// Package mazegate implements the maze mini-game that gates gated effects.
package mazegate

// State is the position of a run.
type State int

// Run states.
const (
	StateIdle State = iota
	StateArmed
	StateFailed
	StateWon
)

func (s State) String() string {
	switch s {
	case StateArmed:
		return "armed"
	case StateFailed:
		return "failed"
	case StateWon:
		return "won"
	default:
		return "idle"
	}
}

// Run is one attempt at the maze. Only the start zone arms it, leaving the
// safe path after arming fails it, and only an armed, unfailed run can win.
type Run struct {
	armed  bool
	failed bool
	won    bool
	closed bool
	onWin  func()
}

// NewRun returns an idle run that calls onWin once on a clean win.
func NewRun(onWin func()) *Run {
	return &Run{onWin: onWin}
}

// State reports where the run is.
func (r *Run) State() State {
	switch {
	case r.won:
		return StateWon
	case r.failed:
		return StateFailed
	case r.armed:
		return StateArmed
	default:
		return StateIdle
	}
}

// EnterStart arms the run from any state.
func (r *Run) EnterStart() {
	if r.closed {
		return
	}
	r.armed = true
	r.failed = false
	r.won = false
}

// LeaveSafe fails an armed run that has not been won.
func (r *Run) LeaveSafe() {
	if r.closed {
		return
	}
	if r.armed && !r.won {
		r.failed = true
	}
}

// EnterGoal wins an armed, unfailed run. It reports whether this call won.
func (r *Run) EnterGoal() bool {
	if r.closed || !r.armed || r.failed || r.won {
		return false
	}
	r.won = true
	if r.onWin != nil {
		r.onWin()
	}
	return true
}

// Close makes the run ignore every further event.
func (r *Run) Close() {
	r.closed = true
}

// Closed reports whether Close was called.
func (r *Run) Closed() bool {
	return r.closed
}
