package effect

// OverlayState is the lifecycle position of a full-screen overlay.
type OverlayState int

// Overlay states.
const (
	OverlayHidden OverlayState = iota
	OverlayShowing
	OverlayCompleting
)

func (s OverlayState) String() string {
	switch s {
	case OverlayShowing:
		return "showing"
	case OverlayCompleting:
		return "completing"
	default:
		return "hidden"
	}
}

// Overlay runs hidden -> showing -> completing -> hidden. A showing overlay
// ends either when its timer expires or when its media finishes; user input
// cannot pause, seek or skip it. Every Show hands out a token so late timer
// or media events from an earlier showing are ignored.
type Overlay struct {
	state  OverlayState
	token  uint64
	onDone func()
}

// State returns the current lifecycle state.
func (o *Overlay) State() OverlayState {
	return o.state
}

// Visible reports whether anything is on screen.
func (o *Overlay) Visible() bool {
	return o.state != OverlayHidden
}

// AcceptsUserControl reports whether user input may affect playback.
func (o *Overlay) AcceptsUserControl() bool {
	return o.state != OverlayShowing
}

// Show starts a new showing. It refuses while another showing is active.
func (o *Overlay) Show(onDone func()) (uint64, bool) {
	if o.state != OverlayHidden {
		return 0, false
	}
	o.token++
	o.state = OverlayShowing
	o.onDone = onDone
	return o.token, true
}

// Expire is the auto-dismiss timer firing.
func (o *Overlay) Expire(token uint64) bool {
	return o.complete(token)
}

// Ended is the media reaching its natural end.
func (o *Overlay) Ended(token uint64) bool {
	return o.complete(token)
}

func (o *Overlay) complete(token uint64) bool {
	if token != o.token || o.state != OverlayShowing {
		return false
	}
	o.state = OverlayCompleting
	return true
}

// Settle hides a completing overlay and runs its completion callback.
func (o *Overlay) Settle(token uint64) bool {
	if token != o.token || o.state != OverlayCompleting {
		return false
	}
	o.state = OverlayHidden
	done := o.onDone
	o.onDone = nil
	if done != nil {
		done()
	}
	return true
}

// Dismiss hides the overlay at once without running the callback.
func (o *Overlay) Dismiss() {
	o.state = OverlayHidden
	o.onDone = nil
	o.token++
}
