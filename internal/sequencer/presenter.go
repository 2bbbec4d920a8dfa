package sequencer

import (
	"github.com/verte-zerg/spookhunt/internal/effect"
	"github.com/verte-zerg/spookhunt/internal/mazegate"
)

// Presenter renders effects on behalf of the sequencer. Calls arrive after the
// sequencer has released its lock, so implementations may call back into it.
type Presenter interface {
	// ShowEffect displays req and calls onComplete once the media ends or its
	// timer expires.
	ShowEffect(req effect.Request, onComplete func())
	// ShowMazeGate presents the mini-game. The run already carries the win
	// callback; the presenter forwards zone events and hides the maze once the
	// run is closed.
	ShowMazeGate(run *mazegate.Run)
	ShowSuccessOverlay(onComplete func())
	// DismissAll hides every overlay without running callbacks.
	DismissAll()
}

// Navigator moves the user to the results surface.
type Navigator interface {
	NavigateToResults(code, finishedAtISO string, finishedAtEpochMs int64)
}

type nopPresenter struct{}

func (nopPresenter) ShowEffect(effect.Request, func()) {}
func (nopPresenter) ShowMazeGate(*mazegate.Run)        {}
func (nopPresenter) ShowSuccessOverlay(func())         {}
func (nopPresenter) DismissAll()                       {}

type nopNavigator struct{}

func (nopNavigator) NavigateToResults(string, string, int64) {}
