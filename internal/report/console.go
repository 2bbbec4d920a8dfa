package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/spookhunt/internal/completion"
	"github.com/verte-zerg/spookhunt/internal/effect"
	"github.com/verte-zerg/spookhunt/internal/mazegate"
	"github.com/verte-zerg/spookhunt/internal/sequencer"
)

// Bell is the terminal bell used as the audio cue.
const Bell = "\a"

// Console presents effects as text lines. Overlays complete immediately since
// there is no media to wait for. The maze cannot be played line by line, so
// it is announced and left open.
type Console struct {
	w io.Writer
}

var (
	_ sequencer.Presenter = (*Console)(nil)
	_ sequencer.Navigator = (*Console)(nil)
)

// NewConsole writes to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) println(args ...any) {
	if _, err := fmt.Fprintln(c.w, args...); err != nil {
		// Best-effort console output.
		_ = err
	}
}

// ShowEffect implements sequencer.Presenter.
func (c *Console) ShowEffect(req effect.Request, onComplete func()) {
	cfg := req.Config
	parts := []string{}
	for _, media := range []string{cfg.ImageURL, cfg.VideoURL, cfg.SoundURL} {
		if media != "" {
			parts = append(parts, media)
		}
	}
	line := "*** BOO! ***"
	if cfg.OverlayText != "" {
		line = "*** " + cfg.OverlayText + " ***"
	}
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	if !req.Muted && cfg.SoundURL != "" {
		line = Bell + line
	}
	c.println(line)
	if onComplete != nil {
		onComplete()
	}
}

// ShowMazeGate implements sequencer.Presenter.
func (c *Console) ShowMazeGate(*mazegate.Run) {
	c.println("Something blocks the way. Play the maze in the interactive mode to face it.")
}

// ShowSuccessOverlay implements sequencer.Presenter.
func (c *Console) ShowSuccessOverlay(onComplete func()) {
	c.println("*** First flag captured! ***")
	if onComplete != nil {
		onComplete()
	}
}

// DismissAll implements sequencer.Presenter.
func (c *Console) DismissAll() {}

// NavigateToResults implements sequencer.Navigator.
func (c *Console) NavigateToResults(code, finishedAtISO string, finishedAtEpochMs int64) {
	c.println()
	for _, line := range ResultsLines(completion.FromResults(code, finishedAtISO, finishedAtEpochMs)) {
		c.println(line)
	}
}
