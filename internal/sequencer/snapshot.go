package sequencer

import (
	"github.com/verte-zerg/spookhunt/internal/completion"
	"github.com/verte-zerg/spookhunt/internal/model"
)

// ChallengeView is one row of a Snapshot.
type ChallengeView struct {
	Challenge model.Challenge
	Status    model.Status
	Answer    string
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	Index          int
	Total          int
	Solved         int
	Challenges     []ChallengeView
	Error          string
	Submitting     bool
	Muted          bool
	Completed      bool
	Signal         *completion.Signal
	MazeOpen       bool
	EffectVisible  bool
	SuccessVisible bool
}

// Active returns the view of the active challenge.
func (v Snapshot) Active() ChallengeView {
	return v.Challenges[v.Index]
}

// Snapshot copies the current session state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := Snapshot{
		Index:          s.rec.Index,
		Total:          len(s.challenges),
		Solved:         s.solvedCount(),
		Challenges:     make([]ChallengeView, len(s.challenges)),
		Error:          s.lastErr,
		Submitting:     s.submitting,
		Muted:          s.rec.Muted,
		Completed:      s.completed,
		MazeOpen:       s.maze != nil,
		EffectVisible:  s.effectOn,
		SuccessVisible: s.successOn,
	}
	if s.signal != nil {
		sig := *s.signal
		v.Signal = &sig
	}
	for i, ch := range s.challenges {
		v.Challenges[i] = ChallengeView{
			Challenge: ch,
			Status:    s.statusOf(ch.ID),
			Answer:    s.rec.Answers[ch.ID],
		}
	}
	return v
}

// statusOf resolves a challenge's sub-status: a failed last attempt wins over
// an earlier solve. Callers hold mu.
func (s *Sequencer) statusOf(id int) model.Status {
	switch {
	case s.failed[id]:
		return model.StatusIncorrect
	case s.rec.Solved[id]:
		return model.StatusSolved
	default:
		return model.StatusUnattempted
	}
}
