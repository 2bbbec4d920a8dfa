// Package effect decides when ancillary effects fire and tracks their overlays.
package effect

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/spookhunt/internal/model"
)

// Action is the outcome of an effect evaluation.
type Action int

// Effect actions.
const (
	ActionNone Action = iota
	ActionFire
	ActionMaze
)

func (a Action) String() string {
	switch a {
	case ActionFire:
		return "fire"
	case ActionMaze:
		return "maze"
	default:
		return "none"
	}
}

// Request asks the presenter to show one effect.
type Request struct {
	ChallengeID int
	Config      model.EffectConfig
	Muted       bool
}

// Sampler yields uniform samples in [0,1).
type Sampler interface {
	Float64() float64
}

// Roller is the default Sampler.
type Roller struct {
	rnd *rand.Rand
}

// NewRoller returns a Roller seeded with the current time.
func NewRoller() *Roller {
	return NewSeededRoller(time.Now().UnixNano())
}

// NewSeededRoller returns a deterministic Roller.
func NewSeededRoller(seed int64) *Roller {
	return &Roller{rnd: rand.New(rand.NewSource(seed))}
}

// Float64 implements Sampler.
func (r *Roller) Float64() float64 {
	return r.rnd.Float64()
}

// FixedSampler always returns the same sample.
type FixedSampler float64

// Float64 implements Sampler.
func (f FixedSampler) Float64() float64 {
	return float64(f)
}

// Resolve picks the challenge's own configuration, else the session default.
func Resolve(own, fallback *model.EffectConfig) *model.EffectConfig {
	if own != nil {
		return own
	}
	return fallback
}

// Decide evaluates cfg after a wrong answer. It draws exactly one sample
// when the effect is enabled and has not fired yet.
func Decide(cfg *model.EffectConfig, fired bool, s Sampler) Action {
	if cfg == nil || !cfg.Enabled || fired {
		return ActionNone
	}
	p := cfg.EffectiveProbability()
	sample := s.Float64()
	if p <= 0 || sample > p {
		return ActionNone
	}
	if cfg.MazeGate {
		return ActionMaze
	}
	return ActionFire
}
