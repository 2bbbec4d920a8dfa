// Package sequencer owns the hunt session: the active challenge, submissions,
// persistence, effects and completion.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/spookhunt/internal/completion"
	"github.com/verte-zerg/spookhunt/internal/effect"
	"github.com/verte-zerg/spookhunt/internal/mazegate"
	"github.com/verte-zerg/spookhunt/internal/model"
	"github.com/verte-zerg/spookhunt/internal/progress"
	"github.com/verte-zerg/spookhunt/internal/verify"
)

// FallbackHint is shown for a wrong answer when the challenge has no hint.
const FallbackHint = "Not quite right. Try again!"

var (
	// ErrBusy rejects a submission while another is being verified.
	ErrBusy = errors.New("a submission is already being checked")
	// ErrCompleted rejects mutations after the final challenge is solved.
	ErrCompleted = errors.New("hunt already completed")
	// ErrStale marks a verification result that outlived a reset.
	ErrStale = errors.New("submission discarded")
	// ErrClosed rejects calls after Close.
	ErrClosed = errors.New("session closed")
)

// Options configures a Sequencer. Zero values pick sensible defaults.
type Options struct {
	DefaultEffect *model.EffectConfig
	Sampler       effect.Sampler
	Now           func() time.Time
	Logger        *zap.Logger
	Presenter     Presenter
	Navigator     Navigator
}

// Sequencer is the single owner of session state. It is safe for concurrent
// use; collaborator callbacks are made without the lock held.
type Sequencer struct {
	mu         sync.Mutex
	challenges []model.Challenge
	store      progress.Store
	rec        progress.Record

	failed       map[int]bool
	fired        map[int]bool
	lastErr      string
	submitting   bool
	completed    bool
	signal       *completion.Signal
	maze         *mazegate.Run
	effectOn     bool
	successOn    bool
	successShown bool
	gen          uint64
	closed       bool

	defaultEffect *model.EffectConfig
	sampler       effect.Sampler
	now           func() time.Time
	log           *zap.Logger
	presenter     Presenter
	navigator     Navigator
}

// New builds a session over challenges, rehydrating progress from store.
func New(ctx context.Context, challenges []model.Challenge, store progress.Store, opts Options) (*Sequencer, error) {
	if len(challenges) == 0 {
		return nil, fmt.Errorf("catalog has no challenges")
	}
	seen := make(map[int]bool, len(challenges))
	for _, ch := range challenges {
		if seen[ch.ID] {
			return nil, fmt.Errorf("duplicate challenge id %d", ch.ID)
		}
		seen[ch.ID] = true
	}
	if store == nil {
		store = progress.NewMemory()
	}
	s := &Sequencer{
		challenges:    append([]model.Challenge(nil), challenges...),
		store:         store,
		failed:        map[int]bool{},
		fired:         map[int]bool{},
		defaultEffect: opts.DefaultEffect,
		sampler:       opts.Sampler,
		now:           opts.Now,
		log:           opts.Logger,
		presenter:     opts.Presenter,
		navigator:     opts.Navigator,
	}
	if s.sampler == nil {
		s.sampler = effect.NewRoller()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.presenter == nil {
		s.presenter = nopPresenter{}
	}
	if s.navigator == nil {
		s.navigator = nopNavigator{}
	}

	rec, ok := store.Load(ctx)
	if !ok {
		rec = progress.NewRecord()
	}
	for id := range rec.Solved {
		if !seen[id] {
			s.log.Warn("dropping solved mark for unknown challenge", zap.Int("challenge", id))
			delete(rec.Solved, id)
		}
	}
	if last := len(s.challenges) - 1; rec.Index > last {
		s.log.Warn("stored index out of range", zap.Int("index", rec.Index), zap.Int("last", last))
		rec.Index = last
	}
	s.rec = rec
	s.log.Debug("session loaded",
		zap.Bool("restored", ok),
		zap.Int("index", rec.Index),
		zap.Int("solved", s.solvedCount()),
	)
	return s, nil
}

// SetPresenter swaps the presentation collaborator.
func (s *Sequencer) SetPresenter(p Presenter) {
	if p == nil {
		p = nopPresenter{}
	}
	s.mu.Lock()
	s.presenter = p
	s.mu.Unlock()
}

// SetNavigator swaps the navigation collaborator.
func (s *Sequencer) SetNavigator(n Navigator) {
	if n == nil {
		n = nopNavigator{}
	}
	s.mu.Lock()
	s.navigator = n
	s.mu.Unlock()
}

// Challenges returns the catalog in sequence order.
func (s *Sequencer) Challenges() []model.Challenge {
	return append([]model.Challenge(nil), s.challenges...)
}

// ChangeAnswer records raw text for the active challenge without verifying it.
func (s *Sequencer) ChangeAnswer(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.completed {
		return ErrCompleted
	}
	id := s.challenges[s.rec.Index].ID
	if s.rec.Answers[id] == text {
		return nil
	}
	s.rec.Answers[id] = text
	s.persist(ctx)
	return nil
}

// ToggleMute flips the mute flag and returns the new value.
func (s *Sequencer) ToggleMute(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	s.rec.Muted = !s.rec.Muted
	s.persist(ctx)
	return s.rec.Muted, nil
}

// Pending is a submission that has been accepted but not yet verified.
type Pending struct {
	gen       uint64
	index     int
	challenge model.Challenge
	answer    string
}

// Challenge returns the challenge being checked.
func (p *Pending) Challenge() model.Challenge {
	return p.challenge
}

// Answer returns the raw text being checked.
func (p *Pending) Answer() string {
	return p.answer
}

// Verify runs the verifier. It touches no session state and may block.
func (p *Pending) Verify(ctx context.Context) Result {
	ok, err := verify.Verify(ctx, p.challenge, p.answer)
	return Result{pending: *p, Correct: ok, Err: err}
}

// Result is a finished verification waiting to be applied.
type Result struct {
	pending Pending
	Correct bool
	Err     error
}

// Outcome describes what a submission did to the session.
type Outcome struct {
	ChallengeID int
	Correct     bool
	Message     string
	Advanced    bool
	Completed   bool
	Signal      *completion.Signal
	Effect      effect.Action
}

// BeginSubmit marks a submission of the active challenge's answer in flight.
func (s *Sequencer) BeginSubmit() (*Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return nil, ErrClosed
	case s.completed:
		return nil, ErrCompleted
	case s.submitting:
		return nil, ErrBusy
	}
	ch := s.challenges[s.rec.Index]
	s.submitting = true
	s.lastErr = ""
	return &Pending{
		gen:       s.gen,
		index:     s.rec.Index,
		challenge: ch,
		answer:    s.rec.Answers[ch.ID],
	}, nil
}

// FinishSubmit applies a verification result. Results that outlived a reset
// or Close return ErrStale and change nothing.
func (s *Sequencer) FinishSubmit(ctx context.Context, res Result) (Outcome, error) {
	var calls []func()

	s.mu.Lock()
	if s.closed || res.pending.gen != s.gen {
		s.mu.Unlock()
		return Outcome{}, ErrStale
	}
	s.submitting = false
	ch := res.pending.challenge
	out := Outcome{ChallengeID: ch.ID}
	if res.Err != nil {
		s.log.Warn("verification failed", zap.Int("challenge", ch.ID), zap.Error(res.Err))
	}

	if !res.Correct || res.Err != nil {
		s.failed[ch.ID] = true
		msg := ch.Hint
		if msg == "" {
			msg = FallbackHint
		}
		s.lastErr = msg
		out.Message = msg
		out.Effect, calls = s.evaluateEffect(ch)
		s.log.Info("answer rejected", zap.Int("challenge", ch.ID), zap.Stringer("effect", out.Effect))
		s.mu.Unlock()
		runAll(calls)
		return out, nil
	}

	out.Correct = true
	delete(s.failed, ch.ID)
	s.rec.Solved[ch.ID] = true
	s.log.Info("challenge solved", zap.Int("challenge", ch.ID))

	if res.pending.index == 0 && !s.successShown {
		s.successShown = true
		s.successOn = true
		gen, p := s.gen, s.presenter
		calls = append(calls, func() { p.ShowSuccessOverlay(s.successDone(gen)) })
	}

	var audit []string
	if s.solvedCount() == len(s.challenges) {
		answers := make([]string, len(s.challenges))
		for i, c := range s.challenges {
			answers[i] = s.rec.Answers[c.ID]
		}
		answers[res.pending.index] = res.pending.answer
		sig := completion.NewSignal(completion.MakeCode(answers), s.now())
		s.completed = true
		s.signal = &sig
		out.Completed = true
		out.Signal = &sig
		audit = answers
		nav := s.navigator
		calls = append(calls, func() { nav.NavigateToResults(sig.Code, sig.ISO(), sig.EpochMs()) })
		s.log.Info("hunt completed", zap.String("code", sig.Code), zap.Time("finished_at", sig.FinishedAt))
	} else if s.rec.Index < len(s.challenges)-1 {
		s.rec.Index++
		out.Advanced = true
	}
	s.persist(ctx)
	s.mu.Unlock()

	runAll(calls)
	if audit != nil {
		s.auditAnswers(ctx, audit)
	}
	return out, nil
}

// Submit checks the active challenge's stored answer in one call.
func (s *Sequencer) Submit(ctx context.Context) (Outcome, error) {
	p, err := s.BeginSubmit()
	if err != nil {
		return Outcome{}, err
	}
	return s.FinishSubmit(ctx, p.Verify(ctx))
}

// evaluateEffect runs the effect gate after a wrong answer. Callers hold mu.
func (s *Sequencer) evaluateEffect(ch model.Challenge) (effect.Action, []func()) {
	if s.maze != nil {
		return effect.ActionNone, nil
	}
	cfg := effect.Resolve(ch.Scare, s.defaultEffect)
	action := effect.Decide(cfg, s.fired[ch.ID], s.sampler)
	switch action {
	case effect.ActionFire:
		return action, []func(){s.fire(ch.ID, *cfg)}
	case effect.ActionMaze:
		gen, id, conf := s.gen, ch.ID, *cfg
		var run *mazegate.Run
		run = mazegate.NewRun(func() { s.mazeWon(gen, run, id, conf) })
		s.maze = run
		p := s.presenter
		s.log.Info("maze gate opened", zap.Int("challenge", ch.ID))
		return action, []func(){func() { p.ShowMazeGate(run) }}
	}
	return action, nil
}

// fire marks the effect fired and returns the presenter call. Callers hold mu.
func (s *Sequencer) fire(id int, cfg model.EffectConfig) func() {
	s.fired[id] = true
	s.effectOn = true
	gen, p := s.gen, s.presenter
	req := effect.Request{ChallengeID: id, Config: cfg, Muted: s.rec.Muted}
	done := func() {
		s.mu.Lock()
		if gen == s.gen {
			s.effectOn = false
		}
		s.mu.Unlock()
	}
	return func() { p.ShowEffect(req, done) }
}

func (s *Sequencer) mazeWon(gen uint64, run *mazegate.Run, id int, cfg model.EffectConfig) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.maze != run {
		s.mu.Unlock()
		return
	}
	run.Close()
	s.maze = nil
	call := s.fire(id, cfg)
	s.log.Info("maze gate won", zap.Int("challenge", id))
	s.mu.Unlock()
	call()
}

func (s *Sequencer) successDone(gen uint64) func() {
	return func() {
		s.mu.Lock()
		if gen == s.gen {
			s.successOn = false
		}
		s.mu.Unlock()
	}
}

// CloseMaze abandons an open maze without firing its effect.
func (s *Sequencer) CloseMaze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maze != nil {
		s.maze.Close()
		s.maze = nil
	}
}

// ResetAll clears persisted progress and every transient flag. The mute
// preference survives in memory until the next save.
func (s *Sequencer) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.gen++
	muted := s.rec.Muted
	s.rec = progress.NewRecord()
	s.rec.Muted = muted
	s.failed = map[int]bool{}
	s.fired = map[int]bool{}
	s.lastErr = ""
	s.submitting = false
	s.completed = false
	s.signal = nil
	if s.maze != nil {
		s.maze.Close()
		s.maze = nil
	}
	s.effectOn = false
	s.successOn = false
	s.successShown = false
	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("clear progress", zap.Error(err))
	}
	s.log.Info("session reset")
	p := s.presenter
	s.mu.Unlock()

	p.DismissAll()
	return nil
}

// Close ends the session. In-flight results are discarded.
func (s *Sequencer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	if s.maze != nil {
		s.maze.Close()
		s.maze = nil
	}
}

// persist saves the record. Write failures are logged and never block
// progression. Callers hold mu.
func (s *Sequencer) persist(ctx context.Context) {
	if err := s.store.Save(ctx, s.rec); err != nil {
		s.log.Warn("save progress", zap.Error(err))
	}
}

// solvedCount relies on New having dropped solved marks for ids outside the
// catalog.
func (s *Sequencer) solvedCount() int {
	return s.rec.SolvedCount()
}

// auditAnswers re-checks the answers a completion code was derived from.
// Stored answers are trusted for the code, so a mismatch is only reported.
func (s *Sequencer) auditAnswers(ctx context.Context, answers []string) {
	for i, ch := range s.challenges {
		ok, err := verify.Verify(ctx, ch, answers[i])
		if err != nil || !ok {
			s.log.Warn("completion code uses an answer that no longer verifies",
				zap.Int("challenge", ch.ID),
				zap.Error(err),
			)
		}
	}
}

func runAll(calls []func()) {
	for _, call := range calls {
		call()
	}
}
