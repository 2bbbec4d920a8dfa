// Package tui provides the Bubble Tea hunt interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/spookhunt/internal/completion"
	"github.com/verte-zerg/spookhunt/internal/effect"
	"github.com/verte-zerg/spookhunt/internal/mazegate"
	"github.com/verte-zerg/spookhunt/internal/model"
	"github.com/verte-zerg/spookhunt/internal/report"
	"github.com/verte-zerg/spookhunt/internal/sequencer"
)

const (
	settleDelay      = 150 * time.Millisecond
	captionDelay     = 400 * time.Millisecond
	captionCPS       = 28
	successFrameTick = 250 * time.Millisecond
	successTimeout   = 4 * time.Second

	mazeTitle = "Nice job! You're almost there, just thread the needle..."
	mazeTip   = "Start at START, stay on the path, reach GOAL. Leaving the path resets."
)

var successFrames = []string{
	"      *      ",
	"    * * *    ",
	"  * CORRECT *  ",
	"* * CORRECT * *",
	"  * CORRECT *  ",
	"    CORRECT    ",
}

type screen int

const (
	screenPlay screen = iota
	screenResults
)

type overlayKind int

const (
	overlayEffect overlayKind = iota
	overlaySuccess
)

type overlayPhase int

const (
	phaseExpire overlayPhase = iota
	phaseEnded
	phaseSettle
)

type checkedMsg struct {
	res sequencer.Result
}

type overlayMsg struct {
	kind  overlayKind
	phase overlayPhase
	token uint64
}

type captionTickMsg struct {
	token uint64
}

type successFrameMsg struct {
	token uint64
	frame int
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF7A1A")).Bold(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	linkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB3FF")).Underline(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	solvedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	captionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B30000")).Bold(true)
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	wallStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A3A3A"))
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	overlayStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#B30000")).Padding(1, 3)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	resultsBorder = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#FF7A1A")).Padding(1, 4)
)

// Options tunes the interface.
type Options struct {
	Logger *zap.Logger
	// Bell receives the audio cue for effects with sound; nil stays silent.
	Bell io.Writer
	// MazeLayout overrides the maze board rows.
	MazeLayout []string
}

// Model implements the Bubble Tea hunt UI. It is also the sequencer's
// Presenter and Navigator: the sequencer only calls it from inside Update.
type Model struct {
	ctx  context.Context
	seq  *sequencer.Sequencer
	log  *zap.Logger
	bell io.Writer

	width  int
	height int

	input    textinput.Model
	spinner  spinner.Model
	checking bool
	notice   string
	showHelp bool

	screen  screen
	results completion.Signal

	effect      effect.Overlay
	effectReq   effect.Request
	effectToken uint64
	revealed    int

	success      effect.Overlay
	successToken uint64
	successFrame int

	mazeLayout []string
	maze       *mazegate.Board

	queued []tea.Cmd
}

var (
	_ sequencer.Presenter = (*Model)(nil)
	_ sequencer.Navigator = (*Model)(nil)
)

// NewModel builds the UI and registers it with seq.
func NewModel(ctx context.Context, seq *sequencer.Sequencer, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if len(opts.MazeLayout) == 0 {
		opts.MazeLayout = mazegate.DefaultLayout
	}
	ti := textinput.New()
	ti.Placeholder = "Your answer"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := &Model{
		ctx:        ctx,
		seq:        seq,
		log:        opts.Logger,
		bell:       opts.Bell,
		input:      ti,
		spinner:    sp,
		mazeLayout: opts.MazeLayout,
	}
	m.input.SetValue(seq.Snapshot().Active().Answer)
	seq.SetPresenter(m)
	seq.SetNavigator(m)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.contentWidth() - 4
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		cmd = m.handleKey(msg)
	case checkedMsg:
		m.finishCheck(msg.res)
	case spinner.TickMsg:
		if m.checking {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	case overlayMsg:
		m.handleOverlay(msg)
	case captionTickMsg:
		if msg.token == m.effectToken && m.effect.State() == effect.OverlayShowing {
			caption := []rune(m.effectReq.Config.OverlayText)
			if m.revealed < len(caption) {
				m.revealed++
				m.enqueue(captionTick(msg.token, time.Second/captionCPS))
			}
		}
	case successFrameMsg:
		if msg.token == m.successToken && m.success.State() == effect.OverlayShowing {
			m.successFrame = msg.frame
			if msg.frame >= len(successFrames)-1 {
				if m.success.Ended(msg.token) {
					m.enqueue(overlayAfter(settleDelay, overlaySuccess, phaseSettle, msg.token))
				}
			} else {
				m.enqueue(successFrameAfter(successFrameTick, msg.token, msg.frame+1))
			}
		}
	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, tea.Batch(cmd, m.flush())
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.screen == screenResults {
		switch msg.String() {
		case "enter", "r":
			m.resetAll()
		case "q", "esc":
			return tea.Quit
		}
		return nil
	}
	if msg.Type == tea.KeyCtrlR {
		m.resetAll()
		return nil
	}
	if m.overlayBlocking() {
		return nil
	}
	if m.maze != nil {
		m.handleMazeKey(msg)
		return nil
	}
	switch msg.Type {
	case tea.KeyEnter:
		check := m.submit()
		if check == nil {
			return nil
		}
		return tea.Batch(check, m.spinner.Tick)
	case tea.KeyCtrlT:
		muted, err := m.seq.ToggleMute(m.ctx)
		if err != nil {
			return nil
		}
		m.notice = "Sound on"
		if muted {
			m.notice = "Sound muted"
		}
		return nil
	case tea.KeyCtrlG:
		m.showHelp = !m.showHelp
		return nil
	}
	if m.checking {
		return nil
	}
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		if err := m.seq.ChangeAnswer(m.ctx, after); err != nil {
			m.log.Debug("answer change ignored", zap.Error(err))
		}
	}
	return cmd
}

func (m *Model) handleMazeKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		m.maze.Move(0, -1)
	case "down", "j":
		m.maze.Move(0, 1)
	case "left", "h":
		m.maze.Move(-1, 0)
	case "right", "l":
		m.maze.Move(1, 0)
	case "esc":
		m.seq.CloseMaze()
	}
	if m.maze != nil && m.maze.Run().Closed() {
		m.maze = nil
	}
}

// overlayBlocking reports whether a full-screen overlay owns the input. A
// showing overlay cannot be skipped; it ends on its own.
func (m *Model) overlayBlocking() bool {
	return m.effect.Visible() || m.success.Visible()
}

// submit starts verifying the current answer and returns the command that
// runs the check off the UI loop.
func (m *Model) submit() tea.Cmd {
	pending, err := m.seq.BeginSubmit()
	if err != nil {
		if !errors.Is(err, sequencer.ErrBusy) {
			m.notice = err.Error()
		}
		return nil
	}
	m.checking = true
	m.notice = ""
	ctx := m.ctx
	return func() tea.Msg {
		return checkedMsg{res: pending.Verify(ctx)}
	}
}

func (m *Model) finishCheck(res sequencer.Result) {
	out, err := m.seq.FinishSubmit(m.ctx, res)
	if errors.Is(err, sequencer.ErrStale) {
		return
	}
	m.checking = false
	if err != nil {
		m.notice = err.Error()
		return
	}
	if out.Correct && !out.Completed {
		m.notice = "Correct!"
		m.input.SetValue(m.seq.Snapshot().Active().Answer)
		m.input.CursorEnd()
	}
}

func (m *Model) resetAll() {
	if err := m.seq.ResetAll(m.ctx); err != nil {
		m.notice = err.Error()
		return
	}
	m.screen = screenPlay
	m.checking = false
	m.notice = ""
	m.showHelp = false
	m.input.SetValue("")
}

func (m *Model) handleOverlay(msg overlayMsg) {
	ov := &m.effect
	if msg.kind == overlaySuccess {
		ov = &m.success
	}
	switch msg.phase {
	case phaseExpire:
		if ov.Expire(msg.token) {
			m.enqueue(overlayAfter(settleDelay, msg.kind, phaseSettle, msg.token))
		}
	case phaseEnded:
		if ov.Ended(msg.token) {
			m.enqueue(overlayAfter(settleDelay, msg.kind, phaseSettle, msg.token))
		}
	case phaseSettle:
		ov.Settle(msg.token)
	}
}

// ShowEffect implements sequencer.Presenter.
func (m *Model) ShowEffect(req effect.Request, onComplete func()) {
	token, ok := m.effect.Show(onComplete)
	if !ok {
		m.log.Warn("effect dropped, overlay busy", zap.Int("challenge", req.ChallengeID))
		if onComplete != nil {
			onComplete()
		}
		return
	}
	m.effectReq = req
	m.effectToken = token
	m.revealed = 0
	m.enqueue(overlayAfter(req.Config.EffectiveDuration(), overlayEffect, phaseExpire, token))
	if req.Config.OverlayText != "" {
		m.enqueue(captionTick(token, captionDelay))
	}
	if !req.Muted && req.Config.SoundURL != "" && m.bell != nil {
		if _, err := io.WriteString(m.bell, report.Bell); err != nil {
			// Best-effort audio cue.
			_ = err
		}
	}
}

// ShowMazeGate implements sequencer.Presenter.
func (m *Model) ShowMazeGate(run *mazegate.Run) {
	board, err := mazegate.ParseLayout(m.mazeLayout)
	if err != nil {
		m.log.Warn("maze layout rejected, using default", zap.Error(err))
		board = mazegate.MustDefault()
	}
	board.Attach(run)
	m.maze = board
}

// ShowSuccessOverlay implements sequencer.Presenter.
func (m *Model) ShowSuccessOverlay(onComplete func()) {
	token, ok := m.success.Show(onComplete)
	if !ok {
		if onComplete != nil {
			onComplete()
		}
		return
	}
	m.successToken = token
	m.successFrame = 0
	m.enqueue(successFrameAfter(successFrameTick, token, 1))
	m.enqueue(overlayAfter(successTimeout, overlaySuccess, phaseExpire, token))
}

// DismissAll implements sequencer.Presenter.
func (m *Model) DismissAll() {
	m.effect.Dismiss()
	m.success.Dismiss()
	m.maze = nil
}

// NavigateToResults implements sequencer.Navigator.
func (m *Model) NavigateToResults(code, finishedAtISO string, finishedAtEpochMs int64) {
	m.results = completion.FromResults(code, finishedAtISO, finishedAtEpochMs)
	m.screen = screenResults
	m.notice = ""
}

func (m *Model) enqueue(cmd tea.Cmd) {
	m.queued = append(m.queued, cmd)
}

func (m *Model) flush() tea.Cmd {
	if len(m.queued) == 0 {
		return nil
	}
	cmds := m.queued
	m.queued = nil
	return tea.Batch(cmds...)
}

func overlayAfter(d time.Duration, kind overlayKind, phase overlayPhase, token uint64) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return overlayMsg{kind: kind, phase: phase, token: token}
	})
}

func captionTick(token uint64, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return captionTickMsg{token: token}
	})
}

func successFrameAfter(d time.Duration, token uint64, frame int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return successFrameMsg{token: token, frame: frame}
	})
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 72
	}
	w := int(float64(m.width) * 0.70)
	if w < 20 {
		w = m.width
	}
	return w
}

// View implements tea.Model.
func (m *Model) View() string {
	var content string
	switch {
	case m.screen == screenResults:
		content = m.renderResults()
	case m.effect.Visible():
		content = m.renderEffect()
	case m.success.Visible():
		content = m.renderSuccess()
	case m.maze != nil:
		content = m.renderMaze()
	default:
		content = m.renderPlay()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	return body + "\n" + lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderPlay() string {
	snap := m.seq.Snapshot()
	cv := snap.Active()
	ch := cv.Challenge
	width := m.contentWidth()

	parts := []string{
		m.renderProgress(snap),
		titleStyle.Render(ch.Title),
		wrapText(ch.Prompt, width, promptStyle),
	}
	if label := ch.LinkLabel(); label != "" {
		parts = append(parts, pendingStyle.Render(label+": ")+linkStyle.Render(ch.DownloadURL))
	}
	if ch.HelpURL != "" {
		if m.showHelp {
			parts = append(parts, pendingStyle.Render("Need help? ")+linkStyle.Render(ch.HelpURL))
		} else {
			parts = append(parts, pendingStyle.Render("Need help? ctrl+g"))
		}
	}
	parts = append(parts, "", m.input.View())
	switch {
	case m.checking:
		parts = append(parts, m.spinner.View()+" Checking…")
	case snap.Error != "":
		parts = append(parts, errorStyle.Render(snap.Error))
	case m.notice != "":
		parts = append(parts, solvedStyle.Render(m.notice))
	case cv.Status == model.StatusSolved:
		parts = append(parts, solvedStyle.Render("Solved"))
	default:
		parts = append(parts, "")
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderProgress(snap sequencer.Snapshot) string {
	marks := make([]string, len(snap.Challenges))
	for i, cv := range snap.Challenges {
		mark := "○"
		style := pendingStyle
		switch cv.Status {
		case model.StatusSolved:
			mark, style = "●", solvedStyle
		case model.StatusIncorrect:
			mark, style = "✗", errorStyle
		}
		if i == snap.Index {
			style = style.Underline(true)
		}
		marks[i] = style.Render(mark)
	}
	return strings.Join(marks, " ") + pendingStyle.Render(fmt.Sprintf("  %d/%d", snap.Solved, snap.Total))
}

func (m *Model) renderEffect() string {
	cfg := m.effectReq.Config
	lines := []string{captionStyle.Render("👻  BOO!  👻")}
	for _, media := range []string{cfg.ImageURL, cfg.VideoURL} {
		if media != "" {
			lines = append(lines, pendingStyle.Render("["+media+"]"))
		}
	}
	if cfg.SoundURL != "" {
		if m.effectReq.Muted {
			lines = append(lines, pendingStyle.Render("(muted)"))
		} else {
			lines = append(lines, pendingStyle.Render("♪ "+cfg.SoundURL))
		}
	}
	if cfg.OverlayText != "" {
		lines = append(lines, "", wrapStyledRunes(typewriterRunes([]rune(cfg.OverlayText), m.revealed), m.contentWidth()))
	}
	return overlayStyle.Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m *Model) renderSuccess() string {
	frame := successFrames[0]
	if m.successFrame >= 0 && m.successFrame < len(successFrames) {
		frame = successFrames[m.successFrame]
	}
	return successStyle.Render(frame)
}

func (m *Model) renderMaze() string {
	board := m.maze
	var b strings.Builder
	cursor := board.Cursor()
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			p := mazegate.Point{X: x, Y: y}
			if p == cursor {
				b.WriteString(cursorStyle.Render("@"))
				continue
			}
			switch board.At(p) {
			case mazegate.CellWall:
				b.WriteString(wallStyle.Render("█"))
			case mazegate.CellStart:
				b.WriteString(solvedStyle.Render("S"))
			case mazegate.CellGoal:
				b.WriteString(captionStyle.Render("G"))
			default:
				b.WriteString(pathStyle.Render("·"))
			}
		}
		if y < board.Height()-1 {
			b.WriteByte('\n')
		}
	}
	status := pendingStyle.Render(mazeTip)
	if board.Run().State() == mazegate.StateFailed {
		status = errorStyle.Render("You left the path. Return to START.")
	}
	return lipgloss.JoinVertical(lipgloss.Center, titleStyle.Render(mazeTitle), "", b.String(), "", status)
}

func (m *Model) renderResults() string {
	lines := report.ResultsLines(m.results)
	lines[0] = titleStyle.Render(lines[0])
	lines = append(lines, "", pendingStyle.Render("enter: Play again (reset) · q: quit"))
	return resultsBorder.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	if m.screen == screenResults {
		return ""
	}
	var segments []string
	switch {
	case m.maze != nil:
		segments = []string{"arrows/hjkl move", "esc give up"}
	case m.effect.Visible() || m.success.Visible():
		return ""
	default:
		segments = []string{"enter submit", "ctrl+g help", "ctrl+t mute", "ctrl+r reset", "ctrl+c quit"}
	}
	if m.seq.Snapshot().Muted {
		segments = append(segments, "[muted]")
	}
	return footerStyle.Render(strings.Join(segments, " · "))
}
