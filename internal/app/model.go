package app

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/imagegen"
	"github.com/raulito1500/ielts-simulator/internal/markup"
	"github.com/raulito1500/ielts-simulator/internal/report"
	"github.com/raulito1500/ielts-simulator/internal/session"
	"github.com/raulito1500/ielts-simulator/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// Notices shown in the status line.
const (
	OwnMaterialNotice = "Writing session started with your own material."
	ConfirmEndPrompt  = "Are you sure you want to end the session? (y/n)"
	CopiedNotice      = "Copied!"
)

const noticeTimeout = 2 * time.Second

// Grader grades an essay.
type Grader interface {
	Grade(ctx context.Context, text string) (*grading.Result, error)
}

// ImageSource produces a task image. It never fails; a placeholder stands
// in for errors.
type ImageSource interface {
	Acquire(ctx context.Context) imagegen.Image
}

// Exporter writes a laid-out report.
type Exporter interface {
	Export(ctx context.Context, doc *report.Document) (report.Paths, error)
}

// Options wires the model to its collaborators.
type Options struct {
	Grader   Grader
	Images   ImageSource
	Exporter Exporter
	Loader   report.Loader
	Logger   *zap.Logger

	// Duration is the countdown length in seconds.
	Duration int
	// WarnBelow turns the timer red at or below this many seconds.
	WarnBelow int
	// TargetWords turns the word count green once reached.
	TargetWords int
	// RequestTimeout bounds grade, image and export calls.
	RequestTimeout time.Duration

	// Clipboard replaces the system clipboard, mainly for tests.
	Clipboard func(string) error
}

// Model is the root bubbletea model for the writing session TUI.
type Model struct {
	opts   Options
	logger *zap.Logger

	sess session.State

	editor      textarea.Model
	spinner     spinner.Model
	feedback    viewport.Model
	corrections viewport.Model

	// Rendered correction markup, parsed once per result.
	segments []markup.Segment

	// UI state
	confirmEnd        bool
	showFeedback      bool
	selectedCriterion int
	expanded          int
	exporting         bool
	width             int
	height            int

	// Status
	notice    string
	noticeSeq int
	errorMsg  string
}

// New creates a Model with a fresh session.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Duration <= 0 {
		opts.Duration = session.DefaultDuration
	}
	if opts.WarnBelow <= 0 {
		opts.WarnBelow = 300
	}
	if opts.TargetWords <= 0 {
		opts.TargetWords = 150
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	ta := textarea.New()
	ta.Placeholder = "Start typing your response here..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(ui.SpinnerStyle))

	m := Model{
		opts:        opts,
		logger:      opts.Logger,
		sess:        session.New(opts.Duration),
		editor:      ta,
		spinner:     sp,
		feedback:    viewport.New(80, 20),
		corrections: viewport.New(80, 19),
		expanded:    -1,
	}
	m.logger.Info("session created", zap.String("session", m.sess.ID))
	return m
}

// Session returns the current session state.
func (m Model) Session() session.State {
	return m.sess
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// tickCmd delivers one countdown second tagged with the session generation.
func tickCmd(generation uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return TickMsg{Generation: generation}
	})
}

// imageCmd acquires a task image.
func imageCmd(src ImageSource, generation uint64, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if src == nil {
			return ImageReadyMsg{Generation: generation, Image: imagegen.Placeholder(imagegen.DefaultPrompts[0])}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return ImageReadyMsg{Generation: generation, Image: src.Acquire(ctx)}
	}
}

// gradeCmd sends text to the grader.
func gradeCmd(g Grader, generation uint64, text string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if g == nil {
			return GradeResultMsg{Generation: generation, Err: errors.New("no grader configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := g.Grade(ctx, text)
		return GradeResultMsg{Generation: generation, Result: res, Err: err}
	}
}

// exportCmd lays out and writes the report.
func exportCmd(r report.Report, generation uint64, loader report.Loader, exp Exporter, logger *zap.Logger, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if exp == nil {
			return ExportDoneMsg{Generation: generation, Err: errors.New("export is not configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		doc, err := report.Build(ctx, r, loader, logger)
		if err != nil {
			return ExportDoneMsg{Generation: generation, Err: err}
		}
		paths, err := exp.Export(ctx, doc)
		return ExportDoneMsg{Generation: generation, Paths: paths, Err: err}
	}
}

// copyCmd writes text to the clipboard.
func copyCmd(write func(string) error, text string) tea.Cmd {
	return func() tea.Msg {
		return CopyDoneMsg{Err: write(text)}
	}
}

// clearNoticeCmd fires after a delay to clear the notice it was issued for.
func clearNoticeCmd(seq int) tea.Cmd {
	return tea.Tick(noticeTimeout, func(time.Time) tea.Msg {
		return ClearNoticeMsg{Seq: seq}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case TickMsg:
		cmd := m.apply(session.Tick{Generation: msg.Generation})
		return m, cmd

	case ImageReadyMsg:
		cmd := m.apply(session.ImageAcquired{Generation: msg.Generation, Image: msg.Image})
		return m, cmd

	case GradeResultMsg:
		if msg.Err != nil {
			cmd := m.apply(session.GradeFailed{Generation: msg.Generation, Err: msg.Err})
			return m, cmd
		}
		cmd := m.apply(session.GradeSucceeded{Generation: msg.Generation, Result: msg.Result})
		return m, cmd

	case ExportDoneMsg:
		if msg.Generation != m.sess.Generation {
			return m, nil
		}
		m.exporting = false
		if msg.Err != nil {
			m.logger.Warn("export failed", zap.String("session", m.sess.ID), zap.Error(msg.Err))
			m.errorMsg = "Export failed: " + msg.Err.Error()
			return m, nil
		}
		path := msg.Paths.HTML
		if msg.Paths.PDF != "" {
			path = msg.Paths.PDF
		}
		cmd := m.setNotice("Report saved to " + path)
		return m, cmd

	case CopyDoneMsg:
		if msg.Err != nil {
			m.errorMsg = "Copy failed: " + msg.Err.Error()
			return m, nil
		}
		cmd := m.setNotice(CopiedNotice)
		return m, cmd

	case ClearNoticeMsg:
		if msg.Seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.sess.CanEdit() {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply runs ev through the session and starts whatever work it asks for.
func (m *Model) apply(ev session.Event) tea.Cmd {
	prev := m.sess
	next, effect := session.Apply(prev, ev)
	m.sess = next

	if next.Generation != prev.Generation {
		m.logger.Info("session reset",
			zap.String("previous", prev.ID),
			zap.String("session", next.ID),
			zap.Uint64("generation", next.Generation))
	}
	if next.Timer != prev.Timer && next.Generation == prev.Generation {
		m.logger.Info("timer phase",
			zap.String("session", next.ID),
			zap.Stringer("from", prev.Timer),
			zap.Stringer("to", next.Timer),
			zap.Int("remaining", next.TimeRemaining))
		if next.Timer == session.TimerRunning && next.Image == nil {
			m.notice = OwnMaterialNotice
		}
		if next.Timer == session.TimerFinished {
			m.editor.Blur()
			m.confirmEnd = false
		}
	}
	if next.Grading != prev.Grading && next.Generation == prev.Generation {
		m.logger.Info("grading phase",
			zap.String("session", next.ID),
			zap.Stringer("from", prev.Grading),
			zap.Stringer("to", next.Grading))
		if next.Grading == session.GradingFailed {
			if gf, ok := ev.(session.GradeFailed); ok {
				m.logger.Warn("grading failed", zap.String("session", next.ID), zap.Error(gf.Err))
			}
		}
		if next.Graded() {
			m.segments, _ = markup.Parse(next.Result.CorrectedHTML)
			m.selectedCriterion = 0
			m.expanded = -1
			m.refreshFeedback()
			m.refreshCorrections()
		}
	}
	if next.Image != nil && prev.Image == nil && next.Image.Placeholder {
		m.errorMsg = "Could not generate a task image."
	}

	switch effect {
	case session.EffectScheduleTick:
		return tickCmd(next.Generation)
	case session.EffectGenerateImage:
		return tea.Batch(imageCmd(m.opts.Images, next.Generation, m.opts.RequestTimeout), m.spinner.Tick)
	case session.EffectGrade:
		return tea.Batch(gradeCmd(m.opts.Grader, next.Generation, next.Text, m.opts.RequestTimeout), m.spinner.Tick)
	}
	return nil
}

func (m *Model) setNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeSeq++
	return clearNoticeCmd(m.noticeSeq)
}

func (m Model) busy() bool {
	return m.sess.ImagePending || m.sess.Grading == session.GradingInFlight || m.exporting
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == KeyQuit {
		return m, tea.Quit
	}

	if m.confirmEnd {
		switch key {
		case KeyConfirm, KeyConfirmUpper, KeyEnter:
			m.confirmEnd = false
			cmd := m.apply(session.EndSession{})
			return m, cmd
		case KeyCancel, KeyCancelUpper, KeyEsc:
			m.confirmEnd = false
		}
		return m, nil
	}

	switch key {
	case KeyGenerateImage:
		m.errorMsg = ""
		cmd := m.apply(session.RequestImage{})
		return m, cmd

	case KeyEndSession:
		if m.sess.Timer == session.TimerRunning {
			m.confirmEnd = true
		}
		return m, nil

	case KeyReset:
		cmd := m.apply(session.Reset{})
		m.editor.Reset()
		m.segments = nil
		m.refreshCorrections()
		m.showFeedback = false
		m.exporting = false
		m.notice = ""
		m.errorMsg = ""
		focus := m.editor.Focus()
		return m, tea.Batch(cmd, focus)

	case KeyGrade:
		if !m.sess.CanGrade() {
			return m, nil
		}
		m.errorMsg = ""
		cmd := m.apply(session.RequestGrade{})
		return m, cmd

	case KeyFeedback:
		if m.sess.Graded() {
			m.showFeedback = !m.showFeedback
			m.refreshFeedback()
		}
		return m, nil

	case KeyCopy:
		if !m.sess.Graded() {
			return m, nil
		}
		text := markup.PlainText(m.segments)
		if text == "" {
			text = m.sess.Text
		}
		return m, copyCmd(m.opts.Clipboard, text)

	case KeyExport:
		if !m.sess.Graded() || m.exporting {
			return m, nil
		}
		m.exporting = true
		r := report.Report{
			SessionID: m.sess.ID,
			CreatedAt: time.Now(),
			Result:    m.sess.Result,
			Elapsed:   secondsDuration(m.sess.Elapsed()),
			WordCount: m.sess.WordCount,
			Image:     m.sess.Image,
			Text:      m.sess.Text,
		}
		return m, tea.Batch(
			exportCmd(r, m.sess.Generation, m.opts.Loader, m.opts.Exporter, m.logger, m.opts.RequestTimeout),
			m.spinner.Tick,
		)
	}

	if m.showFeedback {
		return m.handleFeedbackKey(key, msg)
	}
	if m.sess.Graded() {
		var cmd tea.Cmd
		m.corrections, cmd = m.corrections.Update(msg)
		return m, cmd
	}

	if !m.sess.CanEdit() {
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if v := m.editor.Value(); v != m.sess.Text {
		editCmd := m.apply(session.Edit{Text: v})
		return m, tea.Batch(cmd, editCmd)
	}
	return m, cmd
}

// handleFeedbackKey moves through the criteria in the feedback pane.
func (m Model) handleFeedbackKey(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.sess.Result.Scores)
	switch key {
	case KeyJ, KeyDown:
		if m.selectedCriterion < n-1 {
			m.selectedCriterion++
		}
	case KeyK, KeyUp:
		if m.selectedCriterion > 0 {
			m.selectedCriterion--
		}
	case KeyEnter:
		if m.expanded == m.selectedCriterion {
			m.expanded = -1
		} else {
			m.expanded = m.selectedCriterion
		}
	case KeyEsc:
		m.showFeedback = false
		return m, nil
	default:
		var cmd tea.Cmd
		m.feedback, cmd = m.feedback.Update(msg)
		return m, cmd
	}
	m.refreshFeedback()
	return m, nil
}

func (m *Model) resize() {
	w, h := m.sheetSize()
	m.editor.SetWidth(w)
	m.editor.SetHeight(h)
	m.feedback.Width = w
	m.feedback.Height = h
	m.corrections.Width = w
	m.corrections.Height = h - 1
	m.refreshFeedback()
	m.refreshCorrections()
}
