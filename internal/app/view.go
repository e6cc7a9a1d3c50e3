package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/markup"
	"github.com/raulito1500/ielts-simulator/internal/report"
	"github.com/raulito1500/ielts-simulator/internal/session"
	"github.com/raulito1500/ielts-simulator/internal/ui"
)

// TaskInstruction is shown above the writing sheet.
const TaskInstruction = "Summarise the information by selecting and reporting the main features, " +
	"and make comparisons where relevant. Write at least 150 words."

// Lines taken by everything except the writing sheet.
const chromeLines = 8

func (m Model) sheetSize() (int, int) {
	w := m.width
	if w < 20 {
		w = 20
	}
	h := m.height - chromeLines
	if h < 3 {
		h = 3
	}
	return w, h
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderTask()...)
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.errorMsg != "" {
		sections = append(sections, m.renderErrorBar())
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("IELTS WRITING TASK 1")

	if m.sess.Graded() {
		band := ui.BandStyle.Render("Band " + grading.FormatOverall(m.sess.Result))
		return title + "  " + band
	}

	clock := report.FormatClock(secondsDuration(m.sess.TimeRemaining))
	timerStyle := ui.TimerStyle
	if m.sess.Timer == session.TimerRunning && m.sess.TimeRemaining <= m.opts.WarnBelow {
		timerStyle = ui.TimerWarningStyle
	}

	wordStyle := ui.WordCountStyle
	if m.sess.WordCount >= m.opts.TargetWords {
		wordStyle = ui.WordTargetStyle
	}
	words := wordStyle.Render(fmt.Sprintf("Words: %d", m.sess.WordCount))

	return title + "  " + timerStyle.Render(clock) + "  " + words
}

func (m Model) renderTask() []string {
	lines := []string{ui.DimStyle.Render(truncateToWidth(TaskInstruction, m.width))}
	switch {
	case m.sess.Image != nil:
		lines = append(lines, truncateToWidth(m.sess.Image.Describe(), m.width))
	case m.sess.CanRequestImage():
		lines = append(lines, ui.DimStyle.Render("Press ctrl+g for a task image, or start writing with your own material."))
	default:
		lines = append(lines, "")
	}
	return lines
}

func (m Model) renderStatusBar() string {
	var activity string
	switch {
	case m.sess.ImagePending:
		activity = "Generating task image..."
	case m.sess.Grading == session.GradingInFlight:
		activity = "Grading..."
	case m.exporting:
		activity = "Exporting report..."
	}
	if activity != "" {
		return m.spinner.View() + " " + ui.StatusStyle.Render(activity)
	}

	var phase string
	switch m.sess.Timer {
	case session.TimerNotStarted:
		phase = ui.DimStyle.Render("○ READY")
	case session.TimerRunning:
		phase = ui.WordTargetStyle.Render("● WRITING")
	case session.TimerFinished:
		phase = ui.StatusStyle.Render("■ FINISHED")
	}
	if m.notice != "" {
		return phase + "  " + ui.NoticeStyle.Render(m.notice)
	}
	return phase
}

func (m Model) renderMainContent() string {
	w, h := m.sheetSize()

	if m.confirmEnd {
		modal := ui.ModalStyle.Render(ConfirmEndPrompt)
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, modal)
	}

	if m.sess.Graded() {
		if m.showFeedback {
			return m.feedback.View()
		}
		return m.renderCorrections(h)
	}

	if m.sess.Grading == session.GradingFailed {
		return padLines(ui.ErrorTextStyle.Render(m.sess.FailureMessage), h)
	}

	return m.editor.View()
}

func (m Model) renderCorrections(height int) string {
	title := ui.PanelTitleActiveStyle.Render("Corrected Text")
	if n := markup.Corrections(m.segments); n > 0 {
		title += ui.DimStyle.Render(fmt.Sprintf(" (%d corrections)", n))
	}
	if !m.corrections.AtTop() || !m.corrections.AtBottom() {
		title += ui.DimStyle.Render(fmt.Sprintf(" %3.f%%", m.corrections.ScrollPercent()*100))
	}
	return padLines(title+"\n"+m.corrections.View(), height)
}

// refreshCorrections re-renders the corrected essay at the pane width.
func (m *Model) refreshCorrections() {
	m.corrections.SetContent(markup.Render(m.segments, m.corrections.Width))
	m.corrections.GotoTop()
}

// feedbackMarkdown lays out the result as markdown for the feedback pane.
func (m Model) feedbackMarkdown() string {
	r := m.sess.Result
	var b strings.Builder
	b.WriteString("# Your Detailed Feedback\n\n")
	fmt.Fprintf(&b, "**Overall Estimated Band Score: %s**\n\n", grading.FormatOverall(r))
	for i, s := range r.Scores {
		marker := "▸"
		if i == m.expanded {
			marker = "▾"
		}
		cursor := "  "
		if i == m.selectedCriterion {
			cursor = "→ "
		}
		fmt.Fprintf(&b, "%s%s **%s**: %s\n\n", cursor, marker, s.Criterion.Label(), grading.FormatBand(s.Score))
		if i == m.expanded && s.Observation != "" {
			fmt.Fprintf(&b, "> %s\n\n", s.Observation)
		}
	}
	return b.String()
}

// refreshFeedback re-renders the feedback pane. Glamour failures fall back
// to the raw markdown.
func (m *Model) refreshFeedback() {
	if !m.sess.Graded() {
		m.feedback.SetContent("")
		return
	}
	md := m.feedbackMarkdown()
	width := m.feedback.Width
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		m.feedback.SetContent(md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		m.feedback.SetContent(md)
		return
	}
	m.feedback.SetContent(out)
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMsg)
}

func footerKey(key, desc string) string {
	return ui.FooterKeyStyle.Render(key) + ui.FooterDescStyle.Render(" "+desc)
}

func (m Model) renderFooter() string {
	var parts []string

	switch {
	case m.confirmEnd:
		parts = append(parts, footerKey("y", "End"), footerKey("n", "Keep writing"))
	case m.sess.Graded():
		if m.showFeedback {
			parts = append(parts, footerKey("j/k", "Nav"), footerKey("enter", "Expand"), footerKey("ctrl+f", "Corrections"))
		} else {
			parts = append(parts, footerKey("↑↓/pgup/pgdn", "Scroll"), footerKey("ctrl+f", "Feedback"))
		}
		parts = append(parts, footerKey("ctrl+y", "Copy"), footerKey("ctrl+p", "Export"))
	case m.sess.CanGrade():
		parts = append(parts, footerKey("ctrl+s", "Grade"))
	case m.sess.Timer == session.TimerRunning:
		parts = append(parts, footerKey("ctrl+e", "End"))
	case m.sess.CanRequestImage():
		parts = append(parts, footerKey("ctrl+g", "Image"))
	}

	parts = append(parts, footerKey("ctrl+r", "Reset"), footerKey("ctrl+c", "Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func secondsDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

func padLines(s string, height int) string {
	n := strings.Count(s, "\n") + 1
	if n >= height {
		return s
	}
	return s + strings.Repeat("\n", height-n)
}

func truncateToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}
