// Package session holds the state of one timed writing attempt and the
// rules for moving it between timer and grading phases.
//
// State is a plain value. Every change goes through Apply, which returns the
// next state and at most one Effect for the caller to run. Asynchronous
// completions carry the Generation they were issued against; Reset bumps the
// generation so late completions from an earlier attempt are dropped.
package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/imagegen"
)

// DefaultDuration is the length of a writing session in seconds.
const DefaultDuration = 1200

// FailedMessage replaces the corrected text when grading fails.
const FailedMessage = "Sorry, an error occurred while grading. Please try resetting the session."

// TimerPhase tracks the countdown.
type TimerPhase int

const (
	TimerNotStarted TimerPhase = iota
	TimerRunning
	TimerFinished
)

func (p TimerPhase) String() string {
	switch p {
	case TimerNotStarted:
		return "not_started"
	case TimerRunning:
		return "running"
	case TimerFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// GradingPhase tracks the grading request. The phase itself is the
// single-flight guard: a grade is only issued from GradingIdle.
type GradingPhase int

const (
	GradingIdle GradingPhase = iota
	GradingInFlight
	GradingSucceeded
	GradingFailed
)

func (p GradingPhase) String() string {
	switch p {
	case GradingIdle:
		return "idle"
	case GradingInFlight:
		return "in_flight"
	case GradingSucceeded:
		return "succeeded"
	case GradingFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is one writing attempt.
type State struct {
	// ID identifies the attempt in logs and exported reports.
	ID string
	// Generation increases on every reset.
	Generation uint64
	// Duration is the full countdown length in seconds.
	Duration int

	Text          string
	WordCount     int
	TimeRemaining int
	Timer         TimerPhase

	Image        *imagegen.Image
	ImagePending bool

	Grading        GradingPhase
	Result         *grading.Result
	FailureMessage string
}

// New returns a fresh session in {NotStarted, Idle}.
func New(duration int) State {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return State{
		ID:            uuid.NewString(),
		Duration:      duration,
		TimeRemaining: duration,
		Timer:         TimerNotStarted,
		Grading:       GradingIdle,
	}
}

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// CanEdit reports whether the writing surface accepts input.
func (s State) CanEdit() bool {
	return s.Timer != TimerFinished && s.Grading != GradingSucceeded
}

// CanGrade reports whether a grade request would be issued.
func (s State) CanGrade() bool {
	return s.Timer == TimerFinished &&
		strings.TrimSpace(s.Text) != "" &&
		s.Grading == GradingIdle
}

// CanRequestImage reports whether a prompt image may still be requested.
func (s State) CanRequestImage() bool {
	return s.Timer == TimerNotStarted && s.Image == nil && !s.ImagePending
}

// Graded reports whether a result is available.
func (s State) Graded() bool {
	return s.Grading == GradingSucceeded && s.Result != nil
}

// Elapsed returns the seconds spent writing so far.
func (s State) Elapsed() int {
	return s.Duration - s.TimeRemaining
}
