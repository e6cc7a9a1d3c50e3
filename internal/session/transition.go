package session

import (
	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/imagegen"
)

// Event is an input to Apply.
type Event interface {
	event()
}

// Edit replaces the session text with the current editor contents.
type Edit struct{ Text string }

// Tick is one elapsed second of a countdown started in Generation.
type Tick struct{ Generation uint64 }

// EndSession is the user-confirmed manual end.
type EndSession struct{}

// RequestImage asks for a prompt image.
type RequestImage struct{}

// ImageAcquired delivers the prompt image requested in Generation.
type ImageAcquired struct {
	Generation uint64
	Image      imagegen.Image
}

// RequestGrade asks for the text to be graded.
type RequestGrade struct{}

// GradeSucceeded delivers a decoded result for the request issued in Generation.
type GradeSucceeded struct {
	Generation uint64
	Result     *grading.Result
}

// GradeFailed reports a transport or decode failure for Generation.
type GradeFailed struct {
	Generation uint64
	Err        error
}

// Reset discards the attempt.
type Reset struct{}

func (Edit) event()           {}
func (Tick) event()           {}
func (EndSession) event()     {}
func (RequestImage) event()   {}
func (ImageAcquired) event()  {}
func (RequestGrade) event()   {}
func (GradeSucceeded) event() {}
func (GradeFailed) event()    {}
func (Reset) event()          {}

// Effect is work the caller must start after a transition.
type Effect int

const (
	EffectNone Effect = iota
	// EffectScheduleTick schedules one Tick for the current generation.
	EffectScheduleTick
	// EffectGenerateImage starts the image collaborator.
	EffectGenerateImage
	// EffectGrade starts the grading collaborator with the current text.
	EffectGrade
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectScheduleTick:
		return "schedule_tick"
	case EffectGenerateImage:
		return "generate_image"
	case EffectGrade:
		return "grade"
	default:
		return "unknown"
	}
}

// Apply returns the state after ev and the effect to run, if any.
// Events that are not legal in s leave it unchanged.
func Apply(s State, ev Event) (State, Effect) {
	switch ev := ev.(type) {
	case Edit:
		return s.edit(ev.Text)
	case Tick:
		return s.tick(ev.Generation)
	case EndSession:
		if s.Timer != TimerRunning {
			return s, EffectNone
		}
		s.Timer = TimerFinished
		return s, EffectNone
	case RequestImage:
		if !s.CanRequestImage() {
			return s, EffectNone
		}
		s.ImagePending = true
		return s, EffectGenerateImage
	case ImageAcquired:
		return s.imageAcquired(ev)
	case RequestGrade:
		if !s.CanGrade() {
			return s, EffectNone
		}
		s.Grading = GradingInFlight
		return s, EffectGrade
	case GradeSucceeded:
		if ev.Generation != s.Generation || s.Grading != GradingInFlight {
			return s, EffectNone
		}
		if ev.Result == nil {
			s.Grading = GradingFailed
			s.FailureMessage = FailedMessage
			return s, EffectNone
		}
		s.Grading = GradingSucceeded
		s.Result = ev.Result
		return s, EffectNone
	case GradeFailed:
		if ev.Generation != s.Generation || s.Grading != GradingInFlight {
			return s, EffectNone
		}
		s.Grading = GradingFailed
		s.FailureMessage = FailedMessage
		return s, EffectNone
	case Reset:
		next := New(s.Duration)
		next.Generation = s.Generation + 1
		return next, EffectNone
	}
	return s, EffectNone
}

func (s State) edit(text string) (State, Effect) {
	if !s.CanEdit() {
		return s, EffectNone
	}
	s.Text = text
	s.WordCount = CountWords(text)
	return s.start()
}

// start moves NotStarted to Running. It is a no-op in any other phase.
func (s State) start() (State, Effect) {
	if s.Timer != TimerNotStarted {
		return s, EffectNone
	}
	s.Timer = TimerRunning
	return s, EffectScheduleTick
}

func (s State) tick(generation uint64) (State, Effect) {
	// A tick from another generation or after the timer stopped ends its chain.
	if generation != s.Generation || s.Timer != TimerRunning {
		return s, EffectNone
	}
	if s.TimeRemaining <= 1 {
		s.TimeRemaining = 0
		s.Timer = TimerFinished
		return s, EffectNone
	}
	s.TimeRemaining--
	return s, EffectScheduleTick
}

func (s State) imageAcquired(ev ImageAcquired) (State, Effect) {
	if ev.Generation != s.Generation || !s.ImagePending {
		return s, EffectNone
	}
	s.ImagePending = false
	if s.Image == nil {
		img := ev.Image
		s.Image = &img
	}
	if ev.Image.Placeholder {
		return s, EffectNone
	}
	return s.start()
}
