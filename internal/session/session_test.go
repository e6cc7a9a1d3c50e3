package session

import (
	"errors"
	"testing"

	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/imagegen"
)

func sampleResult() *grading.Result {
	return &grading.Result{
		Scores: []grading.Score{
			{Criterion: grading.TaskAchievement, Score: 7},
			{Criterion: grading.CoherenceAndCohesion, Score: 6.5},
			{Criterion: grading.LexicalResource, Score: 6},
			{Criterion: grading.GrammaticalRangeAndAccuracy, Score: 7.5},
		},
		CorrectedHTML: "ok",
	}
}

// apply runs ev and fails the test when the effect differs from want.
func apply(t *testing.T, s State, ev Event, want Effect) State {
	t.Helper()
	next, eff := Apply(s, ev)
	if eff != want {
		t.Fatalf("Apply(%T) effect = %v, want %v", ev, eff, want)
	}
	return next
}

// finished returns a session whose timer ended by manual end with text typed.
func finished(t *testing.T, text string) State {
	t.Helper()
	s := apply(t, New(0), Edit{Text: text}, EffectScheduleTick)
	return apply(t, s, EndSession{}, EffectNone)
}

func TestNew(t *testing.T) {
	s := New(0)
	if s.TimeRemaining != DefaultDuration {
		t.Errorf("TimeRemaining = %d, want %d", s.TimeRemaining, DefaultDuration)
	}
	if s.Timer != TimerNotStarted {
		t.Errorf("Timer = %v, want not_started", s.Timer)
	}
	if s.Grading != GradingIdle {
		t.Errorf("Grading = %v, want idle", s.Grading)
	}
	if s.ID == "" {
		t.Error("session should have an id")
	}
}

func TestCountWords(t *testing.T) {
	cases := map[string]int{
		"":                  0,
		"   ":               0,
		"  hello   world  ": 2,
		"one\ntwo\tthree":   3,
		"The chart shows.":  3,
	}
	for text, want := range cases {
		if got := CountWords(text); got != want {
			t.Errorf("CountWords(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestEditUpdatesWordCount(t *testing.T) {
	s := New(0)
	for _, text := range []string{"a", "a b", "  hello   world  ", ""} {
		s, _ = Apply(s, Edit{Text: text})
		if s.WordCount != CountWords(text) {
			t.Errorf("WordCount after %q = %d, want %d", text, s.WordCount, CountWords(text))
		}
		if s.Text != text {
			t.Errorf("Text = %q, want %q", s.Text, text)
		}
	}
}

func TestFirstEditStartsTimerOnce(t *testing.T) {
	s := apply(t, New(0), Edit{Text: "T"}, EffectScheduleTick)
	if s.Timer != TimerRunning {
		t.Fatalf("Timer = %v, want running", s.Timer)
	}
	s = apply(t, s, Edit{Text: "Th"}, EffectNone)
	if s.Timer != TimerRunning {
		t.Errorf("Timer = %v, want running", s.Timer)
	}
}

func TestCountdown(t *testing.T) {
	s := apply(t, New(3), Edit{Text: "x"}, EffectScheduleTick)

	s = apply(t, s, Tick{Generation: s.Generation}, EffectScheduleTick)
	if s.TimeRemaining != 2 {
		t.Errorf("TimeRemaining = %d, want 2", s.TimeRemaining)
	}
	s = apply(t, s, Tick{Generation: s.Generation}, EffectScheduleTick)
	s = apply(t, s, Tick{Generation: s.Generation}, EffectNone)
	if s.TimeRemaining != 0 || s.Timer != TimerFinished {
		t.Fatalf("state = %d/%v, want 0/finished", s.TimeRemaining, s.Timer)
	}

	// Frozen once finished.
	s = apply(t, s, Tick{Generation: s.Generation}, EffectNone)
	if s.TimeRemaining != 0 {
		t.Errorf("TimeRemaining = %d after finish, want 0", s.TimeRemaining)
	}
}

func TestTickBeforeStartIgnored(t *testing.T) {
	s := apply(t, New(0), Tick{}, EffectNone)
	if s.TimeRemaining != DefaultDuration {
		t.Errorf("TimeRemaining = %d, want %d", s.TimeRemaining, DefaultDuration)
	}
}

func TestEndSessionFreezesTimer(t *testing.T) {
	s := apply(t, New(0), Edit{Text: "x"}, EffectScheduleTick)
	s = apply(t, s, Tick{Generation: s.Generation}, EffectScheduleTick)
	s = apply(t, s, EndSession{}, EffectNone)
	if s.Timer != TimerFinished {
		t.Fatalf("Timer = %v, want finished", s.Timer)
	}
	if s.TimeRemaining != DefaultDuration-1 {
		t.Errorf("TimeRemaining = %d, want %d", s.TimeRemaining, DefaultDuration-1)
	}
	// The pending tick from before the end must not continue the countdown.
	s = apply(t, s, Tick{Generation: s.Generation}, EffectNone)
	if s.TimeRemaining != DefaultDuration-1 {
		t.Errorf("TimeRemaining = %d after stale tick", s.TimeRemaining)
	}
	if s.Elapsed() != 1 {
		t.Errorf("Elapsed() = %d, want 1", s.Elapsed())
	}
}

func TestEndSessionRequiresRunning(t *testing.T) {
	s := apply(t, New(0), EndSession{}, EffectNone)
	if s.Timer != TimerNotStarted {
		t.Errorf("Timer = %v, want not_started", s.Timer)
	}
}

func TestEditIgnoredAfterFinish(t *testing.T) {
	s := finished(t, "final text")
	s = apply(t, s, Edit{Text: "changed"}, EffectNone)
	if s.Text != "final text" {
		t.Errorf("Text = %q, want %q", s.Text, "final text")
	}
}

func TestGradeNoOpUnlessFinishedWithText(t *testing.T) {
	running := apply(t, New(0), Edit{Text: "words"}, EffectScheduleTick)
	blank := finished(t, "   \n ")

	for name, s := range map[string]State{
		"not started": New(0),
		"running":     running,
		"blank text":  blank,
	} {
		next, eff := Apply(s, RequestGrade{})
		if eff != EffectNone {
			t.Errorf("%s: effect = %v, want none", name, eff)
		}
		if next.Grading != GradingIdle {
			t.Errorf("%s: Grading = %v, want idle", name, next.Grading)
		}
	}
}

func TestGradeSingleFlight(t *testing.T) {
	s := apply(t, finished(t, "The graph shows growth."), RequestGrade{}, EffectGrade)
	if s.Grading != GradingInFlight {
		t.Fatalf("Grading = %v, want in_flight", s.Grading)
	}
	s = apply(t, s, RequestGrade{}, EffectNone)

	s = apply(t, s, GradeSucceeded{Generation: s.Generation, Result: sampleResult()}, EffectNone)
	if !s.Graded() {
		t.Fatal("session should be graded")
	}
	if s.CanEdit() {
		t.Error("graded session should be read-only")
	}
	apply(t, s, RequestGrade{}, EffectNone)
}

func TestGradeFailed(t *testing.T) {
	s := apply(t, finished(t, "text"), RequestGrade{}, EffectGrade)
	s = apply(t, s, GradeFailed{Generation: s.Generation, Err: errors.New("boom")}, EffectNone)
	if s.Grading != GradingFailed {
		t.Fatalf("Grading = %v, want failed", s.Grading)
	}
	if s.FailureMessage != FailedMessage {
		t.Errorf("FailureMessage = %q", s.FailureMessage)
	}
	if s.Result != nil {
		t.Error("failed session should carry no result")
	}
	if s.Timer != TimerFinished {
		t.Errorf("Timer = %v, want finished", s.Timer)
	}
	// Only a reset recovers.
	apply(t, s, RequestGrade{}, EffectNone)
}

func TestMissingCriterionFailsGrading(t *testing.T) {
	s := apply(t, finished(t, "text"), RequestGrade{}, EffectGrade)

	payload := `{"scores": {"TaskAchievement": {"score": 7, "observation": ""}}, "correctedHtml": "x"}`
	res, err := grading.Parse(payload)
	var ev Event = GradeSucceeded{Generation: s.Generation, Result: res}
	if err != nil {
		ev = GradeFailed{Generation: s.Generation, Err: err}
	}
	s = apply(t, s, ev, EffectNone)
	if s.Grading != GradingFailed {
		t.Errorf("Grading = %v, want failed", s.Grading)
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	running := apply(t, New(0), Edit{Text: "word "}, EffectScheduleTick)
	for i := 0; i < 79; i++ {
		running, _ = Apply(running, Edit{Text: running.Text + "word "})
	}
	if running.WordCount != 80 {
		t.Fatalf("WordCount = %d, want 80", running.WordCount)
	}
	inFlight := apply(t, finished(t, "text"), RequestGrade{}, EffectGrade)
	withImage := apply(t, New(0), RequestImage{}, EffectGenerateImage)
	withImage = apply(t, withImage, ImageAcquired{Image: imagegen.Image{URL: "u"}}, EffectScheduleTick)

	for name, s := range map[string]State{
		"running":           running,
		"finished/inflight": inFlight,
		"with image":        withImage,
	} {
		next := apply(t, s, Reset{}, EffectNone)
		if next.TimeRemaining != DefaultDuration || next.Timer != TimerNotStarted ||
			next.Text != "" || next.WordCount != 0 || next.Grading != GradingIdle ||
			next.Result != nil || next.Image != nil || next.ImagePending ||
			next.FailureMessage != "" {
			t.Errorf("%s: reset state = %+v", name, next)
		}
		if next.Generation != s.Generation+1 {
			t.Errorf("%s: Generation = %d, want %d", name, next.Generation, s.Generation+1)
		}
		if next.ID == s.ID {
			t.Errorf("%s: reset should start a new session id", name)
		}
	}
}

func TestStaleResponsesDiscardedAfterReset(t *testing.T) {
	s := apply(t, finished(t, "text"), RequestGrade{}, EffectGrade)
	old := s.Generation
	s = apply(t, s, Reset{}, EffectNone)

	after := apply(t, s, GradeSucceeded{Generation: old, Result: sampleResult()}, EffectNone)
	if after.Grading != GradingIdle || after.Result != nil {
		t.Errorf("stale grade mutated state: %v", after.Grading)
	}
	after = apply(t, s, GradeFailed{Generation: old, Err: errors.New("late")}, EffectNone)
	if after.Grading != GradingIdle {
		t.Errorf("stale failure mutated state: %v", after.Grading)
	}
}

func TestStaleGradeAfterResetAndNewGrade(t *testing.T) {
	s := apply(t, finished(t, "first"), RequestGrade{}, EffectGrade)
	old := s.Generation
	s = apply(t, s, Reset{}, EffectNone)
	s = apply(t, s, Edit{Text: "second"}, EffectScheduleTick)
	s = apply(t, s, EndSession{}, EffectNone)
	s = apply(t, s, RequestGrade{}, EffectGrade)

	s = apply(t, s, GradeSucceeded{Generation: old, Result: sampleResult()}, EffectNone)
	if s.Grading != GradingInFlight {
		t.Errorf("Grading = %v, want in_flight", s.Grading)
	}
}

func TestStaleTickAfterReset(t *testing.T) {
	s := apply(t, New(0), Edit{Text: "x"}, EffectScheduleTick)
	old := s.Generation
	s = apply(t, s, Reset{}, EffectNone)
	s = apply(t, s, Edit{Text: "y"}, EffectScheduleTick)

	s = apply(t, s, Tick{Generation: old}, EffectNone)
	if s.TimeRemaining != DefaultDuration {
		t.Errorf("TimeRemaining = %d, stale tick was applied", s.TimeRemaining)
	}
	s = apply(t, s, Tick{Generation: s.Generation}, EffectScheduleTick)
	if s.TimeRemaining != DefaultDuration-1 {
		t.Errorf("TimeRemaining = %d, want %d", s.TimeRemaining, DefaultDuration-1)
	}
}

func TestImageAcquiredStartsTimer(t *testing.T) {
	s := apply(t, New(0), RequestImage{}, EffectGenerateImage)
	if !s.ImagePending {
		t.Fatal("image should be pending")
	}
	apply(t, s, RequestImage{}, EffectNone)

	s = apply(t, s, ImageAcquired{Generation: s.Generation, Image: imagegen.Image{URL: "data"}}, EffectScheduleTick)
	if s.Image == nil || s.Image.URL != "data" {
		t.Fatalf("Image = %+v", s.Image)
	}
	if s.Timer != TimerRunning {
		t.Errorf("Timer = %v, want running", s.Timer)
	}
	apply(t, s, RequestImage{}, EffectNone)
}

func TestPlaceholderImageDoesNotStartTimer(t *testing.T) {
	s := apply(t, New(0), RequestImage{}, EffectGenerateImage)
	s = apply(t, s, ImageAcquired{Generation: s.Generation, Image: imagegen.Placeholder("p")}, EffectNone)
	if s.Image == nil || !s.Image.Placeholder {
		t.Fatalf("Image = %+v, want placeholder", s.Image)
	}
	if s.Timer != TimerNotStarted {
		t.Errorf("Timer = %v, want not_started", s.Timer)
	}
}

func TestImageAfterEditKeepsTimer(t *testing.T) {
	s := apply(t, New(0), RequestImage{}, EffectGenerateImage)
	s = apply(t, s, Edit{Text: "early"}, EffectScheduleTick)
	s = apply(t, s, ImageAcquired{Generation: s.Generation, Image: imagegen.Image{URL: "u"}}, EffectNone)
	if s.Image == nil {
		t.Error("image should still be stored")
	}
	if s.Timer != TimerRunning {
		t.Errorf("Timer = %v, want running", s.Timer)
	}
}

func TestStaleImageDiscarded(t *testing.T) {
	s := apply(t, New(0), RequestImage{}, EffectGenerateImage)
	old := s.Generation
	s = apply(t, s, Reset{}, EffectNone)
	s = apply(t, s, ImageAcquired{Generation: old, Image: imagegen.Image{URL: "late"}}, EffectNone)
	if s.Image != nil || s.Timer != TimerNotStarted {
		t.Errorf("stale image mutated state: %+v", s)
	}
}

func TestPhaseStrings(t *testing.T) {
	if TimerRunning.String() != "running" {
		t.Errorf("TimerRunning = %q", TimerRunning.String())
	}
	if GradingInFlight.String() != "in_flight" {
		t.Errorf("GradingInFlight = %q", GradingInFlight.String())
	}
	if EffectGrade.String() != "grade" {
		t.Errorf("EffectGrade = %q", EffectGrade.String())
	}
}
