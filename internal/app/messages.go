package app

import (
	"github.com/raulito1500/ielts-simulator/internal/grading"
	"github.com/raulito1500/ielts-simulator/internal/imagegen"
	"github.com/raulito1500/ielts-simulator/internal/report"
)

// TickMsg is one second of the countdown started in Generation.
type TickMsg struct {
	Generation uint64
}

// ImageReadyMsg carries the task image requested in Generation. It is a
// placeholder when generation failed.
type ImageReadyMsg struct {
	Generation uint64
	Image      imagegen.Image
}

// GradeResultMsg carries the outcome of the grade request issued in
// Generation. Exactly one of Result and Err is set.
type GradeResultMsg struct {
	Generation uint64
	Result     *grading.Result
	Err        error
}

// ExportDoneMsg reports where the report was written.
type ExportDoneMsg struct {
	Generation uint64
	Paths      report.Paths
	Err        error
}

// CopyDoneMsg reports a clipboard write.
type CopyDoneMsg struct {
	Err error
}

// ClearNoticeMsg clears a transient notice after a timeout.
type ClearNoticeMsg struct {
	Seq int
}
