// Package grading defines the contract with the external grading service:
// the fixed criterion set, the structured result and its validation, and the
// clients that talk to the service.
package grading

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Criterion is one of the fixed evaluation dimensions.
type Criterion string

const (
	TaskAchievement             Criterion = "TaskAchievement"
	CoherenceAndCohesion        Criterion = "CoherenceAndCohesion"
	LexicalResource             Criterion = "LexicalResource"
	GrammaticalRangeAndAccuracy Criterion = "GrammaticalRangeAndAccuracy"
)

// Criteria lists every criterion in display order.
var Criteria = []Criterion{
	TaskAchievement,
	CoherenceAndCohesion,
	LexicalResource,
	GrammaticalRangeAndAccuracy,
}

// MaxBand is the highest score the service may award.
const MaxBand = 9.0

// Label returns the criterion name split into words, e.g. "Lexical Resource".
func (c Criterion) Label() string {
	var b strings.Builder
	for i, r := range string(c) {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c Criterion) known() bool {
	for _, k := range Criteria {
		if c == k {
			return true
		}
	}
	return false
}

// Score is the band and examiner notes for one criterion.
type Score struct {
	Criterion   Criterion `json:"criterion" yaml:"criterion"`
	Score       float64   `json:"score" yaml:"score"`
	Observation string    `json:"observation" yaml:"observation"`
}

// Result is a validated grading response. Scores are in Criteria order.
type Result struct {
	Scores        []Score `json:"scores" yaml:"scores"`
	CorrectedHTML string  `json:"correctedHtml" yaml:"correctedHtml"`
}

// Overall returns the mean band rounded to the nearest half band.
// The second return is false when no criteria are present.
func (r Result) Overall() (float64, bool) {
	if len(r.Scores) == 0 {
		return 0, false
	}
	var sum float64
	for _, s := range r.Scores {
		sum += s.Score
	}
	return RoundHalf(sum / float64(len(r.Scores))), true
}

// Score returns the entry for c.
func (r Result) Score(c Criterion) (Score, bool) {
	for _, s := range r.Scores {
		if s.Criterion == c {
			return s, true
		}
	}
	return Score{}, false
}

// RoundHalf rounds v to the nearest 0.5, halves rounding up.
func RoundHalf(v float64) float64 {
	return math.Floor(v*2+0.5) / 2
}

// FormatBand renders a band with one decimal, e.g. "7.0".
func FormatBand(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// FormatOverall renders the overall band of r, or "N/A" when unavailable.
func FormatOverall(r *Result) string {
	if r == nil {
		return "N/A"
	}
	overall, ok := r.Overall()
	if !ok {
		return "N/A"
	}
	return FormatBand(overall)
}
