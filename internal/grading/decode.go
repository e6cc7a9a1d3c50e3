package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ExtractJSONObject returns the span from the first '{' to the last '}' in
// text, dropping any prose or code fences the service wrapped around it.
func ExtractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

// Parse extracts and decodes a grading response.
func Parse(text string) (*Result, error) {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return nil, &ParseError{Reason: "extract", Err: err}
	}
	return Decode([]byte(obj))
}

type wirePayload struct {
	Scores        map[string]json.RawMessage `json:"scores"`
	CorrectedHTML json.RawMessage            `json:"correctedHtml"`
}

type wireScore struct {
	Score       *float64 `json:"score"`
	Observation string   `json:"observation"`
}

// Decode validates a JSON grading payload. Every criterion must be present
// exactly once with a band in [0, MaxBand], and correctedHtml must be a
// string. The corrected markup is kept verbatim.
func Decode(data []byte) (*Result, error) {
	var p wirePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &ParseError{Reason: "decode payload", Err: err}
	}
	if p.Scores == nil {
		return nil, &ParseError{Reason: "missing scores"}
	}

	var unknown []string
	for key := range p.Scores {
		if !Criterion(key).known() {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ParseError{Reason: "unknown criteria " + strings.Join(unknown, ", ")}
	}

	res := &Result{Scores: make([]Score, 0, len(Criteria))}
	for _, c := range Criteria {
		raw, ok := p.Scores[string(c)]
		if !ok {
			return nil, &ParseError{Reason: "missing criterion " + string(c)}
		}
		var ws wireScore
		if err := json.Unmarshal(raw, &ws); err != nil {
			return nil, &ParseError{Reason: "decode " + string(c), Err: err}
		}
		if ws.Score == nil {
			return nil, &ParseError{Reason: "missing score for " + string(c)}
		}
		if *ws.Score < 0 || *ws.Score > MaxBand {
			return nil, &ParseError{Reason: fmt.Sprintf("%s score %v outside [0, %v]", c, *ws.Score, MaxBand)}
		}
		res.Scores = append(res.Scores, Score{
			Criterion:   c,
			Score:       *ws.Score,
			Observation: ws.Observation,
		})
	}

	html := bytes.TrimSpace(p.CorrectedHTML)
	if len(html) == 0 || bytes.Equal(html, []byte("null")) {
		return nil, &ParseError{Reason: "missing correctedHtml"}
	}
	if err := json.Unmarshal(html, &res.CorrectedHTML); err != nil {
		return nil, &ParseError{Reason: "correctedHtml is not a string", Err: err}
	}
	return res, nil
}
