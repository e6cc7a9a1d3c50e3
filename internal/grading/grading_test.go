package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const validPayload = `{
  "scores": {
    "TaskAchievement": {"score": 7.0, "observation": "Covers the key features."},
    "CoherenceAndCohesion": {"score": 6.5, "observation": "Logical but repetitive linkers."},
    "LexicalResource": {"score": 6.0, "observation": "Limited range."},
    "GrammaticalRangeAndAccuracy": {"score": 7.5, "observation": "Mostly accurate."}
  },
  "correctedHtml": "The graph <del>show<span class='handwritten'>shows</span></del> growth."
}`

func TestOverallRoundsHalfUp(t *testing.T) {
	res, err := Decode([]byte(validPayload))
	require.NoError(t, err)

	overall, ok := res.Overall()
	require.True(t, ok)
	assert.Equal(t, 7.0, overall)
	assert.Equal(t, "7.0", FormatOverall(res))
}

func TestRoundHalf(t *testing.T) {
	cases := map[float64]float64{
		6.75:  7.0,
		6.25:  6.5,
		6.24:  6.0,
		6.5:   6.5,
		8.875: 9.0,
		0:     0,
	}
	for in, want := range cases {
		assert.Equal(t, want, RoundHalf(in), "RoundHalf(%v)", in)
	}
}

func TestOverallEmpty(t *testing.T) {
	_, ok := Result{}.Overall()
	assert.False(t, ok)
	assert.Equal(t, "N/A", FormatOverall(&Result{}))
	assert.Equal(t, "N/A", FormatOverall(nil))
}

func TestOverallUsesPresentCriteriaOnly(t *testing.T) {
	r := Result{Scores: []Score{{Criterion: TaskAchievement, Score: 5}, {Criterion: LexicalResource, Score: 6}}}
	overall, ok := r.Overall()
	require.True(t, ok)
	assert.Equal(t, 5.5, overall)
}

func TestDecodeKeepsCanonicalOrderAndMarkup(t *testing.T) {
	payload := `{"correctedHtml": "x <del>a<span class='handwritten'>b</span></del>",
	  "scores": {
	    "LexicalResource": {"score": 6, "observation": "l"},
	    "GrammaticalRangeAndAccuracy": {"score": 6, "observation": "g"},
	    "TaskAchievement": {"score": 6, "observation": "t"},
	    "CoherenceAndCohesion": {"score": 6, "observation": "c"}
	  }}`
	res, err := Decode([]byte(payload))
	require.NoError(t, err)

	var got []Criterion
	for _, s := range res.Scores {
		got = append(got, s.Criterion)
	}
	assert.Equal(t, Criteria, got)
	assert.Equal(t, "x <del>a<span class='handwritten'>b</span></del>", res.CorrectedHTML)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"scores": `,
		"missing scores":    `{"correctedHtml": "x"}`,
		"missing criterion": `{"scores": {"TaskAchievement": {"score": 7, "observation": ""}, "CoherenceAndCohesion": {"score": 7, "observation": ""}, "LexicalResource": {"score": 7, "observation": ""}}, "correctedHtml": "x"}`,
		"score too high":    `{"scores": {"TaskAchievement": {"score": 9.5, "observation": ""}, "CoherenceAndCohesion": {"score": 7, "observation": ""}, "LexicalResource": {"score": 7, "observation": ""}, "GrammaticalRangeAndAccuracy": {"score": 7, "observation": ""}}, "correctedHtml": "x"}`,
		"score negative":    `{"scores": {"TaskAchievement": {"score": -1, "observation": ""}, "CoherenceAndCohesion": {"score": 7, "observation": ""}, "LexicalResource": {"score": 7, "observation": ""}, "GrammaticalRangeAndAccuracy": {"score": 7, "observation": ""}}, "correctedHtml": "x"}`,
		"score missing":     `{"scores": {"TaskAchievement": {"observation": ""}, "CoherenceAndCohesion": {"score": 7, "observation": ""}, "LexicalResource": {"score": 7, "observation": ""}, "GrammaticalRangeAndAccuracy": {"score": 7, "observation": ""}}, "correctedHtml": "x"}`,
		"unknown criterion": `{"scores": {"Fluency": {"score": 7, "observation": ""}, "TaskAchievement": {"score": 7, "observation": ""}, "CoherenceAndCohesion": {"score": 7, "observation": ""}, "LexicalResource": {"score": 7, "observation": ""}, "GrammaticalRangeAndAccuracy": {"score": 7, "observation": ""}}, "correctedHtml": "x"}`,
		"html missing":      `{"scores": {"TaskAchievement": {"score": 7, "observation": ""}, "CoherenceAndCohesion": {"score": 7, "observation": ""}, "LexicalResource": {"score": 7, "observation": ""}, "GrammaticalRangeAndAccuracy": {"score": 7, "observation": ""}}}`,
		"html null":         `{"scores": {"TaskAchievement": {"score": 7, "observation": ""}, "CoherenceAndCohesion": {"score": 7, "observation": ""}, "LexicalResource": {"score": 7, "observation": ""}, "GrammaticalRangeAndAccuracy": {"score": 7, "observation": ""}}, "correctedHtml": null}`,
		"html not string":   `{"scores": {"TaskAchievement": {"score": 7, "observation": ""}, "CoherenceAndCohesion": {"score": 7, "observation": ""}, "LexicalResource": {"score": 7, "observation": ""}, "GrammaticalRangeAndAccuracy": {"score": 7, "observation": ""}}, "correctedHtml": 42}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := Decode([]byte(payload))
			assert.Nil(t, res)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	got, err := ExtractJSONObject("Here you go:\n```json\n{\"a\": {\"b\": 1}}\n```\nThanks")
	require.NoError(t, err)
	assert.Equal(t, `{"a": {"b": 1}}`, got)

	_, err = ExtractJSONObject("no braces here")
	assert.ErrorIs(t, err, ErrNoJSONObject)

	_, err = ExtractJSONObject("} backwards {")
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestParseStripsFences(t *testing.T) {
	res, err := Parse("```json\n" + validPayload + "\n```")
	require.NoError(t, err)
	assert.Len(t, res.Scores, 4)

	_, err = Parse("I cannot grade this.")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, ErrNoJSONObject)
}

func TestCriterionLabel(t *testing.T) {
	assert.Equal(t, "Task Achievement", TaskAchievement.Label())
	assert.Equal(t, "Grammatical Range And Accuracy", GrammaticalRangeAndAccuracy.Label())
}

type stubCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.system, s.user = system, user
	return s.reply, s.err
}

func (s *stubCompleter) Name() string { return "stub" }

func TestServiceGrade(t *testing.T) {
	stub := &stubCompleter{reply: validPayload}
	svc := NewService(stub, nil, 0)

	res, err := svc.Grade(context.Background(), "The graph show growth.")
	require.NoError(t, err)
	assert.Len(t, res.Scores, 4)
	assert.Equal(t, Instruction, stub.system)
	assert.Contains(t, stub.user, "The graph show growth.")
}

func TestServiceTransportError(t *testing.T) {
	svc := NewService(&stubCompleter{err: errors.New("503 Service Unavailable")}, nil, 0)

	_, err := svc.Grade(context.Background(), "text")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "stub", te.Provider)
}

func TestServiceParseError(t *testing.T) {
	svc := NewService(&stubCompleter{reply: `{"scores": {}}`}, nil, 0)

	_, err := svc.Grade(context.Background(), "text")
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestServiceWithoutCompleter(t *testing.T) {
	_, err := NewService(nil, nil, 0).Grade(context.Background(), "text")
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

type fakeGenerator struct {
	resp   *genai.GenerateContentResponse
	err    error
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.config = config
	return f.resp, f.err
}

func TestGeminiCompleter(t *testing.T) {
	fake := &fakeGenerator{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(validPayload, genai.RoleModel),
		}},
	}}
	g := &GeminiCompleter{models: fake, model: DefaultGeminiModel}

	text, err := g.Complete(context.Background(), Instruction, UserMessage("essay"))
	require.NoError(t, err)
	assert.Equal(t, validPayload, text)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Equal(t, "gemini:"+DefaultGeminiModel, g.Name())
}

func TestGeminiCompleterEmpty(t *testing.T) {
	g := &GeminiCompleter{models: &fakeGenerator{resp: &genai.GenerateContentResponse{}}, model: "m"}
	_, err := g.Complete(context.Background(), "s", "u")
	assert.Error(t, err)
}

type fakeMessages struct {
	resp *anthropic.Message
	err  error
	body anthropic.MessageNewParams
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.body = body
	return f.resp, f.err
}

func TestAnthropicCompleter(t *testing.T) {
	half := len(validPayload) / 2
	fake := &fakeMessages{resp: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: validPayload[:half]},
		{Type: "thinking", Thinking: "ignored"},
		{Type: "text", Text: validPayload[half:]},
	}}}
	a := &AnthropicCompleter{messages: fake, model: DefaultAnthropicModel}

	text, err := a.Complete(context.Background(), Instruction, UserMessage("essay"))
	require.NoError(t, err)
	assert.Equal(t, validPayload, text)
	assert.Equal(t, "anthropic:"+string(DefaultAnthropicModel), a.Name())

	require.Len(t, fake.body.System, 1)
	assert.Equal(t, Instruction, fake.body.System[0].Text)
	assert.Equal(t, DefaultAnthropicModel, fake.body.Model)
	assert.EqualValues(t, 8192, fake.body.MaxTokens)
	require.Len(t, fake.body.Messages, 1)
	assert.Equal(t, anthropic.MessageParamRoleUser, fake.body.Messages[0].Role)
	require.NotNil(t, fake.body.Messages[0].Content[0].OfText)
	assert.Equal(t, UserMessage("essay"), fake.body.Messages[0].Content[0].OfText.Text)

	res, err := NewService(a, nil, 0).Grade(context.Background(), "essay")
	require.NoError(t, err)
	assert.Equal(t, "7.0", FormatOverall(res))
}

func TestAnthropicCompleterEmpty(t *testing.T) {
	fake := &fakeMessages{resp: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "tool_use", Name: "noop"},
	}}}
	a := &AnthropicCompleter{messages: fake, model: "m"}
	_, err := a.Complete(context.Background(), "s", "u")
	assert.EqualError(t, err, "anthropic returned no text")
}

func TestAnthropicCompleterError(t *testing.T) {
	boom := errors.New("overloaded")
	a := &AnthropicCompleter{messages: &fakeMessages{err: boom}, model: "m"}
	_, err := a.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "anthropic messages")
}

func TestNewCompleterUnknownProvider(t *testing.T) {
	_, err := NewCompleter(context.Background(), Options{Provider: "openai"})
	assert.Error(t, err)
}

func TestNewGeminiCompleterNeedsKey(t *testing.T) {
	_, err := NewGeminiCompleter(context.Background(), "", "")
	assert.Error(t, err)
}
