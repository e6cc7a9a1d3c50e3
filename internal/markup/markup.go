// Package markup reads the correction markup returned by the grader:
//
//	<del>ORIGINAL<span class='handwritten'>REPLACEMENT</span></del>
//
// The markup itself is stored and exported verbatim. This package only
// tokenizes it for terminal display and plain-text copies.
package markup

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"

	"github.com/raulito1500/ielts-simulator/internal/ui"
)

// HandwrittenClass marks the replacement span inside a deletion.
const HandwrittenClass = "handwritten"

// Segment is a run of essay text. Corrected segments carry the original
// wording in Text and the suggestion in Replacement.
type Segment struct {
	Text        string
	Replacement string
	Corrected   bool
}

type parser struct {
	segments []Segment
	plain    strings.Builder

	delDepth int
	original strings.Builder
	replace  strings.Builder
	// spans records, per open <span>, whether it is a handwritten one.
	spans []bool
	// delSpans is len(spans) when the outermost <del> opened.
	delSpans int
}

// Parse splits markup into plain and corrected segments. Tags other than
// del, span and br contribute only their text. Unbalanced markup is shown
// as received: an unclosed <del> still yields a corrected segment.
func Parse(markup string) ([]Segment, error) {
	p := &parser{}
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, err
			}
			break
		}
		p.token(z.Token())
	}
	p.closeDel()
	p.flushPlain()
	return p.segments, nil
}

func (p *parser) token(tok html.Token) {
	switch tok.Type {
	case html.TextToken:
		p.text(tok.Data)
	case html.StartTagToken, html.SelfClosingTagToken:
		switch tok.Data {
		case "del":
			if tok.Type == html.SelfClosingTagToken {
				return
			}
			if p.delDepth == 0 {
				p.flushPlain()
				p.delSpans = len(p.spans)
			}
			p.delDepth++
		case "span":
			if tok.Type == html.StartTagToken {
				p.spans = append(p.spans, hasClass(tok, HandwrittenClass))
			}
		case "br":
			p.text("\n")
		}
	case html.EndTagToken:
		switch tok.Data {
		case "del":
			if p.delDepth == 0 {
				return
			}
			p.delDepth--
			if p.delDepth == 0 {
				p.closeDel()
			}
		case "span":
			if len(p.spans) > 0 {
				p.spans = p.spans[:len(p.spans)-1]
			}
		case "p", "div":
			p.text("\n")
		}
	}
}

func (p *parser) inHandwritten() bool {
	for _, h := range p.spans {
		if h {
			return true
		}
	}
	return false
}

func (p *parser) text(s string) {
	switch {
	case p.delDepth == 0:
		p.plain.WriteString(s)
	case p.inHandwritten():
		p.replace.WriteString(s)
	default:
		p.original.WriteString(s)
	}
}

func (p *parser) flushPlain() {
	if p.plain.Len() == 0 {
		return
	}
	p.segments = append(p.segments, Segment{Text: p.plain.String()})
	p.plain.Reset()
}

// closeDel ends the outermost deletion and drops any spans left open
// inside it.
func (p *parser) closeDel() {
	if len(p.spans) > p.delSpans {
		p.spans = p.spans[:p.delSpans]
	}
	p.delDepth = 0
	if p.original.Len() == 0 && p.replace.Len() == 0 {
		return
	}
	p.segments = append(p.segments, Segment{
		Text:        p.original.String(),
		Replacement: p.replace.String(),
		Corrected:   true,
	})
	p.original.Reset()
	p.replace.Reset()
}

func hasClass(tok html.Token, class string) bool {
	for _, a := range tok.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

// Corrections counts corrected segments.
func Corrections(segments []Segment) int {
	n := 0
	for _, s := range segments {
		if s.Corrected {
			n++
		}
	}
	return n
}

// PlainText returns the essay with every correction applied.
func PlainText(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Corrected {
			b.WriteString(s.Replacement)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// OriginalText returns the essay as the candidate wrote it.
func OriginalText(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Render styles segments for the terminal: the original wording struck
// through in red, followed by the suggestion. Width <= 0 disables wrapping.
func Render(segments []Segment, width int) string {
	var b strings.Builder
	for _, s := range segments {
		if !s.Corrected {
			b.WriteString(s.Text)
			continue
		}
		if s.Text != "" {
			b.WriteString(ui.DeletedStyle.Render(s.Text))
		}
		if s.Replacement != "" {
			if s.Text != "" {
				b.WriteString(" ")
			}
			b.WriteString(ui.HandwrittenStyle.Render(s.Replacement))
		}
	}
	if width <= 0 {
		return b.String()
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}
