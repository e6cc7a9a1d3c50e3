// Package report lays out and exports the end-of-session report: overall
// band, time spent, word count, per-criterion feedback, the task image and
// the writing sheet, paginated onto A4 pages.
package report

import (
	"html/template"
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

// Page geometry in CSS pixels for A4 portrait.
const (
	PageWidth  = 446.0
	PageHeight = 631.0
	Margin     = 20.0

	ContentWidth = PageWidth - 2*Margin

	LineHeight  = 15.0
	SmallHeight = 12.0
)

// Wrap columns for the two text sizes. The surface has 366px inside its
// padding at 12px, observations 356px at 10px; both leave room for wide
// glyphs so the estimated height never runs short of the rendered one.
const (
	observationColumns = 62
	surfaceColumns     = 52
)

// BlockKind identifies how a block is drawn.
type BlockKind string

const (
	BlockTitle       BlockKind = "title"
	BlockLine        BlockKind = "line"
	BlockHeading     BlockKind = "heading"
	BlockCriterion   BlockKind = "criterion"
	BlockImage       BlockKind = "image"
	BlockSurface     BlockKind = "surface"
	BlockPlaceholder BlockKind = "placeholder"
)

// Block is one unit of the report. Height is what must fit on the page;
// Gap is extra space after it.
type Block struct {
	Kind  BlockKind
	Text  string
	Lines []string

	// Band is the formatted criterion score.
	Band string
	// Src is the image source for BlockImage. It may be a data URL.
	Src template.URL
	// HTML is the writing sheet markup, inserted verbatim.
	HTML template.HTML

	Height float64
	Gap    float64
	// Y is the block's top offset on its page, set by Paginate.
	Y float64
}

// Page is one printed page.
type Page struct {
	Number int
	Blocks []Block
}

// Paginate places blocks top to bottom, starting a new page whenever the
// next block would end below the printable height. A block taller than a
// whole page gets a page of its own.
func Paginate(blocks []Block) []Page {
	if len(blocks) == 0 {
		return nil
	}
	pages := []Page{{Number: 1}}
	y := Margin
	for _, b := range blocks {
		cur := &pages[len(pages)-1]
		if y+b.Height > PageHeight-Margin && len(cur.Blocks) > 0 {
			pages = append(pages, Page{Number: len(pages) + 1})
			cur = &pages[len(pages)-1]
			y = Margin
		}
		b.Y = y
		cur.Blocks = append(cur.Blocks, b)
		y += b.Height + b.Gap
	}
	return pages
}

func titleBlock(text string) Block {
	return Block{Kind: BlockTitle, Text: text, Height: 30}
}

func lineBlock(text string) Block {
	return Block{Kind: BlockLine, Text: text, Height: LineHeight}
}

func headingBlock(text string) Block {
	return Block{Kind: BlockHeading, Text: text, Height: 20}
}

func placeholderBlock(text string) Block {
	return Block{Kind: BlockPlaceholder, Text: text, Height: 20}
}

func criterionBlock(label, band, observation string) Block {
	lines := wrapLines(observation, observationColumns)
	return Block{
		Kind:   BlockCriterion,
		Text:   label,
		Band:   band,
		Lines:  lines,
		Height: LineHeight + float64(len(lines))*SmallHeight + 10,
	}
}

// imageBlock scales a width x height image to the content width.
func imageBlock(src template.URL, width, height int) Block {
	h := ContentWidth
	if width > 0 && height > 0 {
		h = ContentWidth * float64(height) / float64(width)
	}
	return Block{Kind: BlockImage, Src: src, Height: h, Gap: 20}
}

func surfaceBlock(markup template.HTML, plain string) Block {
	lines := wrapLines(plain, surfaceColumns)
	return Block{
		Kind:   BlockSurface,
		HTML:   markup,
		Lines:  lines,
		Height: float64(len(lines))*LineHeight + 2*Margin,
	}
}

func wrapLines(s string, cols int) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(wordwrap.String(s, cols), "\n")
}
