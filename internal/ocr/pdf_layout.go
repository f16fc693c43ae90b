package ocr

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Glyph is one positioned text run from a page content stream. Y grows
// upwards, so the top of the page has the largest Y.
type Glyph struct {
	S        string
	X, Y, W  float64
	FontSize float64
}

// TextBlock is a run of vertically adjacent line segments that overlap
// horizontally, roughly what a reader perceives as one cell or paragraph.
type TextBlock struct {
	Lines []string
	Left  float64
	Right float64
	Top   float64

	lastY float64
	size  float64
}

type lineSegment struct {
	text        string
	left, right float64
	y, size     float64
}

const (
	rowTolerance    = 2.0
	wordGapFactor   = 0.25
	columnGapFactor = 2.5
	lineGapFactor   = 1.8
	defaultFontSize = 10.0
)

// pdfBlocks reads every page of a PDF and renders its text blocks in
// (top, left) order, each followed by a delimiter line. Pages are separated
// by a blank line. It reports the page count and how many glyphs were found.
func pdfBlocks(path string) (text string, pages, glyphs int, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	pages = r.NumPage()
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		texts, err := pageTexts(p)
		if err != nil {
			return "", pages, glyphs, fmt.Errorf("page %d: %w", i, err)
		}
		gs := make([]Glyph, 0, len(texts))
		for _, t := range texts {
			gs = append(gs, Glyph{S: t.S, X: t.X, Y: t.Y, W: t.W, FontSize: t.FontSize})
		}
		glyphs += len(gs)
		b.WriteString(FormatBlocks(LayoutBlocks(gs)))
		b.WriteString("\n")
	}
	return b.String(), pages, glyphs, nil
}

// pageTexts guards against the reader panicking on malformed content streams.
func pageTexts(p pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read content: %v", r)
		}
	}()
	return p.Content().Text, nil
}

// LayoutBlocks groups glyphs into rows, splits rows at wide horizontal gaps
// and stacks the resulting segments into blocks.
func LayoutBlocks(glyphs []Glyph) []TextBlock {
	var blocks []*TextBlock
	for _, row := range groupRows(glyphs) {
		for _, seg := range splitSegments(row) {
			if b := openBlockFor(blocks, seg); b != nil {
				b.Lines = append(b.Lines, seg.text)
				b.Left = math.Min(b.Left, seg.left)
				b.Right = math.Max(b.Right, seg.right)
				b.lastY = seg.y
				continue
			}
			blocks = append(blocks, &TextBlock{
				Lines: []string{seg.text},
				Left:  seg.left,
				Right: seg.right,
				Top:   seg.y,
				lastY: seg.y,
				size:  seg.size,
			})
		}
	}

	out := make([]TextBlock, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, *b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Top != out[j].Top {
			return out[i].Top > out[j].Top
		}
		return out[i].Left < out[j].Left
	})
	return out
}

// FormatBlocks renders blocks one per group, each closed by a delimiter line.
func FormatBlocks(blocks []TextBlock) string {
	var b strings.Builder
	for _, blk := range blocks {
		b.WriteString(strings.Join(blk.Lines, "\n"))
		b.WriteString("\n=====\n")
	}
	return b.String()
}

func groupRows(glyphs []Glyph) [][]Glyph {
	sorted := make([]Glyph, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var (
		rows [][]Glyph
		rowY float64
	)
	for _, g := range sorted {
		if len(rows) > 0 && math.Abs(rowY-g.Y) <= rowTolerance {
			rows[len(rows)-1] = append(rows[len(rows)-1], g)
			continue
		}
		rows = append(rows, []Glyph{g})
		rowY = g.Y
	}
	for _, row := range rows {
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	return rows
}

func splitSegments(row []Glyph) []lineSegment {
	var (
		segs      []lineSegment
		cur       *lineSegment
		sb        strings.Builder
		lastRight float64
		space     bool
	)
	flush := func() {
		if cur != nil {
			cur.text = strings.TrimSpace(sb.String())
			if cur.text != "" {
				segs = append(segs, *cur)
			}
		}
		cur = nil
		sb.Reset()
		space = false
	}
	for _, g := range row {
		if strings.TrimSpace(g.S) == "" {
			space = cur != nil
			continue
		}
		size := g.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		if cur != nil {
			gap := g.X - lastRight
			switch {
			case gap > columnGapFactor*size:
				flush()
			case space || gap > wordGapFactor*size:
				sb.WriteByte(' ')
			}
		}
		if cur == nil {
			cur = &lineSegment{left: g.X, y: g.Y, size: size}
		}
		sb.WriteString(g.S)
		space = false
		lastRight = g.X + g.W
		cur.right = lastRight
	}
	flush()
	return segs
}

// openBlockFor finds the most recent block that seg continues: the line gap
// is within a line height and the horizontal ranges overlap.
func openBlockFor(blocks []*TextBlock, seg lineSegment) *TextBlock {
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		dy := b.lastY - seg.y
		if dy <= rowTolerance || dy > lineGapFactor*math.Max(b.size, seg.size) {
			continue
		}
		if seg.left <= b.Right && seg.right >= b.Left {
			return b
		}
	}
	return nil
}
