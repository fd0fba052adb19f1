// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const defaultFontSize = 10.0

// Rect is an axis-aligned rectangle in PDF user space.
type Rect struct {
	LLX, LLY, URX, URY float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.URX - r.LLX }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		LLX: math.Min(r.LLX, o.LLX),
		LLY: math.Min(r.LLY, o.LLY),
		URX: math.Max(r.URX, o.URX),
		URY: math.Max(r.URY, o.URY),
	}
}

// glyph is one shown string fragment (usually a single character) with its
// baseline origin, advance width and effective font size.
type glyph struct {
	s    string
	x, y float64
	w    float64
	size float64
}

// extractLayouts returns the glyphs of every page, in content-stream order.
// ledongthuc/pdf panics on some malformed streams, so panics are recovered
// and reported as an error.
func extractLayouts(data []byte) (pages [][]glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("text extraction panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening text layer: %w", err)
	}

	n := r.NumPage()
	pages = make([][]glyph, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		pages[i-1] = pageGlyphs(p.Content().Text)
	}
	return pages, nil
}

// pageGlyphs converts library text runs to glyphs. Fonts without a /Widths
// array (the standard 14 fonts written by many generators) report zero
// advance, leaving every character of a string at the same origin; those
// widths are estimated and the glyphs laid out one after another.
func pageGlyphs(texts []pdf.Text) []glyph {
	out := make([]glyph, 0, len(texts))
	var prevRawX, prevY, cursor float64
	havePrev := false

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		if size <= 0 {
			size = defaultFontSize
		}
		w := t.W
		if w <= 0 {
			w = estimateWidth(t.S) * size
		}

		x := t.X
		if havePrev && math.Abs(t.X-prevRawX) < 0.01 && math.Abs(t.Y-prevY) < 0.01 {
			x = cursor
		}

		out = append(out, glyph{s: t.S, x: x, y: t.Y, w: w, size: size})
		prevRawX, prevY, cursor = t.X, t.Y, x+w
		havePrev = true
	}
	return out
}

// estimateWidth approximates the advance of s in text space units (1/em)
// using Helvetica-like proportions.
func estimateWidth(s string) float64 {
	var w float64
	for _, r := range s {
		switch {
		case r == ' ':
			w += 0.278
		case strings.ContainsRune("ijlt.,;:'!|()[]", r):
			w += 0.28
		case strings.ContainsRune("mwMW@", r):
			w += 0.83
		case unicode.IsUpper(r) || unicode.IsDigit(r):
			w += 0.65
		default:
			w += 0.53
		}
	}
	return w
}

// line is a run of glyphs sharing a baseline.
type line struct {
	glyphs []int // indexes into Page.glyphs
	y      float64
	size   float64
}

// groupLines splits glyphs into lines. A glyph starts a new line when its
// baseline moves by more than half the font size.
func groupLines(glyphs []glyph) []line {
	var lines []line
	for i, g := range glyphs {
		if len(lines) > 0 {
			cur := &lines[len(lines)-1]
			if math.Abs(g.y-cur.y) <= 0.5*math.Max(g.size, cur.size) {
				cur.glyphs = append(cur.glyphs, i)
				cur.size = math.Max(cur.size, g.size)
				continue
			}
		}
		lines = append(lines, line{glyphs: []int{i}, y: g.y, size: g.size})
	}
	return lines
}

// box returns the rectangle covering glyph g, from descender to ascender.
func (g glyph) box() Rect {
	return Rect{
		LLX: g.x,
		LLY: g.y - 0.22*g.size,
		URX: g.x + g.w,
		URY: g.y + 0.78*g.size,
	}
}
