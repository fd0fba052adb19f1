// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"strings"
	"unicode"
)

// MinQuoteLen is the shortest quote, in characters, that Find searches for.
// Shorter phrases match too many places to be useful highlights.
const MinQuoteLen = 5

// Page is one page of a Document: its geometry plus a searchable text index
// that maps every character back to the glyph that drew it.
type Page struct {
	Number int
	Box    Rect

	glyphs []glyph
	lines  []line
	lineOf []int // glyph index -> line index

	text  []rune
	owner []int // text index -> glyph index, -1 for inserted separators

	norm    []rune
	normPos []int // norm index -> text index
}

func newPage(n int, box Rect, glyphs []glyph) *Page {
	p := &Page{Number: n, Box: box, glyphs: glyphs}
	p.lines = groupLines(glyphs)
	p.lineOf = make([]int, len(glyphs))
	for li, ln := range p.lines {
		for _, gi := range ln.glyphs {
			p.lineOf[gi] = li
		}
	}
	p.buildText()
	p.buildNorm()
	return p
}

// buildText lays the glyphs out as text: lines separated by newlines, and
// a space inserted where the horizontal gap between glyphs suggests one.
func (p *Page) buildText() {
	for li, ln := range p.lines {
		if li > 0 {
			p.push('\n', -1)
		}
		prevEnd := 0.0
		for k, gi := range ln.glyphs {
			g := p.glyphs[gi]
			if k > 0 && g.x-prevEnd > 0.15*g.size && !p.endsWithSpace() && !strings.HasPrefix(g.s, " ") {
				p.push(' ', -1)
			}
			for _, r := range g.s {
				p.push(r, gi)
			}
			prevEnd = g.x + g.w
		}
	}
}

func (p *Page) push(r rune, gi int) {
	p.text = append(p.text, r)
	p.owner = append(p.owner, gi)
}

func (p *Page) endsWithSpace() bool {
	return len(p.text) > 0 && unicode.IsSpace(p.text[len(p.text)-1])
}

// buildNorm derives the search form of the page text: lowercased, typographic
// punctuation folded, whitespace runs collapsed to one space.
func (p *Page) buildNorm() {
	inSpace := false
	for i, r := range p.text {
		if unicode.IsSpace(r) {
			if inSpace || len(p.norm) == 0 {
				continue
			}
			inSpace = true
			p.norm = append(p.norm, ' ')
			p.normPos = append(p.normPos, i)
			continue
		}
		inSpace = false
		p.norm = append(p.norm, foldRune(r))
		p.normPos = append(p.normPos, i)
	}
}

// Text returns the page text with one line per text line.
func (p *Page) Text() string {
	return string(p.text)
}

// HasText reports whether the page carries any non-space text.
func (p *Page) HasText() bool {
	return strings.TrimSpace(string(p.text)) != ""
}

// Hit is one located occurrence of a quote: one rectangle per text line it
// spans, top line first.
type Hit struct {
	Rects []Rect
}

// Bounds returns the union of the hit rectangles.
func (h Hit) Bounds() Rect {
	b := h.Rects[0]
	for _, r := range h.Rects[1:] {
		b = b.Union(r)
	}
	return b
}

// Find locates up to max non-overlapping occurrences of quote. Matching is
// case-insensitive and tolerant of whitespace and quote-mark differences.
// Quotes shorter than MinQuoteLen return nil.
func (p *Page) Find(quote string, max int) []Hit {
	q := normalize(quote)
	if len(q) < MinQuoteLen || max <= 0 {
		return nil
	}

	var hits []Hit
	from := 0
	for len(hits) < max {
		i := indexRunes(p.norm[from:], q)
		if i < 0 {
			break
		}
		start := from + i
		end := start + len(q)
		if h, ok := p.hitFor(start, end); ok {
			hits = append(hits, h)
		}
		from = end
	}
	return hits
}

// Contains reports whether quote can be located on the page.
func (p *Page) Contains(quote string) bool {
	return len(p.Find(quote, 1)) > 0
}

// hitFor builds per-line rectangles for the normalized range [start, end).
func (p *Page) hitFor(start, end int) (Hit, bool) {
	byLine := make(map[int]Rect)
	var order []int
	for _, ti := range p.normPos[start:end] {
		gi := p.owner[ti]
		if gi < 0 {
			continue
		}
		li := p.lineOf[gi]
		b := p.glyphs[gi].box()
		if r, ok := byLine[li]; ok {
			byLine[li] = r.Union(b)
			continue
		}
		byLine[li] = b
		order = append(order, li)
	}
	if len(order) == 0 {
		return Hit{}, false
	}
	h := Hit{Rects: make([]Rect, 0, len(order))}
	for _, li := range order {
		h.Rects = append(h.Rects, byLine[li])
	}
	return h, true
}

// normalize converts a quote to the same form as Page.norm and trims
// surrounding quote marks and ellipses that models like to add.
func normalize(s string) []rune {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'“”‘’…")
	s = strings.TrimSuffix(s, "...")
	out := make([]rune, 0, len(s))
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !inSpace {
				out = append(out, ' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		out = append(out, foldRune(r))
	}
	return out
}

func foldRune(r rune) rune {
	switch r {
	case '‘', '’', '`', '´':
		return '\''
	case '“', '”', '„':
		return '"'
	case '–', '—', '‐', '‑':
		return '-'
	}
	return unicode.ToLower(r)
}

// indexRunes returns the index of the first occurrence of needle in hay, or -1.
func indexRunes(hay, needle []rune) int {
	n := len(needle)
outer:
	for i := 0; i+n <= len(hay); i++ {
		for j := 0; j < n; j++ {
			if hay[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}
