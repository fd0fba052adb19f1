// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/pdf-annotate/internal/document"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// Margin callout geometry, in points. Vertical offsets are measured down
// from the top of the page.
const (
	marginFraction = 0.23
	marginMax      = 180.0
	marginTop      = 14.0
	marginBottom   = 12.0
	boxGap         = 3.5
	boxPad         = 4.0
	accentBar      = 2.8
	textInset      = 5.0

	fsLabel = 5.8
	fsQuote = 6.4
	fsText  = 6.9
	fsTheme = 5.0
	lhQuote = fsQuote * 1.32
	lhText  = fsText * 1.36

	// minBox fits the label alone; very short pages get at least this.
	minBox = boxPad*2 + fsLabel

	quoteMax  = 50
	maxThemes = 4
)

var (
	quoteColor = RGB{0.28, 0.30, 0.40}
	noteColor  = RGB{0.08, 0.10, 0.16}
)

// margin stacks callout boxes down a strip on the right edge of one page,
// wrapping back to the top when a box would run off the bottom.
type margin struct {
	page  document.Rect
	x, w  float64
	chars int
	y     float64
}

func newMargin(page document.Rect) *margin {
	mw := math.Min(page.Width()*marginFraction, marginMax)
	sepX := page.Width() - mw - 2
	w := mw - 5
	return &margin{
		page:  page,
		x:     page.LLX + sepX + 3,
		w:     w,
		chars: max(int(w/(fsText*0.52)), 14),
		y:     marginTop,
	}
}

// callout is one laid-out margin box.
type callout struct {
	rect       document.Rect
	style      Style
	quoteLines []string
	noteLines  []string
	themes     string
}

// place lays out a box for a and advances the stack.
func (m *margin) place(a types.Annotation) callout {
	c := callout{
		style:     StyleFor(a.Type),
		noteLines: wrap(strings.TrimSpace(a.Note), m.chars),
		themes:    themeString(a.Themes),
	}
	if q := strings.TrimSpace(a.Quote); q != "" {
		c.quoteLines = wrap(`"`+shorten(q, quoteMax)+`"`, m.chars)
	}

	h := boxPad*2 + fsLabel + 2.5 +
		float64(len(c.quoteLines))*lhQuote +
		float64(len(c.noteLines))*lhText
	if len(c.quoteLines) > 0 {
		h += 2
	}
	if c.themes != "" {
		h += 8
	}
	h = math.Max(math.Min(h, m.page.Height()-marginTop-marginBottom), minBox)

	if m.y+h > m.page.Height()-marginBottom {
		m.y = marginTop
	}
	top := m.page.URY - m.y
	c.rect = document.Rect{LLX: m.x, LLY: top - h, URX: m.x + m.w, URY: top}
	m.y += h + boxGap
	return c
}

func themeString(themes []string) string {
	var tags []string
	for _, t := range themes {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, "#"+t)
		if len(tags) == maxThemes {
			break
		}
	}
	return strings.Join(tags, "  ")
}

// contents is the plain-text form of the callout, stored in /Contents for
// viewers that list annotations.
func (c callout) contents(a types.Annotation) string {
	parts := []string{c.style.Label}
	if q := strings.TrimSpace(a.Quote); q != "" {
		parts = append(parts, `"`+shorten(q, quoteMax)+`"`)
	}
	if n := strings.TrimSpace(a.Note); n != "" {
		parts = append(parts, n)
	}
	if c.themes != "" {
		parts = append(parts, c.themes)
	}
	return strings.Join(parts, "\n")
}

// appearance draws the box in form space: origin at the lower-left corner
// of the box, one unit per point.
func (c callout) appearance() []byte {
	w, h := c.rect.Width(), c.rect.Height()
	st := c.style

	var b bytes.Buffer
	b.WriteString("q\n")
	fmt.Fprintf(&b, "%s rg 0 0 %s %s re f\n", color(st.Fill), num(w), num(h))
	fmt.Fprintf(&b, "%s RG 0.65 w %s %s %s %s re S\n", color(st.Accent), num(0.325), num(0.325), num(w-0.65), num(h-0.65))
	fmt.Fprintf(&b, "%s rg 0 0 %s %s re f\n", color(st.Accent), num(accentBar), num(h))

	ty := boxPad
	showLine(&b, fsLabel, st.Accent, h-(ty+fsLabel), st.Label)
	ty += fsLabel + 2.5

	for _, ql := range c.quoteLines {
		showLine(&b, fsQuote, quoteColor, h-(ty+fsQuote), ql)
		ty += lhQuote
	}
	if len(c.quoteLines) > 0 {
		ty += 2
	}

	for _, nl := range c.noteLines {
		if ty+lhText > h-2 {
			break
		}
		showLine(&b, fsText, noteColor, h-(ty+fsText), nl)
		ty += lhText
	}

	if c.themes != "" {
		showLine(&b, fsTheme, st.Accent, 3.5, c.themes)
	}
	b.WriteString("Q\n")
	return b.Bytes()
}

func showLine(b *bytes.Buffer, size float64, col RGB, baseline float64, s string) {
	fmt.Fprintf(b, "BT /Helv %s Tf %s rg %s %s Td %s Tj ET\n",
		num(size), color(col), num(textInset), num(baseline), showString(s))
}

func color(c RGB) string {
	return num(c[0]) + " " + num(c[1]) + " " + num(c[2])
}

// num formats v with at most three decimals and no trailing zeros.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}
