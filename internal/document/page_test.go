// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// glyphsFor lays out each line as one glyph per character, 6pt apart, with
// lines 20pt apart starting at y=700.
func glyphsFor(lines ...string) []glyph {
	var out []glyph
	for li, s := range lines {
		y := 700.0 - float64(li)*20
		for ci, r := range s {
			out = append(out, glyph{s: string(r), x: 72 + float64(ci)*6, y: y, w: 6, size: 10})
		}
	}
	return out
}

func letterPage(lines ...string) *Page {
	return newPage(1, Rect{URX: 612, URY: 792}, glyphsFor(lines...))
}

func TestPageText(t *testing.T) {
	p := letterPage("Hello world", "second line")
	assert.Equal(t, "Hello world\nsecond line", p.Text())
	assert.True(t, p.HasText())

	empty := newPage(1, Rect{URX: 612, URY: 792}, nil)
	assert.Equal(t, "", empty.Text())
	assert.False(t, empty.HasText())
}

func TestPageText_InsertsSpaceForGap(t *testing.T) {
	glyphs := []glyph{
		{s: "A", x: 72, y: 700, w: 6, size: 10},
		{s: "B", x: 78, y: 700, w: 6, size: 10},
		{s: "C", x: 100, y: 700, w: 6, size: 10},
	}
	p := newPage(1, Rect{URX: 612, URY: 792}, glyphs)
	assert.Equal(t, "AB C", p.Text())
}

func TestFind(t *testing.T) {
	p := letterPage(
		"The quick brown fox jumps over",
		"the lazy dog. The quick brown fox",
		"sleeps.",
	)

	tests := []struct {
		name      string
		quote     string
		max       int
		wantHits  int
		wantLines []int
	}{
		{"single line", "quick brown fox", 5, 2, []int{1, 1}},
		{"case insensitive", "QUICK BROWN", 5, 2, []int{1, 1}},
		{"spans two lines", "jumps over the lazy", 5, 1, []int{2}},
		{"extra whitespace", "jumps   over\n the  lazy", 5, 1, []int{2}},
		{"surrounding quotes", "“the lazy dog”", 5, 1, []int{1}},
		{"max limits hits", "quick brown fox", 1, 1, []int{1}},
		{"too short", "fox", 5, 0, nil},
		{"absent", "purple elephant", 5, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := p.Find(tt.quote, tt.max)
			require.Len(t, hits, tt.wantHits)
			for i, h := range hits {
				assert.Len(t, h.Rects, tt.wantLines[i])
			}
		})
	}
}

func TestFind_RectGeometry(t *testing.T) {
	p := letterPage("abcdefghij")
	hits := p.Find("cdefg", 5)
	require.Len(t, hits, 1)

	r := hits[0].Rects[0]
	assert.InDelta(t, 72+2*6, r.LLX, 1e-9)
	assert.InDelta(t, 72+7*6, r.URX, 1e-9)
	assert.InDelta(t, 700-2.2, r.LLY, 1e-9)
	assert.InDelta(t, 700+7.8, r.URY, 1e-9)
}

func TestFind_MultiLineBoundsAreTopFirst(t *testing.T) {
	p := letterPage("alpha beta", "gamma delta")
	hits := p.Find("beta gamma", 5)
	require.Len(t, hits, 1)
	require.Len(t, hits[0].Rects, 2)
	assert.Greater(t, hits[0].Rects[0].LLY, hits[0].Rects[1].LLY)

	b := hits[0].Bounds()
	assert.InDelta(t, hits[0].Rects[1].LLY, b.LLY, 1e-9)
	assert.InDelta(t, hits[0].Rects[0].URY, b.URY, 1e-9)
}

func TestPageGlyphs_EstimatesMissingWidths(t *testing.T) {
	texts := []pdf.Text{
		{S: "a", X: 72, Y: 700, FontSize: 10},
		{S: "b", X: 72, Y: 700, FontSize: 10},
		{S: "c", X: 72, Y: 700, FontSize: 10},
		{S: "d", X: 72, Y: 680, FontSize: 10},
	}
	glyphs := pageGlyphs(texts)
	require.Len(t, glyphs, 4)

	assert.InDelta(t, 72, glyphs[0].x, 1e-9)
	assert.Greater(t, glyphs[1].x, glyphs[0].x)
	assert.Greater(t, glyphs[2].x, glyphs[1].x)
	// A new baseline restarts at the reported origin.
	assert.InDelta(t, 72, glyphs[3].x, 1e-9)
	for _, g := range glyphs {
		assert.Greater(t, g.w, 0.0)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "don't stop", string(normalize("  “Don’t   Stop” ")))
	assert.Equal(t, "a-b", string(normalize("a—b...")))
}
