// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pdf-annotate service:
// annotations and their kinds, job records, configuration, and the error
// taxonomy surfaced to callers.
package types

import "strings"

// Kind categorizes an annotation. It selects the colour and label used
// when the annotation is drawn into the PDF.
type Kind string

const (
	KindNotation   Kind = "notation"
	KindDefinition Kind = "definition"
	KindQuestion   Kind = "question"
	KindReaction   Kind = "reaction"
	KindDevice     Kind = "device"
	KindTheme      Kind = "theme"
	KindSummary    Kind = "summary"
)

// Kinds lists every accepted kind in the order they are described to models.
var Kinds = []Kind{
	KindNotation,
	KindDefinition,
	KindQuestion,
	KindReaction,
	KindDevice,
	KindTheme,
	KindSummary,
}

// ParseKind lowercases s and returns the matching Kind. Unknown or empty
// values map to KindNotation.
func ParseKind(s string) Kind {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k
		}
	}
	return KindNotation
}

// Annotation is one note attached to a page. Quote is a short verbatim
// phrase from the page text that gets highlighted; Note is the commentary
// shown in the margin. The JSON shape matches what the browser UI posts
// back to /api/build_pdf.
type Annotation struct {
	// Page is the 1-based page number.
	Page int `json:"page" yaml:"page"`

	// Type is the annotation kind.
	Type Kind `json:"type" yaml:"type"`

	// Quote is the phrase to highlight. Empty means margin note only.
	Quote string `json:"quote" yaml:"quote"`

	// Note is the annotation text.
	Note string `json:"annotation" yaml:"annotation"`

	// Themes holds free-form topic tags.
	Themes []string `json:"themes" yaml:"themes"`
}

// GroupByPage buckets annotations by page number, preserving order.
func GroupByPage(anns []Annotation) map[int][]Annotation {
	byPage := make(map[int][]Annotation)
	for _, a := range anns {
		byPage[a.Page] = append(byPage[a.Page], a)
	}
	return byPage
}
