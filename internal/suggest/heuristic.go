// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

const (
	quoteMaxWords    = 8
	sentenceMinWords = 3
	heuristicNoteLen = 240
)

// definitionCues mark a sentence that defines a term.
var definitionCues = []string{
	" is defined as ",
	" are defined as ",
	" refers to ",
	" refer to ",
	" means ",
	" is called ",
	" are called ",
	" is known as ",
}

// Heuristic picks sentences without a model: definitions first, then
// questions, then the longest remaining sentences as summaries. Output is
// deterministic for a given text.
type Heuristic struct {
	PerPage int
}

// NewHeuristic returns a Heuristic that picks up to perPage sentences.
func NewHeuristic(perPage int) *Heuristic {
	if perPage <= 0 {
		perPage = 3
	}
	return &Heuristic{PerPage: perPage}
}

// Name implements Suggester.
func (h *Heuristic) Name() string { return string(types.BackendHeuristic) }

type sentence struct {
	pos   int
	text  string
	words []string
	kind  types.Kind
}

// Suggest implements Suggester. A page whose text has no complete
// sentence still gets its opening words highlighted, so any page with
// text yields at least one quote.
func (h *Heuristic) Suggest(ctx context.Context, req Request) ([]types.Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sents := splitSentences(req.Text)
	if len(sents) == 0 {
		words := strings.Fields(req.Text)
		if len(words) == 0 {
			return nil, nil
		}
		return []types.Annotation{{
			Page:   req.Page,
			Type:   types.KindNotation,
			Quote:  quoteFrom(words),
			Note:   "Opening of page.",
			Themes: []string{},
		}}, nil
	}

	picked := pick(sents, h.PerPage)
	out := make([]types.Annotation, 0, len(picked))
	for _, s := range picked {
		out = append(out, types.Annotation{
			Page:   req.Page,
			Type:   s.kind,
			Quote:  quoteFrom(s.words),
			Note:   noteFor(s),
			Themes: []string{},
		})
	}
	return out, nil
}

// splitSentences breaks text at '.', '!' or '?' followed by whitespace or
// the end of text. Sentences shorter than sentenceMinWords are dropped.
func splitSentences(text string) []sentence {
	flat := strings.Join(strings.Fields(text), " ")
	rs := []rune(flat)

	var out []sentence
	start := 0
	for i, r := range rs {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(rs) && !unicode.IsSpace(rs[i+1]) {
			continue
		}
		out = appendSentence(out, string(rs[start:i+1]))
		start = i + 1
	}
	if start < len(rs) {
		out = appendSentence(out, string(rs[start:]))
	}
	return out
}

func appendSentence(out []sentence, s string) []sentence {
	s = strings.TrimSpace(s)
	words := strings.Fields(s)
	if len(words) < sentenceMinWords {
		return out
	}
	return append(out, sentence{pos: len(out), text: s, words: words, kind: classify(s)})
}

func classify(s string) types.Kind {
	if strings.HasSuffix(s, "?") {
		return types.KindQuestion
	}
	lower := " " + strings.ToLower(s) + " "
	for _, cue := range definitionCues {
		if strings.Contains(lower, cue) {
			return types.KindDefinition
		}
	}
	return types.KindSummary
}

// pick selects up to n sentences by priority and returns them in reading
// order.
func pick(sents []sentence, n int) []sentence {
	rank := func(s sentence) int {
		switch s.kind {
		case types.KindDefinition:
			return 0
		case types.KindQuestion:
			return 1
		}
		return 2
	}

	ordered := append([]sentence(nil), sents...)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := rank(ordered[i]), rank(ordered[j])
		if ri != rj {
			return ri < rj
		}
		return len(ordered[i].text) > len(ordered[j].text)
	})
	if len(ordered) > n {
		ordered = ordered[:n]
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].pos < ordered[j].pos })
	return ordered
}

// quoteFrom joins the leading words of a sentence into a short quote.
func quoteFrom(words []string) string {
	if len(words) > quoteMaxWords {
		words = words[:quoteMaxWords]
	}
	return strings.Join(words, " ")
}

func noteFor(s sentence) string {
	body := truncateRunes(s.text, heuristicNoteLen)
	if body != s.text {
		body += "…"
	}
	switch s.kind {
	case types.KindDefinition:
		return "Definition: " + body
	case types.KindQuestion:
		return "Question raised: " + body
	}
	return "Key sentence: " + body
}
