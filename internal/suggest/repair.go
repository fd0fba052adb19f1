// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// Notes used when a model answers but produces nothing usable.
const (
	noteNoOutput      = "Model returned no output."
	noteNoAnnotations = "No annotations produced."
	noteParseFailed   = "JSON parse failed. Raw: "
	rawSnippetLen     = 500
)

var (
	fenceRe  = regexp.MustCompile("```(?:json)?")
	objectRe = regexp.MustCompile(`\{[^{}]+\}`)
)

// errUnparseable is returned by parseArray when no strategy yields JSON.
var errUnparseable = errors.New("no JSON array in model output")

// fromModelOutput turns raw model text into annotations for page. It never
// fails: empty or unparseable output becomes a single notation explaining
// what went wrong, so the page still gets a margin note.
func fromModelOutput(page int, raw string) []types.Annotation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []types.Annotation{notation(page, noteNoOutput)}
	}

	items, err := parseArray(raw)
	if err != nil {
		return []types.Annotation{notation(page, noteParseFailed+truncateRunes(raw, rawSnippetLen))}
	}

	anns := clean(page, items)
	if len(anns) == 0 {
		return []types.Annotation{notation(page, noteNoAnnotations)}
	}
	return anns
}

func notation(page int, note string) types.Annotation {
	return types.Annotation{Page: page, Type: types.KindNotation, Note: note, Themes: []string{}}
}

// parseArray recovers a JSON array from model output. Small local models
// wrap JSON in fences, break lines inside strings, stop mid-array or use
// single quotes; each strategy handles one of those.
func parseArray(raw string) ([]any, error) {
	if items, ok := decodeList(raw); ok {
		return items, nil
	}

	chunk := raw
	if s, e := strings.Index(raw, "["), strings.LastIndex(raw, "]"); s != -1 && e > s {
		chunk = raw[s : e+1]
	}

	candidates := []string{
		chunk,
		strings.TrimSpace(fenceRe.ReplaceAllString(chunk, "")),
		joinBrokenLines(chunk),
	}
	if i := strings.LastIndex(chunk, "}"); i != -1 {
		candidates = append(candidates, chunk[:i+1]+"]")
	}
	for _, c := range candidates {
		if items, ok := decodeList(c); ok {
			return items, nil
		}
	}

	var items []any
	for _, obj := range objectRe.FindAllString(chunk, -1) {
		obj = strings.ReplaceAll(obj, "\n", " ")
		for _, variant := range []string{obj, strings.ReplaceAll(obj, "'", `"`)} {
			var v map[string]any
			if err := json.Unmarshal([]byte(variant), &v); err == nil {
				items = append(items, v)
				break
			}
		}
	}
	if len(items) > 0 {
		return items, nil
	}
	return nil, errUnparseable
}

// decodeList parses s as a JSON array. A lone object is accepted as a
// one-element array, and an object wrapping a single array field (as
// models in JSON mode like to produce) yields that array.
func decodeList(s string) ([]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		for _, field := range t {
			if arr, ok := field.([]any); ok && len(t) == 1 {
				return arr, true
			}
		}
		return []any{t}, true
	}
	return nil, false
}

// joinBrokenLines replaces a newline with a space when it sits between a
// quote or word character and a quote, word character or space: the shape
// of a string value broken across lines.
func joinBrokenLines(s string) string {
	rs := []rune(s)
	for i, r := range rs {
		if r != '\n' || i == 0 || i == len(rs)-1 {
			continue
		}
		if isQuoteOrWord(rs[i-1]) && (isQuoteOrWord(rs[i+1]) || rs[i+1] == ' ') {
			rs[i] = ' '
		}
	}
	return string(rs)
}

func isQuoteOrWord(r rune) bool {
	return r == '"' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// clean keeps only object items and normalizes their fields.
func clean(page int, items []any) []types.Annotation {
	var out []types.Annotation
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		a := types.Annotation{
			Page:   page,
			Type:   types.ParseKind(stringify(m["type"])),
			Quote:  flatten(stringify(m["quote"])),
			Note:   flatten(stringify(m["annotation"])),
			Themes: []string{},
		}
		if themes, ok := m["themes"].([]any); ok {
			for _, t := range themes {
				a.Themes = append(a.Themes, stringify(t))
			}
		}
		out = append(out, a)
	}
	return out
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func flatten(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}

// kindList renders the accepted kinds for the prompt.
func kindList() string {
	names := make([]string, len(types.Kinds))
	for i, k := range types.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
