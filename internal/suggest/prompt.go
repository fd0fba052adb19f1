// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"bytes"
	"strings"
	"text/template"
)

// DefaultInstructions are used when the caller gives none, e.g. one-shot
// uploads from the plain form or the CLI.
const DefaultInstructions = "Highlight the passages a careful reader would mark: key definitions, " +
	"central claims, open questions and one short summary of the page."

// annotationPromptTmpl is sent to the model for every page. The output
// contract (a bare JSON array, short verbatim quotes, no apostrophes or
// newlines in values) keeps small local models parseable.
var annotationPromptTmpl = template.Must(template.New("annotation").Parse(`You are a literary annotation assistant. Read the page text and produce annotations as JSON.

ANNOTATION INSTRUCTIONS:
{{.Instructions}}

PAGE {{.Page}} TEXT:
{{.Text}}

Return a JSON array. Each item must have EXACTLY these keys:
  "type"       : one of: {{.Kinds}}
  "quote"      : a SHORT verbatim phrase from the text (4-8 words). Must appear exactly in text.
  "annotation" : your annotation in 1-3 sentences. No newlines inside.
  "themes"     : array like ["love","identity"] or []

Rules:
- Produce 3 to 6 annotations per page
- The quote must be exact words from the text so they can be highlighted on the page
- No apostrophes inside string values (write out: do not instead of don't)
- No newlines inside any value
- Output ONLY the raw JSON array. No markdown. No code fences. No explanation.

Example output:
[{"type":"definition","quote":"thou art","annotation":"thou art means you are. An archaic second-person form used throughout Shakespeare.","themes":[]},
{"type":"theme","quote":"music be the food of love","annotation":"Orsino frames love as a hunger fed by music. This opens the central theme of love as an irresistible appetite.","themes":["love","music"]}]
`))

// renderPrompt executes the annotation prompt template for req.
func renderPrompt(req Request) (string, error) {
	instructions := strings.TrimSpace(req.Instructions)
	if instructions == "" {
		instructions = DefaultInstructions
	}

	var buf bytes.Buffer
	err := annotationPromptTmpl.Execute(&buf, struct {
		Instructions string
		Page         int
		Text         string
		Kinds        string
	}{
		Instructions: instructions,
		Page:         req.Page,
		Text:         req.Text,
		Kinds:        kindList(),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
