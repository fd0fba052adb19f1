// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes annotations into a parsed PDF. Each located quote
// becomes a /Highlight annotation with one quadrilateral per text line;
// each annotation can also get a colour-coded /FreeText callout in the
// right margin carrying its label, quote, note and themes. Page content
// streams are never modified.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/pdf-annotate/internal/document"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// highlightOpacity is the /CA of highlight annotations.
const highlightOpacity = 0.35

// printFlag is the annotation flag that makes annotations print.
const printFlag = 4

// Renderer inserts annotations into documents.
type Renderer struct {
	// Author is written to /T; empty uses the kind label.
	Author string

	// MarginNotes adds a FreeText callout per annotation.
	MarginNotes bool

	// MaxHits limits highlighted occurrences per quote.
	MaxHits int

	now func() time.Time
}

// New returns a Renderer for cfg.
func New(cfg types.RenderConfig, maxHits int) *Renderer {
	if maxHits <= 0 {
		maxHits = 5
	}
	return &Renderer{
		Author:      cfg.Author,
		MarginNotes: cfg.MarginNotes,
		MaxHits:     maxHits,
		now:         time.Now,
	}
}

// Output is the annotated document and what was placed in it.
type Output struct {
	PDF        []byte
	Pages      int
	Highlights int
	Notes      int
}

// Render adds anns to doc and serializes the result. Annotations that name
// a page outside the document are ignored. doc is modified in place and
// must not be rendered twice. Failures are *types.AnnotationWriteError.
func (r *Renderer) Render(doc *document.Document, anns []types.Annotation) (out *Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, &types.AnnotationWriteError{Err: fmt.Errorf("pdf writer panic: %v", rec)}
		}
	}()

	ctx := doc.Context()
	out = &Output{Pages: doc.PageCount()}
	stamp := r.now().UTC().Format("D:20060102150405Z")
	byPage := types.GroupByPage(anns)

	for _, page := range doc.Pages() {
		pageAnns := byPage[page.Number]
		if len(pageAnns) == 0 {
			continue
		}
		if err := r.renderPage(ctx, page, pageAnns, stamp, out); err != nil {
			return nil, &types.AnnotationWriteError{Err: fmt.Errorf("page %d: %w", page.Number, err)}
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, &types.AnnotationWriteError{Err: fmt.Errorf("serializing PDF: %w", err)}
	}
	out.PDF = buf.Bytes()
	return out, nil
}

func (r *Renderer) renderPage(ctx *model.Context, page *document.Page, anns []types.Annotation, stamp string, out *Output) error {
	pageDict, pageRef, _, err := ctx.PageDict(page.Number, false)
	if err != nil {
		return fmt.Errorf("reading page dict: %w", err)
	}
	if pageDict == nil || pageRef == nil {
		return fmt.Errorf("page dict missing")
	}

	var m *margin
	if r.MarginNotes {
		m = newMargin(page.Box)
	}

	var refs pdftypes.Array
	for _, a := range anns {
		st := StyleFor(a.Type)

		for _, hit := range page.Find(a.Quote, r.MaxHits) {
			ref, err := ctx.IndRefForNewObject(r.highlight(hit, a, st, *pageRef, stamp))
			if err != nil {
				return fmt.Errorf("adding highlight: %w", err)
			}
			refs = append(refs, *ref)
			out.Highlights++
		}

		if m == nil {
			continue
		}
		c := m.place(a)
		apRef, err := ctx.IndRefForNewObject(appearanceStream(c))
		if err != nil {
			return fmt.Errorf("adding callout appearance: %w", err)
		}
		ref, err := ctx.IndRefForNewObject(r.freeText(c, a, *pageRef, *apRef, stamp))
		if err != nil {
			return fmt.Errorf("adding callout: %w", err)
		}
		refs = append(refs, *ref)
		out.Notes++
	}

	if len(refs) == 0 {
		return nil
	}
	return appendAnnots(ctx, pageDict, refs)
}

// appendAnnots adds refs to the page's /Annots array, which may be absent,
// direct or indirect.
func appendAnnots(ctx *model.Context, pageDict pdftypes.Dict, refs pdftypes.Array) error {
	var existing pdftypes.Array
	if obj, found := pageDict.Find("Annots"); found && obj != nil {
		arr, err := ctx.DereferenceArray(obj)
		if err != nil {
			return fmt.Errorf("reading /Annots: %w", err)
		}
		existing = arr
	}
	annots := make(pdftypes.Array, 0, len(existing)+len(refs))
	annots = append(annots, existing...)
	annots = append(annots, refs...)
	pageDict["Annots"] = annots
	return nil
}

func (r *Renderer) highlight(hit document.Hit, a types.Annotation, st Style, pageRef pdftypes.IndirectRef, stamp string) pdftypes.Dict {
	quads := make(pdftypes.Array, 0, 8*len(hit.Rects))
	for _, q := range hit.Rects {
		quads = append(quads,
			pdftypes.Float(q.LLX), pdftypes.Float(q.URY),
			pdftypes.Float(q.URX), pdftypes.Float(q.URY),
			pdftypes.Float(q.LLX), pdftypes.Float(q.LLY),
			pdftypes.Float(q.URX), pdftypes.Float(q.LLY),
		)
	}

	contents := a.Note
	if contents == "" {
		contents = a.Quote
	}

	d := r.common(st, pageRef, stamp)
	d["Subtype"] = pdftypes.Name("Highlight")
	d["Rect"] = rectArray(hit.Bounds())
	d["QuadPoints"] = quads
	d["C"] = colorArray(st.Accent)
	d["CA"] = pdftypes.Float(highlightOpacity)
	d["Contents"] = textString(contents)
	return d
}

func (r *Renderer) freeText(c callout, a types.Annotation, pageRef, apRef pdftypes.IndirectRef, stamp string) pdftypes.Dict {
	d := r.common(c.style, pageRef, stamp)
	d["Subtype"] = pdftypes.Name("FreeText")
	d["Rect"] = rectArray(c.rect)
	d["Contents"] = textString(c.contents(a))
	d["DA"] = pdftypes.StringLiteral(fmt.Sprintf("/Helv %s Tf %s rg", num(fsText), color(noteColor)))
	d["C"] = colorArray(c.style.Fill)
	d["BS"] = pdftypes.Dict{"W": pdftypes.Float(0.65)}
	d["AP"] = pdftypes.Dict{"N": apRef}
	return d
}

// common returns the entries shared by every annotation this package writes.
func (r *Renderer) common(st Style, pageRef pdftypes.IndirectRef, stamp string) pdftypes.Dict {
	author := r.Author
	if author == "" {
		author = st.Label
	}
	return pdftypes.Dict{
		"Type": pdftypes.Name("Annot"),
		"T":    textString(author),
		"Subj": textString(st.Label),
		"NM":   pdftypes.StringLiteral(uuid.New().String()),
		"M":    pdftypes.StringLiteral(stamp),
		"F":    pdftypes.Integer(printFlag),
		"P":    pageRef,
	}
}

// appearanceStream wraps the callout drawing in a form XObject using the
// standard Helvetica font.
func appearanceStream(c callout) pdftypes.StreamDict {
	content := c.appearance()
	length := int64(len(content))

	helv := pdftypes.Dict{
		"Type":     pdftypes.Name("Font"),
		"Subtype":  pdftypes.Name("Type1"),
		"BaseFont": pdftypes.Name("Helvetica"),
		"Encoding": pdftypes.Name("WinAnsiEncoding"),
	}
	return pdftypes.StreamDict{
		Dict: pdftypes.Dict{
			"Type":      pdftypes.Name("XObject"),
			"Subtype":   pdftypes.Name("Form"),
			"BBox":      pdftypes.Array{pdftypes.Float(0), pdftypes.Float(0), pdftypes.Float(c.rect.Width()), pdftypes.Float(c.rect.Height())},
			"Resources": pdftypes.Dict{"Font": pdftypes.Dict{"Helv": helv}},
			"Length":    pdftypes.Integer(length),
		},
		StreamLength: &length,
		Content:      content,
		Raw:          content,
	}
}

func rectArray(r document.Rect) pdftypes.Array {
	return pdftypes.Array{pdftypes.Float(r.LLX), pdftypes.Float(r.LLY), pdftypes.Float(r.URX), pdftypes.Float(r.URY)}
}

func colorArray(c RGB) pdftypes.Array {
	return pdftypes.Array{pdftypes.Float(c[0]), pdftypes.Float(c[1]), pdftypes.Float(c[2])}
}
