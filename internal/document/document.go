// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document opens uploaded PDF bytes for annotation. pdfcpu parses
// and validates the object graph (and later receives the new annotation
// objects); ledongthuc/pdf supplies the positioned text used to locate
// quotes on each page. Everything happens in memory.
package document

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// pdfcpu must not create or read its configuration directory; documents
// are processed purely in memory.
func init() {
	api.DisableConfigDir()
}

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// errNotPDF is returned for input that lacks the PDF header.
var errNotPDF = errors.New("input is not a PDF (missing %PDF- header)")

// Document is a parsed PDF ready for annotation. It is not safe for
// concurrent mutation; each request opens its own Document.
type Document struct {
	ctx   *model.Context
	pages []*Page

	// TextErr is set when the PDF parsed but its text layer could not be
	// read. Pages are then present with empty text.
	TextErr error
}

// Open parses data as a PDF. Any failure, including panics raised inside
// the PDF libraries, is reported as *types.DocumentParseError.
func Open(data []byte) (*Document, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, &types.DocumentParseError{Err: err}
	}

	doc := &Document{ctx: ctx}

	var layouts [][]glyph
	text := data
	if ctx.Encrypt != nil {
		text, doc.TextErr = decrypt(data)
	}
	if doc.TextErr == nil {
		layouts, doc.TextErr = extractLayouts(text)
	}

	doc.pages = make([]*Page, ctx.PageCount)
	for i := range doc.pages {
		n := i + 1
		box, err := mediaBox(ctx, n)
		if err != nil {
			return nil, &types.DocumentParseError{Err: fmt.Errorf("reading page %d: %w", n, err)}
		}
		var glyphs []glyph
		if i < len(layouts) {
			glyphs = layouts[i]
		}
		doc.pages[i] = newPage(n, box, glyphs)
	}

	return doc, nil
}

// decrypt returns an unencrypted copy of data for the text layer. Files
// protected by an owner password only open with the empty user password.
func decrypt(data []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("pdf decrypt panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var buf bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, fmt.Errorf("decrypting text layer: %w", err)
	}
	return buf.Bytes(), nil
}

// Count returns the number of pages in data without extracting text.
func Count(data []byte) (int, error) {
	ctx, err := readContext(data)
	if err != nil {
		return 0, &types.DocumentParseError{Err: err}
	}
	return ctx.PageCount, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return len(d.pages) }

// Page returns the 1-based page n, or nil when n is out of range.
func (d *Document) Page(n int) *Page {
	if n < 1 || n > len(d.pages) {
		return nil
	}
	return d.pages[n-1]
}

// Pages returns all pages in order.
func (d *Document) Pages() []*Page { return d.pages }

// Context exposes the pdfcpu model so the renderer can add objects to it.
func (d *Document) Context() *model.Context { return d.ctx }

// readContext reads and validates data with pdfcpu in relaxed mode, which
// accepts the minor spec violations common in real-world files.
func readContext(data []byte) (ctx *model.Context, err error) {
	if len(data) == 0 {
		return nil, errors.New("empty input")
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data[:min(len(data), 1024)], "\x00\t\r\n "), pdfMagic) {
		return nil, errNotPDF
	}

	defer func() {
		if r := recover(); r != nil {
			ctx, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err = api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("reading PDF: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validating PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	if ctx.PageCount == 0 {
		return nil, errors.New("document has no pages")
	}
	return ctx, nil
}

// mediaBox returns the effective media box of page n, falling back to US
// Letter when the page tree carries none.
func mediaBox(ctx *model.Context, n int) (Rect, error) {
	_, _, inh, err := ctx.PageDict(n, false)
	if err != nil {
		return Rect{}, err
	}
	if inh == nil || inh.MediaBox == nil {
		return Rect{URX: 612, URY: 792}, nil
	}
	mb := inh.MediaBox
	return Rect{LLX: mb.LL.X, LLY: mb.LL.Y, URX: mb.UR.X, URY: mb.UR.Y}, nil
}
