// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package testpdf generates small PDF fixtures for tests. Each string
// becomes one Letter-size page set in 12pt Helvetica; an empty string
// produces a blank page.
package testpdf

import (
	"bytes"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Build returns a PDF with one page per entry of pages.
func Build(t testing.TB, pages ...string) []byte {
	t.Helper()

	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(72, 72, 72)
	doc.SetAutoPageBreak(false, 72)
	doc.SetFont("Helvetica", "", 12)

	for _, text := range pages {
		doc.AddPage()
		if text != "" {
			doc.MultiCell(0, 16, text, "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("building fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// Encrypt protects data with AES-256 and an owner password only, so it
// still opens with the empty user password.
func Encrypt(t testing.TB, data []byte, ownerPW string) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := api.Encrypt(bytes.NewReader(data), &buf, model.NewAESConfiguration("", ownerPW, 256)); err != nil {
		t.Fatalf("encrypting fixture PDF: %v", err)
	}
	return buf.Bytes()
}

// Sample is a short paragraph with a definition, a question and a long
// sentence, so every heuristic rule has something to pick.
const Sample = "Photosynthesis is defined as the process plants use to turn light into chemical energy. " +
	"Why do leaves change colour in autumn? " +
	"Chlorophyll breaks down as days shorten, revealing the yellow and orange pigments that were present all along."
