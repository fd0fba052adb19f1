// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-annotate/internal/testpdf"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

func TestOpen_Valid(t *testing.T) {
	data := testpdf.Build(t, testpdf.Sample, "")

	doc, err := Open(data)
	require.NoError(t, err)
	require.NoError(t, doc.TextErr)

	assert.Equal(t, 2, doc.PageCount())
	assert.Nil(t, doc.Page(0))
	assert.Nil(t, doc.Page(3))

	p1 := doc.Page(1)
	require.NotNil(t, p1)
	assert.True(t, p1.HasText())
	assert.Contains(t, strings.ToLower(p1.Text()), "photosynthesis")
	assert.InDelta(t, 612, p1.Box.Width(), 1)
	assert.InDelta(t, 792, p1.Box.Height(), 1)

	p2 := doc.Page(2)
	require.NotNil(t, p2)
	assert.False(t, p2.HasText())
}

func TestOpen_FindOnRealPage(t *testing.T) {
	doc, err := Open(testpdf.Build(t, testpdf.Sample))
	require.NoError(t, err)

	hits := doc.Page(1).Find("leaves change colour", 5)
	require.Len(t, hits, 1)

	b := hits[0].Bounds()
	box := doc.Page(1).Box
	assert.Greater(t, b.Width(), 0.0)
	assert.Greater(t, b.Height(), 0.0)
	assert.GreaterOrEqual(t, b.LLX, box.LLX)
	assert.LessOrEqual(t, b.URY, box.URY)
}

func TestOpen_OwnerPasswordOnly(t *testing.T) {
	data := testpdf.Encrypt(t, testpdf.Build(t, testpdf.Sample), "owner")

	doc, err := Open(data)
	require.NoError(t, err)
	require.NoError(t, doc.TextErr)

	p := doc.Page(1)
	require.NotNil(t, p)
	assert.True(t, p.HasText())
	assert.True(t, p.Contains("Chlorophyll breaks down"))
}

func TestOpen_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"plain text renamed", []byte("Dear diary, this is not a PDF at all.\n")},
		{"header only", []byte("%PDF-1.4\n")},
		{"header then garbage", []byte("%PDF-1.7\nthis is garbage\n%%EOF\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Open(tt.data)
			require.Error(t, err)
			assert.Nil(t, doc)

			var perr *types.DocumentParseError
			assert.True(t, errors.As(err, &perr), "want DocumentParseError, got %T", err)
		})
	}
}

func TestCount(t *testing.T) {
	n, err := Count(testpdf.Build(t, "one", "two", "three"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = Count([]byte("nope"))
	var perr *types.DocumentParseError
	assert.ErrorAs(t, err, &perr)
}
