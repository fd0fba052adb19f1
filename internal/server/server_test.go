// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-annotate/internal/annotate"
	"github.com/pdiddy/pdf-annotate/internal/config"
	"github.com/pdiddy/pdf-annotate/internal/document"
	"github.com/pdiddy/pdf-annotate/internal/suggest"
	"github.com/pdiddy/pdf-annotate/internal/testpdf"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// fakeBackends answers Check with err.
type fakeBackends struct {
	def types.Backend
	err error
}

func (f fakeBackends) Default() types.Backend { return f.def }

func (f fakeBackends) Check(context.Context, types.Backend) error { return f.err }

// failingAnnotator fails every call with err.
type failingAnnotator struct{ err error }

func (f failingAnnotator) PageCount([]byte) (int, error) { return 0, f.err }

func (f failingAnnotator) Annotate(context.Context, []byte, annotate.Options) (*annotate.Result, error) {
	return nil, f.err
}

func (f failingAnnotator) Stream(context.Context, []byte, annotate.Options, func(annotate.Event) error) error {
	return f.err
}

func (f failingAnnotator) Build(context.Context, []byte, []types.Annotation, annotate.Options) (*annotate.Result, error) {
	return nil, f.err
}

func testConfig(t *testing.T, backend types.Backend) *types.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	cfg.Annotator.Backend = backend
	return cfg
}

// testServer wires the real annotation service.
func testServer(t *testing.T, backend types.Backend) http.Handler {
	t.Helper()
	cfg := testConfig(t, backend)
	set := suggest.NewSet(cfg)
	srv, err := New(cfg, annotate.New(cfg, set, nil, nil), set, nil)
	require.NoError(t, err)
	return srv.Handler()
}

// multipartBody encodes fields and, when data is non-nil, a "pdf" file part.
func multipartBody(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if data != nil {
		fw, err := w.CreateFormFile("pdf", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func post(t *testing.T, h http.Handler, path, filename string, data []byte, fields map[string]string, accept string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, filename, data, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error
}

func TestHealthz(t *testing.T) {
	rec := get(testServer(t, types.BackendHeuristic), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	rec := get(testServer(t, types.BackendHeuristic), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<option value="heuristic" selected>`)
	assert.Contains(t, rec.Body.String(), `action="/annotate"`)
}

func TestAnnotate_ReturnsAnnotatedPDF(t *testing.T) {
	h := testServer(t, types.BackendHeuristic)

	rec := post(t, h, "/annotate", "notes.pdf", testpdf.Build(t, testpdf.Sample), nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=notes_annotated.pdf", rec.Header().Get("Content-Disposition"))

	doc, err := document.Open(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount())
}

func TestAnnotate_Errors(t *testing.T) {
	h := testServer(t, types.BackendHeuristic)

	tests := []struct {
		name     string
		data     []byte
		fields   map[string]string
		wantCode int
		wantMsg  string
	}{
		{"missing file", nil, nil, http.StatusBadRequest, "no PDF uploaded"},
		{"empty file", []byte{}, nil, http.StatusBadRequest, "uploaded file is empty"},
		{"not a pdf", []byte("hello, world"), nil, http.StatusUnprocessableEntity, "parsing document"},
		{"bad page number", testpdf.Build(t, testpdf.Sample), map[string]string{"page_from": "two"}, http.StatusBadRequest, "invalid form fields"},
		{"unknown backend", testpdf.Build(t, testpdf.Sample), map[string]string{"backend": "gpt"}, http.StatusBadRequest, "invalid form fields"},
		{"empty range", testpdf.Build(t, testpdf.Sample), map[string]string{"page_from": "3"}, http.StatusBadRequest, "no pages found in that range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/annotate", "x.pdf", tt.data, tt.fields, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, errorBody(t, rec), tt.wantMsg)
			assert.NotEqual(t, "application/pdf", rec.Header().Get("Content-Type"))
		})
	}
}

func TestAnnotate_NegativePagesAreClamped(t *testing.T) {
	h := testServer(t, types.BackendHeuristic)

	fields := map[string]string{"page_from": "-3", "page_to": "-1"}
	rec := post(t, h, "/annotate", "x.pdf", testpdf.Build(t, testpdf.Sample), fields, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
}

func TestAnnotate_BrowserGetsErrorPage(t *testing.T) {
	rec := post(t, testServer(t, types.BackendHeuristic), "/annotate", "x.pdf", []byte("not a pdf"), nil, "text/html,application/xhtml+xml")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "422 Unprocessable Entity")
}

func TestAnnotate_SuggestionFailureIsBadGateway(t *testing.T) {
	cfg := testConfig(t, types.BackendOllama)
	boom := &types.SuggestionError{Backend: "ollama", Err: errors.New("cannot connect to Ollama")}
	srv, err := New(cfg, failingAnnotator{err: boom}, fakeBackends{def: types.BackendOllama}, nil)
	require.NoError(t, err)

	rec := post(t, srv.Handler(), "/annotate", "x.pdf", testpdf.Build(t, testpdf.Sample), nil, "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, errorBody(t, rec), "cannot connect to Ollama")
}

func TestUploadTooLarge(t *testing.T) {
	cfg := testConfig(t, types.BackendHeuristic)
	cfg.Server.MaxUploadMB = 1
	set := suggest.NewSet(cfg)
	srv, err := New(cfg, annotate.New(cfg, set, nil, nil), set, nil)
	require.NoError(t, err)

	rec := post(t, srv.Handler(), "/annotate", "big.pdf", bytes.Repeat([]byte("x"), 2<<20), nil, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, errorBody(t, rec), "1 MB upload limit")
}

func TestPageCount(t *testing.T) {
	h := testServer(t, types.BackendHeuristic)

	rec := post(t, h, "/api/page_count", "a.pdf", testpdf.Build(t, "one", "two"), nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pages":2}`, rec.Body.String())

	rec = post(t, h, "/api/page_count", "", nil, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No file"}`, rec.Body.String())

	rec = post(t, h, "/api/page_count", "empty.pdf", []byte{}, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"uploaded file is empty","pages":0}`, rec.Body.String())

	rec = post(t, h, "/api/page_count", "a.pdf", []byte("garbage"), nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Error string `json:"error"`
		Pages int    `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Error)
	assert.Zero(t, body.Pages)
}

func TestStream(t *testing.T) {
	h := testServer(t, types.BackendHeuristic)

	rec := post(t, h, "/api/annotate", "a.pdf", testpdf.Build(t, testpdf.Sample), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `data: {"type":"progress","pct":0,`), body)
	assert.Contains(t, body, `data: {"type":"page_start","page":1}`)
	assert.Contains(t, body, `"type":"annotation"`)
	assert.Contains(t, body, `"pct":93`)
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
}

func TestStream_RequiresInstructionsForModels(t *testing.T) {
	h := testServer(t, types.BackendOllama)

	rec := post(t, h, "/api/annotate", "a.pdf", testpdf.Build(t, testpdf.Sample), nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No instructions provided", errorBody(t, rec))

	rec = post(t, h, "/api/annotate", "a.pdf", nil, map[string]string{"instructions": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no PDF uploaded", errorBody(t, rec))
}

func TestStream_ErrorEventHasNoDoneMarker(t *testing.T) {
	h := testServer(t, types.BackendHeuristic)

	rec := post(t, h, "/api/annotate", "a.pdf", testpdf.Build(t, testpdf.Sample), map[string]string{"page_from": "4"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data: {\"type\":\"error\",\"message\":\"No pages found in that range.\"}\n\n", rec.Body.String())
}

func TestBuildPDF(t *testing.T) {
	h := testServer(t, types.BackendHeuristic)
	data := testpdf.Build(t, testpdf.Sample)

	anns := `[{"page":1,"type":"question","quote":"Why do leaves change colour","annotation":"Seasons.","themes":["botany"]}]`
	rec := post(t, h, "/api/build_pdf", "leaf.pdf", data, map[string]string{"annotations": anns}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "attachment; filename=leaf_annotated.pdf", rec.Header().Get("Content-Disposition"))

	doc, err := document.Open(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount())

	rec = post(t, h, "/api/build_pdf", "leaf.pdf", data, map[string]string{"annotations": "[{"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid annotations JSON", errorBody(t, rec))
}

func TestCheckLLM(t *testing.T) {
	cfg := testConfig(t, types.BackendOllama)

	down, err := New(cfg, failingAnnotator{}, fakeBackends{def: types.BackendOllama, err: errors.New("cannot connect")}, nil)
	require.NoError(t, err)
	for _, path := range []string{"/api/check_llm", "/api/check_ollama"} {
		rec := get(down.Handler(), path)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":false,"backend":"ollama","error":"cannot connect"}`, rec.Body.String())
	}

	up, err := New(cfg, failingAnnotator{}, fakeBackends{def: types.BackendOllama}, nil)
	require.NoError(t, err)
	rec := get(up.Handler(), "/api/check_llm?backend=heuristic")
	assert.JSONEq(t, `{"ok":true,"backend":"heuristic"}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&types.UploadError{Reason: "x"}, http.StatusBadRequest},
		{&types.DocumentParseError{Err: errors.New("x")}, http.StatusUnprocessableEntity},
		{&types.SuggestionError{Backend: "ollama", Err: errors.New("x")}, http.StatusBadGateway},
		{&types.AnnotationWriteError{Err: errors.New("x")}, http.StatusInternalServerError},
		{&http.MaxBytesError{Limit: 1 << 20}, http.StatusRequestEntityTooLarge},
		{&tooLargeError{limitMB: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%T", tt.err)
	}
}

func TestAnnotatedName(t *testing.T) {
	assert.Equal(t, "report_annotated.pdf", annotatedName("report.pdf"))
	assert.Equal(t, "report.v2_annotated.pdf", annotatedName("report.v2.PDF"))
	assert.Equal(t, "document_annotated.pdf", annotatedName(".pdf"))
}
