// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-annotate/internal/annotate"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// errNoUpload marks a request without a "pdf" part.
var errNoUpload = errors.New("missing pdf form file")

const (
	formPDF         = "pdf"
	formAnnotations = "annotations"
	defaultFilename = "document.pdf"
)

type handler struct {
	svc      Annotator
	backends Backends
	cfg      *types.Config
	log      *zap.Logger
}

// optionsForm holds the request fields shared by the upload endpoints.
type optionsForm struct {
	Instructions string `form:"instructions"`
	Backend      string `form:"backend" binding:"omitempty,oneof=heuristic ollama claude"`
	Model        string `form:"model"`
	PageFrom     int    `form:"page_from"`
	PageTo       int    `form:"page_to"`
}

func (h *handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Backends":       types.BackendNames(),
		"DefaultBackend": string(h.backends.Default()),
		"DefaultModel":   h.cfg.Ollama.Model,
		"MaxUploadMB":    h.cfg.Server.MaxUploadMB,
	})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// annotate is the one-shot form target: upload in, annotated PDF out.
func (h *handler) annotate(c *gin.Context) {
	data, name, err := readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	opts, err := bindOptions(c, name)
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := h.svc.Annotate(c.Request.Context(), data, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	sendPDF(c, name, res.PDF)
}

// pageCount answers 400 only when no file was sent; a file that cannot be
// read reports its error with zero pages.
func (h *handler) pageCount(c *gin.Context) {
	data, _, err := readUpload(c)
	if err != nil {
		var uerr *types.UploadError
		switch {
		case errors.Is(err, errNoUpload):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file"})
		case errors.As(err, &uerr):
			c.JSON(http.StatusOK, gin.H{"error": message(err), "pages": 0})
		default:
			writeError(c, err)
		}
		return
	}

	n, err := h.svc.PageCount(data)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"error": err.Error(), "pages": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": n})
}

// stream runs the suggestion phase and relays its events as server-sent
// events. The stream ends with a [DONE] marker unless an error event was
// sent.
func (h *handler) stream(c *gin.Context) {
	data, name, err := readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}
	opts, err := bindOptions(c, name)
	if err != nil {
		writeError(c, err)
		return
	}

	backend := opts.Backend
	if backend == "" {
		backend = h.backends.Default()
	}
	if opts.Instructions == "" && backend != types.BackendHeuristic {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No instructions provided"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	emit := func(ev annotate.Event) error {
		b, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encoding event: %w", err)
		}
		return writeSSE(c, string(b))
	}

	if err := h.svc.Stream(c.Request.Context(), data, opts, emit); err != nil {
		h.log.Warn("annotation stream ended with error", zap.String("filename", name), zap.Error(err))
		return
	}
	if err := writeSSE(c, "[DONE]"); err != nil {
		h.log.Debug("client left before end of stream", zap.Error(err))
	}
}

func writeSSE(c *gin.Context, data string) error {
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// buildPDF renders annotations reviewed in the browser into the upload.
func (h *handler) buildPDF(c *gin.Context) {
	data, name, err := readUpload(c)
	if err != nil {
		writeError(c, err)
		return
	}

	raw := c.DefaultPostForm(formAnnotations, "[]")
	var anns []types.Annotation
	if err := json.Unmarshal([]byte(raw), &anns); err != nil {
		writeError(c, &types.UploadError{Reason: "Invalid annotations JSON", Err: err})
		return
	}

	res, err := h.svc.Build(c.Request.Context(), data, anns, annotate.Options{Filename: name})
	if err != nil {
		writeError(c, err)
		return
	}
	sendPDF(c, name, res.PDF)
}

// checkLLM reports whether the selected backend is reachable. It always
// answers 200 so the page can show the state.
func (h *handler) checkLLM(c *gin.Context) {
	backend := types.Backend(c.Query("backend"))
	if backend == "" {
		backend = h.backends.Default()
	}

	if err := h.backends.Check(c.Request.Context(), backend); err != nil {
		c.JSON(http.StatusOK, gin.H{"ok": false, "backend": backend, "error": message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "backend": backend})
}

// readUpload returns the bytes and filename of the "pdf" form file.
func readUpload(c *gin.Context) ([]byte, string, error) {
	fh, err := c.FormFile(formPDF)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, "", err
		}
		return nil, "", &types.UploadError{Reason: "no PDF uploaded", Err: fmt.Errorf("%w: %w", errNoUpload, err)}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", &types.UploadError{Reason: "cannot open upload", Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", &types.UploadError{Reason: "cannot read upload", Err: err}
	}
	if len(data) == 0 {
		return nil, "", &types.UploadError{Reason: "uploaded file is empty"}
	}

	name := filepath.Base(fh.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = defaultFilename
	}
	return data, name, nil
}

func bindOptions(c *gin.Context, filename string) (annotate.Options, error) {
	var f optionsForm
	if err := c.ShouldBind(&f); err != nil {
		return annotate.Options{}, &types.UploadError{Reason: "invalid form fields", Err: err}
	}
	return annotate.Options{
		Filename:     filename,
		Instructions: strings.TrimSpace(f.Instructions),
		Backend:      types.Backend(f.Backend),
		Model:        strings.TrimSpace(f.Model),
		PageFrom:     f.PageFrom,
		PageTo:       f.PageTo,
	}, nil
}

// sendPDF answers with data as a download named <stem>_annotated.pdf.
func sendPDF(c *gin.Context, uploadName string, data []byte) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": annotatedName(uploadName),
	}))
	c.Data(http.StatusOK, "application/pdf", data)
}

func annotatedName(uploadName string) string {
	stem := strings.TrimSuffix(uploadName, filepath.Ext(uploadName))
	if stem == "" {
		stem = "document"
	}
	return stem + "_annotated.pdf"
}
