// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package annotate turns uploaded PDF bytes into annotated PDF bytes. It
// opens the document, asks a suggestion backend what to highlight on each
// page, and renders the result. Besides the one-shot Annotate it offers the
// two phases the browser UI drives: Stream (suggestions as events) and
// Build (render a reviewed list of annotations).
package annotate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/pdf-annotate/internal/document"
	"github.com/pdiddy/pdf-annotate/internal/render"
	"github.com/pdiddy/pdf-annotate/internal/suggest"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

const (
	noteNoText       = "No extractable text on this page (may be an image)."
	noteUnreadable   = "The text layer of this PDF could not be read, so nothing was highlighted."
	truncationMarker = "\n[truncated]"
	msgEmptyRange    = "no pages found in that range"
)

// Suggesters resolves a backend name to a Suggester. Empty selects the
// default backend.
type Suggesters interface {
	Get(name types.Backend) (suggest.Suggester, error)
}

// Recorder stores job metadata. Implementations must not block for long;
// recording failures are logged and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, job types.Job) error
}

// Options tune a single request.
type Options struct {
	// Filename is the upload name, kept for the job log.
	Filename string

	// Instructions steer model-backed suggesters.
	Instructions string

	// Backend overrides the configured default backend.
	Backend types.Backend

	// Model overrides the backend's configured model.
	Model string

	// PageFrom and PageTo bound the pages that get suggestions (1-based,
	// inclusive). Zero means the first and last page. Other pages are
	// copied through untouched.
	PageFrom int
	PageTo   int
}

// Result is an annotated document.
type Result struct {
	PDF         []byte
	Pages       int
	Annotations []types.Annotation
	Highlights  int
	Notes       int
}

// Service runs annotation requests. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	cfg        types.AnnotatorConfig
	suggesters Suggesters
	fallback   suggest.Suggester
	renderer   *render.Renderer
	recorder   Recorder
	logger     *zap.Logger
}

// New returns a Service. rec may be nil to disable the job log.
func New(cfg *types.Config, sg Suggesters, rec Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:        cfg.Annotator,
		suggesters: sg,
		fallback:   suggest.NewHeuristic(cfg.Annotator.HeuristicPerPage),
		renderer:   render.New(cfg.Render, cfg.Annotator.MaxHitsPerQuote),
		recorder:   rec,
		logger:     logger,
	}
}

// PageCount returns the number of pages in data.
func (s *Service) PageCount(data []byte) (int, error) {
	return document.Count(data)
}

// Annotate suggests annotations for every page in range and returns the
// annotated PDF. Pages are suggested concurrently up to the configured
// limit and reassembled in page order.
func (s *Service) Annotate(ctx context.Context, data []byte, opts Options) (*Result, error) {
	job := s.newJob(opts)

	res, err := s.annotate(ctx, data, opts, &job)
	s.finish(ctx, &job, res, err)
	return res, err
}

func (s *Service) annotate(ctx context.Context, data []byte, opts Options, job *types.Job) (*Result, error) {
	doc, err := document.Open(data)
	if err != nil {
		return nil, err
	}
	job.Pages = doc.PageCount()
	blank := s.blankNote(doc, opts)

	from, to, err := pageRange(doc.PageCount(), opts)
	if err != nil {
		return nil, err
	}

	sg, err := s.suggesters.Get(opts.Backend)
	if err != nil {
		return nil, err
	}
	job.Backend = sg.Name()

	perPage := make([][]types.Annotation, to-from+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.Concurrency, 1))
	for n := from; n <= to; n++ {
		page := doc.Page(n)
		g.Go(func() error {
			anns, err := s.suggestPage(gctx, sg, page, opts, blank)
			if err != nil {
				return err
			}
			perPage[page.Number-from] = anns
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var anns []types.Annotation
	for _, p := range perPage {
		anns = append(anns, p...)
	}
	return s.render(doc, anns)
}

// Build renders caller-supplied annotations into data without consulting
// any backend.
func (s *Service) Build(ctx context.Context, data []byte, anns []types.Annotation, opts Options) (*Result, error) {
	job := s.newJob(opts)
	job.Backend = "build"

	res, err := func() (*Result, error) {
		doc, err := document.Open(data)
		if err != nil {
			return nil, err
		}
		job.Pages = doc.PageCount()
		return s.render(doc, anns)
	}()
	s.finish(ctx, &job, res, err)
	return res, err
}

func (s *Service) render(doc *document.Document, anns []types.Annotation) (*Result, error) {
	out, err := s.renderer.Render(doc, anns)
	if err != nil {
		return nil, err
	}
	return &Result{
		PDF:         out.PDF,
		Pages:       out.Pages,
		Annotations: anns,
		Highlights:  out.Highlights,
		Notes:       out.Notes,
	}, nil
}

// blankNote is the notation for pages without text. When the text layer
// failed to load every page is blank, so the failure is logged and named.
func (s *Service) blankNote(doc *document.Document, opts Options) string {
	if doc.TextErr == nil {
		return noteNoText
	}
	s.logger.Warn("text layer unreadable",
		zap.String("filename", opts.Filename),
		zap.Error(doc.TextErr),
	)
	return noteUnreadable
}

// suggestPage produces the annotations of one page. Pages without text
// get the blank notation. When fallback is enabled and none of the
// suggested quotes can be located, heuristic suggestions are appended so
// the page still carries a highlight.
func (s *Service) suggestPage(ctx context.Context, sg suggest.Suggester, page *document.Page, opts Options, blank string) ([]types.Annotation, error) {
	text := strings.TrimSpace(page.Text())
	if text == "" {
		return []types.Annotation{{Page: page.Number, Type: types.KindNotation, Note: blank, Themes: []string{}}}, nil
	}
	if rs := []rune(text); s.cfg.MaxPageChars > 0 && len(rs) > s.cfg.MaxPageChars {
		text = string(rs[:s.cfg.MaxPageChars]) + truncationMarker
	}

	req := suggest.Request{Page: page.Number, Text: text, Instructions: opts.Instructions, Model: opts.Model}
	anns, err := sg.Suggest(ctx, req)
	if err != nil {
		return nil, err
	}
	for i := range anns {
		anns[i].Page = page.Number
	}

	if !s.cfg.Fallback || sg.Name() == s.fallback.Name() || anyLocatable(page, anns) {
		return anns, nil
	}
	extra, err := s.fallback.Suggest(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("no suggested quote found on page, adding heuristic highlights",
		zap.Int("page", page.Number),
		zap.String("backend", sg.Name()),
		zap.Int("added", len(extra)),
	)
	return append(anns, extra...), nil
}

func anyLocatable(page *document.Page, anns []types.Annotation) bool {
	for _, a := range anns {
		if page.Contains(a.Quote) {
			return true
		}
	}
	return false
}

// pageRange clamps the requested range to a document of n pages.
func pageRange(n int, opts Options) (int, int, error) {
	from := max(opts.PageFrom, 1)
	to := opts.PageTo
	if to <= 0 || to > n {
		to = n
	}
	if from > to {
		return 0, 0, &types.UploadError{Reason: msgEmptyRange}
	}
	return from, to, nil
}

func (s *Service) newJob(opts Options) types.Job {
	return types.Job{
		ID:        uuid.New().String(),
		Filename:  opts.Filename,
		Backend:   string(opts.Backend),
		Model:     opts.Model,
		StartedAt: time.Now().UTC(),
	}
}

// finish logs the job and hands it to the recorder.
func (s *Service) finish(ctx context.Context, job *types.Job, res *Result, err error) {
	job.Duration = time.Since(job.StartedAt)
	job.Status = types.JobSucceeded
	if res != nil {
		job.Pages = res.Pages
		job.Annotations = len(res.Annotations)
		job.Highlights = res.Highlights
	}
	if err != nil {
		job.Status = types.JobFailed
		job.Error = err.Error()
	}

	fields := []zap.Field{
		zap.String("job_id", job.ID),
		zap.String("filename", job.Filename),
		zap.String("backend", job.Backend),
		zap.Int("pages", job.Pages),
		zap.Int("annotations", job.Annotations),
		zap.Int("highlights", job.Highlights),
		zap.Duration("duration", job.Duration),
	}
	if err != nil {
		s.logger.Warn("annotation job failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("annotation job finished", fields...)
	}

	if s.recorder == nil {
		return
	}
	if rerr := s.recorder.Record(context.WithoutCancel(ctx), *job); rerr != nil {
		s.logger.Warn("recording job", zap.String("job_id", job.ID), zap.Error(rerr))
	}
}

