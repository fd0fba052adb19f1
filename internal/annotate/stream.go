// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/pdf-annotate/internal/document"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// Event types emitted by Stream.
const (
	EventProgress   = "progress"
	EventPageStart  = "page_start"
	EventAnnotation = "annotation"
	EventError      = "error"
)

// Progress reported once every page has been suggested. Page progress
// spans 0–92; the remainder is left for the build phase.
const (
	progressPages = 92
	progressDone  = 93
)

// Event is one message of a suggestion stream. The JSON shape is what the
// browser UI consumes.
type Event struct {
	Type    string            `json:"type"`
	Pct     *int              `json:"pct,omitempty"`
	Label   string            `json:"label,omitempty"`
	Page    int               `json:"page,omitempty"`
	Data    *types.Annotation `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
}

func progressEvent(pct int, label string) Event {
	return Event{Type: EventProgress, Pct: &pct, Label: label}
}

// Stream suggests annotations page by page and reports them through emit
// as they arrive. On failure it emits an error event and returns the
// error. An error from emit (the client went away) stops the stream and is
// returned as is. The run is recorded as a job with the suggester used.
func (s *Service) Stream(ctx context.Context, data []byte, opts Options, emit func(Event) error) (err error) {
	job := s.newJob(opts)
	defer func() { s.finish(ctx, &job, nil, err) }()

	err = s.stream(ctx, data, opts, emit, &job)
	var emitErr *emitError
	if err == nil || errors.As(err, &emitErr) {
		if emitErr != nil {
			return emitErr.err
		}
		return nil
	}
	if e := emit(Event{Type: EventError, Message: userMessage(err)}); e != nil {
		return e
	}
	return err
}

func (s *Service) stream(ctx context.Context, data []byte, opts Options, emit func(Event) error, job *types.Job) error {
	send := func(ev Event) error {
		if err := emit(ev); err != nil {
			return &emitError{err: err}
		}
		return nil
	}

	doc, err := document.Open(data)
	if err != nil {
		return err
	}
	job.Pages = doc.PageCount()
	blank := s.blankNote(doc, opts)

	from, to, err := pageRange(doc.PageCount(), opts)
	if err != nil {
		return err
	}
	sg, err := s.suggesters.Get(opts.Backend)
	if err != nil {
		return err
	}
	job.Backend = sg.Name()

	total := to - from + 1
	for i := 0; i < total; i++ {
		n := from + i
		if err := send(progressEvent(i*progressPages/total, fmt.Sprintf("Annotating page %d of %d…", n, to))); err != nil {
			return err
		}
		if err := send(Event{Type: EventPageStart, Page: n}); err != nil {
			return err
		}

		anns, err := s.suggestPage(ctx, sg, doc.Page(n), opts, blank)
		if err != nil {
			return err
		}
		job.Annotations += len(anns)
		for i := range anns {
			if err := send(Event{Type: EventAnnotation, Page: n, Data: &anns[i]}); err != nil {
				return err
			}
		}
	}
	return send(progressEvent(progressDone, "Annotations complete…"))
}

// emitError marks a failure to deliver an event, as opposed to a failure
// while producing one.
type emitError struct{ err error }

func (e *emitError) Error() string { return "emitting event: " + e.err.Error() }
func (e *emitError) Unwrap() error { return e.err }

// userMessage renders err for display in the browser.
func userMessage(err error) string {
	var uerr *types.UploadError
	if errors.As(err, &uerr) && uerr.Reason == msgEmptyRange {
		return "No pages found in that range."
	}
	return err.Error()
}
