// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-annotate/internal/testpdf"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

func collect(events *[]Event) func(Event) error {
	return func(ev Event) error {
		*events = append(*events, ev)
		return nil
	}
}

func TestStream_Events(t *testing.T) {
	svc := New(defaultConfig(t), single{&fakeSuggester{fn: locatable}}, nil, nil)

	var events []Event
	err := svc.Stream(context.Background(), testpdf.Build(t, testpdf.Sample, testpdf.Sample), Options{}, collect(&events))
	require.NoError(t, err)

	var kinds []string
	var pcts []int
	for _, ev := range events {
		kinds = append(kinds, ev.Type)
		if ev.Pct != nil {
			pcts = append(pcts, *ev.Pct)
		}
	}
	assert.Equal(t, []string{
		EventProgress, EventPageStart, EventAnnotation,
		EventProgress, EventPageStart, EventAnnotation,
		EventProgress,
	}, kinds)
	assert.Equal(t, []int{0, 46, 93}, pcts)

	assert.Equal(t, "Annotating page 1 of 2…", events[0].Label)
	assert.Equal(t, 2, events[4].Page)
	require.NotNil(t, events[5].Data)
	assert.Equal(t, "page 2", events[5].Data.Note)
	assert.Equal(t, "Annotations complete…", events[6].Label)
}

func TestStream_RangeLabelsUseLastPage(t *testing.T) {
	svc := New(defaultConfig(t), single{&fakeSuggester{fn: locatable}}, nil, nil)
	data := testpdf.Build(t, testpdf.Sample, testpdf.Sample, testpdf.Sample)

	var events []Event
	require.NoError(t, svc.Stream(context.Background(), data, Options{PageFrom: 2, PageTo: 3}, collect(&events)))
	assert.Equal(t, "Annotating page 2 of 3…", events[0].Label)
	assert.Equal(t, 2, events[1].Page)
}

func TestStream_ErrorEvent(t *testing.T) {
	svc := New(defaultConfig(t), single{&fakeSuggester{fn: locatable}}, nil, nil)

	var events []Event
	err := svc.Stream(context.Background(), testpdf.Build(t, testpdf.Sample), Options{PageFrom: 5}, collect(&events))
	var uerr *types.UploadError
	require.True(t, errors.As(err, &uerr))

	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, "No pages found in that range.", events[0].Message)
}

func TestStream_SuggestionFailure(t *testing.T) {
	boom := &types.SuggestionError{Backend: "fake", Err: errors.New("model not loaded")}
	svc := New(defaultConfig(t), single{&fakeSuggester{err: boom}}, nil, nil)

	var events []Event
	err := svc.Stream(context.Background(), testpdf.Build(t, testpdf.Sample), Options{}, collect(&events))
	require.ErrorIs(t, err, boom)

	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "model not loaded")
}

func TestStream_EmitFailureStops(t *testing.T) {
	fake := &fakeSuggester{fn: locatable}
	svc := New(defaultConfig(t), single{fake}, nil, nil)
	gone := errors.New("client gone")

	calls := 0
	err := svc.Stream(context.Background(), testpdf.Build(t, testpdf.Sample), Options{}, func(Event) error {
		calls++
		return gone
	})
	assert.Equal(t, gone, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, fake.pages())
}

func TestStream_RecordsJob(t *testing.T) {
	rec := &memRecorder{}
	svc := New(defaultConfig(t), single{&fakeSuggester{fn: locatable}}, rec, nil)

	data := testpdf.Build(t, testpdf.Sample, testpdf.Sample)
	require.NoError(t, svc.Stream(context.Background(), data, Options{Filename: "two.pdf", Model: "llama3.2"}, collect(new([]Event))))

	require.Len(t, rec.jobs, 1)
	job := rec.jobs[0]
	assert.Equal(t, "two.pdf", job.Filename)
	assert.Equal(t, "fake", job.Backend)
	assert.Equal(t, "llama3.2", job.Model)
	assert.Equal(t, 2, job.Pages)
	assert.Equal(t, 2, job.Annotations)
	assert.Equal(t, types.JobSucceeded, job.Status)
}

func TestEvent_JSON(t *testing.T) {
	b, err := json.Marshal(progressEvent(0, "Starting"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"progress","pct":0,"label":"Starting"}`, string(b))

	b, err = json.Marshal(Event{Type: EventPageStart, Page: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"page_start","page":3}`, string(b))
}
