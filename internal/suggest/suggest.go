// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package suggest decides what to highlight on a page. A Suggester reads
// the text of one page and returns annotations whose quotes are verbatim
// phrases from that text. Three backends exist: a local Ollama model, the
// Anthropic Messages API, and an offline heuristic that needs no model.
package suggest

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// Request is the input for one page.
type Request struct {
	// Page is the 1-based page number, copied onto every annotation.
	Page int

	// Text is the page text, already trimmed and truncated.
	Text string

	// Instructions steer model-backed suggesters. Empty uses
	// DefaultInstructions.
	Instructions string

	// Model overrides the configured model name.
	Model string
}

// Suggester proposes annotations for one page. Implementations must be
// safe for concurrent use.
type Suggester interface {
	Name() string
	Suggest(ctx context.Context, req Request) ([]types.Annotation, error)
}

// Checker is implemented by suggesters that depend on a remote service and
// can report whether it is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// Set holds one Suggester per backend, built once so rate limiters and HTTP
// clients are shared across requests.
type Set struct {
	def     types.Backend
	byName  map[types.Backend]Suggester
	missing map[types.Backend]error
}

// NewSet builds every backend cfg allows. A backend that cannot be built
// (Claude without an API key) is remembered and reported by Get.
func NewSet(cfg *types.Config) *Set {
	s := &Set{
		def:     cfg.Annotator.Backend,
		byName:  make(map[types.Backend]Suggester),
		missing: make(map[types.Backend]error),
	}

	s.byName[types.BackendHeuristic] = NewHeuristic(cfg.Annotator.HeuristicPerPage)
	s.byName[types.BackendOllama] = Throttle(NewOllama(cfg.Ollama, cfg.LLM.MaxRetries), cfg.LLM.RequestsPerSecond)

	claude, err := NewClaude(cfg.Claude, cfg.LLM.MaxRetries)
	if err != nil {
		s.missing[types.BackendClaude] = err
	} else {
		s.byName[types.BackendClaude] = Throttle(claude, cfg.LLM.RequestsPerSecond)
	}
	return s
}

// Default returns the configured default backend name.
func (s *Set) Default() types.Backend {
	return s.def
}

// Get returns the suggester for name; empty name selects the default.
func (s *Set) Get(name types.Backend) (Suggester, error) {
	if name == "" {
		name = s.def
	}
	if sg, ok := s.byName[name]; ok {
		return sg, nil
	}
	if err, ok := s.missing[name]; ok {
		return nil, &types.SuggestionError{Backend: string(name), Err: err}
	}
	return nil, &types.UploadError{Reason: fmt.Sprintf("unknown backend %q", name)}
}

// Check reports whether the backend behind name is reachable. Backends
// without a remote dependency are always ready.
func (s *Set) Check(ctx context.Context, name types.Backend) error {
	sg, err := s.Get(name)
	if err != nil {
		return err
	}
	c, ok := sg.(Checker)
	if !ok {
		return nil
	}
	return c.Check(ctx)
}

// ErrNoAPIKey is returned by NewClaude when no key is configured.
var ErrNoAPIKey = errors.New("no API key: set claude.api_key or add .secrets/anthropic-api-key")
