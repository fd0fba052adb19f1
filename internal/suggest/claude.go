// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// Claude asks the Anthropic Messages API for annotations using the same
// prompt and output repair as the Ollama backend.
type Claude struct {
	Model     string
	MaxTokens int64

	client anthropic.Client
}

// NewClaude returns a Claude suggester. It fails with ErrNoAPIKey when cfg
// carries no key. Extra options are appended to the client options; tests
// use them to point the client at a local server.
func NewClaude(cfg types.ClaudeConfig, maxRetries int, opts ...option.RequestOption) (*Claude, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if maxRetries >= 0 {
		clientOpts = append(clientOpts, option.WithMaxRetries(maxRetries))
	}
	clientOpts = append(clientOpts, opts...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	return &Claude{
		Model:     cfg.Model,
		MaxTokens: maxTokens,
		client:    anthropic.NewClient(clientOpts...),
	}, nil
}

// Name implements Suggester.
func (c *Claude) Name() string { return string(types.BackendClaude) }

// Suggest implements Suggester.
func (c *Claude) Suggest(ctx context.Context, req Request) ([]types.Annotation, error) {
	prompt, err := renderPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	model := c.Model
	if req.Model != "" {
		model = req.Model
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: c.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &types.SuggestionError{Backend: c.Name(), Err: fmt.Errorf("calling Claude API: %w", err)}
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return fromModelOutput(req.Page, text.String()), nil
}
