// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/pdf-annotate/internal/httputil"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// checkTimeout bounds the Ollama health check.
var checkTimeout = 4 * time.Second

// Ollama asks a local Ollama server for annotations through its
// /api/generate endpoint.
type Ollama struct {
	Host        string
	Model       string
	Timeout     time.Duration
	Temperature float64
	NumPredict  int
	MaxRetries  int
	Client      *http.Client
}

// NewOllama returns an Ollama suggester for cfg.
func NewOllama(cfg types.OllamaConfig, maxRetries int) *Ollama {
	return &Ollama{
		Host:        strings.TrimRight(cfg.Host, "/"),
		Model:       cfg.Model,
		Timeout:     cfg.Timeout,
		Temperature: cfg.Temperature,
		NumPredict:  cfg.NumPredict,
		MaxRetries:  maxRetries,
		Client:      &http.Client{},
	}
}

// Name implements Suggester.
func (o *Ollama) Name() string { return string(types.BackendOllama) }

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// Suggest implements Suggester. Transport failures and non-200 answers
// are returned as *types.SuggestionError; a reply that is not usable JSON
// becomes a notation annotation instead.
func (o *Ollama) Suggest(ctx context.Context, req Request) ([]types.Annotation, error) {
	prompt, err := renderPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	model := o.Model
	if req.Model != "" {
		model = req.Model
	}

	body, err := json.Marshal(generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: o.Temperature,
			NumPredict:  o.NumPredict,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, o.client(), httpReq, o.MaxRetries)
	if err != nil {
		return nil, o.transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &types.SuggestionError{
			Backend: o.Name(),
			Err:     fmt.Errorf("Ollama returned %d: %s", resp.StatusCode, errorMessage(msg)),
		}
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return nil, &types.SuggestionError{Backend: o.Name(), Err: fmt.Errorf("decoding Ollama response: %w", err)}
	}
	return fromModelOutput(req.Page, gen.Response), nil
}

// Check implements Checker by listing the installed models.
func (o *Ollama) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.Host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	resp, err := o.client().Do(req)
	if err != nil {
		return o.transportError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return &types.SuggestionError{Backend: o.Name(), Err: fmt.Errorf("Ollama returned %d", resp.StatusCode)}
	}
	return nil
}

func (o *Ollama) client() *http.Client {
	if o.Client == nil {
		return http.DefaultClient
	}
	return o.Client
}

// transportError turns a failed round trip into a SuggestionError with an
// actionable message.
func (o *Ollama) transportError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &types.SuggestionError{
			Backend: o.Name(),
			Err:     fmt.Errorf("Ollama timed out, try a faster or smaller model: %w", err),
		}
	default:
		return &types.SuggestionError{
			Backend: o.Name(),
			Err:     fmt.Errorf("cannot connect to Ollama at %s, run: ollama serve: %w", o.Host, err),
		}
	}
}

// errorMessage extracts {"error": "..."} from an Ollama error body,
// falling back to the raw text.
func errorMessage(body []byte) string {
	var gen generateResponse
	if err := json.Unmarshal(body, &gen); err == nil && gen.Error != "" {
		return gen.Error
	}
	return strings.TrimSpace(string(body))
}
