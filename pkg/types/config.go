package types

import "time"

// Backend names a suggestion backend.
type Backend string

const (
	BackendHeuristic Backend = "heuristic"
	BackendOllama    Backend = "ollama"
	BackendClaude    Backend = "claude"
)

// BackendNames lists the selectable backends, local ones first.
func BackendNames() []string {
	return []string{string(BackendOllama), string(BackendHeuristic), string(BackendClaude)}
}

// ServerConfig holds the local web server settings.
type ServerConfig struct {
	// Host is the listen address (default 127.0.0.1; the tool is meant to stay local).
	Host string `mapstructure:"host" yaml:"host" validate:"required"`

	// Port is the listen port (default 5000).
	Port int `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`

	// MaxUploadMB caps the request body size (default 100).
	MaxUploadMB int64 `mapstructure:"max_upload_mb" yaml:"max_upload_mb" validate:"min=1"`

	// OpenBrowser opens the upload page once the server is listening.
	OpenBrowser bool `mapstructure:"open_browser" yaml:"open_browser"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// AnnotatorConfig controls how pages are turned into annotations.
type AnnotatorConfig struct {
	// Backend selects the default suggestion backend.
	Backend Backend `mapstructure:"backend" yaml:"backend" validate:"oneof=heuristic ollama claude"`

	// Concurrency is the number of pages suggested in parallel by one-shot
	// requests (default 1, which matches a single local model).
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1,max=32"`

	// MaxPageChars truncates page text sent to a model (default 4000).
	MaxPageChars int `mapstructure:"max_page_chars" yaml:"max_page_chars" validate:"min=100"`

	// MaxHitsPerQuote limits how many occurrences of a quote get highlighted (default 5).
	MaxHitsPerQuote int `mapstructure:"max_hits_per_quote" yaml:"max_hits_per_quote" validate:"min=1"`

	// HeuristicPerPage is the number of sentences the heuristic picks (default 3).
	HeuristicPerPage int `mapstructure:"heuristic_per_page" yaml:"heuristic_per_page" validate:"min=1"`

	// Fallback adds heuristic highlights to text pages where no suggested
	// quote could be located.
	Fallback bool `mapstructure:"fallback" yaml:"fallback"`
}

// RenderConfig controls the annotation appearance.
type RenderConfig struct {
	// MarginNotes adds a FreeText callout per annotation in the right margin.
	MarginNotes bool `mapstructure:"margin_notes" yaml:"margin_notes"`

	// Author is written as the annotation title when set.
	Author string `mapstructure:"author" yaml:"author"`
}

// OllamaConfig holds settings for the local Ollama backend.
type OllamaConfig struct {
	Host        string        `mapstructure:"host" yaml:"host" validate:"required,url"`
	Model       string        `mapstructure:"model" yaml:"model" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature" validate:"min=0,max=2"`
	NumPredict  int           `mapstructure:"num_predict" yaml:"num_predict" validate:"min=1"`
}

// ClaudeConfig holds settings for the Anthropic backend.
type ClaudeConfig struct {
	// APIKey falls back to the anthropic-api-key secret.
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int64  `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=1"`
}

// LLMConfig holds settings shared by the model-backed suggesters.
type LLMConfig struct {
	// MaxRetries is the number of retries for transient failures (default 3).
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0"`

	// RequestsPerSecond throttles backend calls; 0 disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"min=0"`
}

// HistoryConfig controls the job log.
type HistoryConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	Path          string        `mapstructure:"path" yaml:"path"`
	Retention     time.Duration `mapstructure:"retention" yaml:"retention"`
	PruneSchedule string        `mapstructure:"prune_schedule" yaml:"prune_schedule"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json console"`
}

// Config groups every section of pdf-annotate.yaml.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Annotator AnnotatorConfig `mapstructure:"annotator" yaml:"annotator"`
	Render    RenderConfig    `mapstructure:"render" yaml:"render"`
	Ollama    OllamaConfig    `mapstructure:"ollama" yaml:"ollama"`
	Claude    ClaudeConfig    `mapstructure:"claude" yaml:"claude"`
	LLM       LLMConfig       `mapstructure:"llm" yaml:"llm"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}
