// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves pdf-annotate settings from defaults, the YAML
// config file, PDF_ANNOTATE_* environment variables and bound CLI flags.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// EnvPrefix is prepended to every environment override, e.g.
// PDF_ANNOTATE_SERVER_PORT.
const EnvPrefix = "PDF_ANNOTATE"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.max_upload_mb", 100)
	v.SetDefault("server.open_browser", true)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("annotator.backend", string(types.BackendOllama))
	v.SetDefault("annotator.concurrency", 1)
	v.SetDefault("annotator.max_page_chars", 4000)
	v.SetDefault("annotator.max_hits_per_quote", 5)
	v.SetDefault("annotator.heuristic_per_page", 3)
	v.SetDefault("annotator.fallback", true)

	v.SetDefault("render.margin_notes", true)
	v.SetDefault("render.author", "pdf-annotate")

	v.SetDefault("ollama.host", envOr("OLLAMA_HOST", "http://localhost:11434"))
	v.SetDefault("ollama.model", envOr("OLLAMA_MODEL", "llama3.2"))
	v.SetDefault("ollama.timeout", 180*time.Second)
	v.SetDefault("ollama.temperature", 0.2)
	v.SetDefault("ollama.num_predict", 2048)

	v.SetDefault("claude.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("claude.max_tokens", 2048)

	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.requests_per_second", 0)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "pdf-annotate.db")
	v.SetDefault("history.retention", 30*24*time.Hour)
	v.SetDefault("history.prune_schedule", "@every 1h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// BindEnv wires PDF_ANNOTATE_SECTION_KEY environment variables to v.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints declared on the config structs and
// reports every violation in one error.
func Validate(cfg *types.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
