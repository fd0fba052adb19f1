// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	t.Setenv("OLLAMA_MODEL", "")

	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, int64(100), cfg.Server.MaxUploadMB)
	assert.Equal(t, types.BackendOllama, cfg.Annotator.Backend)
	assert.Equal(t, 4000, cfg.Annotator.MaxPageChars)
	assert.Equal(t, 5, cfg.Annotator.MaxHitsPerQuote)
	assert.True(t, cfg.Annotator.Fallback)
	assert.True(t, cfg.Render.MarginNotes)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.Host)
	assert.Equal(t, "llama3.2", cfg.Ollama.Model)
	assert.Equal(t, 180*time.Second, cfg.Ollama.Timeout)
	assert.InDelta(t, 0.2, cfg.Ollama.Temperature, 1e-9)
	assert.Equal(t, 720*time.Hour, cfg.History.Retention)
}

func TestLoad_OllamaEnvironment(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("OLLAMA_MODEL", "mistral")

	cfg, err := Load(newViper())
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.Host)
	assert.Equal(t, "mistral", cfg.Ollama.Model)
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	t.Setenv("PDF_ANNOTATE_SERVER_PORT", "8088")
	t.Setenv("PDF_ANNOTATE_ANNOTATOR_BACKEND", "heuristic")

	v := newViper()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, types.BackendHeuristic, cfg.Annotator.Backend)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdf-annotate.yaml")
	content := `
server:
  port: 7000
annotator:
  backend: claude
  concurrency: 4
history:
  retention: 48h
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, types.BackendClaude, cfg.Annotator.Backend)
	assert.Equal(t, 4, cfg.Annotator.Concurrency)
	assert.Equal(t, 48*time.Hour, cfg.History.Retention)
	// Untouched keys keep their defaults.
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{"unknown backend", "annotator.backend", "gpt", "Backend"},
		{"port out of range", "server.port", 70000, "Port"},
		{"zero concurrency", "annotator.concurrency", 0, "Concurrency"},
		{"bad log level", "log.level", "verbose", "Level"},
		{"ollama host not a url", "ollama.host", "localhost", "Host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
