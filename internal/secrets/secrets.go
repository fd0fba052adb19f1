// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed
// contents are the value. The only key pdf-annotate reads today is
// anthropic-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// AnthropicAPIKey names the file holding the Claude backend key.
const AnthropicAPIKey = "anthropic-api-key"

// anthropicEnv is consulted when neither the config nor the secrets
// directory provide a key.
const anthropicEnv = "ANTHROPIC_API_KEY"

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error. Unreadable files are
// logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}

// Apply fills credentials that cfg leaves empty, first from secrets and
// then from the environment.
func Apply(cfg *types.Config, secrets map[string]string) {
	if cfg.Claude.APIKey != "" {
		return
	}
	if key := secrets[AnthropicAPIKey]; key != "" {
		cfg.Claude.APIKey = key
		return
	}
	cfg.Claude.APIKey = strings.TrimSpace(os.Getenv(anthropicEnv))
}
