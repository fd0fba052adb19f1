// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-annotate/internal/annotate"
	"github.com/pdiddy/pdf-annotate/internal/history"
	"github.com/pdiddy/pdf-annotate/internal/logging"
	"github.com/pdiddy/pdf-annotate/internal/suggest"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate <file.pdf>",
	Short: "Annotate one PDF without starting the server",
	Long: `Annotate runs the same pipeline as the upload page on a local file and
writes <name>_annotated.pdf next to it (see --output). Use --backend heuristic
to work fully offline without a model.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	annotateCmd.Flags().StringP("output", "o", "", "output path (default <name>_annotated.pdf)")
	annotateCmd.Flags().String("backend", "", "suggestion backend: ollama, claude or heuristic")
	annotateCmd.Flags().String("model", "", "model name for the backend")
	annotateCmd.Flags().String("instructions", "", "what the model should annotate")
	annotateCmd.Flags().Int("from", 0, "first page to annotate (default 1)")
	annotateCmd.Flags().Int("to", 0, "last page to annotate (default last page)")

	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	in := args[0]
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + "_annotated.pdf"
	}

	backend, _ := cmd.Flags().GetString("backend")
	model, _ := cmd.Flags().GetString("model")
	instructions, _ := cmd.Flags().GetString("instructions")
	from, _ := cmd.Flags().GetInt("from")
	to, _ := cmd.Flags().GetInt("to")

	var recorder annotate.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := annotate.New(cfg, suggest.NewSet(cfg), recorder, logger)
	res, err := svc.Annotate(ctx, data, annotate.Options{
		Filename:     filepath.Base(in),
		Instructions: instructions,
		Backend:      types.Backend(backend),
		Model:        model,
		PageFrom:     from,
		PageTo:       to,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, res.PDF, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Printf("annotated %s: %d pages, %d annotations, %d highlights -> %s\n",
		in, res.Pages, len(res.Annotations), res.Highlights, out)
	return nil
}
