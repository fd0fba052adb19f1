// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-annotate/internal/history"
	"github.com/pdiddy/pdf-annotate/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent annotation jobs",
	Long: `History prints the job log kept in the SQLite database at history.path:
one line per request with its backend, page and highlight counts, and
duration. Document contents are never stored.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of jobs to show")
	historyCmd.Flags().Bool("export", false, "write the jobs as YAML instead of a table")
	historyCmd.Flags().Bool("prune", false, "delete jobs older than history.retention first")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return fmt.Errorf("history is disabled (history.enabled=false)")
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	limit, _ := cmd.Flags().GetInt("limit")

	if prune, _ := cmd.Flags().GetBool("prune"); prune {
		n, err := history.NewPruner(store, cfg.History.Retention, nil).RunNow(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "pruned %d job(s)\n", n)
	}

	if export, _ := cmd.Flags().GetBool("export"); export {
		return store.ExportYAML(ctx, os.Stdout, limit)
	}

	jobs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		fmt.Println("no jobs recorded")
		return nil
	}
	for _, j := range jobs {
		printJob(j)
	}
	return nil
}

func printJob(j types.Job) {
	fmt.Printf("%s  %-9s  %-9s  %3d pages  %3d highlights  %8s  %s\n",
		j.StartedAt.Local().Format(time.DateTime), j.Status, j.Backend,
		j.Pages, j.Highlights, j.Duration.Round(time.Millisecond), j.Filename)
	if j.Error != "" {
		fmt.Printf("    error: %s\n", j.Error)
	}
}

// openHistory opens the job log and starts its retention schedule. Both
// results are nil when history is disabled.
func openHistory(cfg *types.Config, logger *zap.Logger) (*history.Store, *history.Pruner, error) {
	if !cfg.History.Enabled {
		return nil, nil, nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	pruner := history.NewPruner(store, cfg.History.Retention, logger)
	if err := pruner.Start(cfg.History.PruneSchedule); err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, pruner, nil
}
