// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/pdf-annotate/internal/annotate"
	"github.com/pdiddy/pdf-annotate/internal/launcher"
	"github.com/pdiddy/pdf-annotate/internal/logging"
	"github.com/pdiddy/pdf-annotate/internal/server"
	"github.com/pdiddy/pdf-annotate/internal/suggest"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local annotation web server",
	Long: `Serve starts the upload page on 127.0.0.1:5000 (see --host and --port) and
opens it in the default browser. Stop it with Ctrl-C; in-flight requests are
allowed to finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "listen address (default 127.0.0.1)")
	serveCmd.Flags().Int("port", 0, "listen port (default 5000)")
	serveCmd.Flags().Bool("open", true, "open the upload page in the default browser")
	serveCmd.Flags().String("backend", "", "default suggestion backend: ollama, claude or heuristic")
	serveCmd.Flags().String("model", "", "default Ollama model")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.open_browser", serveCmd.Flags().Lookup("open"))
	viper.BindPFlag("annotator.backend", serveCmd.Flags().Lookup("backend"))
	viper.BindPFlag("ollama.model", serveCmd.Flags().Lookup("model"))

	// The bare command serves too, so it accepts the same flags.
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, pruner, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	var recorder annotate.Recorder
	if store != nil {
		defer store.Close()
		defer pruner.Stop()
		recorder = store
	}

	backends := suggest.NewSet(cfg)
	svc := annotate.New(cfg, backends, recorder, logger)
	srv, err := server.New(cfg, svc, backends, logger)
	if err != nil {
		return err
	}

	ln, err := srv.Listen()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	fmt.Fprintf(os.Stderr, "pdf-annotate %s listening on %s (backend %s)\n", version, srv.URL(), backends.Default())
	if cfg.Server.OpenBrowser {
		if err := launcher.Open(srv.URL()); err != nil {
			logger.Warn("could not open browser", zap.Error(err))
		}
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}
