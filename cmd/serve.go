package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/phishguard/pkg/api"
	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/logging"
	"github.com/user/phishguard/pkg/semantic"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analysis API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfigOrExit()
		if serveAddr != "" {
			cfg.Server.ListenAddr = serveAddr
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		provider := buildProvider(ctx, cfg)
		if closer, ok := provider.(interface{ Close() }); ok {
			defer closer.Close()
		}
		analyzer := buildAnalyzer(cfg, provider)
		orchestrator := engine.NewOrchestrator(analyzer, cfg.OrchestratorConfig())

		var tester semantic.ConnectionTester
		if t, ok := provider.(semantic.ConnectionTester); ok {
			tester = t
		}

		server := api.NewServer(analyzer, orchestrator, tester, cfg.FusionConfig(), cfg.SelectedProvider)
		httpServer := &http.Server{
			Addr:    cfg.Server.ListenAddr,
			Handler: server.Routes(),
		}

		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.ListenAndServe() }()
		logging.Infof("listening on %s", cfg.Server.ListenAddr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logging.Infof("shutting down on %s", sig)
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
