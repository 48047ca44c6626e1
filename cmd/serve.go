package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/newsdesk/internal/cluster"
	"github.com/matheuskafuri/newsdesk/internal/server"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the panel and ranked stories over HTTP",
	Long: `Serve the panel over HTTP and refresh feeds in the background.

Routes:
  GET /api/panel     HTML fragment (?max= overrides the story count)
  GET /api/stories   ranked stories as JSON
  GET /healthz       liveness
  GET /metrics       Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go a.refreshLoop(ctx)

		addr := a.cfg.ServerAddr()
		if flagAddr != "" {
			addr = flagAddr
		}
		window := a.cfg.WindowDuration()
		load := func(context.Context) ([]cluster.Cluster, error) {
			return a.clusters(storyFilter{Window: window})
		}
		return server.New(a.panel, a.ranker, load, a.logger).Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (default from config, :8080)")
}

// refreshLoop refreshes feeds on start and then every refresh interval until
// ctx is done.
func (a *app) refreshLoop(ctx context.Context) {
	interval := a.cfg.RefreshDuration()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := a.refresh(ctx, false); err != nil {
			a.logger.Warn("background_refresh_failed", slog.String("error", err.Error()))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
