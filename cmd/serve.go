package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"habitat/internal/catalog"
	"habitat/pkg/logging"
)

var flagMetricsAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the environment orchestrator",
	Long: `Runs the orchestrator as a long-lived process: watches template
definitions for changes, sweeps stale environments on the reaper
schedule, and serves Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		watcher := catalog.NewWatcher(a.catalog, 0)
		if err := watcher.Start(ctx); err != nil {
			logging.Warn("serve", "Template watcher unavailable: %v", err)
		} else {
			defer watcher.Stop()
		}

		a.orch.StartReaper()

		if flagMetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: flagMetricsAddr, Handler: mux}
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logging.Error("serve", err, "Metrics listener failed")
				}
			}()
			defer server.Close()
			logging.Info("serve", "Serving metrics on %s", flagMetricsAddr)
		}

		fmt.Println("habitat orchestrator running, press Ctrl+C to stop")
		<-ctx.Done()
		fmt.Println("shutting down")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", ":9090", "Prometheus metrics listen address (empty to disable)")
	rootCmd.AddCommand(serveCmd)
}
