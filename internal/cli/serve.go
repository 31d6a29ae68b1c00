package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/headline-goat/variant-goat/internal/server"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the variant-goat HTTP server.

The server provides:
  - Visitor endpoints: POST /v1/assign, POST /v1/convert
  - Token-protected management API under /v1/projects and /v1/tests
  - Prometheus metrics at /metrics
  - Health check at /health

Example:
  vg serve --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *env) error {
				if cmd.Flags().Changed("port") {
					e.cfg.Server.Port = port
				}

				srv := server.New(e.engine, e.store, server.Options{
					Port:      e.cfg.Server.Port,
					Token:     e.cfg.Server.Token,
					TokenFile: getTokenFilePath(e.cfg.Database.DSN),
					Gatherer:  e.registry,
					Logger:    e.logger,
				})

				out := cmd.OutOrStdout()
				fmt.Fprintln(out)
				fmt.Fprintf(out, "variant-goat running on http://localhost:%d\n", e.cfg.Server.Port)
				fmt.Fprintf(out, "API token: %s\n", srv.Token())
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Press Ctrl+C to stop")

				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()
				return srv.Start(ctx)
			})
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on (overrides config)")

	return cmd
}
