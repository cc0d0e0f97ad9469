package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the roster web app",
		Long: `Serve the roster pages and JSON endpoints until interrupted.

Settings come from babis.yaml, BABIS_* environment variables and flags.`,
		Example: `  # Serve on the configured address
  babisctl serve

  # Serve on another port with a scratch database
  babisctl serve --addr :9090 --db-path /tmp/babis.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}
	return cmd
}
