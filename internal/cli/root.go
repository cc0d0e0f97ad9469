// Package cli provides the babisctl command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"babis/internal/app"
	"babis/internal/config"
)

var cfgFile string

// Version information (set at build time).
var Version = "dev"

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "babisctl",
		Short: "babisctl - instructor and client roster",
		Long: `babisctl manages the instructor, private client and institutional client
rosters: serve the web app, list sorted tables, import and export workbooks,
sort HTML tables and browse rosters in the terminal.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			switch cmd.Name() {
			case "help", "completion", "__complete", "version", "hash-password":
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := app.SetupLogging(cfg); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	// Global persistent flags, named after config keys
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	rootCmd.PersistentFlags().String("db-path", "", "path to the SQLite database")
	rootCmd.PersistentFlags().String("addr", "", "listen address for serve")
	rootCmd.PersistentFlags().String("env", "", "environment (development|production)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(NewVersionCommand(Version))
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewImportCommand())
	rootCmd.AddCommand(NewExportCommand())
	rootCmd.AddCommand(NewSortHTMLCommand())
	rootCmd.AddCommand(NewBrowseCommand())
	rootCmd.AddCommand(NewHashPasswordCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.Default()
}

// openApp opens the database named by the command's config.
func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.Open(GetConfig(cmd.Context()))
}

// tableArgs validates a single roster table argument followed by n more.
func tableArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n + 1)(cmd, args); err != nil {
			return err
		}
		for _, t := range cmd.ValidArgs {
			if args[0] == t {
				return nil
			}
		}
		return fmt.Errorf("unknown table %q (want one of %v)", args[0], cmd.ValidArgs)
	}
}
