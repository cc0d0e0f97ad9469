package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"babis/internal/application/orchestrators"
	"babis/internal/application/projections"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	var sf sortFlags
	cmd := &cobra.Command{
		Use:       "export <table> <file.xlsx>",
		Short:     "Export a roster table as a workbook",
		Long:      `Write a roster table as an xlsx workbook in sorted order. Inactive rows are last and struck through.`,
		ValidArgs: projections.Tables(),
		Args:      tableArgs(1),
		Example: `  # Institutional clients by contact person
  babisctl export institutional clients.xlsx --sort 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sortParams, err := sf.params(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			n, err := orchestrators.ExecuteExportRoster(cmd.Context(), orchestrators.ExportRosterInput{
				Table:  args[0],
				Sort:   sortParams,
				Search: sf.search,
				Writer: f,
			}, orchestrators.ExportRosterDeps{Roster: a.RosterDeps()})
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", n, args[1])
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}
