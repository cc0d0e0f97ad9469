package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"babis/internal/application/orchestrators"
	"babis/internal/application/projections"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import <table> <file.xlsx>",
		Short: "Import a roster workbook",
		Long: `Create or update roster entries from the first sheet of an xlsx workbook.

The first row must hold the table's column labels. Existing entries are
matched by their first column; struck-through rows or a "לא פעיל" status
import as inactive. Nothing is ever deleted.`,
		ValidArgs: projections.Tables(),
		Args:      tableArgs(1),
		Example: `  # Check a workbook without writing
  babisctl import instructors instructors.xlsx --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := orchestrators.ExecuteImportRoster(cmd.Context(), orchestrators.ImportRosterInput{
				Table:  args[0],
				Reader: f,
				DryRun: dryRun,
			}, a.ImportDeps())
			var verr *orchestrators.ImportValidationError
			if errors.As(err, &verr) {
				return fmt.Errorf("invalid workbook: %w", err)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			prefix := ""
			if res.DryRun {
				prefix = "[dry run] "
			}
			fmt.Fprintf(out, "%s%d rows: %d created, %d updated, %d errors\n",
				prefix, res.Total, res.Created, res.Updated, len(res.Errors))
			if len(res.Unknown) > 0 {
				fmt.Fprintf(out, "ignored columns: %v\n", res.Unknown)
			}
			if len(res.Errors) > 0 {
				tw := table.NewWriter()
				tw.SetOutputMirror(out)
				tw.SetStyle(table.StyleLight)
				tw.AppendHeader(table.Row{"row", "error"})
				for _, e := range res.Errors {
					tw.AppendRow(table.Row{e.Row, e.Message})
				}
				tw.Render()
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without writing")
	return cmd
}
