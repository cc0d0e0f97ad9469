package cli

import (
	"github.com/spf13/cobra"

	"babis/internal/adapters/tui"
	"babis/internal/application/projections"
	"babis/internal/domain/sortable"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	var sf sortFlags
	cmd := &cobra.Command{
		Use:       "browse <table>",
		Short:     "Browse a roster table in the terminal",
		Long:      `Open an interactive table. Move between headers with ←/→ and press enter to sort; / filters.`,
		ValidArgs: projections.Tables(),
		Args:      tableArgs(0),
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

			t, err := projections.QueryRosterTable(cmd.Context(), args[0], projections.RosterQuery{
				Search: sf.search,
			}, a.RosterDeps())
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), browseModel(t, sortParams.Column, sortParams.Dir))
		},
	}
	sf.register(cmd)
	return cmd
}

// browseModel converts a loaded table into a terminal model.
func browseModel(t projections.RosterTable, col int, dir sortable.Direction) tui.Model {
	labels := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		labels[i] = h.Label
	}
	rows := make([]sortable.Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = sortable.NewRow(r.ID, r.Inactive, r.Cells...)
	}
	return tui.New(t.Title, labels, rows, col, dir)
}
