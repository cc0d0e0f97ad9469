package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"babis/internal/application/listutil"
	"babis/internal/application/projections"
	"babis/internal/domain/sortable"
)

// Output formats of the list command.
const (
	outputText     = "text"
	outputMarkdown = "markdown"
	outputJSON     = "json"
)

// sortFlags holds the flags shared by list, export and browse.
type sortFlags struct {
	column int
	dir    string
	search string
}

func (f *sortFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.column, "sort", 0, "column index to sort by")
	cmd.Flags().StringVar(&f.dir, "dir", "", "sort direction (asc|desc)")
	cmd.Flags().StringVar(&f.search, "search", "", "only rows matching this text")
}

// params validates the flags against the table's columns.
func (f *sortFlags) params(table string) (listutil.SortParams, error) {
	columns, err := projections.Columns(table)
	if err != nil {
		return listutil.SortParams{}, err
	}
	if f.column < 0 || f.column >= len(columns) {
		return listutil.SortParams{}, fmt.Errorf("--sort must be between 0 and %d", len(columns)-1)
	}
	dir := sortable.ParseDirection(f.dir)
	if f.dir != "" && dir == "" {
		return listutil.SortParams{}, fmt.Errorf("--dir must be asc or desc, got %q", f.dir)
	}
	return listutil.SortParams{Column: f.column, Dir: dir}, nil
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		sf     sortFlags
		output string
	)
	cmd := &cobra.Command{
		Use:       "list <table>",
		Short:     "Print a sorted roster table",
		Long:      `Print a roster table sorted by one column. Inactive entries are always listed last.`,
		ValidArgs: projections.Tables(),
		Args:      tableArgs(0),
		Example: `  # Instructors by name
  babisctl list instructors

  # Private clients by phone, descending, as JSON
  babisctl list private --sort 1 --dir desc --output json`,
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
				Sort:   sortParams,
				Search: sf.search,
			}, a.RosterDeps())
			if err != nil {
				return err
			}
			return renderRoster(cmd.OutOrStdout(), t, output)
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "output format (text|markdown|json)")
	_ = cmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{outputText, outputMarkdown, outputJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func renderRoster(w io.Writer, t projections.RosterTable, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case outputText, outputMarkdown:
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetTitle(t.Title)

	header := table.Row{"#"}
	for _, h := range t.Headers {
		label := h.Label
		switch h.Dir {
		case sortable.Ascending:
			label += " ▲"
		case sortable.Descending:
			label += " ▼"
		}
		header = append(header, label)
	}
	tw.AppendHeader(header)

	strike := text.Colors{text.CrossedOut, text.FgHiBlack}
	for i, r := range t.Rows {
		row := table.Row{strconv.Itoa(i + 1)}
		for _, c := range r.Cells {
			if r.Inactive && format == outputText {
				c = strike.Sprint(c)
			}
			row = append(row, c)
		}
		tw.AppendRow(row)
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("%d rows, %d inactive", len(t.Rows), t.Inactive)})

	if format == outputMarkdown {
		tw.RenderMarkdown()
		return nil
	}
	tw.Render()
	return nil
}
