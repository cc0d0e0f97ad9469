package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"babis/internal/adapters/htmltable"
	"babis/internal/domain/sortable"
)

// NewSortHTMLCommand creates the sort-html command.
func NewSortHTMLCommand() *cobra.Command {
	var (
		column     int
		dir        string
		tableClass string
		outPath    string
	)
	cmd := &cobra.Command{
		Use:   "sort-html <file.html>",
		Short: "Sort a table inside an HTML page",
		Long: `Sort the rows of a <table> in an HTML document by one column and write the
document back. Headers need the "sortable" class; rows struck through or
marked "inactive" stay at the bottom.`,
		Args: cobra.ExactArgs(1),
		Example: `  # Sort the instructors table by phone, descending
  babisctl sort-html instructors.html --column 2 --dir desc --table-class instructors-table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := sortable.ParseDirection(dir)
			if dir != "" && d == "" {
				return fmt.Errorf("--dir must be asc or desc, got %q", dir)
			}

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			return htmltable.SortDocument(in, out, column, d,
				htmltable.Options{TableClass: tableClass}, sortable.Options{})
		},
	}
	cmd.Flags().IntVar(&column, "column", 0, "column index to sort by")
	cmd.Flags().StringVar(&dir, "dir", "", "sort direction (asc|desc)")
	cmd.Flags().StringVar(&tableClass, "table-class", "", "class of the table to sort (default: first table)")
	cmd.Flags().StringVarP(&outPath, "out", "O", "", "write to this file instead of stdout")
	return cmd
}
