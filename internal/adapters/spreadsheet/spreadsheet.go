// Package spreadsheet reads and writes roster tables as xlsx workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Errors returned by Read.
var (
	ErrNoSheets   = errors.New("workbook has no sheets")
	ErrEmptySheet = errors.New("sheet has no header row")
)

// Row is one data row. Struck rows had a strikethrough font on their first
// cell, the way inactive entries are marked in the office workbooks.
type Row struct {
	Cells  []string
	Struck bool
}

// Sheet is a header row plus data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Index returns the column index of header h, or -1.
func (s Sheet) Index(h string) int {
	for i, x := range s.Headers {
		if x == h {
			return i
		}
	}
	return -1
}

// Record returns row i keyed by header. Short rows yield empty values.
func (s Sheet) Record(i int) map[string]string {
	rec := make(map[string]string, len(s.Headers))
	cells := s.Rows[i].Cells
	for c, h := range s.Headers {
		if c < len(cells) {
			rec[h] = strings.TrimSpace(cells[c])
		} else {
			rec[h] = ""
		}
	}
	return rec
}

// Read loads the first sheet of an xlsx workbook.
// PRE: r yields an xlsx document
// POST: Headers are trimmed; blank headers become Column_N
func Read(r io.Reader) (Sheet, error) {
	var data Sheet
	f, err := excelize.OpenReader(r)
	if err != nil {
		return data, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return data, ErrNoSheets
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return data, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return data, ErrEmptySheet
	}

	data.Name = sheet
	data.Headers = make([]string, len(rows[0]))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		data.Headers[i] = h
	}

	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		struck, err := struckThrough(f, sheet, i+2)
		if err != nil {
			return data, err
		}
		data.Rows = append(data.Rows, Row{Cells: cells, Struck: struck})
	}
	return data, nil
}

// Write renders s as a single-sheet right-to-left workbook with a bold header
// row and struck-through rows marked with a strikethrough font.
func Write(w io.Writer, s Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	name := s.Name
	if name == "" {
		name = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	rtl := true
	if err := f.SetSheetView(name, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("sheet view: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	strike, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Strike: true, Color: "888888"}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(name, "A1", &s.Headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	if len(s.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(s.Headers), 1)
		if err := f.SetCellStyle(name, "A1", last, bold); err != nil {
			return err
		}
	}

	for i, r := range s.Rows {
		rowNum := i + 2
		first, _ := excelize.CoordinatesToCellName(1, rowNum)
		cells := r.Cells
		if err := f.SetSheetRow(name, first, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}
		if r.Struck {
			width := max(len(cells), len(s.Headers), 1)
			last, _ := excelize.CoordinatesToCellName(width, rowNum)
			if err := f.SetCellStyle(name, first, last, strike); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func struckThrough(f *excelize.File, sheet string, rowNum int) (bool, error) {
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)
	idx, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, fmt.Errorf("cell style %s: %w", cell, err)
	}
	if idx == 0 {
		return false, nil
	}
	style, err := f.GetStyle(idx)
	if err != nil {
		return false, fmt.Errorf("style %d: %w", idx, err)
	}
	return style.Font != nil && style.Font.Strike, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
