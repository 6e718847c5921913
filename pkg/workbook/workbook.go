package workbook

import (
	"strings"

	"github.com/matzehuels/definekit/pkg/define"
)

// Workbook is a spreadsheet reduced to text: named sheets of rows of cells.
type Workbook struct {
	Sheets []*Sheet
}

// Sheet is one named sheet. Rows[0] is the header row.
type Sheet struct {
	Name string
	Rows [][]string
}

// Sheet finds a sheet by name, ignoring case and whitespace.
func (wb *Workbook) Sheet(name string) (*Sheet, bool) {
	key := headerKey(name)
	for _, s := range wb.Sheets {
		if headerKey(s.Name) == key {
			return s, true
		}
	}
	return nil, false
}

// row is one data row keyed by the schema's column names.
type row struct {
	sheet string
	num   int // 1-based, the header is row 1
	cells map[string]string
}

// get returns the trimmed cell of a column, or "" when the column is absent.
func (r *row) get(col string) string {
	return strings.TrimSpace(r.cells[col])
}

// blank reports whether every named column is empty.
func (r *row) blank(cols ...string) bool {
	for _, c := range cols {
		if r.get(c) != "" {
			return false
		}
	}
	return true
}

func (r *row) warnf(col, format string, args ...any) define.Diagnostic {
	return define.Warningf(format, args...).At(r.sheet, r.num, col)
}

// columnIndex maps each schema column present in header to its position.
// It returns the required columns that are missing.
func columnIndex(s Schema, header []string) (map[string]int, []string) {
	byKey := make(map[string]int, len(header))
	for i, h := range header {
		k := headerKey(h)
		if k == "" {
			continue
		}
		if _, dup := byKey[k]; !dup {
			byKey[k] = i
		}
	}
	idx := make(map[string]int, len(s.Columns))
	var missing []string
	for _, c := range s.Columns {
		if i, ok := byKey[headerKey(c.Name)]; ok {
			idx[c.Name] = i
		} else if c.Required {
			missing = append(missing, c.Name)
		}
	}
	return idx, missing
}

// rows converts the data rows of s to keyed rows, dropping rows that are
// entirely blank.
func (s *Sheet) rows(idx map[string]int) []*row {
	var out []*row
	for i := 1; i < len(s.Rows); i++ {
		cells := make(map[string]string, len(idx))
		empty := true
		for col, j := range idx {
			if j < len(s.Rows[i]) {
				v := s.Rows[i][j]
				cells[col] = v
				if strings.TrimSpace(v) != "" {
					empty = false
				}
			}
		}
		if empty {
			continue
		}
		out = append(out, &row{sheet: s.Name, num: i + 1, cells: cells})
	}
	return out
}
