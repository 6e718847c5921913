package workbook

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/definekit/pkg/errors"
)

// cellKind is the stored type of a spreadsheet cell.
type cellKind int

const (
	cellString cellKind = iota
	cellBool
	cellNumber
	cellFormula
	cellError
)

// cellText applies the text rules to a raw cell value: strings as-is,
// booleans as TRUE or FALSE, formulas as "=" followed by the formula, whole
// numbers as integers and other numbers rounded to ten decimal places with
// trailing zeros removed. Error cells keep their error text.
func cellText(kind cellKind, raw string) string {
	switch kind {
	case cellBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "true":
			return "TRUE"
		case "0", "false":
			return "FALSE"
		}
		return raw
	case cellFormula:
		if strings.HasPrefix(raw, "=") {
			return raw
		}
		return "=" + raw
	case cellNumber:
		return formatNumber(raw)
	}
	return raw
}

func formatNumber(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return raw
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	s := strconv.FormatFloat(f, 'f', 10, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		s = "0"
	}
	return s
}

func kindOf(t excelize.CellType) cellKind {
	switch t {
	case excelize.CellTypeBool:
		return cellBool
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return cellNumber
	case excelize.CellTypeError:
		return cellError
	case excelize.CellTypeFormula:
		return cellFormula
	}
	return cellString
}

// ReadWorkbook loads every sheet of an xlsx file.
func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "cannot read workbook")
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		sh, err := readSheet(f, name)
		if err != nil {
			return nil, err
		}
		wb.Sheets = append(wb.Sheets, sh)
	}
	return wb, nil
}

func readSheet(f *excelize.File, name string) (*Sheet, error) {
	raw, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "cannot read sheet %s", name)
	}
	sh := &Sheet{Name: name, Rows: make([][]string, len(raw))}
	for i, cols := range raw {
		out := make([]string, len(cols))
		for j, v := range cols {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "cell coordinates")
			}
			if formula, _ := f.GetCellFormula(name, cell); formula != "" {
				out[j] = cellText(cellFormula, formula)
				continue
			}
			if v == "" {
				continue
			}
			t, err := f.GetCellType(name, cell)
			if err != nil {
				out[j] = v
				continue
			}
			out[j] = cellText(kindOf(t), v)
		}
		sh.Rows[i] = out
	}
	return sh, nil
}

// WriteWorkbook writes wb as an xlsx file. Every cell is written as a string.
func WriteWorkbook(wb *Workbook, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const defaultSheet = "Sheet1"
	for i, sh := range wb.Sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sh.Name); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "name sheet %s", sh.Name)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create sheet %s", sh.Name)
		}
		for r, cells := range sh.Rows {
			for c, v := range cells {
				if v == "" {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "cell coordinates")
				}
				if err := f.SetCellStr(sh.Name, cell, v); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "write %s!%s", sh.Name, cell)
				}
			}
		}
	}
	if err := f.Write(w); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write workbook")
	}
	return nil
}
