package workbook

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestCellText(t *testing.T) {
	tests := []struct {
		name string
		kind cellKind
		raw  string
		want string
	}{
		{"String", cellString, "  as is ", "  as is "},
		{"BoolTrue", cellBool, "1", "TRUE"},
		{"BoolFalse", cellBool, "0", "FALSE"},
		{"Formula", cellFormula, "SUM(A1:A2)", "=SUM(A1:A2)"},
		{"FormulaWithSign", cellFormula, "=A1", "=A1"},
		{"Integer", cellNumber, "3", "3"},
		{"IntegralFloat", cellNumber, "8.0", "8"},
		{"Exponent", cellNumber, "1E3", "1000"},
		{"FloatNoise", cellNumber, "0.30000000000000004", "0.3"},
		{"TenPlaces", cellNumber, "1.23456789012345", "1.2345678901"},
		{"Negative", cellNumber, "-2.5", "-2.5"},
		{"NotANumber", cellNumber, "n/a", "n/a"},
		{"Error", cellError, "#DIV/0!", "#DIV/0!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellText(tt.kind, tt.raw); got != tt.want {
				t.Errorf("cellText(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestReadWorkbookCellRules(t *testing.T) {
	f := excelize.NewFile()
	for cell, v := range map[string]any{
		"A1": "text",
		"B1": true,
		"D1": 3,
		"E1": 0.1 + 0.2,
	} {
		if err := f.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SetCellFormula("Sheet1", "C1", "SUM(D1:E1)"); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}

	wb, err := ReadWorkbook(&buf)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	sh, ok := wb.Sheet("sheet1")
	if !ok {
		t.Fatal("Sheet1 not found")
	}
	want := []string{"text", "TRUE", "=SUM(D1:E1)", "3", "0.3"}
	if !reflect.DeepEqual(sh.Rows[0], want) {
		t.Errorf("row = %q, want %q", sh.Rows[0], want)
	}
}

func TestReadWorkbookInvalid(t *testing.T) {
	if _, err := ReadWorkbook(bytes.NewReader([]byte("not a zip"))); err == nil {
		t.Error("expected an error")
	}
}

func trimRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		n := len(r)
		for n > 0 && r[n-1] == "" {
			n--
		}
		out[i] = r[:n]
	}
	return out
}

func TestWriteReadWorkbook(t *testing.T) {
	in := &Workbook{Sheets: []*Sheet{
		{Name: "Study", Rows: [][]string{{"Study Name", "Language"}, {"CDISC01", ""}}},
		{Name: "Variables", Rows: [][]string{{"Dataset", "Variable"}, {"AE", "=not a formula"}}},
	}}
	var buf bytes.Buffer
	if err := WriteWorkbook(in, &buf); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	out, err := ReadWorkbook(&buf)
	if err != nil {
		t.Fatalf("ReadWorkbook: %v", err)
	}
	if len(out.Sheets) != 2 {
		t.Fatalf("sheets = %d, want 2", len(out.Sheets))
	}
	for i, sh := range out.Sheets {
		if sh.Name != in.Sheets[i].Name {
			t.Errorf("sheet %d = %s, want %s", i, sh.Name, in.Sheets[i].Name)
		}
		if want := trimRows(in.Sheets[i].Rows); !reflect.DeepEqual(trimRows(sh.Rows), want) {
			t.Errorf("%s rows = %q, want %q", sh.Name, sh.Rows, want)
		}
	}
}
