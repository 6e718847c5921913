package workbook_test

import (
	"fmt"

	"github.com/matzehuels/definekit/pkg/workbook"
)

func ExampleImport() {
	wb := &workbook.Workbook{Sheets: []*workbook.Sheet{
		{Name: "Study", Rows: [][]string{{"Study Name"}, {"CDISC01"}}},
		{Name: "Datasets", Rows: [][]string{{"Dataset", "Description"}, {"AE", "Adverse Events"}}},
		{Name: "Variables", Rows: [][]string{
			{"Dataset", "Variable", "Comment"},
			{"AE", "AETERM", "Verbatim term as collected"},
		}},
	}}
	m, diags := workbook.Import(wb)
	v, _ := m.VariableByName("IG.AE", "AETERM")
	fmt.Println(len(diags), v.OID, v.CommentOID)
	// Output: 0 IT.AE.AETERM COM.AE.AETERM
}

func ExampleRows() {
	wb := &workbook.Workbook{Sheets: []*workbook.Sheet{
		{Name: "Study", Rows: [][]string{{"Study Name"}, {"CDISC01"}}},
		{Name: "Datasets", Rows: [][]string{{"Dataset"}, {"DM"}}},
		{Name: "Variables", Rows: [][]string{{"Dataset", "Variable"}, {"DM", "USUBJID"}, {"DM", "AGE"}}},
	}}
	m, _ := workbook.Import(wb)
	for _, s := range workbook.Rows(m) {
		if s.Name == workbook.SheetVariables {
			for _, r := range s.Rows[1:] {
				fmt.Println(r[0], r[1], r[2], r[3])
			}
		}
	}
	// Output:
	// DM USUBJID IT.DM.USUBJID 1
	// DM AGE IT.DM.AGE 2
}
