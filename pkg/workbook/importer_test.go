package workbook

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/definekit/pkg/define"
)

func sheet(name string, header []string, rows ...[]string) *Sheet {
	return &Sheet{Name: name, Rows: append([][]string{header}, rows...)}
}

func studySheet() *Sheet {
	return sheet(SheetStudy, []string{"study name", "Language"}, []string{"CDISC01", "en"})
}

func datasetsSheet() *Sheet {
	return sheet(SheetDatasets, []string{"Dataset", "Description", "Class"},
		[]string{"AE", "Adverse Events", "EVENTS"},
		[]string{"LB", "Laboratory Test Results", "FINDINGS"},
	)
}

func variablesSheet(rows ...[]string) *Sheet {
	if len(rows) == 0 {
		rows = [][]string{
			{"AE", "AESEQ", "Sequence Number", "integer", "8"},
			{"AE", "AETERM", "Reported Term", "text", "200"},
			{"LB", "LBTESTCD", "Test Short Name", "text", "8"},
			{"LB", "LBSPEC", "Specimen Type", "text", "40"},
			{"LB", "LBORRES", "Result", "text", "200"},
		}
	}
	return sheet(SheetVariables, []string{"Dataset", "Variable", "Label", "DATA  TYPE", "Length"}, rows...)
}

func importSheets(sheets ...*Sheet) (*define.Model, define.Diagnostics) {
	return Import(&Workbook{Sheets: sheets})
}

func TestImportMinimal(t *testing.T) {
	m, diags := importSheets(studySheet(), datasetsSheet(), variablesSheet())
	if len(diags) != 0 {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	if m.Study == nil || m.Study.OID != "ST.CDISC01" || m.Study.MetaDataVersion != "MDV.CDISC01" {
		t.Fatalf("study = %+v", m.Study)
	}
	if m.Datasets.Len() != 2 {
		t.Fatalf("datasets = %d, want 2", m.Datasets.Len())
	}
	vars := m.VariablesOf("IG.AE")
	if len(vars) != 2 {
		t.Fatalf("AE variables = %d, want 2", len(vars))
	}
	if vars[0].OID != "IT.AE.AESEQ" || vars[0].Ordinal != 1 || vars[1].Ordinal != 2 {
		t.Errorf("AE variables = %+v, %+v", vars[0], vars[1])
	}
	if vars[1].DataType != "text" || vars[1].Length != "200" || vars[1].SASFieldName != "AETERM" {
		t.Errorf("AETERM = %+v", vars[1].Item)
	}
}

func TestImportMissingColumnSkipsDependents(t *testing.T) {
	_, diags := importSheets(
		studySheet(),
		sheet(SheetStandards, []string{"Name", "Type", "Version"}, []string{"SDTMIG", "IG", "3.3"}),
		sheet(SheetDatasets, []string{"Description"}, []string{"Adverse Events"}),
		variablesSheet(),
	)
	if got := diags.Count(define.SeverityError); got != 2 {
		t.Fatalf("errors = %d, want 2:\n%s", got, diags)
	}
	if d := diags[0]; d.Sheet != SheetDatasets || d.Row != 1 || d.Column != "Dataset" {
		t.Errorf("first diagnostic = %s", d)
	}
	if d := diags[1]; d.Sheet != SheetVariables || !strings.Contains(d.Message, "skipped") {
		t.Errorf("second diagnostic = %s", d)
	}
}

func TestImportIndependentSheetsSurvive(t *testing.T) {
	m, _ := importSheets(
		studySheet(),
		sheet(SheetStandards, []string{"Name", "Type", "Version"}, []string{"SDTMIG", "IG", "3.3"}),
		sheet(SheetDatasets, []string{"Description"}, []string{"Adverse Events"}),
	)
	if !m.Standards.Has("STD.SDTMIG.3.3") {
		t.Error("independent Standards sheet was not imported")
	}
}

func TestImportMissingRequiredSheet(t *testing.T) {
	_, diags := importSheets(
		studySheet(),
		datasetsSheet(),
		sheet(SheetValueLevel, []string{"Dataset", "Variable", "Where Variable", "Where Value"}),
	)
	if got := diags.Count(define.SeverityError); got != 2 {
		t.Fatalf("errors = %d, want 2:\n%s", got, diags)
	}
	if diags[0].Sheet != SheetVariables || diags[0].Message != "missing sheet" {
		t.Errorf("first diagnostic = %s", diags[0])
	}
	if diags[1].Sheet != SheetValueLevel {
		t.Errorf("second diagnostic = %s", diags[1])
	}
}

func TestImportOptionalSheetAbsent(t *testing.T) {
	_, diags := importSheets(studySheet(), datasetsSheet(), variablesSheet())
	if len(diags) != 0 {
		t.Errorf("absent optional sheets produced diagnostics:\n%s", diags)
	}
}

func TestImportDuplicateDerivedKey(t *testing.T) {
	m, diags := importSheets(studySheet(), datasetsSheet(), variablesSheet(
		[]string{"AE", "AETERM", "First", "text", "200"},
		[]string{"AE", "AETERM", "Second", "text", "100"},
	))
	if len(diags) != 1 || diags[0].Row != 3 || diags[0].Column != "Variable" {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	v, ok := m.Variables.Get(define.VariableKey{Dataset: "IG.AE", OID: "IT.AE.AETERM"})
	if !ok || v.Label != "First" || v.Length != "200" {
		t.Errorf("AETERM = %+v", v)
	}
	if m.Variables.Len() != 1 {
		t.Errorf("variables = %d, want 1", m.Variables.Len())
	}
}

func TestImportPrecedence(t *testing.T) {
	m, diags := importSheets(
		studySheet(),
		sheet(SheetComments, []string{"ID", "Description"}, []string{"COM.X", "Explicit"}),
		datasetsSheet(),
		sheet(SheetVariables, []string{"Dataset", "Variable", "Comment OID", "Comment"},
			[]string{"AE", "AETERM", "COM.X", "Free text"},
		),
	)
	if len(diags) != 1 || diags[0].Column != "Comment" {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	v, _ := m.VariableByName("IG.AE", "AETERM")
	if v.CommentOID != "COM.X" {
		t.Errorf("CommentOID = %q, want COM.X", v.CommentOID)
	}
	if m.Comments.Len() != 1 {
		t.Errorf("comments = %d, want 1", m.Comments.Len())
	}
}

func TestImportAutoCreate(t *testing.T) {
	m, diags := importSheets(
		studySheet(),
		datasetsSheet(),
		sheet(SheetVariables, []string{"Dataset", "Variable", "Method", "Comment"},
			[]string{"AE", "AESEQ", "Sequential number within USUBJID", ""},
			[]string{"AE", "AETERM", "", "Shared text"},
			[]string{"LB", "LBTESTCD", "", "Shared text"},
		),
	)
	if len(diags) != 0 {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	mt, ok := m.Methods.Get("MT.AE.AESEQ")
	if !ok || mt.Name != "Algorithm to derive AE.AESEQ" || mt.Description != "Sequential number within USUBJID" {
		t.Errorf("method = %+v", mt)
	}
	if m.Comments.Len() != 1 || !m.Comments.Has("COM.AE.AETERM") {
		t.Fatalf("comments = %v", m.Comments.Keys())
	}
	lb, _ := m.VariableByName("IG.LB", "LBTESTCD")
	if lb.CommentOID != "COM.AE.AETERM" {
		t.Errorf("LBTESTCD comment = %q, want the shared COM.AE.AETERM", lb.CommentOID)
	}
}

func TestImportRowLocation(t *testing.T) {
	m, diags := importSheets(
		studySheet(),
		datasetsSheet(),
		sheet(SheetVariables, []string{"Dataset", "Variable", "Order", "Mandatory"},
			[]string{"AE", "AESEQ", "x", "maybe"},
		),
	)
	if len(diags) != 2 {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	want := []string{
		`warning: Variables row 2 [Mandatory]: "maybe" is not Yes or No; ignored`,
		`warning: Variables row 2 [Order]: "x" is not a positive integer; using 1`,
	}
	for i, w := range want {
		if diags[i].String() != w {
			t.Errorf("diags[%d] = %s, want %s", i, diags[i], w)
		}
	}
	v, _ := m.VariableByName("IG.AE", "AESEQ")
	if v.Ordinal != 1 || v.Mandatory != "" {
		t.Errorf("AESEQ = %+v", v)
	}
}

func valueLevelSheet(rows ...[]string) *Sheet {
	return sheet(SheetValueLevel,
		[]string{"Dataset", "Variable", "Data Type", "Where Variable", "Comparator", "Where Value"},
		rows...)
}

func TestImportValueLevelGroups(t *testing.T) {
	m, diags := importSheets(studySheet(), datasetsSheet(), variablesSheet(), valueLevelSheet(
		[]string{"LB", "LBORRES", "float", "LBTESTCD", "EQ", "GLUC"},
		[]string{"", "", "", "LBSPEC", "EQ", "BLOOD"},
		[]string{"LB", "LBORRES", "text", "", "", ""},
		[]string{"", "", "", "LBTESTCD", "", "ALB, ALBUMIN"},
	))
	if len(diags) != 0 {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	parent, _ := m.VariableByName("IG.LB", "LBORRES")
	if parent.ValueListOID != "VL.LB.LBORRES" {
		t.Fatalf("ValueListOID = %q", parent.ValueListOID)
	}
	vl, _ := m.ValueLists.Get("VL.LB.LBORRES")
	if want := []string{"IT.LB.LBORRES.GLUC", "IT.LB.LBORRES.2"}; !slices.Equal(vl.ValueOIDs, want) {
		t.Fatalf("values = %v, want %v", vl.ValueOIDs, want)
	}

	gluc, _ := m.Values.Get("IT.LB.LBORRES.GLUC")
	if gluc.DataType != "float" || !slices.Equal(gluc.WhereClauseOIDs, []string{"WC.LB.LBORRES.GLUC"}) {
		t.Errorf("GLUC = %+v", gluc)
	}
	wc, _ := m.WhereClauses.Get("WC.LB.LBORRES.GLUC")
	if len(wc.Conditions) != 2 || wc.Conditions[0].ItemOID != "IT.LB.LBTESTCD" || wc.Conditions[1].ItemOID != "IT.LB.LBSPEC" {
		t.Errorf("GLUC where clause = %+v", wc)
	}

	second, _ := m.Values.Get("IT.LB.LBORRES.2")
	if !slices.Equal(second.WhereClauseOIDs, []string{"WC.LB.LBORRES.2"}) {
		t.Fatalf("second value where clauses = %v", second.WhereClauseOIDs)
	}
	wc2, _ := m.WhereClauses.Get("WC.LB.LBORRES.2")
	c := wc2.Conditions[0]
	if c.Comparator != define.ComparatorIN || !slices.Equal(c.Values, []string{"ALB", "ALBUMIN"}) {
		t.Errorf("condition = %+v", c)
	}
}

func TestImportValueLevelWithoutCondition(t *testing.T) {
	m, diags := importSheets(studySheet(), datasetsSheet(), variablesSheet(), valueLevelSheet(
		[]string{"LB", "LBORRES", "text", "", "", ""},
	))
	if len(diags) != 0 {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	v, ok := m.Values.Get("IT.LB.LBORRES.1")
	if !ok || len(v.WhereClauseOIDs) != 0 {
		t.Errorf("value = %+v", v)
	}
	if m.WhereClauses.Len() != 0 {
		t.Errorf("where clauses = %d, want 0", m.WhereClauses.Len())
	}
}

func TestImportValueLevelProblems(t *testing.T) {
	tests := []struct {
		name   string
		rows   [][]string
		column string
	}{
		{
			name:   "ConditionWithoutValue",
			rows:   [][]string{{"", "", "", "LBTESTCD", "EQ", "GLUC"}},
			column: "Dataset",
		},
		{
			name:   "UnknownComparator",
			rows:   [][]string{{"LB", "LBORRES", "float", "LBTESTCD", "XX", "GLUC"}},
			column: "Comparator",
		},
		{
			name:   "UnknownWhereVariable",
			rows:   [][]string{{"LB", "LBORRES", "float", "NOPE", "EQ", "GLUC"}},
			column: "Where Variable",
		},
		{
			name:   "UnknownParent",
			rows:   [][]string{{"LB", "NOPE", "float", "LBTESTCD", "EQ", "GLUC"}, {"", "", "", "LBSPEC", "EQ", "BLOOD"}},
			column: "Variable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := importSheets(studySheet(), datasetsSheet(), variablesSheet(), valueLevelSheet(tt.rows...))
			if len(diags) != 1 {
				t.Fatalf("diagnostics = %d, want 1:\n%s", len(diags), diags)
			}
			if d := diags[0]; d.Sheet != SheetValueLevel || d.Row != 2 || d.Column != tt.column {
				t.Errorf("diagnostic = %s", d)
			}
		})
	}
}

func TestImportCodelists(t *testing.T) {
	m, diags := importSheets(studySheet(), datasetsSheet(), variablesSheet(),
		sheet(SheetCodelists, []string{"ID", "Name", "Term", "Decoded Value"},
			[]string{"CL.NY", "No Yes Response", "N", ""},
			[]string{"CL.NY", "", "Y", ""},
			[]string{"CL.SEV", "Severity", "MILD", "Mild"},
			[]string{"CL.NY", "", "N", ""},
		),
	)
	if len(diags) != 1 || diags[0].Row != 5 || diags[0].Column != "Term" {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	cls := m.CodelistsByOrdinal()
	if len(cls) != 2 || cls[0].OID != "CL.NY" || cls[1].OID != "CL.SEV" {
		t.Fatalf("codelists = %v", m.Codelists.Keys())
	}
	ny := m.ItemsOf("CL.NY")
	if len(ny) != 2 || ny[0].Value != "N" || ny[1].Order != 2 || !ny[0].Enumerated {
		t.Errorf("CL.NY items = %+v", ny)
	}
	if sev := m.ItemsOf("CL.SEV"); len(sev) != 1 || sev[0].Enumerated || sev[0].Decode != "Mild" {
		t.Errorf("CL.SEV items = %+v", sev)
	}
}

func analysisSheets(datasetRows ...[]string) []*Sheet {
	return []*Sheet{
		studySheet(), datasetsSheet(), variablesSheet(),
		sheet(SheetAnalysisDisplays, []string{"Display Name", "Description"}, []string{"Table 14.1", "Glucose"}),
		sheet(SheetAnalysisResults, []string{"Display Name", "Description", "Parameter OID"},
			[]string{"Table 14.1", "Glucose by visit", "IT.LB.LBTESTCD"},
		),
		sheet(SheetAnalysisDatasets, []string{"Result ID", "Dataset", "Variables"}, datasetRows...),
	}
}

func TestImportAnalysisResults(t *testing.T) {
	m, diags := importSheets(analysisSheets(
		[]string{"AR.Table 14.1.1", "LB", "LBORRES"},
		[]string{"", "AE", "AETERM, AESEQ"},
	)...)
	if len(diags) != 0 {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	r, ok := m.Results.Get("AR.Table 14.1.1")
	if !ok {
		t.Fatalf("results = %v", m.Results.Keys())
	}
	if r.DisplayOID != "RD.Table 14.1" || r.Ordinal != 1 || r.ParameterOID != "IT.LB.LBTESTCD" {
		t.Errorf("result = %+v", r)
	}
	if len(r.Datasets) != 2 {
		t.Fatalf("analysis datasets = %d, want 2", len(r.Datasets))
	}
	if want := []string{"IT.AE.AETERM", "IT.AE.AESEQ"}; !slices.Equal(r.Datasets[1].VariableOIDs, want) {
		t.Errorf("variables = %v, want %v", r.Datasets[1].VariableOIDs, want)
	}
}

func TestImportAnalysisUnknownResult(t *testing.T) {
	m, diags := importSheets(analysisSheets(
		[]string{"AR.NOPE", "LB", "LBORRES"},
		[]string{"", "AE", "AETERM"},
	)...)
	if len(diags) != 1 || diags[0].Column != "Result ID" {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	r, _ := m.Results.Get("AR.Table 14.1.1")
	if len(r.Datasets) != 0 {
		t.Errorf("analysis datasets = %+v", r.Datasets)
	}
}

func TestImportAnalysisSkippedWithoutDisplays(t *testing.T) {
	sheets := analysisSheets([]string{"AR.Table 14.1.1", "LB", "LBORRES"})
	sheets[3] = sheet(SheetAnalysisDisplays, []string{"Description"})
	_, diags := importSheets(sheets...)
	if got := diags.Count(define.SeverityError); got != 3 {
		t.Errorf("errors = %d, want 3:\n%s", got, diags)
	}
}

func TestImportAnalysisRepeatedDataset(t *testing.T) {
	m, diags := importSheets(analysisSheets(
		[]string{"AR.Table 14.1.1", "AE", "AETERM"},
		[]string{"", "AE", "AESEQ"},
	)...)
	if len(diags) != 1 || diags[0].Column != "Dataset" || diags[0].Row != 3 {
		t.Fatalf("diagnostics:\n%s", diags)
	}
	r, _ := m.Results.Get("AR.Table 14.1.1")
	if len(r.Datasets) != 1 || !slices.Equal(r.Datasets[0].VariableOIDs, []string{"IT.AE.AETERM"}) {
		t.Errorf("analysis datasets = %+v", r.Datasets)
	}
}
