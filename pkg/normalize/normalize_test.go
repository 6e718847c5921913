package normalize

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
)

func addDataset(t *testing.T, m *define.Model, name string, vars ...string) {
	t.Helper()
	oid := define.DatasetOID(name)
	if err := m.Datasets.Insert(oid, &define.Dataset{OID: oid, Name: name}); err != nil {
		t.Fatalf("insert dataset %s: %v", name, err)
	}
	for _, v := range vars {
		addVariable(t, m, name, v)
	}
}

func addVariable(t *testing.T, m *define.Model, dataset, name string) *define.Variable {
	t.Helper()
	v := &define.Variable{
		Dataset: define.DatasetOID(dataset),
		OID:     define.VariableOID(dataset, name),
		Item:    define.Item{Name: name},
	}
	if err := m.Variables.Insert(v.Key(), v); err != nil {
		t.Fatalf("insert variable %s.%s: %v", dataset, name, err)
	}
	return v
}

func newModel() *define.Model {
	m := define.New()
	m.Study = &define.Study{OID: "S", Name: "CDISC01"}
	return m
}

func TestRunRequiresStudy(t *testing.T) {
	_, err := Run(define.New(), Options{})
	if !errors.Is(err, errors.ErrCodePrecondition) {
		t.Fatalf("err = %v, want PRECONDITION", err)
	}
	if _, err := Run(nil, Options{}); err == nil {
		t.Fatal("nil model accepted")
	}
}

func TestDetectCommonThreshold(t *testing.T) {
	tests := []struct {
		name       string
		datasets   int
		containing int
		want       bool
	}{
		{"ExactlyHalf", 4, 2, false},
		{"MoreThanHalf", 4, 3, true},
		{"All", 3, 3, true},
		{"OddMinority", 3, 1, false},
		{"OddMajority", 3, 2, true},
		{"Single", 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModel()
			for i := 0; i < tt.datasets; i++ {
				name := fmt.Sprintf("D%d", i)
				addDataset(t, m, name, "OWN"+name)
				if i < tt.containing {
					addVariable(t, m, name, "STUDYID")
				}
			}
			DetectCommon(m)
			for _, v := range m.Variables.All() {
				want := v.Name == "STUDYID" && tt.want
				if v.Name != "STUDYID" && tt.datasets == 1 {
					want = true
				}
				if v.Common != want {
					t.Errorf("%s.%s Common = %v, want %v", v.Dataset, v.Name, v.Common, want)
				}
			}
		})
	}
}

func TestMergeSupplemental(t *testing.T) {
	m := newModel()
	addDataset(t, m, "AE", "STUDYID", "AETERM")
	addDataset(t, m, "SUPPAE", "STUDYID", "QNAM", "QVAL")
	addDataset(t, m, "SQAPDM", "QNAM")

	diags, err := Run(m, Options{MergeSupplemental: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if m.Datasets.Has("IG.SUPPAE") {
		t.Error("SUPPAE still present")
	}
	ae, _ := m.Datasets.Get("IG.AE")
	if !ae.HasSupplemental {
		t.Error("AE.HasSupplemental not set")
	}
	var names []string
	for _, v := range m.VariablesOf("IG.AE") {
		names = append(names, v.Name)
	}
	if want := []string{"STUDYID", "AETERM", "QNAM", "QVAL"}; !slices.Equal(names, want) {
		t.Errorf("AE variables = %v, want %v", names, want)
	}
	qnam, ok := m.Variables.Get(define.VariableKey{Dataset: "IG.AE", OID: "IT.SUPPAE.QNAM"})
	if !ok || !qnam.IsSupplemental || qnam.Ordinal != 3 {
		t.Errorf("QNAM = %+v, want supplemental with ordinal 3", qnam)
	}
	stud, _ := m.Variables.Get(define.VariableKey{Dataset: "IG.AE", OID: "IT.AE.STUDYID"})
	if stud.IsSupplemental {
		t.Error("parent variable flagged supplemental")
	}
	if m.Variables.Has(define.VariableKey{Dataset: "IG.SUPPAE", OID: "IT.SUPPAE.STUDYID"}) {
		t.Error("duplicate STUDYID from SUPPAE kept")
	}

	// SQAPDM has no APDM parent.
	if !m.Datasets.Has("IG.SQAPDM") {
		t.Error("orphan supplemental dataset removed")
	}
	if len(diags.ForKey("IG.SQAPDM")) != 1 {
		t.Errorf("diagnostics = %v, want one warning for SQAPDM", diags)
	}
}

func TestMergeSupplementalLowerCaseAndDrops(t *testing.T) {
	m := newModel()
	addDataset(t, m, "ae", "STUDYID", "AETERM")
	addDataset(t, m, "suppae", "studyid", "QVAL")
	// Same ItemDef OID as the parent's AETERM under another name.
	clash := &define.Variable{Dataset: "IG.suppae", OID: "IT.ae.AETERM", Item: define.Item{Name: "QTERM"}}
	if err := m.Variables.Insert(clash.Key(), clash); err != nil {
		t.Fatal(err)
	}

	diags, err := Run(m, Options{MergeSupplemental: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Datasets.Has("IG.suppae") {
		t.Fatal("suppae not merged into ae")
	}
	var names []string
	for _, v := range m.VariablesOf("IG.ae") {
		names = append(names, v.Name)
	}
	if want := []string{"STUDYID", "AETERM", "QVAL"}; !slices.Equal(names, want) {
		t.Errorf("ae variables = %v, want %v", names, want)
	}
	if ds := diags.ForKey("IT.suppae.studyid"); len(ds) != 1 || ds[0].Severity != define.SeverityWarning {
		t.Errorf("duplicate name diagnostics = %v", ds)
	}
	if ds := diags.ForKey("IT.ae.AETERM"); len(ds) != 1 || ds[0].Severity != define.SeverityWarning {
		t.Errorf("rekey diagnostics = %v", ds)
	}
}

func TestMergeSupplementalDisabled(t *testing.T) {
	m := newModel()
	addDataset(t, m, "AE", "AETERM")
	addDataset(t, m, "SUPPAE", "QNAM")
	if _, err := Run(m, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !m.Datasets.Has("IG.SUPPAE") {
		t.Error("SUPPAE merged although merging is off")
	}
}

func TestAssignOrdinalsDense(t *testing.T) {
	m := newModel()
	addDataset(t, m, "LB", "LBTESTCD", "LBORRES")
	addDataset(t, m, "AE", "AETERM")
	lb, _ := m.Datasets.Get("IG.LB")
	ae, _ := m.Datasets.Get("IG.AE")
	lb.Ordinal, ae.Ordinal = 20, 7

	orres, _ := m.Variables.Get(define.VariableKey{Dataset: "IG.LB", OID: "IT.LB.LBORRES"})
	orres.ValueListOID = "VL.LB.LBORRES"
	_ = m.ValueLists.Insert("VL.LB.LBORRES", &define.ValueList{OID: "VL.LB.LBORRES", ValueOIDs: []string{"V2", "V1"}})
	_ = m.Values.Insert("V1", &define.Value{OID: "V1", Ordinal: 9})
	_ = m.Values.Insert("V2", &define.Value{OID: "V2", Ordinal: 3})

	if _, err := Run(m, Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ae.Ordinal != 1 || lb.Ordinal != 2 {
		t.Errorf("dataset ordinals AE=%d LB=%d, want 1 2", ae.Ordinal, lb.Ordinal)
	}
	v1, _ := m.Values.Get("V1")
	v2, _ := m.Values.Get("V2")
	if v2.Ordinal != 1 || v1.Ordinal != 2 {
		t.Errorf("value ordinals V2=%d V1=%d, want list order 1 2", v2.Ordinal, v1.Ordinal)
	}
	if v1.Dataset != "IG.LB" || v1.Variable != "IT.LB.LBORRES" {
		t.Errorf("V1 linked to %s/%s", v1.Dataset, v1.Variable)
	}
	if !slices.Equal(orres.Values, []string{"V2", "V1"}) {
		t.Errorf("LBORRES values = %v", orres.Values)
	}
}

func TestLinkValueLevelDropsUnknownWhereClauses(t *testing.T) {
	m := newModel()
	addDataset(t, m, "LB", "LBORRES")
	v, _ := m.Variables.Get(define.VariableKey{Dataset: "IG.LB", OID: "IT.LB.LBORRES"})
	v.ValueListOID = "VL.1"
	_ = m.ValueLists.Insert("VL.1", &define.ValueList{OID: "VL.1", ValueOIDs: []string{"V1"}})
	_ = m.Values.Insert("V1", &define.Value{OID: "V1", WhereClauseOIDs: []string{"WC.OK", "WC.GONE"}})
	_ = m.WhereClauses.Insert("WC.OK", &define.WhereClause{OID: "WC.OK"})

	diags, err := Run(m, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	val, _ := m.Values.Get("V1")
	if !slices.Equal(val.WhereClauseOIDs, []string{"WC.OK"}) {
		t.Errorf("where clauses = %v", val.WhereClauseOIDs)
	}
	if len(diags.ForKey("WC.GONE")) != 1 {
		t.Errorf("diagnostics = %v, want one for WC.GONE", diags)
	}
}

func TestResolveAnalysisResults(t *testing.T) {
	m := newModel()
	addDataset(t, m, "ADSL", "AGE", "SEX")
	_ = m.Displays.Insert("RD.1", &define.ResultDisplay{OID: "RD.1"})
	_ = m.Results.Insert("AR.1", &define.AnalysisResult{
		OID: "AR.1", DisplayOID: "RD.1", ParameterOID: "IT.ADSL.AGE",
		Datasets: []define.AnalysisDataset{
			{DatasetOID: "IG.ADSL", WhereClauseOID: "WC.MISSING", VariableOIDs: []string{"IT.ADSL.AGE", "IT.ADAE.AEDECOD"}},
			{DatasetOID: "IG.ADAE", VariableOIDs: []string{"IT.ADAE.AEDECOD"}},
		},
	})
	_ = m.Results.Insert("AR.2", &define.AnalysisResult{OID: "AR.2", DisplayOID: "RD.MISSING"})

	diags, err := Run(m, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r, _ := m.Results.Get("AR.1")
	if len(r.Datasets) != 1 {
		t.Fatalf("analysis datasets = %+v, want only ADSL", r.Datasets)
	}
	ad := r.Datasets[0]
	if ad.WhereClauseOID != "" || !slices.Equal(ad.VariableOIDs, []string{"IT.ADSL.AGE"}) {
		t.Errorf("ADSL analysis dataset = %+v", ad)
	}
	r2, _ := m.Results.Get("AR.2")
	if r2.DisplayOID != "" {
		t.Errorf("AR.2 display = %q, want blanked", r2.DisplayOID)
	}
	for _, key := range []string{"WC.MISSING", "IT.ADAE.AEDECOD", "IG.ADAE", "RD.MISSING"} {
		if got := len(diags.ForKey(key)); got != 1 {
			t.Errorf("%s warnings = %d, want 1", key, got)
		}
	}
	if diags.HasErrors() {
		t.Error("unresolved analysis references must only warn")
	}
}

func TestRunIdempotent(t *testing.T) {
	m := newModel()
	addDataset(t, m, "DM", "STUDYID", "USUBJID", "AGE")
	addDataset(t, m, "AE", "STUDYID", "USUBJID", "AETERM")
	addDataset(t, m, "SUPPAE", "QNAM")
	addDataset(t, m, "LB", "STUDYID", "LBORRES")
	_ = m.Codelists.Insert("CL.B", &define.Codelist{OID: "CL.B", Ordinal: 5})
	_ = m.Codelists.Insert("CL.A", &define.Codelist{OID: "CL.A", Ordinal: 2})

	opts := Options{MergeSupplemental: true}
	if _, err := Run(m, opts); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	snapshot := func() []define.Variable {
		var out []define.Variable
		for _, v := range m.Variables.All() {
			out = append(out, *v)
		}
		return out
	}
	first := snapshot()
	firstKeys := m.Datasets.Keys()

	diags, err := Run(m, opts)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("second run diagnostics = %v", diags)
	}
	if !reflect.DeepEqual(first, snapshot()) {
		t.Error("second run changed variables")
	}
	if !slices.Equal(firstKeys, m.Datasets.Keys()) {
		t.Error("second run changed datasets")
	}
	cla, _ := m.Codelists.Get("CL.A")
	if cla.Ordinal != 1 {
		t.Errorf("CL.A ordinal = %d, want 1", cla.Ordinal)
	}
}
