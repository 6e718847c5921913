package lineage

import (
	"os"
	"strings"
	"testing"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/markup"
	"github.com/matzehuels/definekit/pkg/normalize"
)

func sampleModel(t *testing.T) *define.Model {
	t.Helper()
	f, err := os.Open("../../markup/testdata/define21.xml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	m, _, err := markup.Bind(f)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if _, err := normalize.Run(m, normalize.Options{}); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return m
}

func TestBuildSample(t *testing.T) {
	g, err := Build(sampleModel(t), Options{})
	if err != nil {
		t.Fatal(err)
	}

	wantNodes := []struct {
		id    string
		kind  NodeKind
		label string
	}{
		{"RD.T14.1", KindDisplay, "Table 14.1"},
		{"AR.T14.1.1", KindResult, "AR.T14.1.1"},
		{"IG.LB/IT.LB.LBTESTCD", KindParameter, "LBTESTCD"},
		{"IG.LB", KindDataset, "LB"},
		{"IG.LB/IT.LB.LBORRES", KindVariable, "LBORRES"},
		{"WC.LB.LBORRES.GLUC", KindWhere, "LBTESTCD EQ GLUC"},
	}
	if len(g.Nodes) != len(wantNodes) {
		t.Fatalf("nodes = %+v", g.Nodes)
	}
	for i, w := range wantNodes {
		n := g.Nodes[i]
		if n.ID != w.id || n.Kind != w.kind || n.Label != w.label {
			t.Errorf("node %d = %+v, want %+v", i, n, w)
		}
	}

	wantEdges := []Edge{
		{"RD.T14.1", "AR.T14.1.1"},
		{"AR.T14.1.1", "IG.LB/IT.LB.LBTESTCD"},
		{"AR.T14.1.1", "IG.LB"},
		{"IG.LB", "IG.LB/IT.LB.LBORRES"},
		{"IG.LB", "WC.LB.LBORRES.GLUC"},
	}
	if len(g.Edges) != len(wantEdges) {
		t.Fatalf("edges = %+v", g.Edges)
	}
	for i, w := range wantEdges {
		if g.Edges[i] != w {
			t.Errorf("edge %d = %+v, want %+v", i, g.Edges[i], w)
		}
	}
}

// chainModel has two results of one display reading the same dataset.
func chainModel(t *testing.T) *define.Model {
	t.Helper()
	m := define.New()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(m.Datasets.Insert("IG.ADSL", &define.Dataset{OID: "IG.ADSL", Name: "ADSL"}))
	age := &define.Variable{Dataset: "IG.ADSL", OID: "IT.ADSL.AGE", Item: define.Item{Name: "AGE"}}
	must(m.Variables.Insert(age.Key(), age))
	must(m.Displays.Insert("RD.T1", &define.ResultDisplay{OID: "RD.T1", Name: "Table 1"}))
	for i, oid := range []string{"AR.T1.1", "AR.T1.2"} {
		must(m.Results.Insert(oid, &define.AnalysisResult{
			OID:        oid,
			DisplayOID: "RD.T1",
			Datasets:   []define.AnalysisDataset{{DatasetOID: "IG.ADSL", VariableOIDs: []string{"IT.ADSL.AGE"}}},
			Ordinal:    i + 1,
		}))
	}
	return m
}

func TestBuildDeduplicates(t *testing.T) {
	g, err := Build(chainModel(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	// display, two results, dataset, variable
	if len(g.Nodes) != 5 {
		t.Errorf("nodes = %+v", g.Nodes)
	}
	// display->result x2, result->dataset x2, dataset->variable once
	if len(g.Edges) != 5 {
		t.Errorf("edges = %+v", g.Edges)
	}
	if n, ok := g.Node("IG.ADSL/IT.ADSL.AGE"); !ok || n.Kind != KindVariable {
		t.Errorf("variable node = %+v, %v", n, ok)
	}
}

func TestBuildDisplayFilter(t *testing.T) {
	m := sampleModel(t)
	g, err := Build(m, Options{Display: "RD.T14.1"})
	if err != nil {
		t.Fatal(err)
	}
	if g.Nodes[0].ID != "RD.T14.1" {
		t.Errorf("first node = %s", g.Nodes[0].ID)
	}

	if _, err := Build(m, Options{Display: "RD.NONE"}); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("unknown display: %v", err)
	}
	if _, err := Build(m, Options{Display: "RD <bad>"}); !errors.Is(err, errors.ErrCodeInvalidOID) {
		t.Errorf("bad OID: %v", err)
	}
}

func TestBuildNoDisplays(t *testing.T) {
	g, err := Build(define.New(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("graph = %+v", g)
	}
	if dot := g.DOT(); !strings.HasPrefix(dot, "digraph lineage {") {
		t.Errorf("DOT = %q", dot)
	}
}

func TestDOT(t *testing.T) {
	g, err := Build(chainModel(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := chainModel(t)
	d, _ := m.Displays.Get("RD.T1")
	d.Description = "Demographics"
	g2, _ := Build(m, Options{})

	dot := g.DOT()
	for _, want := range []string{
		"rankdir=LR;",
		`"RD.T1" [label="Table 1", shape=note`,
		`"IG.ADSL/IT.ADSL.AGE" [label="AGE", shape=ellipse];`,
		`"AR.T1.2" -> "IG.ADSL";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %s\n%s", want, dot)
		}
	}
	if !strings.Contains(g2.DetailedDOT(), `label="Table 1\nDemographics"`) {
		t.Errorf("detailed DOT missing description:\n%s", g2.DetailedDOT())
	}
}

func TestScalableSVG(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(scalableSVG(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if out != want {
		t.Errorf("scalableSVG = %s", out)
	}
	if got := scalableSVG([]byte("<svg/>")); string(got) != "<svg/>" {
		t.Errorf("no viewBox should be unchanged: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	g, err := Build(chainModel(t), Options{})
	if err != nil {
		t.Fatal(err)
	}
	svg, err := RenderSVG(g.DOT())
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "AGE") {
		t.Error("SVG output missing content")
	}
}
