package lineage_test

import (
	"fmt"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/render/lineage"
)

func ExampleBuild() {
	m := define.New()
	_ = m.Datasets.Insert("IG.ADSL", &define.Dataset{OID: "IG.ADSL", Name: "ADSL"})
	age := &define.Variable{Dataset: "IG.ADSL", OID: "IT.ADSL.AGE", Item: define.Item{Name: "AGE"}}
	_ = m.Variables.Insert(age.Key(), age)
	_ = m.Displays.Insert("RD.T1", &define.ResultDisplay{OID: "RD.T1", Name: "Table 1"})
	_ = m.Results.Insert("AR.T1.1", &define.AnalysisResult{
		OID:        "AR.T1.1",
		DisplayOID: "RD.T1",
		Datasets:   []define.AnalysisDataset{{DatasetOID: "IG.ADSL", VariableOIDs: []string{"IT.ADSL.AGE"}}},
	})

	g, err := lineage.Build(m, lineage.Options{})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, e := range g.Edges {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		fmt.Printf("%s %s -> %s %s\n", from.Kind, from.Label, to.Kind, to.Label)
	}
	// Output:
	// display Table 1 -> result AR.T1.1
	// result AR.T1.1 -> dataset ADSL
	// dataset ADSL -> variable AGE
}
