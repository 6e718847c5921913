package normalize_test

import (
	"fmt"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/normalize"
)

func ExampleAssignOrdinals() {
	m := define.New()
	_ = m.Datasets.Insert("IG.DM", &define.Dataset{OID: "IG.DM", Name: "DM", Ordinal: 5})
	_ = m.Datasets.Insert("IG.AE", &define.Dataset{OID: "IG.AE", Name: "AE", Ordinal: 2})
	_ = m.Datasets.Insert("IG.LB", &define.Dataset{OID: "IG.LB", Name: "LB"})

	normalize.AssignOrdinals(m)
	for _, d := range m.DatasetsByOrdinal() {
		fmt.Println(d.Ordinal, d.Name)
	}
	// Output:
	// 1 AE
	// 2 DM
	// 3 LB
}

func ExampleDetectCommon() {
	m := define.New()
	for _, ds := range []string{"DM", "AE", "LB"} {
		_ = m.Datasets.Insert("IG."+ds, &define.Dataset{OID: "IG." + ds, Name: ds})
	}
	add := func(ds, name string) {
		v := &define.Variable{Dataset: "IG." + ds, OID: define.VariableOID(ds, name), Item: define.Item{Name: name}}
		_ = m.Variables.Insert(v.Key(), v)
	}
	add("DM", "STUDYID")
	add("AE", "STUDYID")
	add("LB", "STUDYID")
	add("DM", "USUBJID")
	add("AE", "USUBJID")
	add("DM", "AGE")

	normalize.DetectCommon(m)
	for _, v := range m.VariablesOf("IG.DM") {
		fmt.Println(v.Name, v.Common)
	}
	// Output:
	// STUDYID true
	// USUBJID true
	// AGE false
}

func ExampleRun() {
	_, err := normalize.Run(define.New(), normalize.Options{})
	fmt.Println(err)
	// Output: PRECONDITION: model has no study
}
