package define_test

import (
	"errors"
	"fmt"

	"github.com/matzehuels/definekit/pkg/define"
)

func ExampleTable() {
	t := define.NewTable[string, define.Codelist]()
	_ = t.Insert("CL.NY", &define.Codelist{OID: "CL.NY", Name: "No Yes Response"})
	_ = t.Insert("CL.SEX", &define.Codelist{OID: "CL.SEX", Name: "Sex"})

	err := t.Insert("CL.NY", &define.Codelist{OID: "CL.NY"})
	fmt.Println(errors.Is(err, define.ErrDuplicateKey))

	_ = t.Rekey("CL.NY", "CL.NY_RESPONSE")
	fmt.Println(t.Keys())
	// Output:
	// true
	// [CL.NY_RESPONSE CL.SEX]
}

func ExampleValueOID() {
	key := define.ValueKey([]string{"GLUC", " FASTING GLUCOSE "})
	fmt.Println(define.ValueOID("LB", "LBORRES", key))
	fmt.Println(define.WhereClauseOID("LB", "LBORRES", key))
	// Output:
	// IT.LB.LBORRES.GLUC_FASTING_GLUCOSE
	// WC.LB.LBORRES.GLUC_FASTING_GLUCOSE
}

func ExampleDiagnostics() {
	var diags define.Diagnostics
	diags.Add(
		define.Warningf("codelist %s is never used", "CL.UNUSED").For("CL.UNUSED"),
		define.Errorf("unknown dataset %q", "XX").At("Variables", 4, "Dataset"),
	)
	fmt.Println(diags.HasErrors(), diags.Count(define.SeverityWarning))
	for _, d := range diags {
		fmt.Println(d)
	}
	// Output:
	// true 1
	// warning: codelist CL.UNUSED is never used
	// error: Variables row 4 [Dataset]: unknown dataset "XX"
}
