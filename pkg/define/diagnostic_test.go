package define

import (
	"encoding/json"
	"testing"
)

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{"Bare", Warningf("no study"), "warning: no study"},
		{"Cell", Errorf("missing %s", "Dataset").At("Variables", 4, "Dataset"), "error: Variables row 4 [Dataset]: missing Dataset"},
		{"Path", Warningf("orphan").AtPath("ODM/Study/MetaDataVersion/ItemDef"), "warning: ODM/Study/MetaDataVersion/ItemDef: orphan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiagnosticsCounting(t *testing.T) {
	var ds Diagnostics
	if ds.HasErrors() {
		t.Error("empty list has errors")
	}
	ds.Add(Warningf("a").For("K1"), Warningf("b"), Errorf("c").For("K1"))
	if got := ds.Count(SeverityWarning); got != 2 {
		t.Errorf("warnings = %d, want 2", got)
	}
	if !ds.HasErrors() {
		t.Error("HasErrors = false, want true")
	}
	if got := len(ds.ForKey("K1")); got != 2 {
		t.Errorf("ForKey(K1) = %d, want 2", got)
	}
}

func TestDiagnosticJSON(t *testing.T) {
	in := Diagnostics{
		Errorf("missing").At("Datasets", 1, "Dataset"),
		Warningf("dangling").For("COM.AE"),
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Diagnostics
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != in.String() {
		t.Errorf("round trip = %q, want %q", out.String(), in.String())
	}

	var s Severity
	if err := s.UnmarshalText([]byte("fatal")); err == nil {
		t.Error("expected error for unknown severity")
	}
}
