package workbook

import (
	"reflect"
	"testing"

	"github.com/matzehuels/definekit/pkg/define"
)

func TestDocumentRefs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []define.DocumentRef
	}{
		{"Whole", "LF.acrf", []define.DocumentRef{{DocumentID: "LF.acrf"}}},
		{"PageList", "LF.acrf[12 14]", []define.DocumentRef{
			{DocumentID: "LF.acrf", PageType: define.PageTypePhysical, Pages: "12 14"},
		}},
		{"Range", "LF.acrf[3-5]", []define.DocumentRef{
			{DocumentID: "LF.acrf", PageType: define.PageTypePhysical, FirstPage: "3", LastPage: "5"},
		}},
		{"NamedAndWhole", "LF.sap[Section9]; LF.acrf", []define.DocumentRef{
			{DocumentID: "LF.sap", PageType: define.PageTypeNamedDestination, Pages: "Section9"},
			{DocumentID: "LF.acrf"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDocumentRefs(tt.in)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parse = %+v, want %+v", got, tt.want)
			}
			if s := formatDocumentRefs(got); s != tt.in {
				t.Errorf("format = %q, want %q", s, tt.in)
			}
		})
	}
}

func TestDocumentRefsInvalid(t *testing.T) {
	for _, in := range []string{"LF.acrf[12", "[12]", "LF.acrf]"} {
		if _, err := parseDocumentRefs(in); err == nil {
			t.Errorf("parse(%q) succeeded", in)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" ALB, ,ALBUMIN ,")
	if !reflect.DeepEqual(got, []string{"ALB", "ALBUMIN"}) {
		t.Errorf("splitList = %v", got)
	}
}

func TestWhereValues(t *testing.T) {
	tests := []struct {
		cell, cmp string
		want      []string
	}{
		{"ALB, ALBUMIN", "IN", []string{"ALB", "ALBUMIN"}},
		{"ALB, ALBUMIN", "", []string{"ALB", "ALBUMIN"}},
		{"Glucose, fasting", "EQ", []string{"Glucose, fasting"}},
		{"Albumin, serum\n ALB \n", "IN", []string{"Albumin, serum", "ALB"}},
		{"Urea, blood\n", "NOTIN", []string{"Urea, blood"}},
		{"  ", "EQ", nil},
	}
	for _, tt := range tests {
		if got := whereValues(tt.cell, tt.cmp); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("whereValues(%q, %s) = %q, want %q", tt.cell, tt.cmp, got, tt.want)
		}
		if tt.want == nil {
			continue
		}
		if got := whereValues(joinWhereValues(tt.cmp, tt.want), tt.cmp); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("join then split %q = %q", tt.want, got)
		}
	}
}
