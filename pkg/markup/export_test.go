package markup

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/normalize"
)

func exportNormalized(t *testing.T, m *define.Model) []byte {
	t.Helper()
	if _, err := normalize.Run(m, normalize.Options{}); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	var buf bytes.Buffer
	if err := Export(m, &buf, ExportOptions{}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return buf.Bytes()
}

func TestExportFixedPoint(t *testing.T) {
	m, _ := bindFile(t, "testdata/define21.xml")
	first := exportNormalized(t, m)

	m2, diags, err := Bind(bytes.NewReader(first))
	if err != nil {
		t.Fatalf("Bind exported document: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("exported document produced diagnostics:\n%s", diags)
	}
	second := exportNormalized(t, m2)

	if !bytes.Equal(first, second) {
		t.Errorf("export is not a fixed point\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestExportContent(t *testing.T) {
	m, _ := bindFile(t, "testdata/define21.xml")
	out := string(exportNormalized(t, m))

	for _, want := range []string{
		`<?xml-stylesheet type="text/xsl" href="define2-1.xsl"?>`,
		`xmlns:def="http://www.cdisc.org/ns/def/v2.1"`,
		`xmlns:arm="http://www.cdisc.org/ns/arm/v1.0"`,
		`<StudyDescription>Test study &amp; friends</StudyDescription>`,
		`<def:Standard OID="STD.SDTMIG.3.3" Name="SDTMIG" Type="IG" Version="3.3" Status="Final"/>`,
		`<def:DocumentRef leafID="LF.acrf"/>`,
		`<def:Class Name="EVENTS"/>`,
		`<TranslatedText xml:lang="en">Sequential number within USUBJID &lt;sorted&gt;</TranslatedText>`,
		`<ExternalCodeList Dictionary="MedDRA" Version="26.0"/>`,
		`<arm:AnalysisVariable ItemOID="IT.LB.LBORRES"/>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %s", want)
		}
	}
	if n := strings.Count(out, `<ItemDef OID="IT.STUDYID"`); n != 1 {
		t.Errorf("shared ItemDef written %d times, want 1", n)
	}
}

func TestExportDefine20(t *testing.T) {
	m := define.New()
	m.Study = &define.Study{OID: "S", Name: "X", DefineVersion: "2.0.0", CreationDateTime: "2024-01-01T00:00:00"}
	_ = m.Standards.Insert("STD.SDTMIG.3.2", &define.Standard{OID: "STD.SDTMIG.3.2", Name: "SDTMIG", Type: "IG", Version: "3.2"})
	_ = m.Datasets.Insert("IG.DM", &define.Dataset{OID: "IG.DM", Name: "DM", Class: "SPECIAL PURPOSE", Description: "Demographics"})

	var buf bytes.Buffer
	if err := Export(m, &buf, ExportOptions{}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`href="define2-0-0.xsl"`,
		`xmlns:def="http://www.cdisc.org/ns/def/v2.0"`,
		`def:StandardName="SDTMIG" def:StandardVersion="3.2"`,
		`def:Class="SPECIAL PURPOSE"`,
		`<TranslatedText xml:lang="en">Demographics</TranslatedText>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %s", want)
		}
	}
	if strings.Contains(out, "def:Standards") {
		t.Error("Define-XML 2.0 output contains def:Standards")
	}
	if strings.Contains(out, "def:Label") {
		t.Error("Define-XML 2.0 ItemGroupDef carries a def:Label attribute")
	}

	back, diags, err := Bind(&buf)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if len(diags) != 0 {
		t.Errorf("diagnostics = %v", diags)
	}
	dm, _ := back.Datasets.Get("IG.DM")
	if dm.Class != "SPECIAL PURPOSE" || dm.Description != "Demographics" {
		t.Errorf("DM = %+v", dm)
	}
	if !back.Standards.Has("STD.SDTMIG.3.2") {
		t.Error("2.0 standard attributes not bound")
	}
}

func TestExportDefaults(t *testing.T) {
	m := define.New()
	m.Study = &define.Study{OID: "S", Name: "CDISC01", VersionName: "Draft"}
	fixed := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	var buf bytes.Buffer
	if err := Export(m, &buf, ExportOptions{OmitStylesheet: true, Now: func() time.Time { return fixed }}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "xml-stylesheet") {
		t.Error("stylesheet written although omitted")
	}
	if !strings.Contains(out, `CreationDateTime="2024-05-06T07:08:09"`) {
		t.Error("CreationDateTime not taken from Now")
	}
	if !strings.Contains(out, `FileOID="`+define.FileOID("CDISC01", "Draft")+`"`) {
		t.Error("FileOID not derived")
	}
	if !strings.Contains(out, `def:DefineVersion="2.1.0"`) {
		t.Error("DefineVersion default missing")
	}
}
