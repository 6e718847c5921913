package pipeline

import (
	"context"
	"testing"

	"github.com/matzehuels/definekit/pkg/archive"
	"github.com/matzehuels/definekit/pkg/errors"
)

func TestResultArchive(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(newMemCache(), nil, nil)
	store := archive.NewMemory()
	opts := Options{Input: readSample(t), Format: FormatXML, DefineVersion: "2.0.0", Now: fixedNow}

	res, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	e, err := res.Archive(ctx, store, opts.Format, fixedNow)
	if err != nil {
		t.Fatalf("Archive() error: %v", err)
	}
	if e.FileOID != "DEF.CDISC01" || e.DefineVersion != "2.0.0" {
		t.Errorf("entry = %+v", e)
	}

	// A cached result carries enough to archive it again.
	cached, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !cached.CacheInfo.ArtifactHit {
		t.Fatal("second run should hit the cache")
	}
	e2, err := cached.ArchiveEntry(opts.Format, fixedNow)
	if err != nil {
		t.Fatalf("ArchiveEntry() error: %v", err)
	}
	if e2.FileOID != e.FileOID || e2.DefineVersion != "2.0.0" || string(e2.Document) != string(res.Artifact) {
		t.Errorf("cached entry = %+v", e2)
	}

	got, err := store.Get(ctx, "DEF.CDISC01")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.Document) != string(res.Artifact) {
		t.Error("archived document differs from the artifact")
	}
}

func TestResultArchiveRejectsWorkbook(t *testing.T) {
	res := &Result{Report: Report{FileOID: "DEF.X"}}
	if _, err := res.ArchiveEntry(FormatXLSX, nil); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("ArchiveEntry(xlsx) error = %v, want UNSUPPORTED", err)
	}
	empty := &Result{}
	if _, err := empty.ArchiveEntry(FormatXML, nil); !errors.Is(err, errors.ErrCodePrecondition) {
		t.Errorf("ArchiveEntry(no study) error = %v, want PRECONDITION", err)
	}
}
