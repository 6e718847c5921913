package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/definekit/pkg/archive"
	"github.com/matzehuels/definekit/pkg/errors"
)

// ArchiveEntry builds the archive entry for a Define-XML result. It works
// for cached results too, since it only needs the report.
func (r *Result) ArchiveEntry(format string, now func() time.Time) (*archive.Entry, error) {
	if format != FormatXML {
		return nil, errors.New(errors.ErrCodeUnsupported, "only Define-XML output can be archived, not %s", format)
	}
	if r.Report.FileOID == "" {
		return nil, errors.New(errors.ErrCodePrecondition, "cannot archive a model without a study")
	}
	id := archive.Identity{
		FileOID:       r.Report.FileOID,
		Study:         r.Report.Study,
		DefineVersion: r.DefineVersion,
	}
	return archive.NewEntry(id, r.Report.InputHash, r.Artifact, r.Report.Diagnostics, now)
}

// Archive stores the result in store. See [Result.ArchiveEntry].
func (r *Result) Archive(ctx context.Context, store archive.Store, format string, now func() time.Time) (*archive.Entry, error) {
	e, err := r.ArchiveEntry(format, now)
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
