package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/markup"
	"github.com/matzehuels/definekit/pkg/observability"
	"github.com/matzehuels/definekit/pkg/workbook"
)

// Render serializes a normalized model in opts.Format. When
// opts.DefineVersion is set it replaces the study's version first, which
// selects the Define-XML 2.0 or 2.1 writer.
func Render(ctx context.Context, m *define.Model, opts Options) ([]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	if opts.Format == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "format is required")
	}
	if m.Study == nil {
		return nil, errors.New(errors.ErrCodePrecondition, "cannot serialize a model without a study")
	}
	if opts.DefineVersion != "" {
		m.Study.DefineVersion = opts.DefineVersion
	}

	start := time.Now()
	var buf bytes.Buffer
	var err error
	switch opts.Format {
	case FormatXLSX:
		err = workbook.WriteWorkbook(workbook.ToWorkbook(m), &buf)
	default:
		err = markup.Export(m, &buf, opts.ExportOptions())
	}
	observability.Pipeline().OnRenderComplete(ctx, opts.Format, buf.Len(), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", opts.Format)
	}
	return buf.Bytes(), nil
}
