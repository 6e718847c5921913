package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/markup"
	"github.com/matzehuels/definekit/pkg/normalize"
	"github.com/matzehuels/definekit/pkg/observability"
	"github.com/matzehuels/definekit/pkg/workbook"
)

// Parse binds or imports opts.Input according to opts.InputFormat. The error
// is non-nil only for input that cannot be read at all; every other problem
// is returned as a diagnostic.
func Parse(ctx context.Context, opts Options) (*define.Model, define.Diagnostics, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, opts.InputFormat)
	start := time.Now()

	var (
		m     *define.Model
		diags define.Diagnostics
		err   error
	)
	r := bytes.NewReader(opts.Input)
	switch opts.InputFormat {
	case FormatXLSX:
		m, diags, err = workbook.Load(r)
	default:
		m, diags, err = markup.Bind(r)
	}
	hooks.OnParseComplete(ctx, opts.InputFormat, len(diags), time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return m, diags, nil
}

// Normalize runs the normalization passes on m. A model without a study
// cannot be normalized; that is reported as an error diagnostic so that
// callers can still list the problems that led to it.
func Normalize(ctx context.Context, m *define.Model, opts Options) define.Diagnostics {
	start := time.Now()
	diags, err := normalize.Run(m, normalize.Options{
		MergeSupplemental: opts.MergeSupplemental,
		Logger:            opts.Logger,
	})
	observability.Pipeline().OnNormalizeComplete(ctx, len(diags), time.Since(start), err)
	if err != nil {
		return define.Diagnostics{define.Errorf("%s; normalization skipped", errorMessage(err))}
	}
	return diags
}

func errorMessage(err error) string {
	if err == normalize.ErrNoStudy {
		return "model has no study"
	}
	return err.Error()
}
