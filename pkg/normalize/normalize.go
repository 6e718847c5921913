package normalize

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
)

// ErrNoStudy is returned by [Run] for a model without a Study record.
var ErrNoStudy = errors.New(errors.ErrCodePrecondition, "model has no study")

// Options configures [Run].
type Options struct {
	// MergeSupplemental folds SUPPxx/SQxx datasets into their parent domain.
	MergeSupplemental bool

	// Logger receives per-pass debug output. Defaults to a discard logger.
	Logger *log.Logger
}

// pass is one normalization step.
type pass struct {
	name string
	run  func(m *define.Model, c *define.RefChecker)
}

// Run applies the normalization passes to m in place and returns the
// diagnostics they produced. It fails only when m has no study.
func Run(m *define.Model, opts Options) (define.Diagnostics, error) {
	if m == nil || m.Study == nil {
		return nil, ErrNoStudy
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	passes := []pass{
		{"link value level", LinkValueLevel},
	}
	if opts.MergeSupplemental {
		passes = append(passes, pass{"merge supplemental", MergeSupplemental})
	}
	passes = append(passes,
		pass{"assign ordinals", func(m *define.Model, _ *define.RefChecker) { AssignOrdinals(m) }},
		pass{"detect common", func(m *define.Model, _ *define.RefChecker) { DetectCommon(m) }},
		pass{"resolve analysis results", ResolveAnalysisResults},
	)

	c := define.NewRefChecker()
	for _, p := range passes {
		start := time.Now()
		before := len(c.Diagnostics())
		p.run(m, c)
		logger.Debug("normalize pass",
			"pass", p.name,
			"diagnostics", len(c.Diagnostics())-before,
			"duration", time.Since(start))
	}
	return c.Diagnostics(), nil
}
