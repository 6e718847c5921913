package cli

import (
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/definekit/pkg/define"
	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/pipeline"
)

// checkCommand creates the "check" command, which binds and normalizes an
// input and reports what it found without writing anything.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		asJSON            bool
		interactive       bool
		limit             int
		noCache           bool
		refresh           bool
		inputFormat       string
		mergeSupplemental bool
	)

	cmd := &cobra.Command{
		Use:   "check <input>",
		Short: "Report diagnostics for a Define-XML document or workbook",
		Long: `Check binds and normalizes the input, then lists its diagnostics: malformed
cells, unknown references and structural problems, errors first.

The command exits with a non-zero status when any error is found.`,
		Example: `  definekit check define.xlsx
  definekit check define.xml --json
  definekit check define.xlsx -i`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			in, err := c.load(ctx, runner, args[0])
			if err != nil {
				return err
			}

			opts := c.Config.PipelineOptions()
			if cmd.Flags().Changed("merge-supplemental") {
				opts.MergeSupplemental = mergeSupplemental
			}
			opts.Input = in.Data
			opts.Filename = in.Name
			opts.InputFormat = inputFormat
			opts.Refresh = refresh

			report, cached, err := runner.CheckWithCacheInfo(ctx, opts)
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				enc := json.NewEncoder(c.Out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			case interactive && isTerminal(os.Stdout):
				title := fmt.Sprintf("%s · %s", orDash(report.Study), in.Name)
				if _, err := tea.NewProgram(NewDiagnosticsModel(title, report.Diagnostics), tea.WithContext(ctx)).Run(); err != nil {
					return err
				}
			default:
				if interactive {
					c.Logger.Warn("not a terminal; printing diagnostics instead")
				}
				c.printCheck(report, cached, limit)
			}

			if report.HasErrors() {
				return errors.New(errors.ErrCodePrecondition, "%s has %d errors", in.Name, report.Diagnostics.Count(define.SeverityError))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse diagnostics interactively")
	cmd.Flags().IntVar(&limit, "max", 20, "maximum diagnostics to print (0 for all)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results (still writes them)")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "input format: xml or xlsx (default: detected)")
	cmd.Flags().BoolVar(&mergeSupplemental, "merge-supplemental", false, "merge SUPP-- datasets into their parent domains")

	return cmd
}

func (c *CLI) printCheck(report *pipeline.Report, cached bool, limit int) {
	out := c.out()
	out.report(report)
	out.line("")
	if len(report.Diagnostics) == 0 {
		out.success("No problems found")
	} else {
		out.diagnostics(report.Diagnostics, limit)
	}
	out.stats(report.Diagnostics, cached)
	switch errs, warns := report.Diagnostics.Count(define.SeverityError), report.Diagnostics.Count(define.SeverityWarning); {
	case errs > 0:
		out.failure("%d errors must be fixed before the define can be exported", errs)
	case warns > 0:
		out.warning("%d warnings; the export will still be written", warns)
	}
}
