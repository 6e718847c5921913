package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/render/lineage"
)

// Lineage output formats.
const (
	lineageDOT = "dot"
	lineageSVG = "svg"
)

// lineageCommand creates the "lineage" command, which draws how analysis
// results trace back to datasets and variables.
func (c *CLI) lineageCommand() *cobra.Command {
	var (
		output   string
		format   string
		display  string
		detailed bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "lineage <input>",
		Short: "Draw analysis results lineage as DOT or SVG",
		Long: `Lineage follows each analysis result of the Analysis Results Metadata to
the analysis datasets, variables and parameters it uses, and draws the
graph with Graphviz.`,
		Example: `  definekit lineage define.xml -o lineage.svg
  definekit lineage define.xlsx --display RD.T14.1 --format dot -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != lineageDOT && format != lineageSVG {
				return errors.New(errors.ErrCodeInvalidFormat, "lineage format must be dot or svg, not %q", format)
			}
			ctx := cmd.Context()
			prog := newProgress(loggerFromContext(ctx))

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
			opts.Input = in.Data
			opts.Filename = in.Name

			m, _, err := runner.Prepare(ctx, opts)
			if err != nil {
				return err
			}
			prog.step("prepared model", "input", in.Name)
			g, err := lineage.Build(m, lineage.Options{Display: display})
			if err != nil {
				return err
			}

			dot := g.DOT()
			if detailed {
				dot = g.DetailedDOT()
			}
			data := []byte(dot)
			if format == lineageSVG {
				if data, err = lineage.RenderSVG(dot); err != nil {
					return err
				}
			}

			if output == "" {
				output = outputPath(args[0], in.Name, format)
			}
			if output == stdoutPath {
				_, err := c.Out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Wrap(errors.ErrCodeStorage, err, "write %s", output)
			}
			out := c.out()
			out.success("Drew %d nodes and %d edges", len(g.Nodes), len(g.Edges))
			out.file(output)
			prog.done("lineage", "input", in.Name, "format", format)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: input name with the format extension, - for stdout)")
	cmd.Flags().StringVar(&format, "format", lineageSVG, "output format: dot or svg")
	cmd.Flags().StringVar(&display, "display", "", "restrict the graph to one result display OID")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include descriptions in node labels")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	return cmd
}
