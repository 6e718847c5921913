package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/definekit/pkg/errors"
	"github.com/matzehuels/definekit/pkg/pipeline"
	"github.com/matzehuels/definekit/pkg/source"
)

// stdoutPath makes -o write the artifact to standard output.
const stdoutPath = "-"

// convertFlags holds the flags shared by bind, import and convert.
type convertFlags struct {
	output            string
	inputFormat       string
	noCache           bool
	refresh           bool
	defineVersion     string
	language          string
	stylesheet        string
	omitStylesheet    bool
	mergeSupplemental bool
	archive           bool
}

func (f *convertFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "output file (default: input name with the new extension, - for stdout)")
	fl.StringVar(&f.inputFormat, "input-format", "", "input format: xml or xlsx (default: detected)")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore cached results (still writes them)")
	fl.StringVar(&f.defineVersion, "define-version", "", "Define-XML version to write: 2.0.0 or 2.1.0 (default: as declared)")
	fl.StringVar(&f.language, "language", "", "xml:lang for translated text")
	fl.StringVar(&f.stylesheet, "stylesheet", "", "stylesheet href for the processing instruction")
	fl.BoolVar(&f.omitStylesheet, "omit-stylesheet", false, "omit the stylesheet processing instruction")
	fl.BoolVar(&f.mergeSupplemental, "merge-supplemental", false, "merge SUPP-- datasets into their parent domains")
	fl.BoolVar(&f.archive, "archive", false, "store the Define-XML output in the archive")
}

// options returns the pipeline options for cmd: configured defaults, then
// any flag the user set.
func (f *convertFlags) options(cmd *cobra.Command, base pipeline.Options) pipeline.Options {
	opts := base
	changed := cmd.Flags().Changed
	if f.inputFormat != "" {
		opts.InputFormat = f.inputFormat
	}
	if changed("define-version") {
		opts.DefineVersion = f.defineVersion
	}
	if changed("language") {
		opts.Language = f.language
	}
	if changed("stylesheet") {
		opts.Stylesheet = f.stylesheet
	}
	if changed("omit-stylesheet") {
		opts.OmitStylesheet = f.omitStylesheet
	}
	if changed("merge-supplemental") {
		opts.MergeSupplemental = f.mergeSupplemental
	}
	opts.Refresh = f.refresh
	return opts
}

// bindCommand creates the "bind" command: Define-XML to workbook.
func (c *CLI) bindCommand() *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "bind <define.xml>",
		Short: "Convert a Define-XML document into a metadata workbook",
		Long: `Bind a Define-XML 2.0/2.1 document, including Analysis Results Metadata,
and write it as a metadata workbook.

The input may be a local path or an s3://bucket/key URI.`,
		Example: `  definekit bind define.xml
  definekit bind s3://submissions/cdisc01/define.xml -o cdisc01.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], pipeline.FormatXLSX, &f)
		},
	}
	f.register(cmd)
	return cmd
}

// importCommand creates the "import" command: workbook to Define-XML.
func (c *CLI) importCommand() *cobra.Command {
	var f convertFlags
	cmd := &cobra.Command{
		Use:   "import <define.xlsx>",
		Short: "Convert a metadata workbook into a Define-XML document",
		Long: `Import a metadata workbook and write it as a Define-XML document.

Workbook problems are reported with their sheet, row and column. Missing
references are reported but do not stop the conversion.`,
		Example: `  definekit import define.xlsx
  definekit import define.xlsx --define-version 2.0.0 --archive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], pipeline.FormatXML, &f)
		},
	}
	f.register(cmd)
	return cmd
}

// convertCommand creates the "convert" command, which takes the output
// format as a flag.
func (c *CLI) convertCommand() *cobra.Command {
	var (
		f  convertFlags
		to string
	)
	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert between Define-XML and workbook formats",
		Example: `  definekit convert define.xml --to xml --define-version 2.1.0
  definekit convert define.xlsx --to xml -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(to); err != nil {
				return err
			}
			return c.runConvert(cmd, args[0], to, &f)
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "output format: xml or xlsx")
	_ = cmd.MarkFlagRequired("to")
	f.register(cmd)
	return cmd
}

// runConvert loads uri, runs the pipeline to format and writes the result.
func (c *CLI) runConvert(cmd *cobra.Command, uri, format string, f *convertFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	in, err := c.load(ctx, runner, uri)
	if err != nil {
		return err
	}
	prog.step("loaded", "input", in.Name, "bytes", len(in.Data))

	opts := f.options(cmd, c.Config.PipelineOptions())
	opts.Input = in.Data
	opts.Filename = in.Name
	opts.Format = format

	spin := newSpinner(ctx, os.Stderr, fmt.Sprintf("Converting %s...", in.Name))
	spin.Start()
	result, err := runner.Execute(ctx, opts)
	spin.Stop()
	if err != nil {
		if spin.Cancelled() {
			return ctx.Err()
		}
		return err
	}

	out := c.out()
	dest := f.output
	if dest == "" {
		dest = outputPath(uri, in.Name, format)
	}
	if dest == stdoutPath {
		if _, err := c.Out.Write(result.Artifact); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "write output")
		}
	} else {
		if err := os.WriteFile(dest, result.Artifact, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeStorage, err, "write %s", dest)
		}
		out.success("Wrote %s", StyleValue.Render(format))
		out.file(dest)
		out.stats(result.Report.Diagnostics, result.CacheInfo.ArtifactHit)
	}
	prog.done("converted", "input", in.Name, "format", format, "define_version", result.DefineVersion)

	if f.archive {
		if err := c.archiveResult(ctx, result, format); err != nil {
			return err
		}
	}

	if n := len(result.Report.Diagnostics); n > 0 && dest != stdoutPath {
		out.line("")
		out.diagnostics(result.Report.Diagnostics, 5)
		out.nextStep("Browse all diagnostics", appName+" check -i "+uri)
	}
	return nil
}

// load reads an input through the source loader, sharing the runner's cache.
func (c *CLI) load(ctx context.Context, runner *pipeline.Runner, uri string) (*source.Input, error) {
	loader, err := c.newLoader(ctx, runner.Cache, runner.Keyer)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, uri)
}

// archiveResult stores a Define-XML result in the configured archive.
func (c *CLI) archiveResult(ctx context.Context, result *pipeline.Result, format string) error {
	store, err := c.openArchive(ctx)
	if err != nil {
		return err
	}
	defer store.Close(context.WithoutCancel(ctx))

	e, err := result.Archive(ctx, store, format, time.Now)
	if err != nil {
		return err
	}
	c.out().success("Archived %s", StyleValue.Render(e.FileOID))
	return nil
}

// outputPath derives the output file from the input: same directory for
// local inputs, the working directory for remote ones. A name that would
// overwrite the input gets a suffix.
func outputPath(uri, name, format string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" {
		stem = "define"
	}
	dir := ""
	if loc, err := source.ParseURI(uri); err == nil && loc.Scheme == source.SchemeFile {
		dir = filepath.Dir(loc.Path)
	}
	p := filepath.Join(dir, stem+"."+format)
	if filepath.Base(p) == name {
		p = filepath.Join(dir, stem+"-converted."+format)
	}
	return p
}
