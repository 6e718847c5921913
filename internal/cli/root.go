package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/definekit/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The configuration is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "definekit converts between Define-XML and metadata workbooks",
		Long: `definekit binds CDISC Define-XML 2.0/2.1 documents (with Analysis Results
Metadata) and the equivalent metadata workbook into one model, checks its
cross references, and writes it back as Define-XML or as a workbook.`,
		Version:      buildinfo.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./definekit.toml)")

	root.AddCommand(c.bindCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.lineageCommand())
	root.AddCommand(c.archiveCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// versionCommand prints the build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(c.Out, buildinfo.String())
			return nil
		},
	}
}
