package cli

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/definekit/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for definekit.

Bash:
  $ source <(definekit completion bash)

Zsh:
  $ definekit completion zsh > "${fpath[1]}/_definekit"

Fish:
  $ definekit completion fish > ~/.config/fish/completions/definekit.fish

PowerShell:
  PS> definekit completion powershell | Out-String | Invoke-Expression

Besides commands and flags, the scripts complete output formats, Define-XML
versions and input files with the extensions definekit reads.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(c.Out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(c.Out)
			case "fish":
				return cmd.Root().GenFishCompletion(c.Out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(c.Out)
			}
			return nil
		},
	}

	return cmd
}

// inputExtensions are the file extensions offered for input arguments.
var inputExtensions = []string{"xml", "xlsx", "xlsm"}

// completeInputs completes the single input argument with define files.
func completeInputs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return inputExtensions, cobra.ShellCompDirectiveFilterFileExt
}

// fixedValues completes a flag from a fixed list.
func fixedValues(values ...string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, v := range values {
			if strings.HasPrefix(v, toComplete) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}

// registerCompletions wires argument and flag value completion into the
// commands that take define inputs. Flags a command lacks are skipped.
func registerCompletions(root *cobra.Command) {
	formats := sortedKeys(pipeline.ValidFormats)
	versions := sortedKeys(pipeline.ValidDefineVersions)
	flags := map[string]cobra.CompletionFunc{
		"to":             fixedValues(formats...),
		"input-format":   fixedValues(formats...),
		"define-version": fixedValues(versions...),
	}
	for _, cmd := range root.Commands() {
		switch cmd.Name() {
		case "bind", "import", "convert", "check", "lineage":
			cmd.ValidArgsFunction = completeInputs
		}
		for name, fn := range flags {
			if cmd.Flags().Lookup(name) != nil {
				_ = cmd.RegisterFlagCompletionFunc(name, fn)
			}
		}
		if cmd.Name() == "lineage" {
			_ = cmd.RegisterFlagCompletionFunc("format", fixedValues(lineageDOT, lineageSVG))
		}
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
