package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/definekit/pkg/archive"
	"github.com/matzehuels/definekit/pkg/errors"
)

// archiveCommand creates the archive management command.
func (c *CLI) archiveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List, fetch and remove archived Define-XML documents",
		Long: `The archive keeps the latest Define-XML document per File OID in MongoDB.
Documents are added with "convert --archive" or "import --archive".`,
	}

	cmd.AddCommand(c.archiveListCommand())
	cmd.AddCommand(c.archiveGetCommand())
	cmd.AddCommand(c.archiveRemoveCommand())

	return cmd
}

// withArchive opens the configured archive for the duration of fn.
func (c *CLI) withArchive(ctx context.Context, fn func(archive.Store) error) error {
	store, err := c.openArchive(ctx)
	if err != nil {
		return err
	}
	defer store.Close(context.WithoutCancel(ctx))
	return fn(store)
}

func (c *CLI) archiveListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withArchive(cmd.Context(), func(s archive.Store) error {
				entries, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				c.printEntries(entries, time.Now())
				return nil
			})
		},
	}
}

func (c *CLI) printEntries(entries []*archive.Entry, now time.Time) {
	out := c.out()
	if len(entries) == 0 {
		out.info("Archive is empty")
		return
	}
	for _, e := range entries {
		out.line(fmt.Sprintf("%s  %s  %s  %s",
			StyleValue.Render(e.FileOID),
			StyleDim.Render(orDash(e.Study)),
			StyleDim.Render(e.DefineVersion),
			StyleDim.Render(formatRelativeTime(e.ArchivedAt, now))))
	}
}

func (c *CLI) archiveGetCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get <file-oid>",
		Short: "Write an archived document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateOID(args[0]); err != nil {
				return err
			}
			return c.withArchive(cmd.Context(), func(s archive.Store) error {
				e, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output == "" || output == stdoutPath {
					_, err := c.Out.Write(e.Document)
					return err
				}
				if err := os.WriteFile(output, e.Document, 0o644); err != nil {
					return errors.Wrap(errors.ErrCodeStorage, err, "write %s", output)
				}
				c.out().success("Wrote %s", StyleValue.Render(e.FileOID))
				c.out().file(output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) archiveRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <file-oid>",
		Aliases: []string{"remove"},
		Short:   "Remove an archived document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateOID(args[0]); err != nil {
				return err
			}
			return c.withArchive(cmd.Context(), func(s archive.Store) error {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				c.out().success("Removed %s", StyleValue.Render(args[0]))
				return nil
			})
		},
	}
}
