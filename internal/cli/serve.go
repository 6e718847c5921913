package cli

import (
	"context"
	stderrors "errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/definekit/internal/metrics"
	"github.com/matzehuels/definekit/internal/server"
	"github.com/matzehuels/definekit/pkg/archive"
)

// serveCommand creates the "serve" command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noCache   bool
		noArchive bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes check, convert and lineage over HTTP, together with the
archive when one is configured and Prometheus metrics on /metrics.`,
		Example: `  definekit serve
  definekit serve --addr :9090 --config prod.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			m := metrics.New()
			m.Install()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			var store archive.Store
			if !noArchive && c.Config.Archive.MongoURI != "" {
				if store, err = c.openArchive(ctx); err != nil {
					return err
				}
				defer store.Close(context.WithoutCancel(ctx))
				c.Logger.Info("archive enabled", "database", c.Config.Archive.Database, "collection", c.Config.Archive.Collection)
			}

			srv := server.New(server.Options{
				Runner:       runner,
				Defaults:     c.Config.PipelineOptions(),
				Archive:      store,
				Metrics:      m,
				Logger:       c.Logger,
				MaxBodyBytes: cfg.MaxBodyBytes,
			})
			err = srv.ListenAndServe(ctx, cfg.Addr, cfg.ReadTimeout, cfg.WriteTimeout)
			if stderrors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "do not connect to the archive")

	return cmd
}
