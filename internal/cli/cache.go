package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/definekit/internal/config"
	"github.com/matzehuels/definekit/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached reports, artifacts and inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := c.newCache(ctx, false)
			if err != nil {
				return err
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				c.out().info("Caching is disabled; nothing to clear")
				return nil
			}
			fc, isFile := cc.(*cache.FileCache)
			var entries int
			var size int64
			if isFile {
				if entries, size, err = fc.Size(ctx); err != nil {
					return err
				}
			}
			if err := clearer.Clear(ctx); err != nil {
				return err
			}
			c.out().success("Cleared the %s cache", c.Config.Cache.Backend)
			if isFile {
				c.out().detail("Removed %d entries (%s) from %s", entries, formatBytes(size), fc.Dir())
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Cache
			switch cfg.Backend {
			case config.BackendRedis:
				fmt.Fprintf(c.Out, "redis://%s/%d %s*\n", cfg.RedisAddr, cfg.RedisDB, cfg.Prefix)
				return nil
			case config.BackendNone:
				c.out().info("Caching is disabled")
				return nil
			}
			dir := cfg.Dir
			if dir == "" {
				var err error
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
