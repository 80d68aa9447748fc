package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mindmap/pkg/server"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		autosave time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the maps API over HTTP",
		Long: `Serve the configured store over HTTP.

  GET    /api/maps               list maps
  GET    /api/maps?id=<id>       fetch one map
  POST   /api/maps               save a map
  DELETE /api/maps/{id}          delete a map
  GET    /api/maps/{id}/layout   computed layout
  POST   /api/maps/{id}/ops      apply one edit

Set server.password_hash in the config file (see 'mindmap config
hash-password') to require HTTP Basic authentication. Edits made through
/ops are saved after the map's autosave delay and flushed on shutdown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			srvCfg := cfg.Server
			if addr != "" {
				srvCfg.Addr = addr
			}
			srvCfg.AutosaveDelay = autosave
			return c.runServe(cmd.Context(), srvCfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr or :5000)")
	cmd.Flags().DurationVar(&autosave, "autosave", 0, "override the autosave delay of every map")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg server.Config) error {
	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := server.New(st, cfg, c.Logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			c.Logger.Info("Received shutdown signal")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	// An interrupt is the normal way to stop the server.
	return nil
}
