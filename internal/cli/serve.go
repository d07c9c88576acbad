package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/depweight/pkg/api"
)

// serveCommand creates the command that serves stored runs over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		storeURI string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if storeURI != "" {
				cfg.Store.URI = storeURI
			}

			store, err := c.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			srv, err := api.New(store, api.Options{
				Addr:         cfg.Server.Addr,
				RunCacheSize: cfg.Server.RunCacheSize,
				Logger:       c.Logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&storeURI, "store", "", "run store: a directory or mongodb:// URI")
	return cmd
}
