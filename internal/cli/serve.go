package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve presets, products, designs, carts and quotes over HTTP.

Stores and caches come from the configuration file; the server shuts down
gracefully on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			srv, svc, err := c.newServer(ctx)
			if err != nil {
				return err
			}
			defer svc.Close()

			if addr == "" {
				addr = svc.cfg.Server.Addr
			}
			printInfo("Listening on %s", StyleLink.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

// newServer wires an API server to the configured services. The caller
// closes the services.
func (c *CLI) newServer(ctx context.Context) (*api.Server, *services, error) {
	svc, err := c.openServices(ctx)
	if err != nil {
		return nil, nil, err
	}
	popts, err := svc.cfg.pricingOptions()
	if err != nil {
		svc.Close()
		return nil, nil, err
	}
	srv, err := api.NewServer(api.Config{
		Products: svc.products,
		Designs:  svc.designs,
		Cart:     svc.cart,
		Loader:   svc.loader,
		Pricing:  popts,
		Renderer: svc.renderer,
		MaxBody:  svc.cfg.Server.MaxBody,
	}, c.Logger)
	if err != nil {
		svc.Close()
		return nil, nil, err
	}
	return srv, svc, nil
}
