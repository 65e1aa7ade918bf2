package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/anchor/internal/server"
	"github.com/matzehuels/anchor/pkg/config"
)

// serveCommand creates the serve command for the HTTP placement API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the placement engine over HTTP",
		Long: `Serve the placement engine over HTTP.

Routes:
  GET  /healthz           build information
  POST /v1/place/around   trigger-mode placement
  POST /v1/place/cursor   pointer-mode placement

Placement routes return JSON, or an SVG preview with ?format=svg.
Requests are rate limited according to the [server] config section.`,
		Example: `  anchor serve
  anchor serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)
			printInfo("Serving on %s %s", StyleHighlight.Render("http://"+cfg.Server.Addr), StyleDim.Render("(Ctrl+C to stop)"))
			if err := server.New(cfg, logger).ListenAndServe(cmd.Context()); err != nil {
				return err
			}
			prog.done("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, "+config.DefaultAddr+")")
	return cmd
}
