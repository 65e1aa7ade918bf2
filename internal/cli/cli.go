package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/anchor/pkg/buildinfo"
	"github.com/matzehuels/anchor/pkg/config"
	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/placement"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and completion scripts.
const appName = "anchor"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath overrides the default config location (--config).
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Anchor places floating UI surfaces inside the viewport",
		Long:         `Anchor computes where dropdowns, submenus, tooltips and context menus go so they stay on screen: it picks a side, aligns, falls back to the opposite side on collision, and clamps to the viewport margins.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/anchor/config.toml)")

	root.AddCommand(c.placeCommand())
	root.AddCommand(c.cursorCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config Helpers
// =============================================================================

// loadConfig reads --config when given, otherwise the default file if it
// exists, otherwise the built-in defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configPath != "" {
		return config.Load(c.configPath)
	}
	return config.LoadDefault()
}

// placementFlags are the per-invocation overrides shared by place, cursor
// and preview.
type placementFlags struct {
	side      string
	align     string
	offset    float64
	cursorX   float64
	cursorY   float64
	margin    float64
	tolerance float64
}

func (f *placementFlags) register(cmd *cobra.Command, cursor bool) {
	if !cursor {
		cmd.Flags().StringVarP(&f.side, "side", "s", "", "preferred side: top, right, bottom, left")
		cmd.Flags().StringVarP(&f.align, "align", "a", "", "alignment: start, center, end")
		cmd.Flags().Float64Var(&f.offset, "offset", 0, "gap between trigger and floating element")
	} else {
		cmd.Flags().Float64Var(&f.cursorX, "offset-x", 0, "horizontal distance from the pointer")
		cmd.Flags().Float64Var(&f.cursorY, "offset-y", 0, "vertical distance from the pointer")
	}
	cmd.Flags().Float64Var(&f.margin, "margin", 0, "minimum distance from viewport edges")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "subpixel slack for overflow tests")
}

// options applies the flags the user actually set on top of base.
func (f *placementFlags) options(cmd *cobra.Command, base placement.Options) (placement.Options, error) {
	o := base
	flags := cmd.Flags()
	if flags.Changed("side") {
		side, err := geometry.ParseSide(f.side)
		if err != nil {
			return o, err
		}
		o.Side = side
	}
	if flags.Changed("align") {
		al, err := geometry.ParseAlignment(f.align)
		if err != nil {
			return o, err
		}
		o.Align = al
	}
	if flags.Changed("offset") {
		o.Offset = f.offset
	}
	if flags.Changed("offset-x") {
		o.CursorOffset.X = f.cursorX
	}
	if flags.Changed("offset-y") {
		o.CursorOffset.Y = f.cursorY
	}
	if flags.Changed("margin") {
		o.Margin = f.margin
	}
	if flags.Changed("tolerance") {
		o.Tolerance = f.tolerance
	}
	return o, o.Validate()
}
