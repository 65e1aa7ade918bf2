package cli

import (
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/placement"
)

var defaultPreviewItems = []string{"Copy", "Cut", "Paste", "Duplicate", "Rename", "Share", "Delete"}

// previewOptions are the placement defaults at terminal scale, where one
// unit is a character cell instead of a pixel.
func previewOptions(base placement.Options) placement.Options {
	base.Offset = 0
	base.Margin = 1
	base.Tolerance = 0
	base.CursorOffset.X, base.CursorOffset.Y = 1, 1
	return base
}

// previewCommand creates the interactive placement playground.
func (c *CLI) previewCommand() *cobra.Command {
	var flags placementFlags
	var items []string
	var logPath string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Interactive placement playground in the terminal",
		Long: `Open an interactive playground that uses the terminal as the viewport.

Move the button with the arrow keys and watch the menu flip and clamp at the
edges. Resizing the terminal repositions the menu after the configured
reposition delay. Typing letters jumps to the first matching item.`,
		Example: `  anchor preview
  anchor preview --side bottom --align center --items Open,Save,Close
  anchor preview --log preview.log -v`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			o, err := flags.options(cmd, previewOptions(cfg.PlacementOptions()))
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return errs.New(errs.ErrCodeInvalidInput, "preview needs at least one item")
			}

			// The alternate screen owns the terminal; logs go to --log or nowhere.
			var w io.Writer = io.Discard
			if logPath != "" {
				f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return errs.Wrap(errs.ErrCodeInvalidInput, err, "open log %s", logPath)
				}
				defer f.Close()
				w = f
			}
			ctx := withLogger(cmd.Context(), newLogger(w, c.Logger.GetLevel()))

			m := newPlaygroundModel(ctx, playgroundConfig{
				options:    o,
				items:      items,
				reposition: cfg.Debounce.Reposition.Duration,
				close:      cfg.Debounce.Close.Duration,
				typeahead:  cfg.Debounce.Typeahead.Duration,
			})
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if err != nil {
				return err
			}

			fm, ok := final.(PlaygroundModel)
			if !ok || fm.Chosen == "" {
				printDetail("No item picked")
				return nil
			}
			printSuccess("Picked %s", StyleHighlight.Render(fm.Chosen))
			printKeyValue("side", fm.Options.Side.String())
			printKeyValue("align", fm.Options.Align.String())
			if fm.Err != nil {
				printWarning("last placement failed: %s", strings.TrimSpace(errs.UserMessage(fm.Err)))
			}
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringSliceVar(&items, "items", defaultPreviewItems, "menu items")
	cmd.Flags().StringVar(&logPath, "log", "", "append debug logs to this file")
	return cmd
}
