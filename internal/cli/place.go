package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/anchor/pkg/errors"
	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/measure"
	"github.com/matzehuels/anchor/pkg/placement"
	"github.com/matzehuels/anchor/pkg/position"
	"github.com/matzehuels/anchor/pkg/render"
)

// =============================================================================
// Options
// =============================================================================

// sceneOpts holds the flags common to every command that reads a scene file.
type sceneOpts struct {
	root     string
	floating string
	svg      string
	json     bool
	flags    placementFlags
}

func (o *sceneOpts) register(cmd *cobra.Command, cursor bool) {
	cmd.Flags().StringVarP(&o.floating, "floating", "f", "floating", "handle of the floating element")
	cmd.Flags().StringVar(&o.root, "root", "", "gjson path of the scene inside the file (e.g. frames.2)")
	cmd.Flags().StringVarP(&o.svg, "svg", "o", "", "also write an SVG preview to this path")
	cmd.Flags().BoolVar(&o.json, "json", false, "print the result as JSON")
	o.flags.register(cmd, cursor)
}

// resultJSON is the --json output of place and cursor.
type resultJSON struct {
	placement.Result
	Transform string `json:"transform"`
}

// =============================================================================
// Commands
// =============================================================================

// placeCommand creates the place command for trigger-mode placement.
func (c *CLI) placeCommand() *cobra.Command {
	var opts sceneOpts
	var trigger string

	cmd := &cobra.Command{
		Use:   "place [scene.json]",
		Short: "Position a floating element around a trigger",
		Long: `Position a floating element next to a trigger element.

The scene file holds the viewport size and the rects of named elements:

  {"viewport": {"width": 800, "height": 600},
   "elements": {"button": {"x": 10, "y": 10, "width": 80, "height": 24},
                "menu":   {"width": 160, "height": 240}}}

The preferred side is tried first, then its opposite, and the final
position is clamped to the viewport margins.`,
		Example: `  anchor place scene.json --trigger button --floating menu
  anchor place scene.json -t button -f menu --side bottom --align center --json
  anchor place capture.json --root frames.3 -t button -f menu -o menu.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPlace(cmd, args[0], trigger, &opts)
		},
	}

	cmd.Flags().StringVarP(&trigger, "trigger", "t", "trigger", "handle of the trigger element")
	opts.register(cmd, false)
	return cmd
}

// cursorCommand creates the cursor command for pointer-mode placement.
func (c *CLI) cursorCommand() *cobra.Command {
	var opts sceneOpts
	var at string

	cmd := &cobra.Command{
		Use:   "cursor [scene.json]",
		Short: "Position a floating element at the pointer",
		Long: `Position a floating element at a pointer location, as a context menu.

The element opens down and to the right of the pointer and flips to the
other side on each axis that would overflow. The pointer comes from --at
or from the "cursor" field of the scene file.`,
		Example: `  anchor cursor scene.json --floating menu --at 640,400
  anchor cursor scene.json -f menu --offset-x 2 --offset-y 2 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCursor(cmd, args[0], at, &opts)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "pointer position as X,Y (default: scene cursor)")
	opts.register(cmd, true)
	return cmd
}

// =============================================================================
// Execution
// =============================================================================

func (c *CLI) runPlace(cmd *cobra.Command, path, trigger string, opts *sceneOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	scene, o, err := c.prepare(cmd, path, opts)
	if err != nil {
		return err
	}

	floating := measure.Handle(opts.floating)
	res, err := position.NewService(scene.Provider(), logger).Around(ctx, measure.Handle(trigger), floating, o)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Placed %s around %s", floating, trigger))

	tr, _ := scene.Rect(measure.Handle(trigger))
	fr, _ := scene.Rect(floating)
	return c.report(cmd, opts, res, render.Frame{
		Viewport: scene.Viewport,
		Floating: fr,
		Options:  o,
		Result:   res,
		Trigger:  &tr,
		Title:    string(floating),
	})
}

func (c *CLI) runCursor(cmd *cobra.Command, path, at string, opts *sceneOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	scene, o, err := c.prepare(cmd, path, opts)
	if err != nil {
		return err
	}

	var cursor geometry.Point
	switch {
	case at != "":
		if cursor, err = parsePoint(at); err != nil {
			return err
		}
	case scene.Cursor != nil:
		cursor = *scene.Cursor
	default:
		return errs.New(errs.ErrCodeInvalidInput, "no pointer position: pass --at or add \"cursor\" to the scene")
	}

	floating := measure.Handle(opts.floating)
	res, err := position.NewService(scene.Provider(), logger).AtCursor(ctx, floating, cursor, o)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Placed %s at %s", floating, geometry.Position(cursor)))

	fr, _ := scene.Rect(floating)
	return c.report(cmd, opts, res, render.Frame{
		Viewport: scene.Viewport,
		Floating: fr,
		Options:  o,
		Result:   res,
		Cursor:   &cursor,
		Title:    string(floating),
	})
}

// prepare loads the config and scene and resolves the effective options.
func (c *CLI) prepare(cmd *cobra.Command, path string, opts *sceneOpts) (*measure.Scene, placement.Options, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, placement.Options{}, err
	}
	o, err := opts.flags.options(cmd, cfg.PlacementOptions())
	if err != nil {
		return nil, placement.Options{}, err
	}

	loggerFromContext(cmd.Context()).Debug("loading scene", "path", path, "root", opts.root)
	scene, err := measure.LoadSceneFile(path, opts.root)
	if err != nil {
		return nil, placement.Options{}, err
	}
	return scene, o, nil
}

// report prints the result and writes the optional SVG preview.
func (c *CLI) report(cmd *cobra.Command, opts *sceneOpts, res placement.Result, frame render.Frame) error {
	if opts.svg != "" {
		if err := writeSVG(cmd.Context(), opts.svg, frame); err != nil {
			return err
		}
	}

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resultJSON{Result: res, Transform: measure.TransformCSS(res.Position)})
	}

	printResult(res)
	printKeyValue("transform", measure.TransformCSS(res.Position))
	if opts.svg != "" {
		printFile(opts.svg)
	}
	return nil
}

func writeSVG(ctx context.Context, path string, frame render.Frame) error {
	data := render.RenderSVG(frame, render.WithMarginGuide(), render.WithRejected(), render.WithLabels())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "write %s", path)
	}
	loggerFromContext(ctx).Debug("wrote preview", "path", path, "bytes", len(data))
	return nil
}

// parsePoint parses "X,Y" into a point.
func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, errs.New(errs.ErrCodeInvalidInput, "pointer %q: want X,Y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "pointer x %q", xs)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "pointer y %q", ys)
	}
	return geometry.Point{X: x, Y: y}, nil
}
