package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/anchor/pkg/debounce"
	"github.com/matzehuels/anchor/pkg/geometry"
	"github.com/matzehuels/anchor/pkg/measure"
	"github.com/matzehuels/anchor/pkg/placement"
	"github.com/matzehuels/anchor/pkg/position"
)

const (
	triggerHandle  measure.Handle = "trigger"
	floatingHandle measure.Handle = "menu"

	// chromeHeight is the number of terminal rows used outside the canvas:
	// the canvas border, the status table, the key hints and the error line.
	chromeHeight = 10
	minCanvas    = 8
)

// Canvas styles
var (
	canvasBorderStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	canvasTriggerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	canvasMenuStyle     = lipgloss.NewStyle().Foreground(colorWhite)
	canvasSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	canvasDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PlaygroundModel - Interactive placement preview
// =============================================================================

// taskDoneMsg reports that a debounced reposition or close has settled.
type taskDoneMsg struct{ err error }

// refreshMsg asks for a redraw after asynchronous state changed.
type refreshMsg struct{}

// PlaygroundModel is the bubbletea model for the preview command. The
// terminal is the viewport, one cell per unit; a button can be moved around
// with the arrow keys and a menu is anchored to it (or to a pointer).
type PlaygroundModel struct {
	ctx       context.Context
	static    *measure.Static
	applied   *measure.Recorder
	surface   *position.Surface
	typeahead *position.Typeahead
	typeDelay time.Duration

	Items      []string
	Selected   int
	Chosen     string
	Options    placement.Options
	Trigger    geometry.Rect
	Cursor     geometry.Point
	CursorMode bool
	Width      int
	Height     int
	Err        error
}

// playgroundConfig carries the delays used by the preview.
type playgroundConfig struct {
	options    placement.Options
	items      []string
	reposition time.Duration
	close      time.Duration
	typeahead  time.Duration
}

// newPlaygroundModel creates a playground whose menu lists items.
func newPlaygroundModel(ctx context.Context, cfg playgroundConfig) PlaygroundModel {
	logger := loggerFromContext(ctx)
	static := measure.NewStatic(geometry.ViewportSize{})
	rec := measure.NewRecorder()

	width := 0
	for _, item := range cfg.items {
		width = max(width, len([]rune(item)))
	}
	static.Set(floatingHandle, geometry.NewRect(0, 0, float64(width+4), float64(len(cfg.items)+2)))

	trigger := geometry.NewRect(2, 1, 10, 1)
	static.Set(triggerHandle, trigger)

	svc := position.NewService(static, logger)
	return PlaygroundModel{
		ctx:     ctx,
		static:  static,
		applied: rec,
		surface: position.NewSurface(svc, rec, floatingHandle, cfg.options,
			position.WithRepositionDelay(cfg.reposition),
			position.WithCloseDelay(cfg.close),
		),
		typeahead: position.NewTypeahead(cfg.items, cfg.typeahead, debounce.WithLogger(logger)),
		typeDelay: cfg.typeahead,
		Items:     cfg.items,
		Options:   cfg.options,
		Trigger:   trigger,
	}
}

func (m PlaygroundModel) Init() tea.Cmd {
	return nil
}

func (m PlaygroundModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = max(msg.Width-2, minCanvas)
		m.Height = max(msg.Height-chromeHeight, minCanvas)
		m.static.SetViewport(geometry.ViewportSize{Width: float64(m.Width), Height: float64(m.Height)})
		if !m.surface.IsOpen() {
			m.open()
			return m, nil
		}
		return m, waitTask(m.ctx, m.surface.Reposition(m.ctx))

	case taskDoneMsg:
		m.Err = msg.err
		return m, nil

	case refreshMsg:
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.shutdown()
			return m, tea.Quit
		case "enter":
			if len(m.Items) > 0 {
				m.Chosen = m.Items[m.Selected]
			}
			m.shutdown()
			return m, tea.Quit
		case "up":
			m.move(0, -1)
		case "down":
			m.move(0, 1)
		case "left":
			m.move(-2, 0)
		case "right":
			m.move(2, 0)
		case "tab":
			m.Options.Side = nextSide(m.Options.Side)
			m.surface.SetOptions(m.Options)
			m.open()
		case "shift+tab":
			m.Options.Align = geometry.Alignments[(int(m.Options.Align)+1)%len(geometry.Alignments)]
			m.surface.SetOptions(m.Options)
			m.open()
		case "ctrl+t":
			m.CursorMode = !m.CursorMode
			m.open()
		case "ctrl+x":
			return m, waitTask(m.ctx, m.surface.ScheduleClose(m.ctx))
		case "ctrl+o":
			m.open()
		default:
			if msg.Type != tea.KeyRunes {
				return m, nil
			}
			for _, r := range msg.Runes {
				if idx, ok := m.typeahead.Type(m.ctx, r); ok {
					m.Selected = idx
				}
			}
			return m, tea.Tick(m.typeDelay+10*time.Millisecond, func(time.Time) tea.Msg { return refreshMsg{} })
		}
	}
	return m, nil
}

// move shifts the active anchor and reopens the menu there.
func (m *PlaygroundModel) move(dx, dy float64) {
	maxX, maxY := float64(m.Width-1), float64(m.Height-1)
	if m.CursorMode {
		m.Cursor.X = math.Min(math.Max(m.Cursor.X+dx, 0), maxX)
		m.Cursor.Y = math.Min(math.Max(m.Cursor.Y+dy, 0), maxY)
	} else {
		x := math.Min(math.Max(m.Trigger.X+dx, 0), math.Max(maxX-m.Trigger.Width+1, 0))
		y := math.Min(math.Max(m.Trigger.Y+dy, 0), math.Max(maxY-m.Trigger.Height+1, 0))
		m.Trigger = m.Trigger.At(geometry.Position{X: x, Y: y})
		m.static.Set(triggerHandle, m.Trigger)
	}
	m.open()
}

// open places the menu synchronously against the active anchor.
func (m *PlaygroundModel) open() {
	var err error
	if m.CursorMode {
		_, err = m.surface.OpenAtCursor(m.ctx, m.Cursor)
	} else {
		_, err = m.surface.OpenAround(m.ctx, triggerHandle)
	}
	m.Err = err
}

func (m *PlaygroundModel) shutdown() {
	m.typeahead.Stop()
	_ = m.surface.Close(m.ctx)
}

// waitTask turns a debounced task into a command that reports when it ends.
func waitTask(ctx context.Context, t *debounce.Task) tea.Cmd {
	return func() tea.Msg {
		if err := t.Wait(ctx); err != nil {
			return taskDoneMsg{err: err}
		}
		return taskDoneMsg{err: t.Err()}
	}
}

func nextSide(s geometry.Side) geometry.Side {
	for i, side := range geometry.Sides {
		if side == s {
			return geometry.Sides[(i+1)%len(geometry.Sides)]
		}
	}
	return geometry.SideTop
}

func (m PlaygroundModel) View() string {
	if m.Width == 0 {
		return StyleDim.Render("sizing viewport…")
	}

	var b strings.Builder
	b.WriteString(canvasBorderStyle.Render(m.canvas()))
	b.WriteString("\n")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(canvasDimStyle.Render("arrows move  tab side  shift+tab align  ctrl+t pointer  ctrl+x close  type to search  ⏎ pick  esc quit"))
	b.WriteString("\n")
	if m.Err != nil {
		b.WriteString(StyleWarning.Render(m.Err.Error()))
	}
	return b.String()
}

// =============================================================================
// Canvas
// =============================================================================

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellTrigger
	cellMenu
	cellSelected
	cellBorder
)

var cellStyles = [...]lipgloss.Style{
	cellEmpty:    lipgloss.NewStyle(),
	cellTrigger:  canvasTriggerStyle,
	cellMenu:     canvasMenuStyle,
	cellSelected: canvasSelectedStyle,
	cellBorder:   canvasDimStyle,
}

type cell struct {
	r    rune
	kind cellKind
}

type grid [][]cell

func newGrid(w, h int) grid {
	g := make(grid, h)
	for y := range g {
		g[y] = make([]cell, w)
		for x := range g[y] {
			g[y][x] = cell{r: ' '}
		}
	}
	return g
}

func (g grid) set(x, y int, r rune, kind cellKind) {
	if y < 0 || y >= len(g) || x < 0 || x >= len(g[y]) {
		return
	}
	g[y][x] = cell{r: r, kind: kind}
}

func (g grid) text(x, y int, s string, kind cellKind) {
	for i, r := range []rune(s) {
		g.set(x+i, y, r, kind)
	}
}

func (g grid) String() string {
	var b strings.Builder
	for y, row := range g {
		if y > 0 {
			b.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].kind == row[start].kind {
				continue
			}
			run := make([]rune, 0, x-start)
			for _, c := range row[start:x] {
				run = append(run, c.r)
			}
			b.WriteString(cellStyles[row[start].kind].Render(string(run)))
			start = x
		}
	}
	return b.String()
}

func (m PlaygroundModel) canvas() string {
	g := newGrid(m.Width, m.Height)

	if m.CursorMode {
		g.set(round(m.Cursor.X), round(m.Cursor.Y), '+', cellTrigger)
	} else {
		tx, ty := round(m.Trigger.X), round(m.Trigger.Y)
		g.text(tx, ty, "[ button ]", cellTrigger)
	}

	if a, ok := m.applied.Get(floatingHandle); ok && a.Visible {
		menu, _ := m.static.Measure(m.ctx, floatingHandle)
		x, y := round(a.Position.X), round(a.Position.Y)
		w, h := int(menu.Width), int(menu.Height)
		g.text(x, y, "╭"+strings.Repeat("─", max(w-2, 0))+"╮", cellBorder)
		for i, item := range m.Items {
			kind, marker := cellMenu, " "
			if i == m.Selected {
				kind, marker = cellSelected, "›"
			}
			g.set(x, y+1+i, '│', cellBorder)
			g.text(x+1, y+1+i, fmt.Sprintf("%s%-*s", marker, max(w-3, 0), item), kind)
			g.set(x+w-1, y+1+i, '│', cellBorder)
		}
		g.text(x, y+h-1, "╰"+strings.Repeat("─", max(w-2, 0))+"╯", cellBorder)
	}
	return g.String()
}

func (m PlaygroundModel) status() string {
	res := m.surface.Last()
	mode := string(placement.ModeAround)
	side := m.Options.Side.String()
	if m.CursorMode {
		mode, side = string(placement.ModeCursor), "—"
	}
	search := m.typeahead.Buffer()
	if search == "" {
		search = "—"
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Mode", "Prefer", "Align", "Position", "Result", "Search").
		Row(mode, side, m.Options.Align.String(), res.Position.String(), resultSummary(res), search).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	return t.Render()
}

func round(v float64) int { return int(math.Round(v)) }
