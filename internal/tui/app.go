// Package tui is a terminal control surface for a running viewer. It
// drives the same reactor as the web page and redraws whenever a scene is
// committed, whichever side made the change.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tentview/internal/reactor"
	"github.com/san-kum/tentview/internal/render"
	"github.com/san-kum/tentview/internal/view"
)

const historyLen = 60

type control struct {
	key   view.Key
	label string
}

var controls = []control{
	{view.KeyThreshold, "threshold"},
	{view.KeyField, "color by"},
	{view.KeyRepresentation, "representation"},
	{view.KeyColormap, "colormap"},
	{view.KeyOpacity, "opacity"},
	{view.KeyTheme, "theme"},
	{view.KeyLayerVisible, "layer"},
	{view.KeyBaseVisible, "base layer"},
	{view.KeyAxes, "axes"},
}

// SaveFunc stores the current view under a name.
type SaveFunc func(st view.State) (string, error)

type Option func(*Model)

// WithURL shows the web address in the header.
func WithURL(url string) Option {
	return func(m *Model) { m.url = url }
}

// WithSave enables the save key.
func WithSave(fn SaveFunc) Option {
	return func(m *Model) { m.save = fn }
}

// WithSteps sets how many key presses cross the threshold range.
func WithSteps(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.steps = n
		}
	}
}

type Model struct {
	ctx     context.Context
	r       *reactor.Reactor
	url     string
	save    SaveFunc
	steps   int
	cursor  int
	history []float64
	status  string
	err     error
	width   int
	height  int
}

func New(ctx context.Context, r *reactor.Reactor, opts ...Option) Model {
	m := Model{
		ctx:     ctx,
		r:       r,
		steps:   20,
		history: make([]float64, 0, historyLen),
		width:   80,
		height:  24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.record(r.Geometry().Len())
	return m
}

// sceneMsg reports a scene committed by any control surface.
type sceneMsg struct{ scene *render.Scene }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case sceneMsg:
		m.record(msg.scene.Elements())
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(controls)-1 {
			m.cursor++
		}
	case "left", "h":
		m.adjust(-1)
	case "right", "l", "enter", " ":
		m.adjust(1)
	case "home":
		m.apply(view.KeyThreshold, m.r.ActiveField().Range.Min)
	case "end":
		m.apply(view.KeyThreshold, m.r.ActiveField().Range.Max)
	case "s":
		if m.save == nil {
			break
		}
		id, err := m.save(m.r.State())
		m.err = err
		if err == nil {
			m.status = "saved " + id
		}
	}
	return m, nil
}

// adjust moves the selected control one step in direction dir.
func (m *Model) adjust(dir int) {
	st := m.r.State()
	switch key := controls[m.cursor].key; key {
	case view.KeyThreshold:
		f := m.r.ActiveField()
		step := f.Range.Span() / float64(m.steps)
		if step == 0 {
			step = 1
		}
		m.apply(key, st.Threshold+float64(dir)*step)
	case view.KeyField:
		fields := m.r.Mesh().Fields()
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		m.apply(key, cycle(names, st.Field, dir))
	case view.KeyRepresentation:
		reps := view.Representations()
		i := (int(st.Representation) + dir + len(reps)) % len(reps)
		m.apply(key, reps[i].String())
	case view.KeyColormap:
		m.apply(key, cycle(m.r.Colormaps(), st.Colormap, dir))
	case view.KeyOpacity:
		v := math.Round((st.Opacity+float64(dir)*0.1)*10) / 10
		m.apply(key, math.Max(0, math.Min(1, v)))
	case view.KeyTheme:
		if st.Theme == view.Dark {
			m.apply(key, view.Light.String())
		} else {
			m.apply(key, view.Dark.String())
		}
	case view.KeyLayerVisible:
		m.apply(key, !st.LayerVisible)
	case view.KeyBaseVisible:
		m.apply(key, !st.BaseVisible)
	case view.KeyAxes:
		m.apply(key, !st.Axes)
	}
}

func (m *Model) apply(key view.Key, value any) {
	m.status = ""
	m.err = m.r.Apply(m.ctx, view.Mutation{Key: key, Value: value})
}

func (m *Model) record(elements int) {
	m.history = append(m.history, float64(elements))
	if len(m.history) > historyLen {
		m.history = m.history[1:]
	}
}

func cycle(list []string, cur string, dir int) string {
	if len(list) == 0 {
		return cur
	}
	i := 0
	for j, v := range list {
		if v == cur {
			i = j
			break
		}
	}
	return list[(i+dir+len(list))%len(list)]
}

func (m Model) View() string {
	st := m.r.State()
	geom := m.r.Geometry()
	s := GetTheme(st.Theme).styles()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(s.faint.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + s.primary.Render("t e n t v i e w") + "\n")
	b.WriteString(s.faint.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	if m.url != "" {
		b.WriteString("      " + s.muted.Render(m.url) + "\n")
	}
	b.WriteString("\n")

	for i, c := range controls {
		val := m.value(c.key, st)
		if i == m.cursor {
			b.WriteString("      " + s.primary.Render("▸ ") + s.text.Render(fmt.Sprintf("%-16s", c.label)) + s.accent.Render(val) + "\n")
		} else {
			b.WriteString("        " + s.muted.Render(fmt.Sprintf("%-16s", c.label)) + s.muted.Render(val) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("      %s %s  %s [%s, %s]\n",
		s.success.Render("●"),
		s.text.Render(fmt.Sprintf("%d elements", geom.Len())),
		s.muted.Render("bounds"),
		s.text.Render(fmt.Sprintf("%.4g", geom.Lower)),
		s.text.Render(fmt.Sprintf("%.4g", geom.Upper))))

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(5),
			asciigraph.Width(40),
			asciigraph.Caption("elements"))
		for _, line := range strings.Split(chart, "\n") {
			b.WriteString("      " + s.primary.Render(line) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + s.err.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n      " + s.success.Render(m.status) + "\n")
	}

	hint := "      ↑↓ select  ←→ adjust  home/end range"
	if m.save != nil {
		hint += "  s save"
	}
	b.WriteString("\n" + s.muted.Render(hint+"  q quit") + "\n")
	return b.String()
}

func (m Model) value(key view.Key, st view.State) string {
	switch key {
	case view.KeyThreshold:
		f := m.r.ActiveField()
		return fmt.Sprintf("%.4g  (%.4g..%.4g)", st.Threshold, f.Range.Min, f.Range.Max)
	case view.KeyField:
		return st.Field
	case view.KeyRepresentation:
		return st.Representation.String()
	case view.KeyColormap:
		return st.Colormap
	case view.KeyOpacity:
		return fmt.Sprintf("%.1f", st.Opacity)
	case view.KeyTheme:
		return st.Theme.String()
	case view.KeyLayerVisible:
		return onOff(st.LayerVisible)
	case view.KeyBaseVisible:
		return onOff(st.BaseVisible)
	case view.KeyAxes:
		return onOff(st.Axes)
	}
	return ""
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// Target forwards committed scenes to a running program so changes made
// elsewhere show up in the terminal.
type Target struct {
	mu sync.Mutex
	p  *tea.Program
}

// Attach starts forwarding to p.
func (t *Target) Attach(p *tea.Program) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.p = p
}

func (t *Target) Name() string { return "TUI" }

func (t *Target) Draw(ctx context.Context, s *render.Scene) error {
	t.mu.Lock()
	p := t.p
	t.mu.Unlock()
	if p != nil {
		go p.Send(sceneMsg{scene: s})
	}
	return nil
}

func (t *Target) Close() error {
	t.Attach(nil)
	return nil
}

// Run shows the control surface until the user quits or ctx ends.
func Run(ctx context.Context, r *reactor.Reactor, target *Target, opts ...Option) error {
	p := tea.NewProgram(New(ctx, r, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if target != nil {
		target.Attach(p)
		defer target.Attach(nil)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
