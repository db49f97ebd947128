// Package reactor keeps the displayed geometry of a viewer consistent with
// its view state. It owns the base mesh, the ViewState and the current
// DisplayedGeometry, rebuilds the geometry when the threshold or active
// field changes, and redraws the render target after each committed update.
package reactor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/san-kum/tentview/internal/colormap"
	"github.com/san-kum/tentview/internal/filter"
	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/render"
	"github.com/san-kum/tentview/internal/view"
)

// Phase is the reactor's processing state.
type Phase int32

const (
	Idle Phase = iota
	Updating
)

func (p Phase) String() string {
	if p == Updating {
		return "updating"
	}
	return "idle"
}

// BaseLayer is the optional fixed-colour slice drawn under the threshold
// layer.
type BaseLayer struct {
	Enabled bool
	Z       float64
	Color   [3]float64
	Opacity float64
}

// DefaultBaseLayer slices just above the first time level.
func DefaultBaseLayer() BaseLayer {
	return BaseLayer{Z: 0.0001, Color: [3]float64{0.15, 0.9, 0.15}, Opacity: 0.7}
}

// Options configures a Reactor.
type Options struct {
	// State holds the initial style. State.Field picks the active field
	// and falls back to the mesh's first field when absent.
	State view.State
	// Threshold restores a saved level; nil starts at the field maximum.
	Threshold     *float64
	ThresholdMode view.ThresholdMode
	CellMode      filter.CellMode
	Colormaps     []string
	BaseLayer     BaseLayer
	Logger        *slog.Logger
}

// DefaultOptions shows the whole mesh as a rainbow-coloured surface.
func DefaultOptions() Options {
	return Options{
		State: view.State{
			Representation: view.Surface,
			Field:          mesh.DefaultField,
			Colormap:       colormap.Rainbow.Name,
			Opacity:        1,
			LayerVisible:   true,
			BaseVisible:    true,
		},
		Colormaps: colormap.Names(),
		BaseLayer: DefaultBaseLayer(),
	}
}

// Geometry is one committed result of the threshold filter. It is never
// modified after it is published.
type Geometry struct {
	Field string
	Lower float64
	Upper float64
	// Cells are ids into the base mesh, ascending.
	Cells []int
	// Mesh is the compacted subset holding just those cells.
	Mesh *mesh.Mesh
}

// Len returns the number of displayed elements.
func (g *Geometry) Len() int { return len(g.Cells) }

// snapshot is the last committed state, readable without waiting for an
// update in progress.
type snapshot struct {
	base  *mesh.Mesh
	state view.State
	geom  *Geometry
}

// Reactor applies view changes and redraws its target.
type Reactor struct {
	cur atomic.Pointer[snapshot]

	mu      sync.Mutex
	base    *mesh.Mesh
	slice   *mesh.Mesh
	target  render.Target
	opts    Options
	log     *slog.Logger
	obs     *view.Observers
	state   view.State
	geom    *Geometry
	seq     uint64
	phase   atomic.Int32
	redraws atomic.Uint64
}

// Open loads the mesh at path and builds a reactor over it. A missing file
// fails with mesh.ErrFileNotFound before any reactor state exists.
func Open(path string, target render.Target, opts Options) (*Reactor, error) {
	m, err := mesh.Load(path)
	if err != nil {
		return nil, err
	}
	return New(m, target, opts)
}

// New builds a reactor over m and computes the initial geometry. Nothing is
// drawn until Redraw or a change is applied.
func New(m *mesh.Mesh, target render.Target, opts Options) (*Reactor, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Colormaps) == 0 {
		opts.Colormaps = colormap.Names()
	}
	for _, name := range opts.Colormaps {
		if _, ok := colormap.Get(name); !ok {
			return nil, fmt.Errorf("%w: unknown colormap %q", view.ErrConfiguration, name)
		}
	}

	st := opts.State
	if st.Colormap == "" {
		st.Colormap = opts.Colormaps[0]
	}
	if !contains(opts.Colormaps, st.Colormap) {
		return nil, fmt.Errorf("%w: colormap %q not offered", view.ErrConfiguration, st.Colormap)
	}
	if st.Opacity < 0 || st.Opacity > 1 {
		return nil, fmt.Errorf("%w: opacity %v outside [0,1]", view.ErrConfiguration, st.Opacity)
	}

	f, err := pickField(m, st.Field, opts.Logger)
	if err != nil {
		return nil, err
	}
	st.Field = f.Name
	st.Threshold = opts.ThresholdMode.Full(f.Range)
	if opts.Threshold != nil {
		st.Threshold = f.Range.Clamp(*opts.Threshold)
	}

	r := &Reactor{
		base:   m,
		target: target,
		opts:   opts,
		log:    opts.Logger,
		obs:    view.NewObservers(),
		state:  st,
	}
	if opts.BaseLayer.Enabled {
		r.slice = m.Subset(filter.Slice(m, opts.BaseLayer.Z))
	}
	r.geom = r.filter(m, f, st.Threshold)
	r.publish()
	r.register()
	return r, nil
}

func pickField(m *mesh.Mesh, name string, log *slog.Logger) (*mesh.ScalarField, error) {
	if name != "" {
		if f, ok := m.Field(name); ok {
			return f, nil
		}
	}
	f, err := m.DefaultField()
	if err != nil {
		return nil, err
	}
	if name != "" {
		log.Warn("field not found, using first field", "field", name, "using", f.Name)
	}
	return f, nil
}

// register wires each view key to the operation that applies it.
func (r *Reactor) register() {
	r.obs.On(view.KeyThreshold, func(ctx context.Context, m view.Mutation) error {
		level, err := m.Float()
		if err != nil {
			return err
		}
		return r.OnThresholdChanged(ctx, level)
	})
	r.obs.On(view.KeyField, func(ctx context.Context, m view.Mutation) error {
		name, err := m.Text()
		if err != nil {
			return err
		}
		return r.SelectField(ctx, name)
	})
	var style []view.Key
	for _, k := range view.Keys() {
		if !k.Geometric() {
			style = append(style, k)
		}
	}
	r.obs.OnEach(r.OnStyleChanged, style...)
}

// Apply routes m to the operation registered for its key.
func (r *Reactor) Apply(ctx context.Context, m view.Mutation) error {
	err := r.obs.Dispatch(ctx, m)
	if err != nil {
		r.log.Warn("mutation rejected", "mutation", m.String(), "err", err)
	}
	return err
}

// Validate checks m against the current mesh and state without applying it.
func (r *Reactor) Validate(m view.Mutation) error {
	snap := r.cur.Load()
	switch m.Key {
	case view.KeyThreshold:
		_, err := m.Float()
		return err
	case view.KeyField:
		name, err := m.Text()
		if err != nil {
			return err
		}
		if _, ok := snap.base.Field(name); !ok {
			return fmt.Errorf("%w: unknown field %q", view.ErrConfiguration, name)
		}
		return nil
	}
	_, err := snap.state.ApplyStyle(m, r.offered)
	return err
}

// OnThresholdChanged clamps level to the active field's range, rebuilds the
// displayed geometry and redraws once.
func (r *Reactor) OnThresholdChanged(ctx context.Context, level float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase.Store(int32(Updating))
	defer r.phase.Store(int32(Idle))

	f, ok := r.base.Field(r.state.Field)
	if !ok {
		return fmt.Errorf("%w: active field %q missing", view.ErrConfiguration, r.state.Field)
	}
	level = f.Range.Clamp(level)
	r.geom = r.filter(r.base, f, level)
	r.state.Threshold = level
	return r.draw(ctx)
}

// OnStyleChanged applies a representation, colormap, opacity, theme or
// visibility change and redraws the existing geometry.
func (r *Reactor) OnStyleChanged(ctx context.Context, m view.Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase.Store(int32(Updating))
	defer r.phase.Store(int32(Idle))

	st, err := r.state.ApplyStyle(m, r.offered)
	if err != nil {
		return err
	}
	r.state = st
	return r.draw(ctx)
}

// SelectField makes name the active field. The threshold resets to the
// level that shows the whole mesh.
func (r *Reactor) SelectField(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.base.Field(name)
	if !ok {
		return fmt.Errorf("%w: unknown field %q", view.ErrConfiguration, name)
	}
	r.phase.Store(int32(Updating))
	defer r.phase.Store(int32(Idle))

	level := r.opts.ThresholdMode.Full(f.Range)
	r.geom = r.filter(r.base, f, level)
	r.state.Field = f.Name
	r.state.Threshold = level
	return r.draw(ctx)
}

// Reload swaps in a new base mesh, keeping the view state. The threshold is
// clamped into the new range; if the active field is gone the first field
// of the new mesh takes over showing the whole mesh.
func (r *Reactor) Reload(ctx context.Context, m *mesh.Mesh) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	level := r.state.Threshold
	f, ok := m.Field(r.state.Field)
	if !ok {
		var err error
		if f, err = m.DefaultField(); err != nil {
			return err
		}
		level = r.opts.ThresholdMode.Full(f.Range)
	}
	r.phase.Store(int32(Updating))
	defer r.phase.Store(int32(Idle))

	level = f.Range.Clamp(level)
	r.base = m
	if r.opts.BaseLayer.Enabled {
		r.slice = m.Subset(filter.Slice(m, r.opts.BaseLayer.Z))
	}
	r.geom = r.filter(m, f, level)
	r.state.Field = f.Name
	r.state.Threshold = level
	r.log.Info("mesh reloaded", "points", len(m.Points), "cells", len(m.Cells))
	return r.draw(ctx)
}

// Redraw draws the current geometry without changing anything.
func (r *Reactor) Redraw(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draw(ctx)
}

func (r *Reactor) filter(m *mesh.Mesh, f *mesh.ScalarField, level float64) *Geometry {
	lo, hi := r.opts.ThresholdMode.Bounds(f.Range, level)
	cells := filter.Threshold(m, f, lo, hi, r.opts.CellMode)
	return &Geometry{
		Field: f.Name,
		Lower: lo,
		Upper: hi,
		Cells: cells,
		Mesh:  m.Subset(cells),
	}
}

func (r *Reactor) offered(name string) bool {
	return contains(r.opts.Colormaps, name)
}

func (r *Reactor) publish() {
	r.cur.Store(&snapshot{base: r.base, state: r.state, geom: r.geom})
}

// draw commits the current state and draws it. r.mu must be held.
func (r *Reactor) draw(ctx context.Context) error {
	r.publish()
	r.seq++
	s := r.scene()
	r.redraws.Add(1)
	r.log.Debug("redraw",
		"seq", s.Seq,
		"field", r.geom.Field,
		"level", r.state.Threshold,
		"lower", r.geom.Lower,
		"upper", r.geom.Upper,
		"elements", r.geom.Len())
	if r.target == nil {
		return nil
	}
	if err := r.target.Draw(ctx, s); err != nil {
		return fmt.Errorf("draw on %s: %w", r.target.Name(), err)
	}
	return nil
}

// State returns a copy of the last committed view state.
func (r *Reactor) State() view.State {
	return r.cur.Load().state
}

// Geometry returns the last committed geometry.
func (r *Reactor) Geometry() *Geometry {
	return r.cur.Load().geom
}

// Mesh returns the base mesh.
func (r *Reactor) Mesh() *mesh.Mesh {
	return r.cur.Load().base
}

// ActiveField returns the active field.
func (r *Reactor) ActiveField() *mesh.ScalarField {
	snap := r.cur.Load()
	f, _ := snap.base.Field(snap.state.Field)
	return f
}

// Colormaps lists the colormaps offered to the user.
func (r *Reactor) Colormaps() []string {
	return append([]string(nil), r.opts.Colormaps...)
}

// Phase reports whether an update is in progress.
func (r *Reactor) Phase() Phase { return Phase(r.phase.Load()) }

// Redraws counts the draws issued so far.
func (r *Reactor) Redraws() uint64 { return r.redraws.Load() }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
