package reactor

import (
	"github.com/san-kum/tentview/internal/colormap"
	"github.com/san-kum/tentview/internal/render"
)

const scalarBarSamples = 16

// Scene builds the drawable frame for the current state and geometry.
func (r *Reactor) Scene() *render.Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scene()
}

func (r *Reactor) scene() *render.Scene {
	st := r.state
	f, _ := r.base.Field(st.Field)

	s := &render.Scene{
		Seq:       r.seq,
		Title:     r.base.Title,
		State:     st,
		Colormaps: append([]string(nil), r.opts.Colormaps...),
		Lower:     r.geom.Lower,
		Upper:     r.geom.Upper,
		Style:     st.Representation.Style(),
		Palette:   st.Theme.Palette(),
		Bounds:    r.base.Bounds(),
	}
	for _, fi := range r.base.Fields() {
		s.Fields = append(s.Fields, render.Info(fi))
	}

	var tbl *colormap.Table
	if f != nil {
		s.Field = render.Info(f)
		tbl, _ = colormap.New(st.Colormap, f.Range.Min, f.Range.Max)
		s.ScalarBar = render.ScalarBar(tbl, scalarBarSamples)
	}

	s.Layer = render.NewLayer("threshold", r.geom.Mesh, r.geom.Field, tbl, st.Opacity)
	s.Layer.Visible = st.LayerVisible

	if r.slice != nil {
		b := r.opts.BaseLayer
		s.Base = render.NewSolidLayer("base", r.slice, b.Color, b.Opacity)
		s.Base.Visible = st.BaseVisible
	}
	return s
}
