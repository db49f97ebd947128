package reactor_test

import (
	"context"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tentview/internal/filter"
	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/mesh/meshtest"
	"github.com/san-kum/tentview/internal/reactor"
	"github.com/san-kum/tentview/internal/render"
	"github.com/san-kum/tentview/internal/view"
)

func stack(levels int) *mesh.Mesh {
	m, err := mesh.Read(strings.NewReader(meshtest.TentStack(levels)))
	Expect(err).NotTo(HaveOccurred())
	return m
}

// inBounds reports whether every point of cell c has a tentlevel in [lo, hi].
func inBounds(m *mesh.Mesh, c int, lo, hi float64) bool {
	f, _ := m.Field("tentlevel")
	for _, p := range m.Cells[c].Points {
		if v := f.At(p); v < lo || v > hi {
			return false
		}
	}
	return true
}

var _ = Describe("Reactor", func() {
	var (
		ctx  context.Context
		base *mesh.Mesh
		rec  *render.Recorder
		r    *reactor.Reactor
	)

	BeforeEach(func() {
		ctx = context.Background()
		base = stack(10)
		rec = &render.Recorder{}
		var err error
		r, err = reactor.New(base, rec, reactor.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts on the default field at its maximum without drawing", func() {
		Expect(r.State().Field).To(Equal("tentlevel"))
		Expect(r.State().Threshold).To(Equal(10.0))
		Expect(r.Geometry().Len()).To(Equal(len(base.Cells)))
		Expect(rec.Count()).To(BeZero())
		Expect(r.Phase()).To(Equal(reactor.Idle))
	})

	Describe("OnThresholdChanged", func() {
		It("keeps exactly the elements inside the committed bounds", func() {
			for level := 0.0; level <= 10; level += 0.5 {
				Expect(r.OnThresholdChanged(ctx, level)).To(Succeed())
				g := r.Geometry()
				Expect(g.Lower).To(Equal(0.0))
				Expect(g.Upper).To(Equal(level))

				kept := make(map[int]bool)
				for _, c := range g.Cells {
					kept[c] = true
					Expect(inBounds(base, c, g.Lower, g.Upper)).To(BeTrue(), "cell %d at level %v", c, level)
				}
				for c := range base.Cells {
					if !kept[c] {
						Expect(inBounds(base, c, g.Lower, g.Upper)).To(BeFalse(), "cell %d dropped at level %v", c, level)
					}
				}
			}
		})

		It("issues exactly one redraw per change", func() {
			Expect(r.OnThresholdChanged(ctx, 3)).To(Succeed())
			Expect(rec.Count()).To(Equal(1))
			Expect(r.Redraws()).To(Equal(uint64(1)))
			Expect(rec.Last().Elements()).To(Equal(r.Geometry().Len()))
		})

		It("is idempotent", func() {
			Expect(r.OnThresholdChanged(ctx, 4.5)).To(Succeed())
			first := r.Geometry()
			Expect(r.OnThresholdChanged(ctx, 4.5)).To(Succeed())
			second := r.Geometry()

			Expect(second.Cells).To(Equal(first.Cells))
			Expect(second.Lower).To(Equal(first.Lower))
			Expect(second.Upper).To(Equal(first.Upper))
			Expect(second.Mesh.Points).To(Equal(first.Mesh.Points))
		})

		It("clamps levels outside the field range", func() {
			Expect(r.OnThresholdChanged(ctx, 0)).To(Succeed())
			atMin := r.Geometry().Cells
			Expect(r.OnThresholdChanged(ctx, -7)).To(Succeed())
			Expect(r.Geometry().Cells).To(Equal(atMin))
			Expect(r.State().Threshold).To(Equal(0.0))

			Expect(r.OnThresholdChanged(ctx, 10)).To(Succeed())
			atMax := r.Geometry().Cells
			Expect(r.OnThresholdChanged(ctx, 250)).To(Succeed())
			Expect(r.Geometry().Cells).To(Equal(atMax))
			Expect(r.State().Threshold).To(Equal(10.0))
		})

		It("shows [0,5] at level 5 and the complete dataset at level 10", func() {
			Expect(r.OnThresholdChanged(ctx, 5)).To(Succeed())
			Expect(r.Geometry().Len()).To(Equal(11))
			for _, c := range r.Geometry().Cells {
				Expect(inBounds(base, c, 0, 5)).To(BeTrue())
			}

			Expect(r.OnThresholdChanged(ctx, 10)).To(Succeed())
			Expect(r.Geometry().Len()).To(Equal(len(base.Cells)))
		})

		It("replaces the geometry instead of mutating it", func() {
			before := r.Geometry()
			cells := append([]int(nil), before.Cells...)
			Expect(r.OnThresholdChanged(ctx, 2)).To(Succeed())
			Expect(r.Geometry()).NotTo(BeIdenticalTo(before))
			Expect(before.Cells).To(Equal(cells))
		})
	})

	Describe("OnStyleChanged", func() {
		It("never changes the set of included elements", func() {
			Expect(r.OnThresholdChanged(ctx, 6)).To(Succeed())
			g := r.Geometry()

			changes := []view.Mutation{
				{Key: view.KeyRepresentation, Value: "Wireframe"},
				{Key: view.KeyColormap, Value: "greyscale"},
				{Key: view.KeyOpacity, Value: 0.3},
				{Key: view.KeyTheme, Value: "dark"},
				{Key: view.KeyAxes, Value: true},
			}
			for _, m := range changes {
				Expect(r.OnStyleChanged(ctx, m)).To(Succeed())
				Expect(r.Geometry()).To(BeIdenticalTo(g))
			}
			Expect(rec.Count()).To(Equal(1 + len(changes)))

			last := rec.Last()
			Expect(last.State.Representation).To(Equal(view.Wireframe))
			Expect(last.State.Colormap).To(Equal("greyscale"))
			Expect(last.Layer.Opacity).To(Equal(0.3))
			Expect(last.Palette).To(Equal(view.Dark.Palette()))
			Expect(last.Elements()).To(Equal(g.Len()))
		})

		It("rejects bad values without redrawing", func() {
			before := r.State()
			err := r.OnStyleChanged(ctx, view.Mutation{Key: view.KeyOpacity, Value: 2.0})
			Expect(err).To(MatchError(view.ErrConfiguration))
			Expect(r.State()).To(Equal(before))
			Expect(rec.Count()).To(BeZero())
		})
	})

	Describe("SelectField", func() {
		It("switches the active field and resets the threshold to its maximum", func() {
			Expect(r.OnThresholdChanged(ctx, 2)).To(Succeed())
			Expect(r.SelectField(ctx, "tentnumber")).To(Succeed())
			Expect(r.State().Field).To(Equal("tentnumber"))
			Expect(r.State().Threshold).To(Equal(20.0))
			Expect(r.Geometry().Len()).To(Equal(len(base.Cells)))

			Expect(r.OnThresholdChanged(ctx, 4)).To(Succeed())
			Expect(r.Geometry().Cells).To(Equal([]int{0, 1, 2, 3, 4}))
		})

		It("leaves state and geometry untouched for an unknown field", func() {
			Expect(r.OnThresholdChanged(ctx, 3)).To(Succeed())
			state, geom, draws := r.State(), r.Geometry(), rec.Count()

			err := r.SelectField(ctx, "pressure")
			Expect(err).To(MatchError(view.ErrConfiguration))
			Expect(r.State()).To(Equal(state))
			Expect(r.Geometry()).To(BeIdenticalTo(geom))
			Expect(rec.Count()).To(Equal(draws))
		})
	})

	Describe("Apply", func() {
		It("routes each key to its operation", func() {
			Expect(r.Apply(ctx, view.Mutation{Key: view.KeyThreshold, Value: 5.0})).To(Succeed())
			Expect(r.Geometry().Len()).To(Equal(11))
			Expect(r.Apply(ctx, view.Mutation{Key: view.KeyField, Value: "tentnumber"})).To(Succeed())
			Expect(r.State().Field).To(Equal("tentnumber"))
			Expect(r.Apply(ctx, view.Mutation{Key: view.KeyLayerVisible, Value: false})).To(Succeed())
			Expect(rec.Last().Layer.Visible).To(BeFalse())
		})

		It("has an operation for every adjustable parameter", func() {
			values := map[view.Key]any{
				view.KeyRepresentation: "Wireframe",
				view.KeyColormap:       "greyscale",
				view.KeyOpacity:        0.5,
				view.KeyThreshold:      4.0,
				view.KeyField:          "tentnumber",
				view.KeyTheme:          "light",
				view.KeyLayerVisible:   true,
				view.KeyBaseVisible:    false,
				view.KeyAxes:           true,
			}
			for _, k := range view.Keys() {
				v, ok := values[k]
				Expect(ok).To(BeTrue(), "no value for %s", k)
				Expect(r.Apply(ctx, view.Mutation{Key: k, Value: v})).To(Succeed(), "key %s", k)
			}
			Expect(rec.Count()).To(Equal(len(view.Keys())))
		})

		It("reports unknown keys as configuration errors", func() {
			Expect(r.Apply(ctx, view.Mutation{Key: "zoom", Value: 2.0})).To(MatchError(view.ErrConfiguration))
		})
	})

	Describe("Reload", func() {
		It("keeps the view state and clamps the threshold into the new range", func() {
			Expect(r.OnThresholdChanged(ctx, 8)).To(Succeed())
			Expect(r.OnStyleChanged(ctx, view.Mutation{Key: view.KeyColormap, Value: "viridis"})).To(Succeed())

			Expect(r.Reload(ctx, stack(4))).To(Succeed())
			Expect(r.State().Threshold).To(Equal(4.0))
			Expect(r.State().Colormap).To(Equal("viridis"))
			Expect(r.Geometry().Len()).To(Equal(9))
		})

		It("keeps the old mesh when the new one has no scalars", func() {
			empty := &mesh.Mesh{Points: [][3]float64{{0, 0, 0}}}
			Expect(r.Reload(ctx, empty)).To(MatchError(mesh.ErrNoScalars))
			Expect(r.Mesh()).To(BeIdenticalTo(base))
		})
	})

	It("includes the base layer slice when enabled", func() {
		opts := reactor.DefaultOptions()
		opts.BaseLayer.Enabled = true
		r, err := reactor.New(base, rec, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Redraw(ctx)).To(Succeed())

		s := rec.Last()
		Expect(s.Base).NotTo(BeNil())
		Expect(s.Base.Cells).To(Equal(1))
		Expect(s.Base.FaceColors[0]).To(Equal(render.RGB{38, 230, 38}))
	})

	It("thresholds [level, max] in upper mode", func() {
		opts := reactor.DefaultOptions()
		opts.ThresholdMode = view.Upper
		r, err := reactor.New(base, rec, opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(r.OnThresholdChanged(ctx, 5)).To(Succeed())
		g := r.Geometry()
		Expect(g.Lower).To(Equal(5.0))
		Expect(g.Upper).To(Equal(10.0))
		Expect(g.Len()).To(Equal(11))
	})

	It("starts at the field minimum in upper mode so the whole mesh shows", func() {
		opts := reactor.DefaultOptions()
		opts.ThresholdMode = view.Upper
		r, err := reactor.New(base, rec, opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(r.State().Threshold).To(Equal(0.0))
		g := r.Geometry()
		Expect(g.Lower).To(Equal(0.0))
		Expect(g.Upper).To(Equal(10.0))
		Expect(g.Len()).To(Equal(len(base.Cells)))
	})

	It("resets to the new field minimum on SelectField in upper mode", func() {
		opts := reactor.DefaultOptions()
		opts.ThresholdMode = view.Upper
		r, err := reactor.New(base, rec, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.OnThresholdChanged(ctx, 7)).To(Succeed())

		Expect(r.SelectField(ctx, "tentnumber")).To(Succeed())
		g := r.Geometry()
		Expect(r.State().Threshold).To(Equal(0.0))
		Expect(g.Lower).To(Equal(0.0))
		Expect(g.Upper).To(Equal(20.0))
		Expect(g.Len()).To(Equal(len(base.Cells)))
	})

	It("honours the continuous cell mode", func() {
		opts := reactor.DefaultOptions()
		opts.CellMode = filter.Continuous
		opts.ThresholdMode = view.Upper
		r, err := reactor.New(base, rec, opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(r.OnThresholdChanged(ctx, 10)).To(Succeed())
		Expect(r.Geometry().Len()).To(Equal(2))
	})
})

var _ = Describe("Open", func() {
	It("fails with a file-not-found error before building anything", func() {
		rec := &render.Recorder{}
		path := filepath.Join(GinkgoT().TempDir(), "missing.vtk")

		r, err := reactor.Open(path, rec, reactor.DefaultOptions())
		Expect(err).To(MatchError(mesh.ErrFileNotFound))
		Expect(r).To(BeNil())
		Expect(rec.Count()).To(BeZero())
	})

	It("rejects an unknown colormap in the options", func() {
		opts := reactor.DefaultOptions()
		opts.State.Colormap = "jet"
		_, err := reactor.New(stack(2), nil, opts)
		Expect(err).To(MatchError(view.ErrConfiguration))
	})

	It("falls back to the first field when the configured one is missing", func() {
		opts := reactor.DefaultOptions()
		opts.State.Field = "pressure"
		r, err := reactor.New(stack(2), nil, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.State().Field).To(Equal("tentlevel"))
	})

	It("restores a saved threshold, clamped", func() {
		opts := reactor.DefaultOptions()
		level := 42.0
		opts.Threshold = &level
		r, err := reactor.New(stack(3), nil, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.State().Threshold).To(Equal(3.0))
	})
})
