// Package colormap builds colour lookup tables from HSV ranges.
package colormap

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// TableSize is the number of entries in a built table.
const TableSize = 256

// Preset describes a table as linear ramps of hue, saturation and value,
// each in [0,1], from the low end of the scalar range to the high end.
type Preset struct {
	Name       string
	Label      string
	Hue        [2]float64
	Saturation [2]float64
	Value      [2]float64
}

// Built-in presets. Rainbow runs blue to red.
var (
	Rainbow      = Preset{"rainbow", "Rainbow", [2]float64{0.666, 0}, [2]float64{1, 1}, [2]float64{1, 1}}
	InvRainbow   = Preset{"inv-rainbow", "Inv Rainbow", [2]float64{0, 0.666}, [2]float64{1, 1}, [2]float64{1, 1}}
	Greyscale    = Preset{"greyscale", "Greyscale", [2]float64{0, 0}, [2]float64{0, 0}, [2]float64{0, 1}}
	InvGreyscale = Preset{"inv-greyscale", "Inv Greyscale", [2]float64{0, 0.666}, [2]float64{0, 0}, [2]float64{1, 0}}
	Viridis      = Preset{"viridis", "Viridis", [2]float64{0.85, 0.12}, [2]float64{1, 1}, [2]float64{0.25, 1}}
	Inferno      = Preset{"inferno", "Inferno", [2]float64{0, 0.2}, [2]float64{1, 1}, [2]float64{0.2, 1}}

	Presets = []Preset{Rainbow, InvRainbow, Greyscale, InvGreyscale, Viridis, Inferno}
)

// Get returns the preset with the given name.
func Get(name string) (Preset, bool) {
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// Names lists preset names in display order.
func Names() []string {
	names := make([]string, len(Presets))
	for i, p := range Presets {
		names[i] = p.Name
	}
	return names
}

// Table is a built lookup table bound to a scalar range.
type Table struct {
	Preset  Preset
	Lo, Hi  float64
	entries []color.RGBA
}

// Build interpolates n entries of p and binds them to [lo, hi].
func (p Preset) Build(n int, lo, hi float64) *Table {
	if n < 2 {
		n = 2
	}
	entries := make([]color.RGBA, n)
	for i := range entries {
		t := float64(i) / float64(n-1)
		h := lerp(p.Hue, t)
		s := lerp(p.Saturation, t)
		v := lerp(p.Value, t)
		r, g, b := colorful.Hsv(h*360, s, v).Clamped().RGB255()
		entries[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return &Table{Preset: p, Lo: lo, Hi: hi, entries: entries}
}

// New builds a TableSize table for the named preset.
func New(name string, lo, hi float64) (*Table, error) {
	p, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q", name)
	}
	return p.Build(TableSize, lo, hi), nil
}

func lerp(r [2]float64, t float64) float64 {
	return r[0] + t*(r[1]-r[0])
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// Entry returns entry i.
func (t *Table) Entry(i int) color.RGBA { return t.entries[i] }

// Map returns the colour for v; values outside the range take the end colours.
func (t *Table) Map(v float64) color.RGBA {
	return t.entries[t.Index(v)]
}

// Index returns the table slot for v.
func (t *Table) Index(v float64) int {
	n := len(t.entries)
	span := t.Hi - t.Lo
	if span <= 0 || math.IsNaN(v) {
		return 0
	}
	i := int(math.Floor((v - t.Lo) / span * float64(n)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
