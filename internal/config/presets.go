package config

import "sort"

// Presets are the stock viewer variants: the classic four-map dark viewer,
// the slice viewer with its green base layer, and the level viewer that
// shows everything above the chosen level.
var Presets = map[string]*Config{
	"classic": {
		Addr: DefaultAddr, Theme: "dark", Field: "tentlevel", Representation: "Surface",
		Colormap: "rainbow", Opacity: 1,
		Threshold: ThresholdConfig{Mode: "lower", CellMode: "all"},
		Colormaps: []string{"rainbow", "inv-rainbow", "greyscale", "inv-greyscale"},
		BaseLayer: BaseLayerConfig{Z: DefaultBaseZ, Color: [3]float64{0.15, 0.9, 0.15}, Opacity: 0.7},
		DataDir:   DefaultDataDir, WatchDebounce: DefaultDebounce,
	},
	"slice": {
		Addr: DefaultAddr, Theme: "light", Field: "tentlevel", Representation: "Surface With Edges",
		Colormap: "viridis", Opacity: 1,
		Threshold: ThresholdConfig{Mode: "lower", CellMode: "all"},
		Colormaps: []string{"viridis", "inferno", "rainbow", "greyscale"},
		BaseLayer: BaseLayerConfig{Enabled: true, Z: DefaultBaseZ, Color: [3]float64{0.15, 0.9, 0.15}, Opacity: 0.7},
		Axes:      true,
		DataDir:   DefaultDataDir, WatchDebounce: DefaultDebounce,
	},
	"levels": {
		Addr: DefaultAddr, Theme: "light", Field: "tentlevel", Representation: "Surface",
		Colormap: "rainbow", Opacity: 1,
		Threshold: ThresholdConfig{Mode: "upper", CellMode: "all"},
		Colormaps: []string{"rainbow", "inv-rainbow", "viridis", "inferno", "greyscale", "inv-greyscale"},
		BaseLayer: BaseLayerConfig{Z: DefaultBaseZ, Color: [3]float64{0.15, 0.9, 0.15}, Opacity: 0.7},
		DataDir:   DefaultDataDir, WatchDebounce: DefaultDebounce,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Colormaps = append([]string(nil), p.Colormaps...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
