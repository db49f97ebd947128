package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tentview/internal/colormap"
	"github.com/san-kum/tentview/internal/filter"
	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/reactor"
	"github.com/san-kum/tentview/internal/view"
)

// ErrInvalid marks a config value that cannot be used.
var ErrInvalid = errors.New("config: invalid value")

const (
	DefaultAddr     = "localhost:8080"
	DefaultOpacity  = 1.0
	DefaultBaseZ    = 0.0001
	DefaultDebounce = 200 * time.Millisecond
	DefaultDataDir  = "sessions"
)

type Config struct {
	Addr           string          `yaml:"addr"`
	Theme          string          `yaml:"theme"`
	Field          string          `yaml:"field"`
	Representation string          `yaml:"representation"`
	Colormap       string          `yaml:"colormap"`
	Opacity        float64         `yaml:"opacity"`
	Threshold      ThresholdConfig `yaml:"threshold"`
	Colormaps      []string        `yaml:"colormaps"`
	BaseLayer      BaseLayerConfig `yaml:"base_layer"`
	Axes           bool            `yaml:"axes"`
	DataDir        string          `yaml:"data_dir"`
	Watch          bool            `yaml:"watch"`
	WatchDebounce  time.Duration   `yaml:"watch_debounce"`
}

type ThresholdConfig struct {
	// Mode is "lower" for [min, level] or "upper" for [level, max].
	Mode string `yaml:"mode"`
	// CellMode is "all" (every point in range) or "any" (value span overlaps).
	CellMode string `yaml:"cell_mode"`
}

type BaseLayerConfig struct {
	Enabled bool       `yaml:"enabled"`
	Z       float64    `yaml:"z"`
	Color   [3]float64 `yaml:"color"`
	Opacity float64    `yaml:"opacity"`
}

func DefaultConfig() *Config {
	return &Config{
		Addr:           DefaultAddr,
		Theme:          "light",
		Field:          mesh.DefaultField,
		Representation: view.Surface.String(),
		Colormap:       colormap.Rainbow.Name,
		Opacity:        DefaultOpacity,
		Threshold:      ThresholdConfig{Mode: "lower", CellMode: "all"},
		Colormaps:      colormap.Names(),
		BaseLayer: BaseLayerConfig{
			Z:       DefaultBaseZ,
			Color:   [3]float64{0.15, 0.9, 0.15},
			Opacity: 0.7,
		},
		DataDir:       DefaultDataDir,
		WatchDebounce: DefaultDebounce,
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of a copy of base. Keys missing from the file
// keep the values of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.Colormaps = slices.Clone(base.Colormaps)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every enumerated value and range.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := view.ParseTheme(c.Theme); err != nil {
		invalid("theme %q", c.Theme)
	}
	if _, err := view.ParseRepresentation(c.Representation); err != nil {
		invalid("representation %q", c.Representation)
	}
	if c.Opacity < 0 || c.Opacity > 1 {
		invalid("opacity %v outside [0,1]", c.Opacity)
	}
	if c.BaseLayer.Opacity < 0 || c.BaseLayer.Opacity > 1 {
		invalid("base_layer.opacity %v outside [0,1]", c.BaseLayer.Opacity)
	}
	if _, err := view.ParseThresholdMode(c.Threshold.Mode); err != nil {
		invalid("threshold.mode %q", c.Threshold.Mode)
	}
	if _, err := filter.ParseCellMode(c.Threshold.CellMode); err != nil {
		invalid("threshold.cell_mode %q", c.Threshold.CellMode)
	}
	if len(c.Colormaps) == 0 {
		invalid("colormaps is empty")
	}
	for _, name := range c.Colormaps {
		if _, ok := colormap.Get(name); !ok {
			invalid("unknown colormap %q", name)
		}
	}
	if c.Colormap != "" && !contains(c.Colormaps, c.Colormap) {
		invalid("colormap %q is not in colormaps", c.Colormap)
	}
	if c.WatchDebounce < 0 {
		invalid("watch_debounce %v is negative", c.WatchDebounce)
	}
	return errors.Join(errs...)
}

// ReactorOptions converts the config into reactor options.
func (c *Config) ReactorOptions(logger *slog.Logger) (reactor.Options, error) {
	if err := c.Validate(); err != nil {
		return reactor.Options{}, err
	}
	rep, _ := view.ParseRepresentation(c.Representation)
	theme, _ := view.ParseTheme(c.Theme)
	mode, _ := view.ParseThresholdMode(c.Threshold.Mode)
	cellMode, _ := filter.ParseCellMode(c.Threshold.CellMode)

	return reactor.Options{
		State: view.State{
			Representation: rep,
			Field:          c.Field,
			Colormap:       c.Colormap,
			Opacity:        c.Opacity,
			Theme:          theme,
			LayerVisible:   true,
			BaseVisible:    c.BaseLayer.Enabled,
			Axes:           c.Axes,
		},
		ThresholdMode: mode,
		CellMode:      cellMode,
		Colormaps:     append([]string(nil), c.Colormaps...),
		BaseLayer: reactor.BaseLayer{
			Enabled: c.BaseLayer.Enabled,
			Z:       c.BaseLayer.Z,
			Color:   c.BaseLayer.Color,
			Opacity: c.BaseLayer.Opacity,
		},
		Logger: logger,
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
