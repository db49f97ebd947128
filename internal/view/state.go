package view

import (
	"fmt"
	"math"

	"github.com/san-kum/tentview/internal/mesh"
)

// ThresholdMode maps a threshold level to the committed value bounds.
type ThresholdMode int

const (
	// Lower keeps values from the field minimum up to the level.
	Lower ThresholdMode = iota
	// Upper keeps values from the level up to the field maximum.
	Upper
)

func (m ThresholdMode) String() string {
	if m == Upper {
		return "upper"
	}
	return "lower"
}

func ParseThresholdMode(s string) (ThresholdMode, error) {
	switch s {
	case "", "lower":
		return Lower, nil
	case "upper":
		return Upper, nil
	}
	return 0, fmt.Errorf("%w: unknown threshold mode %q", ErrConfiguration, s)
}

// Bounds returns the closed interval selected by level within r.
func (m ThresholdMode) Bounds(r mesh.Range, level float64) (lo, hi float64) {
	if m == Upper {
		return level, r.Max
	}
	return r.Min, level
}

// Full returns the level at which the bounds cover all of r.
func (m ThresholdMode) Full(r mesh.Range) float64 {
	if m == Upper {
		return r.Min
	}
	return r.Max
}

// State is the complete set of user-selected viewing parameters.
type State struct {
	Representation Representation `json:"representation" yaml:"representation"`
	Field          string         `json:"field" yaml:"field"`
	Colormap       string         `json:"colormap" yaml:"colormap"`
	Opacity        float64        `json:"opacity" yaml:"opacity"`
	Threshold      float64        `json:"threshold" yaml:"threshold"`
	Theme          Theme          `json:"theme" yaml:"theme"`
	LayerVisible   bool           `json:"layer_visible" yaml:"layer_visible"`
	BaseVisible    bool           `json:"base_visible" yaml:"base_visible"`
	Axes           bool           `json:"axes" yaml:"axes"`
}

// Key names one adjustable parameter.
type Key string

const (
	KeyRepresentation Key = "representation"
	KeyColormap       Key = "colormap"
	KeyOpacity        Key = "opacity"
	KeyThreshold      Key = "threshold"
	KeyField          Key = "field"
	KeyTheme          Key = "theme"
	KeyLayerVisible   Key = "layer_visible"
	KeyBaseVisible    Key = "base_visible"
	KeyAxes           Key = "axes"
)

// Keys lists every adjustable parameter.
func Keys() []Key {
	return []Key{
		KeyRepresentation, KeyColormap, KeyOpacity, KeyThreshold, KeyField,
		KeyTheme, KeyLayerVisible, KeyBaseVisible, KeyAxes,
	}
}

// Geometric reports whether changing k requires a new filter pass.
func (k Key) Geometric() bool {
	return k == KeyThreshold || k == KeyField
}

// Mutation is a single requested change, as sent by a control surface.
type Mutation struct {
	Key   Key `json:"key"`
	Value any `json:"value"`
}

func (m Mutation) String() string {
	return fmt.Sprintf("%s=%v", m.Key, m.Value)
}

// Float decodes a numeric value; JSON numbers arrive as float64.
func (m Mutation) Float() (float64, error) {
	var v float64
	switch x := m.Value.(type) {
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case string:
		if _, err := fmt.Sscan(x, &v); err != nil {
			return 0, fmt.Errorf("%w: %s: %q is not a number", ErrConfiguration, m.Key, x)
		}
	default:
		return 0, fmt.Errorf("%w: %s: expected a number, got %T", ErrConfiguration, m.Key, m.Value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s: %v is not finite", ErrConfiguration, m.Key, v)
	}
	return v, nil
}

func (m Mutation) Text() (string, error) {
	switch x := m.Value.(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	}
	return "", fmt.Errorf("%w: %s: expected a string, got %T", ErrConfiguration, m.Key, m.Value)
}

func (m Mutation) Bool() (bool, error) {
	switch x := m.Value.(type) {
	case bool:
		return x, nil
	case string:
		switch x {
		case "true", "on", "1":
			return true, nil
		case "false", "off", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %s: expected a boolean, got %v", ErrConfiguration, m.Key, m.Value)
}

// ApplyStyle returns s with a non-geometric mutation applied. The known
// function validates colormap names. Geometric keys are rejected here; they
// go through the reactor's filter path.
func (s State) ApplyStyle(m Mutation, known func(colormap string) bool) (State, error) {
	if m.Key.Geometric() {
		return s, fmt.Errorf("%w: %s is not a style parameter", ErrConfiguration, m.Key)
	}
	switch m.Key {
	case KeyRepresentation:
		txt, err := m.Text()
		if err != nil {
			return s, err
		}
		r, err := ParseRepresentation(txt)
		if err != nil {
			return s, err
		}
		s.Representation = r
	case KeyColormap:
		txt, err := m.Text()
		if err != nil {
			return s, err
		}
		if known != nil && !known(txt) {
			return s, fmt.Errorf("%w: unknown colormap %q", ErrConfiguration, txt)
		}
		s.Colormap = txt
	case KeyOpacity:
		v, err := m.Float()
		if err != nil {
			return s, err
		}
		if v < 0 || v > 1 {
			return s, fmt.Errorf("%w: opacity %v outside [0,1]", ErrConfiguration, v)
		}
		s.Opacity = v
	case KeyTheme:
		txt, err := m.Text()
		if err != nil {
			return s, err
		}
		t, err := ParseTheme(txt)
		if err != nil {
			return s, err
		}
		s.Theme = t
	case KeyLayerVisible, KeyBaseVisible, KeyAxes:
		b, err := m.Bool()
		if err != nil {
			return s, err
		}
		switch m.Key {
		case KeyLayerVisible:
			s.LayerVisible = b
		case KeyBaseVisible:
			s.BaseVisible = b
		default:
			s.Axes = b
		}
	default:
		return s, fmt.Errorf("%w: unknown parameter %q", ErrConfiguration, m.Key)
	}
	return s, nil
}
