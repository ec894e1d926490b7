package mapsync

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Paint holds the fixed styling applied to every document's layers.
type Paint struct {
	FillColor    string  `yaml:"fill_color" json:"fillColor"`
	FillOpacity  float64 `yaml:"fill_opacity" json:"fillOpacity"`
	LineColor    string  `yaml:"line_color" json:"lineColor"`
	LineWidth    float64 `yaml:"line_width" json:"lineWidth"`
	CircleRadius float64 `yaml:"circle_radius" json:"circleRadius"`
	CircleColor  string  `yaml:"circle_color" json:"circleColor"`
	// FitPadding is the viewport margin in pixels around the data bounds.
	FitPadding int `yaml:"fit_padding" json:"fitPadding"`
}

// DefaultPaint returns the built-in styling.
func DefaultPaint() Paint {
	return Paint{
		FillColor:    "#088",
		FillOpacity:  0.4,
		LineColor:    "#088",
		LineWidth:    2,
		CircleRadius: 6,
		CircleColor:  "#B42222",
		FitPadding:   40,
	}
}

// LoadPaint reads styling overrides from a YAML file on top of DefaultPaint.
// An empty path returns the defaults.
func LoadPaint(path string) (Paint, error) {
	p := DefaultPaint()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Paint{}, fmt.Errorf("reading paint config: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Paint{}, fmt.Errorf("parsing paint config %s: %w", path, err)
	}
	if p.FitPadding < 0 {
		return Paint{}, fmt.Errorf("parsing paint config %s: fit_padding must not be negative", path)
	}
	return p, nil
}

func (p Paint) fill() map[string]any {
	return map[string]any{"fill-color": p.FillColor, "fill-opacity": p.FillOpacity}
}

func (p Paint) line() map[string]any {
	return map[string]any{"line-color": p.LineColor, "line-width": p.LineWidth}
}

func (p Paint) circle() map[string]any {
	return map[string]any{"circle-radius": p.CircleRadius, "circle-color": p.CircleColor}
}
