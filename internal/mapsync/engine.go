// Package mapsync reconciles loaded GeoJSON documents with the sources, layers
// and viewport of a map rendering engine.
package mapsync

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// Engine is the imperative surface of a map rendering engine.
type Engine interface {
	// SourceIDs lists the ids of every source currently in the style.
	SourceIDs() []string
	// HasLayer reports whether a layer with the id exists.
	HasLayer(id string) bool

	AddSource(id string, data json.RawMessage) error
	RemoveSource(id string) error
	AddLayer(layer Layer) error
	RemoveLayer(id string) error

	// FitBounds animates the viewport to the bound with a pixel padding.
	FitBounds(bound orb.Bound, padding int) error
}

// LayerType is the rendering type of a layer.
type LayerType string

const (
	LayerFill   LayerType = "fill"
	LayerLine   LayerType = "line"
	LayerCircle LayerType = "circle"
)

// Layer is a styled drawing rule bound to one source and a geometry-class filter.
type Layer struct {
	ID     string         `json:"id"`
	Type   LayerType      `json:"type"`
	Source string         `json:"source"`
	Paint  map[string]any `json:"paint"`
	Filter []any          `json:"filter"`
}

// geometryFilter matches features by their rendered geometry class. The engine
// classifies Multi* geometries with their single counterpart.
func geometryFilter(class string) []any {
	return []any{"==", "$type", class}
}
