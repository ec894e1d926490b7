package mapsync

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/paulmach/orb"
)

// OpKind names an engine mutation.
type OpKind string

const (
	OpAddSource    OpKind = "addSource"
	OpRemoveSource OpKind = "removeSource"
	OpAddLayer     OpKind = "addLayer"
	OpRemoveLayer  OpKind = "removeLayer"
	OpFitBounds    OpKind = "fitBounds"
)

// Op is one journaled engine mutation, shaped for a browser map client.
type Op struct {
	Op      OpKind          `json:"op"`
	ID      string          `json:"id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Layer   *Layer          `json:"layer,omitempty"`
	Bounds  *[4]float64     `json:"bounds,omitempty" doc:"west, south, east, north"`
	Padding int             `json:"padding,omitempty"`
}

// Viewport is the last bound the map was fitted to.
type Viewport struct {
	West    float64 `json:"west"`
	South   float64 `json:"south"`
	East    float64 `json:"east"`
	North   float64 `json:"north"`
	Padding int     `json:"padding"`
}

// Snapshot describes the current style.
type Snapshot struct {
	Sources  []string  `json:"sources" doc:"Source ids in insertion order"`
	Layers   []string  `json:"layers" doc:"Layer ids in draw order"`
	Viewport *Viewport `json:"viewport,omitempty" doc:"Last fitted viewport, absent if never fitted"`
}

// Style is an in-process Engine mirroring a browser map's style. It rejects the
// same duplicate and dangling ids a real engine would, and journals every
// mutation so it can be forwarded to connected map clients.
type Style struct {
	mu       sync.Mutex
	sources  map[string]json.RawMessage
	order    []string
	layers   []Layer
	viewport *Viewport
	journal  []Op
}

// NewStyle creates an empty style.
func NewStyle() *Style {
	return &Style{sources: make(map[string]json.RawMessage)}
}

var _ Engine = (*Style)(nil)

// SourceIDs returns the source ids in insertion order.
func (s *Style) SourceIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// HasLayer reports whether a layer with id exists.
func (s *Style) HasLayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layerIndex(id) >= 0
}

// AddSource registers data under id. Duplicate ids and invalid JSON are rejected.
func (s *Style) AddSource(id string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sources[id]; exists {
		return fmt.Errorf("source %q already exists", id)
	}
	if !json.Valid(data) {
		return fmt.Errorf("source %q: data is not valid JSON", id)
	}
	s.sources[id] = slices.Clone(data)
	s.order = append(s.order, id)
	s.journal = append(s.journal, Op{Op: OpAddSource, ID: id, Data: slices.Clone(data)})
	return nil
}

// RemoveSource deletes a source. It fails while any layer still draws from it.
func (s *Style) RemoveSource(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sources[id]; !exists {
		return fmt.Errorf("source %q does not exist", id)
	}
	for _, l := range s.layers {
		if l.Source == id {
			return fmt.Errorf("source %q cannot be removed while layer %q is using it", id, l.ID)
		}
	}
	delete(s.sources, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	s.journal = append(s.journal, Op{Op: OpRemoveSource, ID: id})
	return nil
}

// AddLayer appends layer on top of the existing ones. Its source must exist.
func (s *Style) AddLayer(layer Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.layerIndex(layer.ID) >= 0 {
		return fmt.Errorf("layer %q already exists", layer.ID)
	}
	if _, exists := s.sources[layer.Source]; !exists {
		return fmt.Errorf("layer %q: source %q not found", layer.ID, layer.Source)
	}
	s.layers = append(s.layers, layer)
	l := layer
	s.journal = append(s.journal, Op{Op: OpAddLayer, ID: layer.ID, Layer: &l})
	return nil
}

// RemoveLayer deletes the layer with id.
func (s *Style) RemoveLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.layerIndex(id)
	if i < 0 {
		return fmt.Errorf("layer %q does not exist", id)
	}
	s.layers = slices.Delete(s.layers, i, i+1)
	s.journal = append(s.journal, Op{Op: OpRemoveLayer, ID: id})
	return nil
}

// FitBounds records bound as the viewport. It never fails.
func (s *Style) FitBounds(bound orb.Bound, padding int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewport = &Viewport{
		West: bound.Left(), South: bound.Bottom(),
		East: bound.Right(), North: bound.Top(),
		Padding: padding,
	}
	s.journal = append(s.journal, fitOp(*s.viewport))
	return nil
}

// Drain returns and clears the mutations journaled since the last Drain.
func (s *Style) Drain() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := s.journal
	s.journal = nil
	return ops
}

// Replay returns the mutations that rebuild the current style on an empty map.
func (s *Style) Replay() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops := make([]Op, 0, len(s.order)+len(s.layers)+1)
	for _, id := range s.order {
		ops = append(ops, Op{Op: OpAddSource, ID: id, Data: slices.Clone(s.sources[id])})
	}
	for _, l := range s.layers {
		ops = append(ops, Op{Op: OpAddLayer, ID: l.ID, Layer: &l})
	}
	if s.viewport != nil {
		ops = append(ops, fitOp(*s.viewport))
	}
	return ops
}

// Snapshot returns the current source ids, layer ids and viewport.
func (s *Style) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Sources: slices.Clone(s.order),
		Layers:  make([]string, 0, len(s.layers)),
	}
	if snap.Sources == nil {
		snap.Sources = []string{}
	}
	for _, l := range s.layers {
		snap.Layers = append(snap.Layers, l.ID)
	}
	if s.viewport != nil {
		v := *s.viewport
		snap.Viewport = &v
	}
	return snap
}

func (s *Style) layerIndex(id string) int {
	return slices.IndexFunc(s.layers, func(l Layer) bool { return l.ID == id })
}

func fitOp(v Viewport) Op {
	return Op{Op: OpFitBounds, Bounds: &[4]float64{v.West, v.South, v.East, v.North}, Padding: v.Padding}
}
