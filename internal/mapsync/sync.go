package mapsync

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/joeblew999/geojson-viewer/internal/document"
)

// SourcePrefix is the reserved prefix of sources owned by the synchronizer.
const SourcePrefix = "geojson-"

const (
	lineSuffix  = "-line"
	pointSuffix = "-point"
)

var ownedSource = regexp.MustCompile(`^geojson-[0-9]+$`)

// SourceID returns the source id for the document at index i.
func SourceID(i int) string {
	return SourcePrefix + strconv.Itoa(i)
}

// LayerIDs returns the fill, line and point layer ids derived from a source id.
func LayerIDs(sourceID string) []string {
	return []string{sourceID, sourceID + lineSuffix, sourceID + pointSuffix}
}

// Synchronizer rebuilds the map from a document list. It owns no state of its
// own: every Reconcile tears down what it previously added and starts over.
type Synchronizer struct {
	engine Engine
	paint  Paint
}

// NewSynchronizer creates a synchronizer driving engine.
func NewSynchronizer(engine Engine, paint Paint) *Synchronizer {
	return &Synchronizer{engine: engine, paint: paint}
}

// Reconcile makes the engine show exactly docs, in order, and frames the viewport
// around their coordinates. An empty document list leaves the viewport as is.
// An engine error aborts the pass; calling Reconcile again is always safe.
func (s *Synchronizer) Reconcile(docs []document.Loaded) error {
	if err := s.teardown(); err != nil {
		return err
	}

	for i, doc := range docs {
		if err := s.build(SourceID(i), doc); err != nil {
			return err
		}
	}

	if len(docs) == 0 {
		return nil
	}
	b := DocumentBounds(docs)
	if b.Empty() {
		return nil
	}
	if err := s.engine.FitBounds(b.Bound(), s.paint.FitPadding); err != nil {
		return fmt.Errorf("reconcile: fit bounds: %w", err)
	}
	return nil
}

func (s *Synchronizer) teardown() error {
	for _, id := range s.engine.SourceIDs() {
		if !ownedSource.MatchString(id) {
			continue
		}
		for _, layerID := range LayerIDs(id) {
			if !s.engine.HasLayer(layerID) {
				continue
			}
			if err := s.engine.RemoveLayer(layerID); err != nil {
				return fmt.Errorf("reconcile: remove layer %q: %w", layerID, err)
			}
		}
		if err := s.engine.RemoveSource(id); err != nil {
			return fmt.Errorf("reconcile: remove source %q: %w", id, err)
		}
	}
	return nil
}

func (s *Synchronizer) build(id string, doc document.Loaded) error {
	if err := s.engine.AddSource(id, doc.Data()); err != nil {
		return fmt.Errorf("reconcile: add source %q (%s): %w", id, doc.Name(), err)
	}

	ids := LayerIDs(id)
	layers := []Layer{
		{ID: ids[0], Type: LayerFill, Source: id, Paint: s.paint.fill(), Filter: geometryFilter("Polygon")},
		{ID: ids[1], Type: LayerLine, Source: id, Paint: s.paint.line(), Filter: geometryFilter("LineString")},
		{ID: ids[2], Type: LayerCircle, Source: id, Paint: s.paint.circle(), Filter: geometryFilter("Point")},
	}
	for _, l := range layers {
		if err := s.engine.AddLayer(l); err != nil {
			return fmt.Errorf("reconcile: add layer %q: %w", l.ID, err)
		}
	}
	return nil
}
