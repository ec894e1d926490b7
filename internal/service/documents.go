// Package service owns the loaded document list and keeps the map in step with it.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/joeblew999/geojson-viewer/internal/document"
	"github.com/joeblew999/geojson-viewer/internal/mapsync"
)

// Catalog mirrors the loaded documents somewhere queryable.
type Catalog interface {
	Replace(ctx context.Context, docs []document.Loaded) error
}

// DocumentInfo summarizes a loaded document.
type DocumentInfo struct {
	Index    int    `json:"index" doc:"Position in the load order" example:"0"`
	Name     string `json:"name" doc:"Original file name" example:"parks.geojson"`
	Type     string `json:"type" doc:"Root type" enum:"FeatureCollection,Feature" example:"FeatureCollection"`
	Source   string `json:"source" doc:"Map source id" example:"geojson-0"`
	Features int    `json:"features" doc:"Number of features" example:"12"`
}

// DocumentService manages the loaded documents. Every change reconciles the map
// while holding the lock, so the synchronizer never sees a half-applied list.
type DocumentService struct {
	mu      sync.RWMutex
	docs    []document.Loaded
	lastErr string

	style   *mapsync.Style
	sync    *mapsync.Synchronizer
	bus     *EventBus
	catalog Catalog
}

// NewDocumentService creates a document service driving style. catalog may be nil.
func NewDocumentService(style *mapsync.Style, paint mapsync.Paint, bus *EventBus, catalog Catalog) *DocumentService {
	return &DocumentService{
		style:   style,
		sync:    mapsync.NewSynchronizer(style, paint),
		bus:     bus,
		catalog: catalog,
	}
}

// Load ingests one batch. The first failing file aborts the batch: none of its
// documents are kept, the existing list is left as it was, and the failure
// becomes the last error.
func (s *DocumentService) Load(ctx context.Context, files []document.File) ([]DocumentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := document.IngestBatch(files)
	if err != nil {
		s.lastErr = err.Error()
		log.Warn().Err(err).Int("batch", len(files)).Msg("Batch rejected")
		s.publish("failed", nil)
		return nil, err
	}

	next := make([]document.Loaded, 0, len(s.docs)+len(loaded))
	next = append(next, s.docs...)
	next = append(next, loaded...)

	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}

	log.Info().Int("added", len(loaded)).Int("total", len(s.docs)).Msg("Documents loaded")
	s.publish("loaded", s.style.Drain())
	return infos(s.docs)[len(s.docs)-len(loaded):], nil
}

// Clear empties the document list and removes every document from the map.
func (s *DocumentService) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.commit(ctx, nil); err != nil {
		return err
	}

	log.Info().Msg("Documents cleared")
	s.publish("cleared", s.style.Drain())
	return nil
}

// commit reconciles the map with next and, on success, makes it the current list.
func (s *DocumentService) commit(ctx context.Context, next []document.Loaded) error {
	if err := s.sync.Reconcile(next); err != nil {
		log.Error().Err(err).Msg("Map reconciliation failed")
		s.lastErr = err.Error()
		// Forward what was applied so clients still mirror the engine.
		s.publish("failed", s.style.Drain())
		return fmt.Errorf("map out of sync: %w", err)
	}
	s.docs = next
	s.lastErr = ""

	if s.catalog != nil {
		if err := s.catalog.Replace(ctx, next); err != nil {
			log.Warn().Err(err).Msg("Catalog refresh failed")
		}
	}
	return nil
}

func (s *DocumentService) publish(action string, ops []mapsync.Op) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(Event{
		Action:    action,
		Documents: infos(s.docs),
		Error:     s.lastErr,
		Ops:       ops,
	})
}

// List returns a summary of every loaded document in load order.
func (s *DocumentService) List() []DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return infos(s.docs)
}

// Names returns the file names of the loaded documents.
func (s *DocumentService) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return names(s.docs)
}

// Get returns the document at index.
func (s *DocumentService) Get(index int) (document.Loaded, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.docs) {
		return document.Loaded{}, false
	}
	return s.docs[index], true
}

// LastError returns the message of the most recent failed batch, if any.
func (s *DocumentService) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Bounds returns the bounds of every loaded coordinate.
func (s *DocumentService) Bounds() mapsync.Bounds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return mapsync.DocumentBounds(s.docs)
}

// Map returns the current map style snapshot.
func (s *DocumentService) Map() mapsync.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.style.Snapshot()
}

// ReplayState is everything a new viewer needs to draw the current map.
type ReplayState struct {
	Ops       []mapsync.Op   // rebuild the map from scratch
	Documents []DocumentInfo // the documents those ops show
	Error     string         // last error
	Seq       uint64         // last event already included
}

// Replay returns the engine operations that rebuild the current map, taken
// together with the document list and the bus position they correspond to.
func (s *DocumentService) Replay() ReplayState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ReplayState{
		Ops:       s.style.Replay(),
		Documents: infos(s.docs),
		Error:     s.lastErr,
	}
	if s.bus != nil {
		st.Seq = s.bus.Seq()
	}
	return st
}

func infos(docs []document.Loaded) []DocumentInfo {
	out := make([]DocumentInfo, 0, len(docs))
	for i, d := range docs {
		out = append(out, DocumentInfo{
			Index:    i,
			Name:     d.Name(),
			Type:     string(d.Type()),
			Source:   mapsync.SourceID(i),
			Features: len(d.Features()),
		})
	}
	return out
}

func names(docs []document.Loaded) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Name())
	}
	return out
}
