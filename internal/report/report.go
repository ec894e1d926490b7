// Package report summarizes an ingested batch for the command line checker.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/geojson-viewer/internal/document"
	"github.com/joeblew999/geojson-viewer/internal/mapsync"
)

// Bounds is a [west, south, east, north] box.
type Bounds [4]float64

// Document describes one loaded document.
type Document struct {
	Name     string  `json:"name" yaml:"name"`
	Source   string  `json:"source" yaml:"source"`
	Type     string  `json:"type" yaml:"type"`
	Features int     `json:"features" yaml:"features"`
	Points   int     `json:"points" yaml:"points"`
	Bounds   *Bounds `json:"bounds,omitempty" yaml:"bounds,omitempty,flow"`
}

// Report is the result of checking a batch.
type Report struct {
	OK        bool       `json:"ok" yaml:"ok"`
	Error     string     `json:"error,omitempty" yaml:"error,omitempty"`
	Documents []Document `json:"documents" yaml:"documents"`
	Points    int        `json:"points" yaml:"points"`
	Bounds    *Bounds    `json:"bounds,omitempty" yaml:"bounds,omitempty,flow"`
}

// Build summarizes docs in the order the map would show them.
func Build(docs []document.Loaded) Report {
	r := Report{OK: true, Documents: make([]Document, 0, len(docs))}
	for i, d := range docs {
		b := mapsync.DocumentBounds([]document.Loaded{d})
		r.Documents = append(r.Documents, Document{
			Name:     d.Name(),
			Source:   mapsync.SourceID(i),
			Type:     string(d.Type()),
			Features: len(d.Features()),
			Points:   b.Count(),
			Bounds:   box(b),
		})
	}
	all := mapsync.DocumentBounds(docs)
	r.Points = all.Count()
	r.Bounds = box(all)
	return r
}

// Failed reports a rejected batch.
func Failed(err error) Report {
	return Report{Error: err.Error(), Documents: []Document{}}
}

func box(b mapsync.Bounds) *Bounds {
	if b.Empty() {
		return nil
	}
	bb := b.Bound()
	return &Bounds{bb.Min.X(), bb.Min.Y(), bb.Max.X(), bb.Max.Y()}
}

// Write encodes r as "json" or "yaml".
func (r Report) Write(w io.Writer, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
