package mapsync

import (
	"github.com/paulmach/orb"

	"github.com/joeblew999/geojson-viewer/internal/document"
)

// Coordinates flattens a geometry into its coordinate pairs.
// Collections, nil and unknown geometries contribute nothing.
func Coordinates(g orb.Geometry) []orb.Point {
	switch g := g.(type) {
	case orb.Point:
		return []orb.Point{g}
	case orb.MultiPoint:
		return append([]orb.Point(nil), g...)
	case orb.LineString:
		return append([]orb.Point(nil), g...)
	case orb.Polygon:
		var pts []orb.Point
		for _, ring := range g {
			pts = append(pts, ring...)
		}
		return pts
	case orb.MultiLineString:
		var pts []orb.Point
		for _, ls := range g {
			pts = append(pts, ls...)
		}
		return pts
	case orb.MultiPolygon:
		var pts []orb.Point
		for _, poly := range g {
			for _, ring := range poly {
				pts = append(pts, ring...)
			}
		}
		return pts
	default:
		return nil
	}
}

// Bounds is a bounding box that knows whether anything has been added to it.
type Bounds struct {
	bound orb.Bound
	n     int
}

// Extend grows the box to include p.
func (b *Bounds) Extend(p orb.Point) {
	if b.n == 0 {
		b.bound = orb.Bound{Min: p, Max: p}
	} else {
		b.bound = b.bound.Extend(p)
	}
	b.n++
}

// Empty reports whether no point has been added.
func (b Bounds) Empty() bool { return b.n == 0 }

// Bound returns the box. It is the zero bound when Empty.
func (b Bounds) Bound() orb.Bound { return b.bound }

// Count returns how many points were added.
func (b Bounds) Count() int { return b.n }

// DocumentBounds computes the box enclosing every coordinate of every document.
func DocumentBounds(docs []document.Loaded) Bounds {
	var b Bounds
	for _, doc := range docs {
		for _, f := range doc.Features() {
			for _, p := range Coordinates(f.Geometry) {
				b.Extend(p)
			}
		}
	}
	return b
}
