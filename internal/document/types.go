// Package document ingests GeoJSON files into immutable loaded documents.
package document

import (
	"encoding/json"
	"strings"

	"github.com/paulmach/orb"
)

// Type is a GeoJSON type tag.
type Type string

// Canonical GeoJSON type tags.
const (
	FeatureCollection  Type = "FeatureCollection"
	Feature            Type = "Feature"
	GeometryCollection Type = "GeometryCollection"
	Point              Type = "Point"
	MultiPoint         Type = "MultiPoint"
	LineString         Type = "LineString"
	MultiLineString    Type = "MultiLineString"
	Polygon            Type = "Polygon"
	MultiPolygon       Type = "MultiPolygon"
)

// canonical maps the case-folded form of every GeoJSON type to its canonical tag.
var canonical = map[string]Type{
	"featurecollection":  FeatureCollection,
	"feature":            Feature,
	"geometrycollection": GeometryCollection,
	"point":              Point,
	"multipoint":         MultiPoint,
	"linestring":         LineString,
	"multilinestring":    MultiLineString,
	"polygon":            Polygon,
	"multipolygon":       MultiPolygon,
}

// NormalizeType returns the canonical form of a type tag regardless of case.
// Unknown tags are returned unchanged and ok is false.
func NormalizeType(tag string) (t Type, ok bool) {
	if t, ok := canonical[strings.ToLower(tag)]; ok {
		return t, true
	}
	return Type(tag), false
}

// FeatureItem is one feature of a loaded document.
// Geometry is nil when the feature has no geometry or it could not be decoded.
type FeatureItem struct {
	Geometry   orb.Geometry
	Properties map[string]any
}

// Loaded is a successfully ingested GeoJSON document.
type Loaded struct {
	name     string
	typ      Type
	data     json.RawMessage
	features []FeatureItem
}

// Name returns the original file name.
func (d Loaded) Name() string { return d.name }

// Type returns the normalized root type, FeatureCollection or Feature.
func (d Loaded) Type() Type { return d.typ }

// Data returns the normalized document as JSON, ready to register as a map source.
func (d Loaded) Data() json.RawMessage {
	out := make(json.RawMessage, len(d.data))
	copy(out, d.data)
	return out
}

// Features returns the document's features. A lone Feature root yields one item.
func (d Loaded) Features() []FeatureItem {
	out := make([]FeatureItem, len(d.features))
	copy(out, d.features)
	return out
}
