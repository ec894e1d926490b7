package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// File is one file of an ingestion batch.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// PathFile is a File backed by a path on disk.
type PathFile string

func (p PathFile) Name() string                 { return filepath.Base(string(p)) }
func (p PathFile) Open() (io.ReadCloser, error) { return os.Open(string(p)) }

// BytesFile is a File held in memory.
type BytesFile struct {
	FileName string
	Content  []byte
}

func (b BytesFile) Name() string { return b.FileName }
func (b BytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Content)), nil
}

// IngestBatch ingests files in order and stops at the first failure.
// On failure no documents are returned, not even those that loaded before it.
func IngestBatch(files []File) ([]Loaded, error) {
	loaded := make([]Loaded, 0, len(files))
	for _, f := range files {
		doc, err := Ingest(f)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, doc)
	}
	return loaded, nil
}

// Ingest reads, parses, normalizes and validates a single GeoJSON file.
// Only the top-level type tag is normalized; nested geometry tags are kept as
// written, so a lowercase geometry type inside a feature decodes to no geometry.
func Ingest(f File) (Loaded, error) {
	name := f.Name()

	raw, err := readAll(f)
	if err != nil {
		return Loaded{}, &Error{Kind: KindIO, File: name, Err: err}
	}

	value, err := parse(raw)
	if err != nil {
		return Loaded{}, &Error{Kind: KindParse, File: name, Err: err}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return Loaded{}, &Error{Kind: KindInvalid, File: name, Err: ErrInvalidGeoJSON}
	}
	if tag, ok := obj["type"].(string); ok {
		if t, known := NormalizeType(tag); known {
			obj["type"] = string(t)
		}
	}

	typ, _ := obj["type"].(string)
	if Type(typ) != FeatureCollection && Type(typ) != Feature {
		return Loaded{}, &Error{Kind: KindInvalid, File: name, Err: ErrInvalidGeoJSON}
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return Loaded{}, &Error{Kind: KindParse, File: name, Err: err}
	}

	return Loaded{
		name:     name,
		typ:      Type(typ),
		data:     data,
		features: decodeFeatures(Type(typ), data),
	}, nil
}

func readAll(f File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parse decodes exactly one JSON value, keeping numbers as written.
func parse(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid character after top-level value at offset %d", dec.InputOffset())
	}
	return v, nil
}

func decodeFeatures(typ Type, data []byte) []FeatureItem {
	if typ == Feature {
		return []FeatureItem{decodeFeature(data)}
	}

	var fc struct {
		Features json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(fc.Features, &raws); err != nil {
		return nil
	}

	items := make([]FeatureItem, 0, len(raws))
	for _, r := range raws {
		items = append(items, decodeFeature(r))
	}
	return items
}

func decodeFeature(raw []byte) FeatureItem {
	var f struct {
		Geometry   json.RawMessage `json:"geometry"`
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return FeatureItem{}
	}

	var props map[string]any
	_ = json.Unmarshal(f.Properties, &props)

	return FeatureItem{Geometry: decodeGeometry(f.Geometry), Properties: props}
}

// positionDepth is how deeply positions are nested in each geometry's coordinates.
var positionDepth = map[string]int{
	"Point":           0,
	"MultiPoint":      1,
	"LineString":      1,
	"MultiLineString": 2,
	"Polygon":         2,
	"MultiPolygon":    3,
}

// decodeGeometry returns nil for absent, null or unrecognized geometries, and
// for geometries whose coordinates are missing, empty or hold a position with
// fewer than two numbers.
func decodeGeometry(raw json.RawMessage) orb.Geometry {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var head struct {
		Type        string `json:"type"`
		Coordinates any    `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil
	}
	if head.Type != "GeometryCollection" {
		depth, ok := positionDepth[head.Type]
		if !ok {
			return nil
		}
		coords, ok := head.Coordinates.([]any)
		if !ok || len(coords) == 0 || !validPositions(coords, depth) {
			return nil
		}
	}

	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil || g == nil {
		return nil
	}
	return g.Geometry()
}

// validPositions reports whether every position depth levels below v has at
// least two numbers. orb would otherwise fill the missing ones with zero.
func validPositions(v any, depth int) bool {
	arr, ok := v.([]any)
	if !ok {
		return false
	}
	if depth == 0 {
		if len(arr) < 2 {
			return false
		}
		for _, n := range arr {
			if _, ok := n.(float64); !ok {
				return false
			}
		}
		return true
	}
	for _, e := range arr {
		if !validPositions(e, depth-1) {
			return false
		}
	}
	return true
}

var (
	advisoryExtensions = []string{".geojson", ".json"}
	advisoryMediaTypes = []string{"application/geo+json", "application/json"}
)

// Accept returns the upload hints a file picker is configured with, in the
// form of an HTML accept attribute list. Advisory matches the same list.
func Accept() []string {
	out := make([]string, 0, len(advisoryExtensions)+len(advisoryMediaTypes))
	out = append(out, advisoryExtensions...)
	return append(out, advisoryMediaTypes...)
}

// Advisory reports whether a file's extension or media type hints at GeoJSON.
// It never decides acceptance; Ingest does.
func Advisory(name, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range advisoryExtensions {
		if ext == e {
			return true
		}
	}
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, m := range advisoryMediaTypes {
		if mt == m {
			return true
		}
	}
	return false
}
