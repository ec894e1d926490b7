package mapsync

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/geojson-viewer/internal/document"
)

func load(t *testing.T, name, body string) document.Loaded {
	t.Helper()
	doc, err := document.Ingest(document.BytesFile{FileName: name, Content: []byte(body)})
	require.NoError(t, err)
	return doc
}

const pointFC = `{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"Point","coordinates":[10,20]},"properties":{}}
]}`

const mixedFC = `{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"LineString","coordinates":[[-5,-5],[0,1]]}},
	{"type":"Feature","geometry":{"type":"MultiPolygon","coordinates":[[[[30,40],[31,40],[31,41],[30,40]]]]}}
]}`

func TestCoordinates(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
		want []orb.Point
	}{
		{"point", orb.Point{1, 2}, []orb.Point{{1, 2}}},
		{"multipoint", orb.MultiPoint{{1, 2}, {3, 4}}, []orb.Point{{1, 2}, {3, 4}}},
		{"linestring", orb.LineString{{1, 2}, {3, 4}}, []orb.Point{{1, 2}, {3, 4}}},
		{
			"polygon",
			orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			[]orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 0}},
		},
		{
			"multilinestring",
			orb.MultiLineString{{{0, 0}, {1, 1}}, {{2, 2}}},
			[]orb.Point{{0, 0}, {1, 1}, {2, 2}},
		},
		{
			"multipolygon",
			orb.MultiPolygon{{{{0, 0}, {1, 0}}}, {{{5, 5}}, {{6, 6}}}},
			[]orb.Point{{0, 0}, {1, 0}, {5, 5}, {6, 6}},
		},
		{"collection", orb.Collection{orb.Point{1, 1}}, nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coordinates(tt.geom))
		})
	}
}

func TestDocumentBounds_PolygonPairs(t *testing.T) {
	doc := load(t, "poly.geojson", `{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}`)

	b := DocumentBounds([]document.Loaded{doc})
	assert.Equal(t, 4, b.Count())
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}, b.Bound())
}

func TestDocumentBounds_Empty(t *testing.T) {
	assert.True(t, DocumentBounds(nil).Empty())

	doc := load(t, "none.geojson", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null}]}`)
	assert.True(t, DocumentBounds([]document.Loaded{doc}).Empty())
}

func TestReconcile_SinglePoint(t *testing.T) {
	style := NewStyle()
	s := NewSynchronizer(style, DefaultPaint())

	require.NoError(t, s.Reconcile([]document.Loaded{load(t, "p.geojson", pointFC)}))

	snap := style.Snapshot()
	assert.Equal(t, []string{"geojson-0"}, snap.Sources)
	assert.Equal(t, []string{"geojson-0", "geojson-0-line", "geojson-0-point"}, snap.Layers)
	require.NotNil(t, snap.Viewport)
	assert.Equal(t, Viewport{West: 10, South: 20, East: 10, North: 20, Padding: 40}, *snap.Viewport)
}

func TestReconcile_LayerDefinitions(t *testing.T) {
	style := NewStyle()
	require.NoError(t, NewSynchronizer(style, DefaultPaint()).Reconcile([]document.Loaded{load(t, "p.geojson", pointFC)}))

	var layers []Layer
	for _, op := range style.Drain() {
		if op.Op == OpAddLayer {
			layers = append(layers, *op.Layer)
		}
	}
	require.Len(t, layers, 3)

	assert.Equal(t, LayerFill, layers[0].Type)
	assert.Equal(t, []any{"==", "$type", "Polygon"}, layers[0].Filter)
	assert.Equal(t, "#088", layers[0].Paint["fill-color"])
	assert.Equal(t, 0.4, layers[0].Paint["fill-opacity"])

	assert.Equal(t, LayerLine, layers[1].Type)
	assert.Equal(t, []any{"==", "$type", "LineString"}, layers[1].Filter)
	assert.Equal(t, 2.0, layers[1].Paint["line-width"])

	assert.Equal(t, LayerCircle, layers[2].Type)
	assert.Equal(t, []any{"==", "$type", "Point"}, layers[2].Filter)
	assert.Equal(t, "#B42222", layers[2].Paint["circle-color"])

	for _, l := range layers {
		assert.Equal(t, "geojson-0", l.Source)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	style := NewStyle()
	s := NewSynchronizer(style, DefaultPaint())
	docs := []document.Loaded{load(t, "a.geojson", pointFC), load(t, "b.geojson", mixedFC)}

	require.NoError(t, s.Reconcile(docs))
	first := style.Snapshot()

	require.NoError(t, s.Reconcile(docs))
	second := style.Snapshot()

	assert.Equal(t, first, second)
	assert.Equal(t, Viewport{West: -5, South: -5, East: 31, North: 41, Padding: 40}, *second.Viewport)
}

func TestReconcile_ClearRemovesOwnedSources(t *testing.T) {
	style := NewStyle()
	s := NewSynchronizer(style, DefaultPaint())

	require.NoError(t, s.Reconcile([]document.Loaded{load(t, "a.geojson", pointFC), load(t, "b.geojson", mixedFC)}))
	before := style.Snapshot().Viewport
	style.Drain()

	require.NoError(t, s.Reconcile(nil))

	snap := style.Snapshot()
	assert.Empty(t, snap.Sources)
	assert.Empty(t, snap.Layers)
	assert.Equal(t, before, snap.Viewport, "viewport is left as is")

	for _, op := range style.Drain() {
		assert.NotEqual(t, OpFitBounds, op.Op)
	}
}

func TestReconcile_ShrinkingList(t *testing.T) {
	style := NewStyle()
	s := NewSynchronizer(style, DefaultPaint())
	a, b := load(t, "a.geojson", pointFC), load(t, "b.geojson", mixedFC)

	require.NoError(t, s.Reconcile([]document.Loaded{a, b}))
	require.NoError(t, s.Reconcile([]document.Loaded{b}))

	snap := style.Snapshot()
	assert.Equal(t, []string{"geojson-0"}, snap.Sources)
	assert.Len(t, snap.Layers, 3)
	assert.Equal(t, -5.0, snap.Viewport.West)
}

func TestReconcile_LeavesForeignSources(t *testing.T) {
	style := NewStyle()
	require.NoError(t, style.AddSource("basemap", json.RawMessage(`{}`)))
	require.NoError(t, style.AddLayer(Layer{ID: "background", Type: LayerFill, Source: "basemap"}))
	require.NoError(t, style.AddSource("geojson-notes", json.RawMessage(`{}`)))

	s := NewSynchronizer(style, DefaultPaint())
	require.NoError(t, s.Reconcile([]document.Loaded{load(t, "p.geojson", pointFC)}))
	require.NoError(t, s.Reconcile(nil))

	snap := style.Snapshot()
	assert.Equal(t, []string{"basemap", "geojson-notes"}, snap.Sources)
	assert.Equal(t, []string{"background"}, snap.Layers)
}

func TestReconcile_TeardownHandlesPartialLayers(t *testing.T) {
	style := NewStyle()
	require.NoError(t, style.AddSource("geojson-3", json.RawMessage(`{}`)))
	require.NoError(t, style.AddLayer(Layer{ID: "geojson-3-line", Type: LayerLine, Source: "geojson-3"}))

	require.NoError(t, NewSynchronizer(style, DefaultPaint()).Reconcile(nil))
	assert.Empty(t, style.Snapshot().Sources)
}

func TestReconcile_NoCoordinatesKeepsViewport(t *testing.T) {
	style := NewStyle()
	doc := load(t, "empty.geojson", `{"type":"FeatureCollection","features":[]}`)

	require.NoError(t, NewSynchronizer(style, DefaultPaint()).Reconcile([]document.Loaded{doc}))

	snap := style.Snapshot()
	assert.Len(t, snap.Layers, 3)
	assert.Nil(t, snap.Viewport)
}

type failingEngine struct {
	*Style
	failLayer string
}

func (f *failingEngine) AddLayer(l Layer) error {
	if l.ID == f.failLayer {
		return errors.New("boom")
	}
	return f.Style.AddLayer(l)
}

func TestReconcile_EngineErrorSurfaces(t *testing.T) {
	engine := &failingEngine{Style: NewStyle(), failLayer: "geojson-0-line"}
	s := NewSynchronizer(engine, DefaultPaint())

	err := s.Reconcile([]document.Loaded{load(t, "p.geojson", pointFC)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `add layer "geojson-0-line"`)

	// Teardown then rebuild makes a retry with a healthy engine safe.
	engine.failLayer = ""
	require.NoError(t, s.Reconcile([]document.Loaded{load(t, "p.geojson", pointFC)}))
	assert.Len(t, engine.Snapshot().Layers, 3)
}

func TestStyle_RejectsBadMutations(t *testing.T) {
	style := NewStyle()
	require.NoError(t, style.AddSource("s", json.RawMessage(`{}`)))

	assert.Error(t, style.AddSource("s", json.RawMessage(`{}`)))
	assert.Error(t, style.AddSource("bad", json.RawMessage(`{`)))
	assert.Error(t, style.AddLayer(Layer{ID: "l", Source: "missing"}))
	require.NoError(t, style.AddLayer(Layer{ID: "l", Source: "s"}))
	assert.Error(t, style.AddLayer(Layer{ID: "l", Source: "s"}))
	assert.Error(t, style.RemoveSource("s"))
	assert.Error(t, style.RemoveLayer("nope"))
	assert.Error(t, style.RemoveSource("nope"))
}

func TestStyle_ReplayRebuildsState(t *testing.T) {
	style := NewStyle()
	docs := []document.Loaded{load(t, "a.geojson", pointFC), load(t, "b.geojson", mixedFC)}
	require.NoError(t, NewSynchronizer(style, DefaultPaint()).Reconcile(docs))

	ops := style.Replay()
	raw, err := json.Marshal(ops)
	require.NoError(t, err)

	var decoded []Op
	require.NoError(t, json.Unmarshal(raw, &decoded))

	fresh := NewStyle()
	require.NoError(t, fresh.apply(decoded))
	assert.Equal(t, style.Snapshot(), fresh.Snapshot())
}

func TestStyle_DrainEmptiesJournal(t *testing.T) {
	style := NewStyle()
	require.NoError(t, style.AddSource("s", json.RawMessage(`{}`)))
	assert.Len(t, style.Drain(), 1)
	assert.Empty(t, style.Drain())
}

func TestLoadPaint(t *testing.T) {
	p, err := LoadPaint("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPaint(), p)

	path := filepath.Join(t.TempDir(), "paint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fill_color: \"#f00\"\nfit_padding: 10\n"), 0o644))

	p, err = LoadPaint(path)
	require.NoError(t, err)
	assert.Equal(t, "#f00", p.FillColor)
	assert.Equal(t, 10, p.FitPadding)
	assert.Equal(t, "#B42222", p.CircleColor)

	require.NoError(t, os.WriteFile(path, []byte("fit_padding: -1\n"), 0o644))
	_, err = LoadPaint(path)
	assert.Error(t, err)

	_, err = LoadPaint(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDocumentBoundsIgnoresMissingCoordinates(t *testing.T) {
	doc := load(t, "gaps.geojson", `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[10,20]}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":null}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[]}},
		{"type":"Feature","geometry":{"type":"Point"}},
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[1]]}}
	]}`)

	b := DocumentBounds([]document.Loaded{doc})
	assert.Equal(t, 1, b.Count())
	assert.Equal(t, orb.Bound{Min: orb.Point{10, 20}, Max: orb.Point{10, 20}}, b.Bound())
}
