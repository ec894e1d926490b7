package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geojson-viewer/internal/document"
	"github.com/joeblew999/geojson-viewer/internal/mapsync"
)

type InfoHandler struct {
	paint mapsync.Paint
	dbOK  bool
}

func NewInfoHandler(paint mapsync.Paint, dbOK bool) *InfoHandler {
	return &InfoHandler{paint: paint, dbOK: dbOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string        `json:"name" doc:"Service name"`
	Version  string        `json:"version" doc:"Service version"`
	DB       bool          `json:"db" doc:"Whether the catalog database is available"`
	Paint    mapsync.Paint `json:"paint" doc:"Styling applied to document layers"`
	Accepts  []string      `json:"accepts" doc:"Upload hints offered to file pickers"`
	Features []string      `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "geojson-viewer",
		Version:  "0.1.0",
		DB:       h.dbOK,
		Paint:    h.paint,
		Accepts:  document.Accept(),
		Features: []string{"geojson", "datastar", "duckdb", "jsonpath"},
	}}, nil
}
