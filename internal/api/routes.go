// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/geojson-viewer/internal/db"
	"github.com/joeblew999/geojson-viewer/internal/document"
	"github.com/joeblew999/geojson-viewer/internal/mapsync"
	"github.com/joeblew999/geojson-viewer/internal/service"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Documents *service.DocumentService
	Catalog   *db.Catalog // nil when DuckDB is unavailable
}

// RegisterRoutes registers every REST route on api.
func RegisterRoutes(api huma.API, svc *Services) {
	huma.AutoRegister(api, NewAPIHandler(svc))
}

// Types

type BoundsBody struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

type DocumentsBody struct {
	Documents []service.DocumentInfo `json:"documents" doc:"Loaded documents in load order"`
	Error     string                 `json:"error,omitempty" doc:"Message of the last failed batch"`
	Bounds    *BoundsBody            `json:"bounds,omitempty" doc:"Bounds of every loaded coordinate, absent when there are none"`
}

type UploadInput struct {
	RawBody multipart.Form
}

type UploadBody struct {
	Documents []service.DocumentInfo `json:"documents" doc:"Documents added by this batch"`
	Message   string                 `json:"message" doc:"Result message"`
}

type QueryDocumentInput struct {
	Index int    `path:"index" minimum:"0" doc:"Document position" example:"0"`
	Path  string `query:"path" required:"true" doc:"JSONPath expression" example:"$.features[*].properties.name"`
}

type QueryDocumentBody struct {
	Name    string `json:"name" doc:"Document file name"`
	Results []any  `json:"results" doc:"Matched values"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterDocuments registers document load, list, clear and query routes.
func (h *APIHandler) RegisterDocuments(api huma.API) {
	huma.Get(api, "/api/v1/documents", h.ListDocuments, huma.OperationTags("documents"))
	huma.Post(api, "/api/v1/documents", h.LoadDocuments, huma.OperationTags("documents"))
	huma.Delete(api, "/api/v1/documents", h.ClearDocuments, huma.OperationTags("documents"))
	huma.Get(api, "/api/v1/documents/{index}/query", h.QueryDocument, huma.OperationTags("documents"))
}

// RegisterMap registers the map state route.
func (h *APIHandler) RegisterMap(api huma.API) {
	huma.Get(api, "/api/v1/map", h.GetMap, huma.OperationTags("map"))
}

// RegisterCatalog registers the SQL catalog routes.
func (h *APIHandler) RegisterCatalog(api huma.API) {
	var catalog *db.Catalog
	if h.svc != nil {
		catalog = h.svc.Catalog
	}
	NewDBHandler(catalog).RegisterRoutes(api)
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "1.0.0"}}, nil
}

func (h *APIHandler) ListDocuments(ctx context.Context, input *struct{}) (*struct{ Body DocumentsBody }, error) {
	docs := h.svc.Documents
	body := DocumentsBody{Documents: docs.List(), Error: docs.LastError()}
	if b := docs.Bounds(); !b.Empty() {
		bound := b.Bound()
		body.Bounds = &BoundsBody{West: bound.Left(), South: bound.Bottom(), East: bound.Right(), North: bound.Top()}
	}
	return &struct{ Body DocumentsBody }{Body: body}, nil
}

func (h *APIHandler) LoadDocuments(ctx context.Context, input *UploadInput) (*struct{ Body UploadBody }, error) {
	headers := input.RawBody.File["files"]
	if len(headers) == 0 {
		headers = input.RawBody.File["file"]
	}
	if len(headers) == 0 {
		return nil, huma.Error400BadRequest("No files provided")
	}

	files := make([]document.File, 0, len(headers))
	for _, fh := range headers {
		if !document.Advisory(fh.Filename, fh.Header.Get("Content-Type")) {
			log.Debug().Str("file", fh.Filename).Msg("Upload does not look like GeoJSON, validating anyway")
		}
		files = append(files, uploadFile{fh})
	}

	added, err := h.svc.Documents.Load(ctx, files)
	if err != nil {
		var ingestErr *document.Error
		if errors.As(err, &ingestErr) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error500InternalServerError("Failed to update map", err)
	}

	return &struct{ Body UploadBody }{Body: UploadBody{
		Documents: added,
		Message:   "Documents loaded",
	}}, nil
}

func (h *APIHandler) ClearDocuments(ctx context.Context, input *struct{}) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Documents.Clear(ctx); err != nil {
		return nil, huma.Error500InternalServerError("Failed to clear map", err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Documents cleared"}}, nil
}

func (h *APIHandler) QueryDocument(ctx context.Context, input *QueryDocumentInput) (*struct{ Body QueryDocumentBody }, error) {
	doc, ok := h.svc.Documents.Get(input.Index)
	if !ok {
		return nil, huma.Error404NotFound("document not found")
	}

	x, err := jp.ParseString(input.Path)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid jsonpath: " + err.Error())
	}
	data, err := oj.Parse(doc.Data())
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to read document", err)
	}

	results := x.Get(data)
	if results == nil {
		results = []any{}
	}
	return &struct{ Body QueryDocumentBody }{Body: QueryDocumentBody{Name: doc.Name(), Results: results}}, nil
}

func (h *APIHandler) GetMap(ctx context.Context, input *struct{}) (*struct{ Body mapsync.Snapshot }, error) {
	return &struct{ Body mapsync.Snapshot }{Body: h.svc.Documents.Map()}, nil
}

// uploadFile adapts a multipart upload to document.File.
type uploadFile struct {
	fh *multipart.FileHeader
}

func (u uploadFile) Name() string                 { return u.fh.Filename }
func (u uploadFile) Open() (io.ReadCloser, error) { return u.fh.Open() }
