package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/geojson-viewer/internal/db"
)

// DBHandler handles catalog query endpoints.
type DBHandler struct {
	catalog *db.Catalog
}

// NewDBHandler creates a new catalog handler. catalog may be nil.
func NewDBHandler(catalog *db.Catalog) *DBHandler {
	return &DBHandler{catalog: catalog}
}

// RegisterRoutes registers catalog routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("catalog"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("catalog"))
}

// TablesBody is the response for listing tables.
type TablesBody struct {
	Tables []string `json:"tables" doc:"List of table names"`
}

// ListTables returns all catalog tables.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*struct{ Body TablesBody }, error) {
	if h.catalog == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	tables, err := h.catalog.Tables(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	return &struct{ Body TablesBody }{Body: TablesBody{Tables: tables}}, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" doc:"SQL query to execute" example:"SELECT name, features FROM documents"`
	}
}

// QueryBody is the response for SQL queries.
type QueryBody struct {
	Columns []string         `json:"columns" doc:"Column names"`
	Rows    []map[string]any `json:"rows" doc:"Query results"`
	Count   int              `json:"count" doc:"Number of rows returned"`
}

// Query executes a SQL query against the document catalog.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*struct{ Body QueryBody }, error) {
	if h.catalog == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	columns, rows, err := h.catalog.Query(ctx, input.Body.Query)
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	return &struct{ Body QueryBody }{Body: QueryBody{Columns: columns, Rows: rows, Count: len(rows)}}, nil
}
