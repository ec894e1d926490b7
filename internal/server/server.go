package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/geojson-viewer/internal/api"
	"github.com/joeblew999/geojson-viewer/internal/api/viewer"
	"github.com/joeblew999/geojson-viewer/internal/db"
	"github.com/joeblew999/geojson-viewer/internal/mapsync"
	"github.com/joeblew999/geojson-viewer/internal/service"
	"github.com/joeblew999/geojson-viewer/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	PaintFile  string   // optional YAML file overriding the default layer paint
	Extensions []string // DuckDB extensions to load into the catalog
	NoCatalog  bool
	// TemplatesDir overrides the built-in fragments and is re-read for every
	// viewer stream. Development only.
	TemplatesDir string
}

// Server is the GeoJSON viewer HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	catalog  *db.Catalog
	bus      *service.EventBus
	docs     *service.DocumentService
	renderer *templates.Renderer
}

// New creates a server with an empty document list and an empty map.
func New(cfg Config) (*Server, error) {
	paint, err := mapsync.LoadPaint(cfg.PaintFile)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("geojson-viewer API", "1.0.0")
	humaConfig.Info.Description = "Loads GeoJSON documents and keeps a map style in step with them."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	renderer, err := templates.New()
	if err != nil {
		return nil, fmt.Errorf("loading fragment templates: %w", err)
	}
	if cfg.TemplatesDir != "" {
		if err := renderer.Reload(os.DirFS(cfg.TemplatesDir), "*.html"); err != nil {
			return nil, fmt.Errorf("loading templates from %s: %w", cfg.TemplatesDir, err)
		}
		log.Info().Str("dir", cfg.TemplatesDir).Msg("Serving dev templates")
	}

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humago.New(mux, humaConfig),
		bus:      service.NewEventBus(),
		renderer: renderer,
	}

	// The catalog is opened last so no later failure leaves it open.
	var catalog service.Catalog
	if !cfg.NoCatalog {
		c, err := db.Open(cfg.Extensions...)
		if err != nil {
			log.Warn().Err(err).Msg("Catalog unavailable, SQL endpoints disabled")
		} else {
			s.catalog = c
			catalog = c
		}
	}

	s.docs = service.NewDocumentService(mapsync.NewStyle(), paint, s.bus, catalog)

	s.routes(paint)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return RequestLogger(s)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Close()
}

func (s *Server) routes(paint mapsync.Paint) {
	api.RegisterRoutes(s.humaAPI, &api.Services{
		Documents: s.docs,
		Catalog:   s.catalog,
	})
	api.NewInfoHandler(paint, s.catalog != nil).RegisterRoutes(s.humaAPI)
	events := viewer.NewEventHandler(s.docs, s.bus, s.renderer)
	if s.config.TemplatesDir != "" {
		events.WithDevTemplates(os.DirFS(s.config.TemplatesDir), "*.html")
	}
	events.RegisterRoutes(s.humaAPI)

	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service":   "geojson-viewer",
		"status":    "running",
		"documents": len(s.docs.Names()),
	})
}
