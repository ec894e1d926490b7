package viewer

import (
	"context"
	"io/fs"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/geojson-viewer/internal/mapsync"
	"github.com/joeblew999/geojson-viewer/internal/service"
	"github.com/joeblew999/geojson-viewer/internal/templates"
)

// EventHandler streams document changes and map operations to the viewer UI.
type EventHandler struct {
	docs     *service.DocumentService
	bus      *service.EventBus
	renderer *templates.Renderer

	// dev template override, reloaded for every new stream
	devFS      fs.FS
	devPattern string
}

// NewEventHandler creates a new event handler.
func NewEventHandler(docs *service.DocumentService, bus *service.EventBus, renderer *templates.Renderer) *EventHandler {
	return &EventHandler{docs: docs, bus: bus, renderer: renderer}
}

// WithDevTemplates makes every new stream reload the fragments from fsys, so
// template edits show up without a restart.
func (h *EventHandler) WithDevTemplates(fsys fs.FS, pattern string) *EventHandler {
	h.devFS = fsys
	h.devPattern = pattern
	return h
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/viewer/events", h.Events,
		huma.OperationTags("viewer"),
	)
}

// Events first sends the whole map as a reset, then forwards each change's ops
// as they happen. A gap in event sequence numbers means the bus dropped events
// for this client, which is then resynced with a fresh reset.
func (h *EventHandler) Events(ctx context.Context, input *EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			h.reloadTemplates()

			sse := NewSSE(humaCtx)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			seq, err := h.sendReset(sse)
			if err != nil {
				return
			}

			done := humaCtx.Context().Done()
			for {
				select {
				case <-done:
					return
				case ev := <-ch:
					switch {
					case ev.Seq <= seq:
						// already part of the last reset
						continue
					case ev.Seq == seq+1:
						seq = ev.Seq
						err = h.send(sse, false, ev.Ops, ev.Documents, ev.Error)
					default:
						seq, err = h.sendReset(sse)
					}
					if err != nil {
						log.Debug().Err(err).Msg("Viewer stream closed")
						return
					}
				}
			}
		},
	}, nil
}

func (h *EventHandler) reloadTemplates() {
	if h.devFS == nil || h.renderer == nil {
		return
	}
	if err := h.renderer.Reload(h.devFS, h.devPattern); err != nil {
		log.Warn().Err(err).Msg("Reloading dev templates failed, keeping previous")
	}
}

func (h *EventHandler) sendReset(sse SSE) (uint64, error) {
	st := h.docs.Replay()
	return st.Seq, h.send(sse, true, st.Ops, st.Documents, st.Error)
}

// send pushes ops with the document list and error they belong to.
func (h *EventHandler) send(sse SSE, reset bool, ops []mapsync.Op, infos []service.DocumentInfo, errMsg string) error {
	if ops == nil {
		ops = []mapsync.Op{}
	}
	names := make([]string, 0, len(infos))
	for _, d := range infos {
		names = append(names, d.Name)
	}

	if err := sse.Signals(map[string]any{
		"mapReset": reset,
		"mapOps":   ops,
		"files":    names,
		"error":    errMsg,
	}); err != nil {
		return err
	}
	if h.renderer == nil {
		return nil
	}
	if err := sse.Patch(h.renderList(infos), "#document-list"); err != nil {
		return err
	}
	return sse.Patch(h.renderError(errMsg), "#document-error")
}

func (h *EventHandler) renderList(infos []service.DocumentInfo) string {
	var html string
	var err error
	if len(infos) == 0 {
		html, err = h.renderer.Render("empty-state", map[string]string{
			"Title": "No documents loaded", "Message": "Choose or drop GeoJSON files to show them on the map.",
		})
	} else {
		html, err = h.renderer.Render("document-list", infos)
	}
	if err != nil {
		log.Error().Err(err).Msg("Rendering document list failed")
	}
	return html
}

func (h *EventHandler) renderError(msg string) string {
	html, err := h.renderer.Render("error", msg)
	if err != nil {
		log.Error().Err(err).Msg("Rendering error message failed")
	}
	return html
}
