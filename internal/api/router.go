package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all note routes mounted.
// events, if non-nil, is mounted at GET /events. The /activity route is
// only registered when h has an activity source.
func NewRouter(h *Handler, events http.Handler) chi.Router {
	r := chi.NewRouter()

	// Notes CRUD.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{name}", h.GetNote)
	r.Put("/notes/{name}", h.UpdateNote)
	r.Delete("/notes/{name}", h.DeleteNote)
	r.Post("/write", h.CreateNote)

	// Static pages.
	r.Get("/UploadForm.html", h.UploadForm)
	r.Get("/docs/openapi.yaml", h.OpenAPI)
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/openapi.yaml", http.StatusFound)
	})

	if h.activity != nil {
		r.Get("/activity", h.Activity)
	}
	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
