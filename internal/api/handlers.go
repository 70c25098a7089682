package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notecache/internal/apperr"
	"github.com/starford/notecache/internal/checksum"
	"github.com/starford/notecache/internal/models"
	"github.com/starford/notecache/internal/noteservice"
	"github.com/starford/notecache/internal/web"
)

const maxBodyBytes = 10 << 20

// ActivityLister is the read side of the activity journal.
type ActivityLister interface {
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// Handler holds API route handlers.
type Handler struct {
	svc      *noteservice.Service
	activity ActivityLister
	logger   *slog.Logger
}

// NewHandler creates a new Handler. activity may be nil.
func NewHandler(svc *noteservice.Service, activity ActivityLister, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, activity: activity, logger: logger}
}

// noteName extracts the {name} path segment, decoded exactly once. chi
// routes on RawPath when it is set (an escaped "/" in the name, say), and
// only then is the segment still escaped.
func noteName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return name
	}
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return name
	}
	return decoded
}

// fail maps a service error onto the plain-text status contract.
func (h *Handler) fail(w http.ResponseWriter, op, name string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeText(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, apperr.ErrAlreadyExists), errors.Is(err, apperr.ErrNameEscapes):
		writeText(w, http.StatusBadRequest, msgBadRequest)
	default:
		h.logger.Error(op+" failed", slog.String("name", name), slog.String("error", err.Error()))
		writeText(w, http.StatusInternalServerError, msgInternal)
	}
}

// GetNote handles GET /notes/{name}.
//
//	@Summary		Get a note by name
//	@Tags			notes
//	@Produce		plain
//	@Param			name	path		string	true	"Note name"
//	@Success		200		{string}	string	"Note text"
//	@Failure		404		{string}	string	"Not found"
//	@Router			/notes/{name} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	data, err := h.svc.GetNote(r.Context(), name)
	if err != nil {
		h.fail(w, "get note", name, err)
		return
	}
	etag := checksum.ETag(data)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeText(w, http.StatusOK, string(data))
}

// UpdateNote handles PUT /notes/{name}.
//
//	@Summary		Replace the text of an existing note
//	@Tags			notes
//	@Accept			json
//	@Param			name	path	string				true	"Note name"
//	@Param			body	body	UpdateNoteRequest	true	"New text"
//	@Success		200		"Note updated"
//	@Failure		400		{string}	string	"Bad request"
//	@Failure		404		{string}	string	"Not found"
//	@Router			/notes/{name} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	name := noteName(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	var req UpdateNoteRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeText(w, http.StatusBadRequest, msgBadRequest)
			return
		}
	}

	if err := h.svc.UpdateNote(r.Context(), name, req.Text); err != nil {
		h.fail(w, "update note", name, err)
		return
	}
	writeStatus(w, http.StatusOK)
}

// DeleteNote handles DELETE /notes/{name}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			name	path	string	true	"Note name"
//	@Success		200		"Note deleted"
//	@Failure		404		{string}	string	"Not found"
//	@Router			/notes/{name} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	name := noteName(r)
	if err := h.svc.DeleteNote(r.Context(), name); err != nil {
		h.fail(w, "delete note", name, err)
		return
	}
	writeStatus(w, http.StatusOK)
}

// ListNotes handles GET /notes.
//
//	@Summary		List every note with its text
//	@Tags			notes
//	@Produce		json
//	@Success		200	{array}		NoteListItem
//	@Failure		500	{string}	string	"Internal server error"
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ListNotes(r.Context())
	if err != nil {
		h.fail(w, "list notes", "", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// CreateNote handles POST /write.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			mpfd,x-www-form-urlencoded,json
//	@Param			note_name	formData	string	false	"Note name"
//	@Param			note		formData	string	false	"Note text"
//	@Success		201			"Note created"
//	@Failure		400			{string}	string	"Bad request"
//	@Router			/write [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, err := decodeCreate(r)
	if err != nil {
		writeText(w, http.StatusBadRequest, msgBadRequest)
		return
	}
	if err := h.svc.CreateNote(r.Context(), req.NoteName, req.Note); err != nil {
		h.fail(w, "create note", req.NoteName, err)
		return
	}
	writeStatus(w, http.StatusCreated)
}

// decodeCreate reads note_name and note from a multipart form (the upload
// form), a urlencoded form, or a JSON object. Absent fields are empty.
func decodeCreate(r *http.Request) (CreateNoteRequest, error) {
	var req CreateNoteRequest
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/json":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return req, err
		}
		if len(body) == 0 {
			return req, nil
		}
		err = json.Unmarshal(body, &req)
		return req, err
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return req, err
		}
	default:
		if err := r.ParseForm(); err != nil {
			return req, err
		}
	}
	req.NoteName = r.PostForm.Get("note_name")
	req.Note = r.PostForm.Get("note")
	return req, nil
}

// Activity handles GET /activity.
//
//	@Summary		Recent note mutations, newest first
//	@Tags			activity
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries (default 50, max 500)"
//	@Success		200		{array}		ActivityItem
//	@Failure		400		{string}	string	"Bad request"
//	@Router			/activity [get]
func (h *Handler) Activity(w http.ResponseWriter, r *http.Request) {
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeText(w, http.StatusBadRequest, msgBadRequest)
			return
		}
		limit = n
	}
	items, err := h.activity.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, "list activity", "", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// UploadForm handles GET /UploadForm.html.
func (h *Handler) UploadForm(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(web.UploadForm)
}

// OpenAPI handles GET /docs/openapi.yaml.
func (h *Handler) OpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(web.OpenAPI)
}
