package api

import "github.com/starford/notecache/internal/models"

// UpdateNoteRequest is the JSON body of PUT /notes/{name}. A missing text
// field is treated as the empty string.
type UpdateNoteRequest struct {
	Text string `json:"text" example:"buy milk and eggs"`
}

// CreateNoteRequest is the body of POST /write. It usually arrives as a
// form; JSON is accepted too.
type CreateNoteRequest struct {
	NoteName string `json:"note_name" example:"todo"`
	Note     string `json:"note" example:"buy milk"`
}

// NoteListItem is one element of the GET /notes array. Name keeps the .txt
// extension.
type NoteListItem = models.Note

// ActivityItem is one element of the GET /activity array.
type ActivityItem = models.Activity
