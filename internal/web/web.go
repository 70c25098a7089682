// Package web embeds the static pages served next to the note API.
package web

import (
	_ "embed"
)

// UploadForm is the HTML form that posts a new note to /write.
//
//go:embed UploadForm.html
var UploadForm []byte

// OpenAPI describes the HTTP surface.
//
//go:embed openapi.yaml
var OpenAPI []byte
