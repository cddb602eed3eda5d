package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument is an uploaded file before text extraction.
type RawDocument struct {
	// URI is the original location, usually a file path.
	URI string

	// Filename is the display name. Defaults to the base of URI.
	Filename string

	// Content is the file's bytes.
	Content []byte
}

// Name returns Filename, or the base of URI when Filename is empty.
func (r *RawDocument) Name() string {
	if r.Filename != "" {
		return r.Filename
	}
	return filepath.Base(r.URI)
}

// Extension returns the lower-case extension of the document name, with the dot.
func (r *RawDocument) Extension() string {
	return strings.ToLower(filepath.Ext(r.Name()))
}
