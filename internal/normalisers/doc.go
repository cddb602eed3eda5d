// Package normalisers extracts plain text from uploaded files.
//
// Each front-end handles one or more file extensions and is registered
// with the Registry at startup; the registry dispatches by extension.
package normalisers
