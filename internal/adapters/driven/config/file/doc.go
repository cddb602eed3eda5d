// Package file keeps settings in ~/.bankdoc/config.toml and prompt
// templates beside it, falling back to the embedded defaults.
package file
