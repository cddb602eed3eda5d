// Package services holds the ingest, query, document and settings logic.
// Everything outside the process is reached through driven ports.
package services
