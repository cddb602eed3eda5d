// Package domain holds the value types shared by every layer: documents and
// their analysis, chunks, entities, vector records, query results and
// settings. It imports nothing outside the standard library.
package domain
