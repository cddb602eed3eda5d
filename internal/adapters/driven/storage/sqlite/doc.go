// Package sqlite stores records and vectors in one pure-Go SQLite database,
// by default ~/.bankdoc/data/bankdoc.db.
//
// Vectors are float32 BLOBs ranked by cosine similarity in process. The
// schema comes from the numbered migrations embedded under migrations/, and
// the connection runs in WAL mode so the watcher and CLI can share it.
package sqlite
