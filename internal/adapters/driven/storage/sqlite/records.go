package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

const documentColumns = `id, filename, file_path, file_size, doc_type, status, extracted_text,
	quality_score, stats, uploaded_at, processed_at`

// SaveDocument stores or updates a document.
func (s *recordStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	statsJSON, err := json.Marshal(doc.Stats)
	if err != nil {
		return fmt.Errorf("marshalling stats: %w", err)
	}

	var processedAt sql.NullTime
	if !doc.ProcessedAt.IsZero() {
		processedAt = sql.NullTime{Time: doc.ProcessedAt, Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			filename = excluded.filename,
			file_path = excluded.file_path,
			file_size = excluded.file_size,
			doc_type = excluded.doc_type,
			status = excluded.status,
			extracted_text = excluded.extracted_text,
			quality_score = excluded.quality_score,
			stats = excluded.stats,
			processed_at = excluded.processed_at
	`, doc.ID, doc.Filename, doc.FilePath, doc.FileSize, string(doc.Type), string(doc.Status),
		doc.Text, doc.QualityScore, string(statsJSON), doc.UploadedAt, processedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveEntities replaces the entities of a document.
func (s *recordStore) SaveEntities(ctx context.Context, documentID string, entities []domain.Entity) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM entities WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing entities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (document_id, entity_type, entity_value, is_valid, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range entities {
		if _, err := stmt.ExecContext(ctx, documentID, string(e.Type), e.Value, e.Valid, i); err != nil {
			return fmt.Errorf("saving entity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveChunks replaces the chunk rows of a document.
func (s *recordStore) SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM document_chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO document_chunks (id, document_id, chunk_index, chunk_text)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, documentID, chunk.Index, chunk.Text); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *recordStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetChunks returns a document's chunks in index order.
func (s *recordStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, chunk_text
		FROM document_chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// GetEntities returns a document's entities in extraction order.
func (s *recordStore) GetEntities(ctx context.Context, documentID string) ([]domain.Entity, error) {
	return s.queryEntities(ctx, `
		SELECT e.id, e.document_id, e.entity_type, e.entity_value, e.is_valid, d.filename
		FROM entities e JOIN documents d ON d.id = e.document_id
		WHERE e.document_id = ?
		ORDER BY e.position
	`, documentID)
}

// SearchEntities finds entities by type and/or a value substring.
func (s *recordStore) SearchEntities(
	ctx context.Context,
	entityType domain.EntityType,
	value string,
) ([]domain.Entity, error) {
	return s.queryEntities(ctx, `
		SELECT e.id, e.document_id, e.entity_type, e.entity_value, e.is_valid, d.filename
		FROM entities e JOIN documents d ON d.id = e.document_id
		WHERE (?1 = '' OR e.entity_type = ?1)
		  AND (?2 = '' OR e.entity_value LIKE '%' || ?2 || '%')
		ORDER BY e.id
	`, string(entityType), value)
}

func (s *recordStore) queryEntities(ctx context.Context, query string, args ...any) ([]domain.Entity, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.Entity
		var entityType string
		if err := rows.Scan(&e.ID, &e.DocumentID, &entityType, &e.Value, &e.Valid, &e.Filename); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		e.Type = domain.EntityType(entityType)
		entities = append(entities, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

// ListDocuments returns all documents, newest upload first.
func (s *recordStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.queryDocuments(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY uploaded_at DESC, id")
}

// ListByType returns documents of one type, newest upload first.
func (s *recordStore) ListByType(ctx context.Context, docType domain.DocumentType) ([]domain.Document, error) {
	return s.queryDocuments(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE doc_type = ? ORDER BY uploaded_at DESC, id",
		string(docType))
}

func (s *recordStore) queryDocuments(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document. Entities and chunk rows cascade.
func (s *recordStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// LogQuery appends an answered query to the log.
func (s *recordStore) LogQuery(ctx context.Context, entry *domain.QueryLog) error {
	sourcesJSON, err := json.Marshal(entry.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO query_logs (question, answer, sources, response_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.Question, entry.Answer, string(sourcesJSON), entry.ResponseTimeMS, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("logging query: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// RecentQueries returns the latest logged queries, newest first.
func (s *recordStore) RecentQueries(ctx context.Context, limit int) ([]domain.QueryLog, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, question, answer, sources, response_time_ms, created_at
		FROM query_logs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying query log: %w", err)
	}
	defer rows.Close()

	var logs []domain.QueryLog //nolint:prealloc // size unknown from query
	for rows.Next() {
		var q domain.QueryLog
		var sourcesJSON string
		if err := rows.Scan(&q.ID, &q.Question, &q.Answer, &sourcesJSON, &q.ResponseTimeMS, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning query log: %w", err)
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &q.Sources); err != nil {
			return nil, fmt.Errorf("unmarshalling sources: %w", err)
		}
		logs = append(logs, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query log: %w", err)
	}
	return logs, nil
}

// Statistics aggregates the stored corpus.
func (s *recordStore) Statistics(ctx context.Context) (*domain.CorpusStatistics, error) {
	stats := &domain.CorpusStatistics{ByType: make(map[domain.DocumentType]int)}

	var avg sql.NullFloat64
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(quality_score) FROM documents").Scan(&stats.TotalDocuments, &avg)
	if err != nil {
		return nil, fmt.Errorf("counting documents: %w", err)
	}
	if avg.Valid {
		stats.AverageQualityScore = math.Round(avg.Float64*100) / 100
	}

	rows, err := s.store.db.QueryContext(ctx, "SELECT doc_type, COUNT(*) FROM documents GROUP BY doc_type")
	if err != nil {
		return nil, fmt.Errorf("counting by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var docType string
		var n int
		if err := rows.Scan(&docType, &n); err != nil {
			return nil, fmt.Errorf("scanning type count: %w", err)
		}
		stats.ByType[domain.DocumentType(docType)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating type counts: %w", err)
	}

	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities").Scan(&stats.TotalEntities); err != nil {
		return nil, fmt.Errorf("counting entities: %w", err)
	}
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_logs").Scan(&stats.TotalQueries); err != nil {
		return nil, fmt.Errorf("counting queries: %w", err)
	}

	return stats, nil
}

// Close is a no-op; the owning Store closes the connection.
func (s *recordStore) Close() error {
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a single document row.
// A missing *sql.Row surfaces as sql.ErrNoRows.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var docType, status, statsJSON string
	var processedAt sql.NullTime

	if err := row.Scan(&doc.ID, &doc.Filename, &doc.FilePath, &doc.FileSize, &docType, &status,
		&doc.Text, &doc.QualityScore, &statsJSON, &doc.UploadedAt, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Type = domain.DocumentType(docType)
	doc.Status = domain.DocumentStatus(status)
	if processedAt.Valid {
		doc.ProcessedAt = processedAt.Time
	}

	if statsJSON != "" {
		if err := json.Unmarshal([]byte(statsJSON), &doc.Stats); err != nil {
			return nil, fmt.Errorf("unmarshalling stats: %w", err)
		}
	}

	return &doc, nil
}
