package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/bankdoc-rag/internal/adapters/driven/storage/vecmath"
	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore over the vectors table.
// Queries scan every row matching the filter and rank by cosine distance.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert inserts or replaces records by id in one transaction.
func (s *vectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, document_id, filename, doc_type, quality_score, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			filename = excluded.filename,
			doc_type = excluded.doc_type,
			quality_score = excluded.quality_score,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %s has no embedding", domain.ErrInvalidInput, r.ID)
		}
		md := r.Metadata
		if _, err := stmt.ExecContext(ctx, r.ID, md.DocumentID, md.Filename, string(md.DocType),
			md.QualityScore, md.ChunkIndex, r.Text, vecmath.Encode(r.Embedding)); err != nil {
			return fmt.Errorf("saving vector %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns up to k records ordered by ascending cosine distance.
func (s *vectorStore) Query(
	ctx context.Context,
	vector []float32,
	k int,
	filter domain.VectorFilter,
) ([]domain.VectorMatch, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, filename, doc_type, quality_score, chunk_index, content, embedding
		FROM vectors WHERE (?1 = '' OR doc_type = ?1)
	`, string(filter.DocType))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var matches []domain.VectorMatch
	for rows.Next() {
		var m domain.VectorMatch
		var docType string
		var blob []byte
		if err := rows.Scan(&m.ID, &m.Metadata.DocumentID, &m.Metadata.Filename, &docType,
			&m.Metadata.QualityScore, &m.Metadata.ChunkIndex, &m.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		m.Metadata.DocType = domain.DocumentType(docType)

		emb, err := vecmath.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding vector %s: %w", m.ID, err)
		}
		if m.Distance, err = vecmath.CosineDistance(vector, emb); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return vecmath.Rank(matches, k), nil
}

// DeleteByDocument removes every record of a document.
func (s *vectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *vectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the connection.
func (s *vectorStore) Close() error {
	return nil
}
