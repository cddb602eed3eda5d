// Package postgres provides a VectorStore backed by PostgreSQL with the
// pgvector extension, accessed through gorm.
package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
	"github.com/custodia-labs/bankdoc-rag/internal/core/ports/driven"
	"github.com/custodia-labs/bankdoc-rag/internal/logger"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// TableName is the table holding chunk vectors.
const TableName = "bankdoc_vectors"

// hnsw.ef_search bounds. An HNSW scan returns at most ef_search rows, so it
// is raised to k for large queries.
const (
	defaultEfSearch = 40
	maxEfSearch     = 1000
)

// Config holds connection settings.
type Config struct {
	// DSN is the PostgreSQL connection string (required).
	DSN string

	// Dimensions fixes the vector column size (required).
	Dimensions int
}

// chunkVector is the gorm model for one chunk record.
type chunkVector struct {
	ID           string          `gorm:"primaryKey"`
	DocumentID   string          `gorm:"not null;index"`
	Filename     string          `gorm:"not null"`
	DocType      string          `gorm:"not null;index"`
	QualityScore float64         `gorm:"not null"`
	ChunkIndex   int             `gorm:"not null"`
	Content      string          `gorm:"type:text;not null"`
	Embedding    pgvector.Vector `gorm:"not null"`
}

// TableName overrides the gorm default.
func (chunkVector) TableName() string { return TableName }

// searchRow is the scan target for similarity queries.
type searchRow struct {
	ID           string
	DocumentID   string
	Filename     string
	DocType      string
	QualityScore float64
	ChunkIndex   int
	Content      string
	Distance     float64
}

// VectorStore ranks chunk vectors with pgvector's <=> cosine distance.
type VectorStore struct {
	db         *gorm.DB
	dimensions int
}

// NewVectorStore connects, enables pgvector and creates the table.
func NewVectorStore(cfg Config) (*VectorStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: postgres DSN is required", domain.ErrInvalidInput)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive", domain.ErrInvalidInput)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", domain.ErrVectorStoreUnavailable, err)
	}

	s := &VectorStore{db: db, dimensions: cfg.Dimensions}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the extension, table and indexes. The vector column is
// sized explicitly so the HNSW index can be built. HNSW needs no training
// data, so the index is valid on an empty table. The ivfflat index created
// by earlier versions is dropped.
func (s *VectorStore) migrate() error {
	if err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector extension: %w", err)
	}

	err := s.db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id            TEXT PRIMARY KEY,
			document_id   TEXT NOT NULL,
			filename      TEXT NOT NULL,
			doc_type      TEXT NOT NULL,
			quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
			chunk_index   INTEGER NOT NULL,
			content       TEXT NOT NULL,
			embedding     vector(%d) NOT NULL
		)`, TableName, s.dimensions)).Error
	if err != nil {
		return fmt.Errorf("create vector table: %w", err)
	}

	for _, stmt := range []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_document ON %[1]s (document_id)", TableName),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_doc_type ON %[1]s (doc_type)", TableName),
		fmt.Sprintf("DROP INDEX IF EXISTS idx_%s_embedding", TableName),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%[1]s_embedding_hnsw ON %[1]s USING hnsw (embedding vector_cosine_ops)",
			TableName),
	} {
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Upsert inserts or replaces records by id.
func (s *VectorStore) Upsert(ctx context.Context, records []domain.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]chunkVector, 0, len(records))
	for _, r := range records {
		if err := s.checkDimensions(r.Embedding); err != nil {
			return fmt.Errorf("record %s: %w", r.ID, err)
		}
		rows = append(rows, toRow(r))
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}
	return nil
}

// Query returns up to k records ordered by ascending cosine distance.
// Each query runs in its own transaction so the scan settings from
// searchSettings apply to it alone.
func (s *VectorStore) Query(
	ctx context.Context,
	vector []float32,
	k int,
	filter domain.VectorFilter,
) ([]domain.VectorMatch, error) {
	if k <= 0 {
		return nil, nil
	}
	if err := s.checkDimensions(vector); err != nil {
		return nil, err
	}

	vec := pgvector.NewVector(vector)
	var rows []searchRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range searchSettings(k, filter) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("configure search: %w", err)
			}
		}
		return tx.Raw(fmt.Sprintf(`
			SELECT id, document_id, filename, doc_type, quality_score, chunk_index, content,
				embedding <=> ? AS distance
			FROM %s
			WHERE (? = '' OR doc_type = ?)
			ORDER BY embedding <=> ?, id
			LIMIT ?
		`, TableName), vec, string(filter.DocType), string(filter.DocType), vec, k).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	matches := make([]domain.VectorMatch, len(rows))
	for i, r := range rows {
		matches[i] = domain.VectorMatch{
			ID:   r.ID,
			Text: r.Content,
			Metadata: domain.RecordMetadata{
				DocumentID:   r.DocumentID,
				Filename:     r.Filename,
				DocType:      domain.DocumentType(r.DocType),
				QualityScore: r.QualityScore,
				ChunkIndex:   r.ChunkIndex,
			},
			Distance: r.Distance,
		}
	}
	return matches, nil
}

// DeleteByDocument removes every record of a document.
func (s *VectorStore) DeleteByDocument(ctx context.Context, documentID string) error {
	err := s.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&chunkVector{}).Error
	if err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&chunkVector{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return int(n), nil
}

// Close closes the connection pool.
func (s *VectorStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// searchSettings returns the SET LOCAL statements for one query.
//
// ef_search is at least k so an unfiltered scan can fill the result. The
// doc_type filter is applied after an approximate index scan, which may
// then return fewer than k rows even though matches exist; filtered queries
// therefore disable the vector index and rank the matching rows exactly.
func searchSettings(k int, filter domain.VectorFilter) []string {
	stmts := []string{
		fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", min(max(k, defaultEfSearch), maxEfSearch)),
	}
	if filter.DocType != "" {
		stmts = append(stmts, "SET LOCAL enable_indexscan = off")
	}
	return stmts
}

func (s *VectorStore) checkDimensions(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}
	if len(v) != s.dimensions {
		return fmt.Errorf("%w: got %d, table holds %d", domain.ErrDimensionMismatch, len(v), s.dimensions)
	}
	return nil
}

func toRow(r domain.VectorRecord) chunkVector {
	return chunkVector{
		ID:           r.ID,
		DocumentID:   r.Metadata.DocumentID,
		Filename:     r.Metadata.Filename,
		DocType:      string(r.Metadata.DocType),
		QualityScore: r.Metadata.QualityScore,
		ChunkIndex:   r.Metadata.ChunkIndex,
		Content:      r.Text,
		Embedding:    pgvector.NewVector(r.Embedding),
	}
}

// newGormLogger routes gorm output through the process logger. SQL tracing
// is only enabled in verbose mode.
func newGormLogger() gormlogger.Interface {
	level := gormlogger.Error
	if logger.IsVerbose() {
		level = gormlogger.Info
	}
	return gormlogger.New(
		log.New(logger.Writer(), "[GORM] ", 0),
		gormlogger.Config{
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		},
	)
}
