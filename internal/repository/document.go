package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloo-solutions/ragengine/internal/domain"
	"github.com/cloo-solutions/ragengine/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// DocumentRepository is the vector store gateway over the documents table
// and the match_documents procedure.
type DocumentRepository struct {
	db         dbtx
	dimensions int
}

func NewDocumentRepository(pool *pgxpool.Pool, dimensions int) *DocumentRepository {
	return &DocumentRepository{db: pool, dimensions: dimensions}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx, dimensions int) *DocumentRepository {
	return &DocumentRepository{db: tx, dimensions: dimensions}
}

// Insert stages a chunk under its batch. Rows stay invisible to
// SimilaritySearch until CommitBatch runs.
func (r *DocumentRepository) Insert(ctx context.Context, chunk *domain.DocumentChunk) error {
	if err := domain.ValidateDocumentChunk(chunk); err != nil {
		return domain.Wrap(domain.ErrInvalidChunk, err)
	}
	if err := r.checkDimensions(chunk.Embedding); err != nil {
		return err
	}

	metadata, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return domain.Wrap(domain.ErrPersistence, err)
	}

	err = r.db.QueryRow(ctx,
		`INSERT INTO documents (batch_id, content, embedding, metadata)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		chunk.BatchID, chunk.Content, pgvector.NewVector(chunk.Embedding), metadata,
	).Scan(&chunk.ID, &chunk.CreatedAt)
	if err != nil {
		return domain.Wrap(domain.ErrPersistence, err)
	}

	return nil
}

// SimilaritySearch returns committed chunks whose similarity to embedding is
// at least threshold, best first, at most topK of them.
func (r *DocumentRepository) SimilaritySearch(ctx context.Context, embedding []float32, threshold float64, topK int) ([]domain.SimilarityResult, error) {
	if err := r.checkDimensions(embedding); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []domain.SimilarityResult{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, content, COALESCE(metadata->>'filename', ''), similarity
		 FROM match_documents($1, $2, $3)`,
		pgvector.NewVector(embedding), threshold, topK,
	)
	if err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}
	defer rows.Close()

	results := make([]domain.SimilarityResult, 0, topK)
	for rows.Next() {
		var res domain.SimilarityResult
		if err := rows.Scan(&res.ID, &res.Content, &res.Filename, &res.Similarity); err != nil {
			return nil, domain.Wrap(domain.ErrPersistence, err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}

	return results, nil
}

// CommitBatch makes every staged chunk of batchID visible in one statement.
func (r *DocumentRepository) CommitBatch(ctx context.Context, batchID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET committed = TRUE WHERE batch_id = $1 AND NOT committed`,
		batchID,
	)
	if err != nil {
		return 0, domain.Wrap(domain.ErrPersistence, err)
	}
	return tag.RowsAffected(), nil
}

// DiscardBatch deletes the staged chunks of batchID.
func (r *DocumentRepository) DiscardBatch(ctx context.Context, batchID string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE batch_id = $1 AND NOT committed`,
		batchID,
	)
	if err != nil {
		return 0, domain.Wrap(domain.ErrPersistence, err)
	}
	return tag.RowsAffected(), nil
}

// DeleteStaleStaged removes staged chunks created before now minus olderThan.
func (r *DocumentRepository) DeleteStaleStaged(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE NOT committed AND created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, domain.Wrap(domain.ErrPersistence, err)
	}
	return tag.RowsAffected(), nil
}

// ListDocuments groups committed chunks by filename, most recently ingested first.
func (r *DocumentRepository) ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) (*pagination.PageResult[domain.DocumentSummary], error) {
	limit = pagination.ClampLimit(limit)

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT COALESCE(metadata->>'filename', '') AS filename, COUNT(*), MAX(created_at) AS last_ingested
			 FROM documents
			 WHERE committed
			 GROUP BY 1
			 HAVING (MAX(created_at), COALESCE(metadata->>'filename', '')) < ($1, $2)
			 ORDER BY last_ingested DESC, filename DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastKey, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT COALESCE(metadata->>'filename', '') AS filename, COUNT(*), MAX(created_at) AS last_ingested
			 FROM documents
			 WHERE committed
			 GROUP BY 1
			 ORDER BY last_ingested DESC, filename DESC
			 LIMIT $1`,
			limit+1,
		)
	}
	if err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}
	defer rows.Close()

	var items []domain.DocumentSummary
	for rows.Next() {
		var s domain.DocumentSummary
		if err := rows.Scan(&s.Filename, &s.ChunkCount, &s.LastIngested); err != nil {
			return nil, domain.Wrap(domain.ErrPersistence, err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}

	return pagination.Paginate(items, limit,
		func(s domain.DocumentSummary) string { return s.Filename },
		func(s domain.DocumentSummary) time.Time { return s.LastIngested },
	), nil
}

// DeleteByFilename removes every committed chunk ingested under filename and
// reports the batches they came from.
func (r *DocumentRepository) DeleteByFilename(ctx context.Context, filename string) (*domain.DeletedDocument, error) {
	rows, err := r.db.Query(ctx,
		`DELETE FROM documents WHERE committed AND metadata->>'filename' = $1
		 RETURNING batch_id::text`,
		filename,
	)
	if err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}
	defer rows.Close()

	deleted := &domain.DeletedDocument{}
	seen := make(map[string]bool)
	for rows.Next() {
		var batchID string
		if err := rows.Scan(&batchID); err != nil {
			return nil, domain.Wrap(domain.ErrPersistence, err)
		}
		deleted.Chunks++
		if !seen[batchID] {
			seen[batchID] = true
			deleted.BatchIDs = append(deleted.BatchIDs, batchID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Wrap(domain.ErrPersistence, err)
	}
	if deleted.Chunks == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	return deleted, nil
}

func (r *DocumentRepository) checkDimensions(embedding []float32) error {
	if r.dimensions > 0 && len(embedding) != r.dimensions {
		return domain.Wrap(domain.ErrDimensionMismatch,
			fmt.Errorf("got %d, expected %d", len(embedding), r.dimensions))
	}
	return nil
}
