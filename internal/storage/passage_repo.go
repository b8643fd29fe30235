package storage

import (
	"context"
	"fmt"

	"caseflow/internal/models"

	"github.com/pgvector/pgvector-go"
)

type PassageRecord struct {
	PassageID        string
	CaseID           string
	DocumentID       string
	ChunkIndex       int
	Text             string
	Metadata         map[string]any
	Embedding        []float32
	EmbeddingVersion string
}

type PassageRepo struct {
	db *DB
}

func NewPassageRepo(db *DB) *PassageRepo {
	return &PassageRepo{db: db}
}

// InsertPassages appends rows under fresh ids. There is deliberately no
// conflict clause: re-ingesting a document accumulates a second set of
// passages in the namespace.
func (r *PassageRepo) InsertPassages(ctx context.Context, records []PassageRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx insert passages: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, p := range records {
		var embedding any
		if len(p.Embedding) > 0 {
			embedding = pgvector.NewVector(p.Embedding)
		}
		_, err := tx.Exec(ctx, `
INSERT INTO passages (passage_id, case_id, document_id, chunk_index, text, metadata, embedding, embedding_version)
VALUES ($1, $2, $3, $4, $5, $6, $7::vector, $8)`,
			p.PassageID, p.CaseID, p.DocumentID, p.ChunkIndex, p.Text, p.Metadata, embedding, p.EmbeddingVersion,
		)
		if err != nil {
			return fmt.Errorf("insert passage %s: %w", p.PassageID, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit passages tx: %w", err)
	}
	return nil
}

// NamespaceExists reports whether any passages have been ingested for the
// case. Existence is the "has this case been ingested" signal the responder
// checks before retrieving.
func (r *PassageRepo) NamespaceExists(ctx context.Context, caseID string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM passages WHERE case_id=$1)`, caseID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check passage namespace: %w", err)
	}
	return exists, nil
}

func (r *PassageRepo) CountPassages(ctx context.Context, caseID string) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM passages WHERE case_id=$1`, caseID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count passages: %w", err)
	}
	return n, nil
}

func (r *PassageRepo) ListPassagesByDocument(ctx context.Context, caseID, documentID string) ([]models.Passage, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT passage_id::text, case_id, document_id, chunk_index, text, metadata
FROM passages
WHERE case_id=$1 AND document_id=$2
ORDER BY chunk_index ASC`, caseID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list passages by document: %w", err)
	}
	defer rows.Close()
	out := make([]models.Passage, 0, 64)
	for rows.Next() {
		var p models.Passage
		if err := rows.Scan(&p.PassageID, &p.CaseID, &p.DocumentID, &p.ChunkIndex, &p.Text, &p.Metadata); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passages: %w", err)
	}
	return out, nil
}
