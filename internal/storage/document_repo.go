package storage

import (
	"context"
	"fmt"

	"caseflow/internal/models"
)

type DocumentRepo struct {
	db *DB
}

func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) UpsertDocument(ctx context.Context, d models.Document) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO documents (document_id, case_id, filename, document_type, status, fail_reason)
VALUES ($1, $2, $3, NULLIF($4,''), $5, NULLIF($6,''))
ON CONFLICT (document_id)
DO UPDATE SET
  case_id = EXCLUDED.case_id,
  filename = EXCLUDED.filename,
  document_type = COALESCE(EXCLUDED.document_type, documents.document_type),
  status = EXCLUDED.status,
  fail_reason = EXCLUDED.fail_reason,
  updated_at = NOW()`,
		d.DocumentID, d.CaseID, d.Filename, d.DocumentType, d.Status, d.FailReason,
	)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (r *DocumentRepo) ListFailedDocuments(ctx context.Context, caseID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT document_id, case_id, filename, COALESCE(document_type,''), status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
WHERE case_id=$1 AND status='failed'
ORDER BY created_at ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list failed documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.DocumentID, &d.CaseID, &d.Filename, &d.DocumentType, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepo) ListDocumentsByCase(ctx context.Context, caseID string) ([]models.Document, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT document_id, case_id, filename, COALESCE(document_type,''), status, COALESCE(fail_reason,''), created_at, updated_at
FROM documents
WHERE case_id=$1
ORDER BY created_at DESC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]models.Document, 0)
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.DocumentID, &d.CaseID, &d.Filename, &d.DocumentType, &d.Status, &d.FailReason, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}
