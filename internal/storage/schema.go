package storage

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables the pipeline needs. Structured case records
// (cases, parties, timeline_events, financial_records) are owned by the intake
// system; they are created here too so a fresh environment can run end to end.
func EnsureSchema(ctx context.Context, db *DB, embedDim int) error {
	if embedDim <= 0 {
		embedDim = 1536
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS cases (
			case_id TEXT PRIMARY KEY,
			case_type TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'Active',
			date_filed DATE,
			summary TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS parties (
			id BIGSERIAL PRIMARY KEY,
			case_id TEXT NOT NULL REFERENCES cases(case_id),
			party_type TEXT NOT NULL,
			name TEXT NOT NULL,
			contact_info TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS timeline_events (
			id BIGSERIAL PRIMARY KEY,
			case_id TEXT NOT NULL REFERENCES cases(case_id),
			event_date DATE,
			description TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS financial_records (
			id BIGSERIAL PRIMARY KEY,
			case_id TEXT NOT NULL REFERENCES cases(case_id),
			record_type TEXT NOT NULL,
			amount NUMERIC NOT NULL DEFAULT 0,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			document_id TEXT PRIMARY KEY,
			case_id TEXT NOT NULL,
			filename TEXT NOT NULL DEFAULT '',
			document_type TEXT,
			status TEXT NOT NULL DEFAULT 'processing',
			fail_reason TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS passages (
			passage_id UUID PRIMARY KEY,
			case_id TEXT NOT NULL,
			document_id TEXT NOT NULL,
			chunk_index INT NOT NULL,
			text TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d),
			embedding_version TEXT NOT NULL DEFAULT 'v1',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, embedDim),
		`CREATE INDEX IF NOT EXISTS passages_case_idx ON passages (case_id)`,
		`CREATE INDEX IF NOT EXISTS passages_embedding_idx ON passages
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE TABLE IF NOT EXISTS llm_calls (
			call_id UUID PRIMARY KEY,
			operation TEXT NOT NULL,
			case_id TEXT,
			document_id TEXT,
			provider_name TEXT,
			model TEXT,
			request_id TEXT,
			status TEXT,
			error_type TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
