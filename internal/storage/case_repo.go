package storage

import (
	"context"
	"errors"
	"fmt"

	"caseflow/internal/models"
	"caseflow/internal/util"

	"github.com/jackc/pgx/v5"
)

type CaseRepo struct {
	db *DB
}

func NewCaseRepo(db *DB) *CaseRepo {
	return &CaseRepo{db: db}
}

func (r *CaseRepo) GetCase(ctx context.Context, caseID string) (models.Case, error) {
	var c models.Case
	err := r.db.Pool.QueryRow(ctx, `
SELECT case_id, COALESCE(case_type,''), COALESCE(status,''), date_filed, COALESCE(summary,''), created_at, updated_at
FROM cases
WHERE case_id=$1`, caseID).
		Scan(&c.CaseID, &c.CaseType, &c.Status, &c.DateFiled, &c.Summary, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Case{}, fmt.Errorf("case %s: %w", caseID, util.ErrCaseNotFound)
		}
		return models.Case{}, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

func (r *CaseRepo) ListCases(ctx context.Context) ([]models.Case, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT case_id, COALESCE(case_type,''), COALESCE(status,''), date_filed, COALESCE(summary,''), created_at, updated_at
FROM cases
ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := make([]models.Case, 0)
	for rows.Next() {
		var c models.Case
		if err := rows.Scan(&c.CaseID, &c.CaseType, &c.Status, &c.DateFiled, &c.Summary, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

// LoadCaseContext reads the four record collections for one case. Only a
// missing case row is an error; empty parties, events, or financials are not.
func (r *CaseRepo) LoadCaseContext(ctx context.Context, caseID string) (models.CaseContext, error) {
	c, err := r.GetCase(ctx, caseID)
	if err != nil {
		return models.CaseContext{}, err
	}
	parties, err := r.listParties(ctx, caseID)
	if err != nil {
		return models.CaseContext{}, err
	}
	events, err := r.listEvents(ctx, caseID)
	if err != nil {
		return models.CaseContext{}, err
	}
	financials, err := r.listFinancials(ctx, caseID)
	if err != nil {
		return models.CaseContext{}, err
	}
	return models.CaseContext{Case: c, Parties: parties, Events: events, Financials: financials}, nil
}

func (r *CaseRepo) listParties(ctx context.Context, caseID string) ([]models.Party, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT COALESCE(party_type,''), COALESCE(name,''), COALESCE(contact_info,'')
FROM parties
WHERE case_id=$1
ORDER BY id ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()
	out := make([]models.Party, 0)
	for rows.Next() {
		var p models.Party
		if err := rows.Scan(&p.PartyType, &p.Name, &p.ContactInfo); err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Events come back date-ascending so the timeline views need no re-sort;
// undated events sort last.
func (r *CaseRepo) listEvents(ctx context.Context, caseID string) ([]models.TimelineEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT event_date, COALESCE(description,'')
FROM timeline_events
WHERE case_id=$1
ORDER BY event_date ASC NULLS LAST, id ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()
	out := make([]models.TimelineEvent, 0)
	for rows.Next() {
		var e models.TimelineEvent
		if err := rows.Scan(&e.EventDate, &e.Description); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *CaseRepo) listFinancials(ctx context.Context, caseID string) ([]models.FinancialRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT COALESCE(record_type,''), COALESCE(amount,0)::float8, COALESCE(description,'')
FROM financial_records
WHERE case_id=$1
ORDER BY id ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list financial records: %w", err)
	}
	defer rows.Close()
	out := make([]models.FinancialRecord, 0)
	for rows.Next() {
		var f models.FinancialRecord
		if err := rows.Scan(&f.RecordType, &f.Amount, &f.Description); err != nil {
			return nil, fmt.Errorf("scan financial record: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
