package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"caseflow/internal/models"
	"caseflow/internal/providers"
	"caseflow/internal/util"
)

type fakeDirectory struct {
	cases    []models.Case
	contexts map[string]models.CaseContext
}

func (f *fakeDirectory) ListCases(context.Context) ([]models.Case, error) {
	return f.cases, nil
}

func (f *fakeDirectory) LoadCaseContext(_ context.Context, caseID string) (models.CaseContext, error) {
	cc, ok := f.contexts[caseID]
	if !ok {
		return models.CaseContext{}, util.ErrCaseNotFound
	}
	return cc, nil
}

type fakePassageStore struct {
	exists    bool
	existsErr error
	passages  []models.RetrievedPassage
	queryErr  error
}

func (f *fakePassageStore) Exists(context.Context, string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakePassageStore) Query(context.Context, string, string, int) ([]models.RetrievedPassage, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.passages, nil
}

type fakeLLM struct {
	provider providers.LLMProvider
}

func (f *fakeLLM) PreferredLLMOrder() []int { return []int{0} }

func (f *fakeLLM) LLMProviderByIndex(int) (providers.LLMProvider, providers.ProviderRef) {
	return f.provider, providers.ProviderRef{Name: "fake"}
}

type failingProvider struct{}

func (failingProvider) Generate(context.Context, providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	return providers.GenerateResponse{}, providers.ProviderInfo{}, errors.New("quota exhausted")
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seededDirectory() *fakeDirectory {
	cases := []models.Case{
		{CaseID: "CASE-001", CaseType: "personal_injury", Status: "Active", DateFiled: date(2024, 1, 15), Summary: "Slip and fall at a grocery store."},
		{CaseID: "CASE-002", CaseType: "contract_dispute", Status: "Active", DateFiled: date(2024, 3, 2), Summary: "Breach of a supply agreement."},
		{CaseID: "CASE-003", CaseType: "employment", Status: "Pending", DateFiled: nil, Summary: "Wrongful termination claim."},
	}
	contexts := map[string]models.CaseContext{
		"CASE-001": {
			Case: cases[0],
			Parties: []models.Party{
				{PartyType: "plaintiff", Name: "Jane Smith"},
				{PartyType: "defendant", Name: "Grocer Co"},
			},
			Events: []models.TimelineEvent{
				{EventDate: date(2024, 1, 20), Description: "Complaint filed"},
			},
			Financials: []models.FinancialRecord{
				{RecordType: "settlement_demand", Amount: 45000, Description: "Initial demand"},
				{RecordType: "medical_expenses", Amount: 8000, Description: "ER treatment"},
			},
		},
		"CASE-002": {Case: cases[1]},
		"CASE-003": {Case: cases[2]},
	}
	return &fakeDirectory{cases: cases, contexts: contexts}
}

func newTestEngine(dir *fakeDirectory, store *fakePassageStore, gen providers.LLMProvider) *Engine {
	if gen == nil {
		gen = providers.NewMockProvider(8)
	}
	return NewEngine(dir, store, &fakeLLM{provider: gen})
}

func TestQueryRejectsBlankQuery(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{}, nil)
	_, err := eng.Query(context.Background(), "   ", "CASE-001", nil)
	require.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestQueryCaseSpecificNeedsCaseID(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{}, nil)
	_, err := eng.Query(context.Background(), "What damages are claimed?", "", nil)
	require.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestQueryUnknownCaseIsTerminal(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{}, nil)
	_, err := eng.Query(context.Background(), "What damages are claimed?", "CASE-404", nil)
	require.ErrorIs(t, err, util.ErrCaseNotFound)
}

func TestQuerySystemStatistics(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{}, nil)
	resp, err := eng.Query(context.Background(), "How many cases are there?", "", nil)
	require.NoError(t, err)

	require.Contains(t, resp.Answer, "Total Cases: 3")
	require.Contains(t, resp.Answer, "Active Cases: 2")
	// Active cases count as pending alongside Pending-status ones.
	require.Contains(t, resp.Answer, "Pending Cases: 3")
	require.Contains(t, resp.Answer, "- Closed: 0 cases")
	require.Contains(t, resp.Answer, "Total Financial Amount: $53,000")

	require.Len(t, resp.Sources, 1)
	require.Equal(t, "system_query", resp.Sources[0]["type"])
	require.Equal(t, 3, resp.Sources[0]["total_cases"])
	require.Equal(t, map[string]any{"query_type": "system_overview", "cases_analyzed": 3}, resp.ContextUsed)
}

func TestQuerySystemListShowsPerCaseTotals(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{}, nil)
	resp, err := eng.Query(context.Background(), "show the dashboard", "", nil)
	require.NoError(t, err)

	require.Contains(t, resp.Answer, "- CASE-001 - personal_injury (Active) - Filed: 2024-01-15 - $53,000")
	require.Contains(t, resp.Answer, "- CASE-002 - contract_dispute (Active) - Filed: 2024-03-02 - No financial records")
	require.Contains(t, resp.Answer, "- CASE-003 - employment (Pending) - Filed: Unknown - No financial records")
	require.Contains(t, resp.Answer, "Summary: The system contains 3 total cases")
}

func TestQuerySystemTimelineListsEvents(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{}, nil)
	resp, err := eng.Query(context.Background(), "show me all cases with their dates", "", nil)
	require.NoError(t, err)

	require.Contains(t, resp.Answer, "Case Timeline Overview")
	require.Contains(t, resp.Answer, "CASE-001 - personal_injury (Active)")
	require.Contains(t, resp.Answer, "- Filing Date: 2024-01-15")
	require.Contains(t, resp.Answer, "  - 2024-01-20: Complaint filed")
	require.Contains(t, resp.Answer, "No timeline events")
}

func TestQuerySystemDetailIncludesSummariesAndFinancials(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{}, nil)
	resp, err := eng.Query(context.Background(), "overall cases details", "", nil)
	require.NoError(t, err)

	require.Contains(t, resp.Answer, "Comprehensive Case System Overview")
	require.Contains(t, resp.Answer, "- Summary: Slip and fall at a grocery store.")
	require.Contains(t, resp.Answer, "- Financial Summary: $53,000")
	require.Contains(t, resp.Answer, "- Financial Summary: No financial records")
}

func TestQuerySystemWideIgnoresCaseID(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{}, nil)
	resp, err := eng.Query(context.Background(), "how many cases are there", "CASE-001", nil)
	require.NoError(t, err)
	require.Contains(t, resp.Answer, "Total Cases: 3")
}

func TestQueryWithPassagesCitesSources(t *testing.T) {
	store := &fakePassageStore{
		exists: true,
		passages: []models.RetrievedPassage{
			{PassageID: "p1", Text: "The demand letter seeks $45,000.", Metadata: map[string]any{"chunk_index": 0, "document_type": "legal_document"}},
			{PassageID: "p2", Text: "Medical expenses totaled $8,000.", Metadata: map[string]any{"chunk_index": 1, "document_type": "legal_document"}},
		},
	}
	eng := newTestEngine(seededDirectory(), store, nil)

	resp, err := eng.Query(context.Background(), "What damages are claimed?", "CASE-001", map[string]any{"requested_by": "portal"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Answer)
	require.Len(t, resp.Sources, 2)
	require.Equal(t, 0, resp.Sources[0]["chunk_index"])
	require.Contains(t, resp.Sources[0]["evidence"], "demand letter")
	require.Equal(t, map[string]any{"requested_by": "portal"}, resp.ContextUsed["user_context"])
}

func TestQueryNoDocumentsAnswersFromContext(t *testing.T) {
	eng := newTestEngine(seededDirectory(), &fakePassageStore{exists: false}, nil)

	resp, err := eng.Query(context.Background(), "What damages are claimed?", "CASE-001", nil)
	require.NoError(t, err)
	require.Contains(t, resp.Answer, "No legal documents have been processed for this case yet")
	require.Contains(t, resp.Answer, "Case Summary: Slip and fall at a grocery store.")
	require.Contains(t, resp.Answer, "- settlement_demand: $45,000 - Initial demand")
	require.Contains(t, resp.Answer, "- plaintiff: Jane Smith")
	require.Empty(t, resp.Sources)
	require.NotNil(t, resp.Sources)
	require.NotContains(t, resp.ContextUsed, "retrieval_error")
}

func TestQueryRetrievalErrorFallsBackToContext(t *testing.T) {
	store := &fakePassageStore{exists: true, queryErr: errors.New("vector index offline")}
	eng := newTestEngine(seededDirectory(), store, nil)

	resp, err := eng.Query(context.Background(), "What damages are claimed?", "CASE-001", nil)
	require.NoError(t, err)
	require.Contains(t, resp.Answer, "No legal documents have been processed")
	require.Empty(t, resp.Sources)
	// The absorbed store failure is reported, not logged or returned.
	require.Equal(t, "vector index offline", resp.ContextUsed["retrieval_error"])
}

func TestQueryExistenceErrorFallsBackToContext(t *testing.T) {
	store := &fakePassageStore{existsErr: errors.New("connection reset")}
	eng := newTestEngine(seededDirectory(), store, nil)

	resp, err := eng.Query(context.Background(), "What damages are claimed?", "CASE-001", nil)
	require.NoError(t, err)
	require.Contains(t, resp.Answer, "No legal documents have been processed")
	require.Equal(t, "connection reset", resp.ContextUsed["retrieval_error"])
}

func TestQueryGenerationFailurePropagates(t *testing.T) {
	store := &fakePassageStore{
		exists:   true,
		passages: []models.RetrievedPassage{{PassageID: "p1", Text: "irrelevant", Metadata: map[string]any{}}},
	}
	eng := newTestEngine(seededDirectory(), store, failingProvider{})

	_, err := eng.Query(context.Background(), "What damages are claimed?", "CASE-001", nil)
	require.ErrorIs(t, err, util.ErrGenerationFailed)
	require.Contains(t, err.Error(), "quota exhausted")
}
