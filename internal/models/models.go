package models

import "time"

type Case struct {
	CaseID    string     `json:"case_id"`
	CaseType  string     `json:"case_type"`
	Status    string     `json:"status"`
	DateFiled *time.Time `json:"date_filed,omitempty"`
	Summary   string     `json:"summary,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Party struct {
	PartyType   string `json:"party_type"`
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info,omitempty"`
}

type TimelineEvent struct {
	EventDate   *time.Time `json:"event_date,omitempty"`
	Description string     `json:"description"`
}

type FinancialRecord struct {
	RecordType  string  `json:"record_type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// CaseContext is rebuilt from the relational store on every query; it is never
// cached or persisted.
type CaseContext struct {
	Case       Case              `json:"case"`
	Parties    []Party           `json:"parties"`
	Events     []TimelineEvent   `json:"events"`
	Financials []FinancialRecord `json:"financials"`
}

type Document struct {
	DocumentID   string    `json:"document_id"`
	CaseID       string    `json:"case_id"`
	Filename     string    `json:"filename"`
	DocumentType string    `json:"document_type,omitempty"`
	Status       string    `json:"status"`
	FailReason   string    `json:"fail_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Passage is one retrieval-sized chunk of an ingested document. Metadata holds
// only primitive values (the store cannot represent nested structures).
type Passage struct {
	PassageID  string         `json:"passage_id"`
	CaseID     string         `json:"case_id"`
	DocumentID string         `json:"document_id"`
	ChunkIndex int            `json:"chunk_index"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata"`
}

type RetrievedPassage struct {
	PassageID  string         `json:"passage_id"`
	DocumentID string         `json:"document_id"`
	ChunkIndex int            `json:"chunk_index"`
	Text       string         `json:"text"`
	Score      float64        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
}

type QueryResponse struct {
	Answer      string           `json:"answer"`
	Sources     []map[string]any `json:"sources"`
	ContextUsed map[string]any   `json:"context_used"`
}

type IngestResult struct {
	DocumentID string         `json:"document_id"`
	Metadata   map[string]any `json:"metadata"`
	PassageIDs []string       `json:"passage_ids"`
}
