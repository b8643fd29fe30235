package activities

import "caseflow/internal/models"

type ListCasePDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListCasePDFsOutput struct {
	Paths []string `json:"paths"`
}

type ComputeDocumentIDInput struct {
	DocumentPath string `json:"document_path"`
}

type ComputeDocumentIDOutput struct {
	DocumentID string `json:"document_id"`
}

type ExtractTextInput struct {
	DocumentPath string `json:"document_path"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type AnalyzeDocumentInput struct {
	CaseID        string `json:"case_id"`
	DocumentID    string `json:"document_id"`
	Text          string `json:"text"`
	ProviderIndex int    `json:"provider_index"`
}

type AnalyzeDocumentOutput struct {
	DocumentType     string   `json:"document_type"`
	Parties          []string `json:"parties"`
	Citations        []string `json:"citations"`
	MonetaryAmounts  []string `json:"monetary_amounts"`
	MedicalInfo      []string `json:"medical_info"`
	LiabilityFactors []string `json:"liability_factors"`
	ProviderName     string   `json:"provider_name"`
	Model            string   `json:"model"`
}

type ChunkDocumentInput struct {
	DocumentID   string `json:"document_id"`
	CaseID       string `json:"case_id"`
	Text         string `json:"text"`
	DocumentType string `json:"document_type"`
}

type ChunkDocumentOutput struct {
	Passages []models.Passage `json:"passages"`
}

type EmbedPassagesInput struct {
	Operation     string   `json:"operation"`
	CaseID        string   `json:"case_id"`
	DocumentID    string   `json:"document_id"`
	ProviderIndex int      `json:"provider_index"`
	Texts         []string `json:"texts"`
}

type EmbedPassagesOutput struct {
	Vectors      [][]float32 `json:"vectors"`
	ProviderName string      `json:"provider_name"`
	Model        string      `json:"model"`
}

type WritePassagesInput struct {
	Passages         []models.Passage `json:"passages"`
	Vectors          [][]float32      `json:"vectors"`
	EmbeddingVersion string           `json:"embedding_version"`
}

type WritePassagesOutput struct {
	PassageIDs []string `json:"passage_ids"`
}

type WriteDocumentArtifactsInput struct {
	CaseID        string           `json:"case_id"`
	DocumentID    string           `json:"document_id"`
	Metadata      map[string]any   `json:"metadata"`
	Passages      []models.Passage `json:"passages"`
	Text          string           `json:"text"`
	ProcessingLog map[string]any   `json:"processing_log"`
}

type UpdateDocumentStatusInput struct {
	DocumentID   string `json:"document_id"`
	CaseID       string `json:"case_id"`
	Filename     string `json:"filename"`
	DocumentType string `json:"document_type"`
	Status       string `json:"status"`
	FailReason   string `json:"fail_reason"`
}

type ListFailedDocumentsInput struct {
	CaseID string `json:"case_id"`
}

type FailedDocument struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}

type ListFailedDocumentsOutput struct {
	Documents []FailedDocument `json:"documents"`
}

type WriteCaseSummaryInput struct {
	CaseID  string         `json:"case_id"`
	Summary map[string]any `json:"summary"`
}

type WriteRunManifestInput struct {
	CaseID   string         `json:"case_id"`
	RunID    string         `json:"run_id"`
	Manifest map[string]any `json:"manifest"`
}

type WriteRunManifestOutput struct {
	Path string `json:"path"`
}

type LogLLMCallInput struct {
	CallID       string `json:"call_id"`
	Operation    string `json:"operation"`
	CaseID       string `json:"case_id"`
	DocumentID   string `json:"document_id"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
}
