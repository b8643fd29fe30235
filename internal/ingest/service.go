package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/models"
	"caseflow/internal/providers"
	"caseflow/internal/util"
)

// DocumentStore records document lifecycle rows.
type DocumentStore interface {
	UpsertDocument(ctx context.Context, doc models.Document) error
}

// PassageWriter persists embedded passages for later retrieval.
type PassageWriter interface {
	Write(ctx context.Context, passages []models.Passage) ([]string, error)
}

type llmSource interface {
	PreferredLLMOrder() []int
	LLMProviderByIndex(i int) (providers.LLMProvider, providers.ProviderRef)
}

// Service runs the synchronous ingestion path: analyze, chunk, embed, store.
type Service struct {
	documents DocumentStore
	store     PassageWriter
	llm       llmSource
}

func NewService(documents DocumentStore, store PassageWriter, llm llmSource) *Service {
	return &Service{documents: documents, store: store, llm: llm}
}

// Ingest processes rawText for caseID and returns the stored passage IDs.
// Repeated ingestion of the same text accumulates: each call appends a fresh
// set of passages under a new document ID.
func (s *Service) Ingest(ctx context.Context, rawText, caseID string) (models.IngestResult, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return models.IngestResult{}, fmt.Errorf("%w: case_id is required", util.ErrInvalidInput)
	}
	text := util.SanitizeText(rawText)
	if text == "" {
		return models.IngestResult{}, fmt.Errorf("%w: document text is empty", util.ErrInvalidInput)
	}

	analysis := s.analyze(ctx, text)
	documentID := uuid.NewString()
	now := time.Now().UTC()

	if s.documents != nil {
		doc := models.Document{
			DocumentID:   documentID,
			CaseID:       caseID,
			DocumentType: analysis.DocumentType,
			Status:       "processing",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.documents.UpsertDocument(ctx, doc); err != nil {
			return models.IngestResult{}, fmt.Errorf("record document %s: %w", documentID, err)
		}
	}

	passages := BuildPassages(documentID, caseID, text, analysis)
	ids, err := s.store.Write(ctx, passages)
	if err != nil {
		s.markDocument(ctx, documentID, caseID, analysis.DocumentType, "failed", err.Error())
		return models.IngestResult{}, fmt.Errorf("store passages for %s: %w", documentID, err)
	}
	s.markDocument(ctx, documentID, caseID, analysis.DocumentType, "processed", "")

	return models.IngestResult{
		DocumentID: documentID,
		Metadata: FlattenMetadata(map[string]any{
			"document_type":     analysis.DocumentType,
			"parties":           analysis.Parties,
			"citations":         analysis.Citations,
			"monetary_amounts":  analysis.MonetaryAmounts,
			"medical_info":      analysis.MedicalInfo,
			"liability_factors": analysis.LiabilityFactors,
			"chunk_count":       len(passages),
		}),
		PassageIDs: ids,
	}, nil
}

// BuildPassages chunks text per the analysis type and attaches flattened
// metadata to each chunk. Chunk indexes are dense and zero-based.
func BuildPassages(documentID, caseID, text string, analysis DocumentAnalysis) []models.Passage {
	size, overlap := SizingFor(analysis.DocumentType)
	parts := SplitText(text, size, overlap)
	passages := make([]models.Passage, 0, len(parts))
	for i, part := range parts {
		passages = append(passages, models.Passage{
			PassageID:  uuid.NewString(),
			CaseID:     caseID,
			DocumentID: documentID,
			ChunkIndex: i,
			Text:       part,
			Metadata: FlattenMetadata(map[string]any{
				"case_id":       caseID,
				"document_id":   documentID,
				"chunk_index":   i,
				"document_type": analysis.DocumentType,
				"parties":       analysis.Parties,
				"citations":     ExtractCitations(part),
			}),
		})
	}
	return passages
}

func (s *Service) analyze(ctx context.Context, text string) DocumentAnalysis {
	if s.llm == nil {
		return defaultAnalysis()
	}
	for _, idx := range s.llm.PreferredLLMOrder() {
		gen, _ := s.llm.LLMProviderByIndex(idx)
		if gen == nil {
			continue
		}
		return AnalyzeDocument(ctx, gen, text)
	}
	return defaultAnalysis()
}

func (s *Service) markDocument(ctx context.Context, documentID, caseID, docType, status, reason string) {
	if s.documents == nil {
		return
	}
	_ = s.documents.UpsertDocument(ctx, models.Document{
		DocumentID:   documentID,
		CaseID:       caseID,
		DocumentType: docType,
		Status:       status,
		FailReason:   reason,
		UpdatedAt:    time.Now().UTC(),
	})
}
