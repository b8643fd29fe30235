package vector

import (
	"context"
	"fmt"

	"caseflow/internal/models"
	"caseflow/internal/providers"
	"caseflow/internal/storage"
)

// Store is the passage-store adapter: namespace existence, write, and ranked
// query over one case's passages. The namespace is the case identifier.
type Store struct {
	repo      *storage.PassageRepo
	searcher  *Searcher
	providers *providers.Manager
	embedDim  int
	version   string
}

func NewStore(db *storage.DB, pm *providers.Manager, embedDim int, embedVersion string) *Store {
	return &Store{
		repo:      storage.NewPassageRepo(db),
		searcher:  NewSearcher(db.Pool),
		providers: pm,
		embedDim:  embedDim,
		version:   embedVersion,
	}
}

func (s *Store) Exists(ctx context.Context, caseID string) (bool, error) {
	return s.repo.NamespaceExists(ctx, caseID)
}

// Write embeds passage texts and appends them to the namespace. Duplicate
// writes accumulate; idempotency is not promised at this boundary.
func (s *Store) Write(ctx context.Context, passages []models.Passage) ([]string, error) {
	if len(passages) == 0 {
		return nil, nil
	}
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}
	vectors, err := s.embed(ctx, "ingest_passage_embed", texts)
	if err != nil {
		return nil, fmt.Errorf("embed passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return nil, fmt.Errorf("embedding count mismatch: %d passages, %d vectors", len(passages), len(vectors))
	}

	records := make([]storage.PassageRecord, 0, len(passages))
	ids := make([]string, 0, len(passages))
	for i, p := range passages {
		records = append(records, storage.PassageRecord{
			PassageID:        p.PassageID,
			CaseID:           p.CaseID,
			DocumentID:       p.DocumentID,
			ChunkIndex:       p.ChunkIndex,
			Text:             p.Text,
			Metadata:         p.Metadata,
			Embedding:        vectors[i],
			EmbeddingVersion: s.version,
		})
		ids = append(ids, p.PassageID)
	}
	if err := s.repo.InsertPassages(ctx, records); err != nil {
		return nil, err
	}
	return ids, nil
}

// Query embeds the query text and returns the topK passages ranked by
// max-marginal-relevance.
func (s *Store) Query(ctx context.Context, caseID, text string, topK int) ([]models.RetrievedPassage, error) {
	vectors, err := s.embed(ctx, "query_embed", []string{text})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.searcher.SearchPassages(ctx, caseID, vectors[0], topK)
}

func (s *Store) embed(ctx context.Context, operation string, inputs []string) ([][]float32, error) {
	var lastErr error
	for _, idx := range s.providers.PreferredEmbedOrder() {
		p, _ := s.providers.EmbedProviderByIndex(idx)
		vectors, _, err := p.Embed(ctx, providers.EmbedRequest{
			Operation: operation,
			Inputs:    inputs,
			Dimension: s.embedDim,
		})
		if err == nil && len(vectors) == len(inputs) {
			return vectors, nil
		}
		if err != nil {
			lastErr = err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("embedding providers unavailable")
	}
	return nil, lastErr
}
