package vector

import (
	"context"
	"fmt"

	"caseflow/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
)

// Retrieval fans out wider than k so the max-marginal-relevance pass has
// genuinely different candidates to choose among.
const candidateMultiplier = 4

type Searcher struct {
	q Queryer
}

type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func NewSearcher(q Queryer) *Searcher {
	return &Searcher{q: q}
}

// SearchPassages retrieves the topK passages for a case namespace, ranked by
// max-marginal-relevance over cosine-nearest candidates.
func (s *Searcher) SearchPassages(ctx context.Context, caseID string, queryVec []float32, topK int) ([]models.RetrievedPassage, error) {
	if topK <= 0 {
		topK = 5
	}
	fetchK := topK * candidateMultiplier

	rows, err := s.q.Query(ctx, `
SELECT p.passage_id::text,
       p.document_id,
       p.chunk_index,
       p.text,
       p.metadata,
       p.embedding::text,
       1 - (p.embedding <=> $2::vector) AS score
FROM passages p
WHERE p.case_id = $1
  AND p.embedding IS NOT NULL
ORDER BY p.embedding <=> $2::vector
LIMIT $3`, caseID, pgvector.NewVector(queryVec), fetchK)
	if err != nil {
		return nil, fmt.Errorf("query passage candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]models.RetrievedPassage, 0, fetchK)
	embeddings := make([][]float32, 0, fetchK)
	for rows.Next() {
		var (
			p   models.RetrievedPassage
			lit string
		)
		if err := rows.Scan(&p.PassageID, &p.DocumentID, &p.ChunkIndex, &p.Text, &p.Metadata, &lit, &p.Score); err != nil {
			return nil, fmt.Errorf("scan passage candidate: %w", err)
		}
		vec, err := FromLiteral(lit)
		if err != nil {
			return nil, fmt.Errorf("decode candidate embedding: %w", err)
		}
		candidates = append(candidates, p)
		embeddings = append(embeddings, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passage candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []models.RetrievedPassage{}, nil
	}

	order := MaxMarginalRelevance(queryVec, embeddings, topK)
	out := make([]models.RetrievedPassage, 0, len(order))
	for _, idx := range order {
		out = append(out, candidates[idx])
	}
	return out, nil
}
