package rag

import (
	"context"
	"fmt"
	"strings"

	"caseflow/internal/models"
	"caseflow/internal/providers"
	"caseflow/internal/util"
)

// retrievalTopK is how many passages the retriever hands the generator.
const retrievalTopK = 5

// CaseDirectory reads case records and their related tables.
type CaseDirectory interface {
	ListCases(ctx context.Context) ([]models.Case, error)
	LoadCaseContext(ctx context.Context, caseID string) (models.CaseContext, error)
}

// PassageStore answers retrieval queries over ingested passages.
type PassageStore interface {
	Exists(ctx context.Context, caseID string) (bool, error)
	Query(ctx context.Context, caseID, query string, topK int) ([]models.RetrievedPassage, error)
}

type llmSource interface {
	PreferredLLMOrder() []int
	LLMProviderByIndex(i int) (providers.LLMProvider, providers.ProviderRef)
}

// Engine resolves queries: system-wide ones aggregate over the case tables,
// case-specific ones retrieve passages and generate an answer grounded in
// the case context.
type Engine struct {
	cases CaseDirectory
	store PassageStore
	llm   llmSource
}

func NewEngine(cases CaseDirectory, store PassageStore, llm llmSource) *Engine {
	return &Engine{cases: cases, store: store, llm: llm}
}

// Query resolves query for caseID. userContext is echoed back inside
// context_used and may be nil.
//
// Retrieval failures degrade to a context-only answer; a missing case and
// generation failures are returned as errors.
func (e *Engine) Query(ctx context.Context, query, caseID string, userContext map[string]any) (models.QueryResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.QueryResponse{}, fmt.Errorf("%w: query is required", util.ErrInvalidInput)
	}

	if cls := Classify(query); cls.SystemWide {
		return e.aggregate(ctx, query, cls.View)
	}

	if strings.TrimSpace(caseID) == "" {
		return models.QueryResponse{}, fmt.Errorf("%w: case_id is required", util.ErrInvalidInput)
	}

	cc, err := e.cases.LoadCaseContext(ctx, caseID)
	if err != nil {
		return models.QueryResponse{}, err
	}

	exists, err := e.store.Exists(ctx, caseID)
	if err != nil {
		return e.contextOnly(query, cc, userContext, err), nil
	}
	if !exists {
		return e.contextOnly(query, cc, userContext, nil), nil
	}

	passages, err := e.store.Query(ctx, caseID, query, retrievalTopK)
	if err != nil {
		return e.contextOnly(query, cc, userContext, err), nil
	}

	prompt := responsePrompt(query, formatContextText(cc), passages)
	snippets := make([]string, 0, len(passages))
	for _, p := range passages {
		snippets = append(snippets, p.Text)
	}
	answer, err := e.generate(ctx, "case_answer", prompt, snippets)
	if err != nil {
		return models.QueryResponse{}, fmt.Errorf("%w: %v", util.ErrGenerationFailed, err)
	}

	sources := make([]map[string]any, 0, len(passages))
	for _, p := range passages {
		src := make(map[string]any, len(p.Metadata)+1)
		for k, v := range p.Metadata {
			src[k] = v
		}
		src["evidence"] = util.DisplayEvidenceSnippet(p.Text, query, 240)
		sources = append(sources, src)
	}
	return models.QueryResponse{
		Answer:      answer,
		Sources:     sources,
		ContextUsed: FormatContext(cc, userContext),
	}, nil
}

// contextOnly answers from the case tables when no passages are available.
// retrievalErr, when non-nil, is the absorbed store failure; it is reported
// inside context_used so callers can log it without it failing the request.
func (e *Engine) contextOnly(query string, cc models.CaseContext, userContext map[string]any, retrievalErr error) models.QueryResponse {
	summary := cc.Case.Summary
	if summary == "" {
		summary = "No summary available"
	}
	var b strings.Builder
	b.WriteString("Based on the case information available:\n\n")
	fmt.Fprintf(&b, "Query: %s\n\n", query)
	fmt.Fprintf(&b, "Case Summary: %s\n\n", summary)
	b.WriteString("Financial Information:\n")
	b.WriteString(FormatFinancials(cc.Financials))
	b.WriteString("\n\nParties Involved:\n")
	b.WriteString(FormatParties(cc.Parties))
	b.WriteString("\n\nNote: No legal documents have been processed for this case yet. The response is based on case metadata only.")

	contextUsed := FormatContext(cc, userContext)
	if retrievalErr != nil {
		contextUsed["retrieval_error"] = retrievalErr.Error()
	}
	return models.QueryResponse{
		Answer:      b.String(),
		Sources:     []map[string]any{},
		ContextUsed: contextUsed,
	}
}

// generate walks the preferred provider order until one returns usable text.
func (e *Engine) generate(ctx context.Context, operation, prompt string, snippets []string) (string, error) {
	var lastErr error
	for _, idx := range e.llm.PreferredLLMOrder() {
		p, ref := e.llm.LLMProviderByIndex(idx)
		if p == nil {
			continue
		}
		resp, _, err := p.Generate(ctx, providers.GenerateRequest{
			Operation: operation,
			Prompt:    prompt,
			Context:   snippets,
		})
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", ref.Name, err)
			continue
		}
		if text := strings.TrimSpace(resp.Text); text != "" {
			return text, nil
		}
		lastErr = fmt.Errorf("%s: empty completion", ref.Name)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no llm providers configured")
	}
	return "", lastErr
}
