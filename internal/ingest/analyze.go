package ingest

import (
	"context"
	"fmt"
	"strings"

	"caseflow/internal/providers"
)

// Only the head of the document goes to the analyzer. Type signals cluster in
// captions and opening paragraphs; the rest of the text adds cost, not signal.
const analysisPromptLimit = 2000

// DocumentAnalysis is what the analyzer reports about a raw document before
// chunking. DocumentType drives chunk sizing; the remaining fields ride along
// into passage metadata.
type DocumentAnalysis struct {
	DocumentType     string   `json:"document_type"`
	Parties          []string `json:"parties"`
	Citations        []string `json:"citations"`
	MonetaryAmounts  []string `json:"monetary_amounts"`
	MedicalInfo      []string `json:"medical_info"`
	LiabilityFactors []string `json:"liability_factors"`
}

func defaultAnalysis() DocumentAnalysis {
	return DocumentAnalysis{
		DocumentType:     "legal_document",
		Parties:          []string{},
		Citations:        []string{},
		MonetaryAmounts:  []string{},
		MedicalInfo:      []string{},
		LiabilityFactors: []string{},
	}
}

// AnalyzeDocument asks gen to characterize the document head. Analysis is a
// best-effort hint: any provider failure falls back to the default shape and
// ingestion proceeds.
func AnalyzeDocument(ctx context.Context, gen providers.LLMProvider, text string) DocumentAnalysis {
	analysis, _, err := Analyze(ctx, gen, text)
	if err != nil {
		return defaultAnalysis()
	}
	return analysis
}

// Analyze is the error-propagating form of AnalyzeDocument, for callers that
// run their own provider failover.
func Analyze(ctx context.Context, gen providers.LLMProvider, text string) (DocumentAnalysis, providers.ProviderInfo, error) {
	if gen == nil {
		return defaultAnalysis(), providers.ProviderInfo{}, fmt.Errorf("no llm provider")
	}
	head := text
	if len(head) > analysisPromptLimit {
		head = head[:analysisPromptLimit]
	}
	resp, info, err := gen.Generate(ctx, providers.GenerateRequest{
		Operation: "document_analysis",
		Prompt:    analysisPrompt(head),
	})
	if err != nil {
		return defaultAnalysis(), info, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return defaultAnalysis(), info, nil
	}
	return parseAnalysis(resp.Text), info, nil
}

func analysisPrompt(head string) string {
	var b strings.Builder
	b.WriteString("Analyze this legal document excerpt and identify:\n")
	b.WriteString("1. Document type (complaint, motion, brief, contract, medical record, or legal_document)\n")
	b.WriteString("2. Parties mentioned\n")
	b.WriteString("3. Legal citations\n")
	b.WriteString("4. Monetary amounts\n")
	b.WriteString("5. Medical information\n")
	b.WriteString("6. Liability factors\n\n")
	fmt.Fprintf(&b, "Document excerpt:\n%s\n", head)
	return b.String()
}

// parseAnalysis keeps the default shape regardless of the model output.
// Structured extraction from free-form analysis text has not been reliable
// enough to act on; the hook stays so a stricter parser can slot in.
func parseAnalysis(_ string) DocumentAnalysis {
	return defaultAnalysis()
}
