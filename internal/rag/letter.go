package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caseflow/internal/models"
	"caseflow/internal/util"
)

// letterSectionQueries are the retrieval questions whose answers fill the
// body of a drafted letter, run in order through Query so each one gets the
// full responder semantics (including the context-only fallback).
var letterSectionQueries = []string{
	"Summarize medical expenses and treatment details",
	"Calculate lost wages and income impact",
	"Assess pain and suffering factors",
	"Identify liability and negligence evidence",
}

// LetterDraft is a drafted demand letter plus the retrieval answers it was
// assembled from.
type LetterDraft struct {
	LetterContent string            `json:"letter_content"`
	CaseID        string            `json:"case_id"`
	TemplateType  string            `json:"template_type"`
	RAGContext    map[string]string `json:"rag_context"`
	GeneratedAt   time.Time         `json:"generated_at"`
}

// DraftLetter composes a demand letter for caseID. Each section query runs
// through Query, so cases without ingested documents still draft from case
// metadata alone; per-type financial totals and the named parties frame the
// answers. A missing case and generation failures are returned as errors.
func (e *Engine) DraftLetter(ctx context.Context, caseID, templateType string, userContext map[string]any) (LetterDraft, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return LetterDraft{}, fmt.Errorf("%w: case_id is required", util.ErrInvalidInput)
	}
	if strings.TrimSpace(templateType) == "" {
		templateType = "demand_letter"
	}

	cc, err := e.cases.LoadCaseContext(ctx, caseID)
	if err != nil {
		return LetterDraft{}, err
	}

	ragContext := make(map[string]string, len(letterSectionQueries))
	for _, q := range letterSectionQueries {
		resp, err := e.Query(ctx, q, caseID, userContext)
		if err != nil {
			return LetterDraft{}, err
		}
		ragContext[q] = resp.Answer
	}

	now := time.Now().UTC()
	return LetterDraft{
		LetterContent: renderLetter(cc, ragContext, now),
		CaseID:        caseID,
		TemplateType:  templateType,
		RAGContext:    ragContext,
		GeneratedAt:   now,
	}, nil
}

func renderLetter(cc models.CaseContext, ragContext map[string]string, now time.Time) string {
	var medical, lostWages, painSuffering float64
	for _, f := range cc.Financials {
		switch f.RecordType {
		case "medical":
			medical += f.Amount
		case "lost_wages":
			lostWages += f.Amount
		case "pain_suffering":
			painSuffering += f.Amount
		}
	}
	total := medical + lostWages + painSuffering

	defendant := partyName(cc.Parties, "defendant", "Defendant")
	client := partyName(cc.Parties, "plaintiff", "our client")

	var b strings.Builder
	b.WriteString("[LAW FIRM LETTERHEAD]\n")
	b.WriteString(now.Format("January 2, 2006"))
	b.WriteString("\n\n")
	b.WriteString(defendant)
	b.WriteString("\nAttn: Claims Department\n\n")
	fmt.Fprintf(&b, "Re: Demand for %s - Case %s\n\n", FormatDollars(total), cc.Case.CaseID)
	b.WriteString("Dear Sir or Madam:\n\n")
	fmt.Fprintf(&b, "On behalf of our client, %s, we demand payment of %s for injuries sustained due to your insured's negligence.\n\n", client, FormatDollars(total))
	b.WriteString("BASED ON OUR ANALYSIS OF THE CASE DOCUMENTS:\n\n")
	b.WriteString(ragContext[letterSectionQueries[0]])
	b.WriteString("\n\n")
	b.WriteString(ragContext[letterSectionQueries[1]])
	b.WriteString("\n\n")
	b.WriteString(ragContext[letterSectionQueries[2]])
	b.WriteString("\n\n")
	b.WriteString("LIABILITY EVIDENCE:\n")
	b.WriteString(ragContext[letterSectionQueries[3]])
	b.WriteString("\n\n")
	b.WriteString("DETAILED BREAKDOWN:\n")
	fmt.Fprintf(&b, "1. Medical Expenses: %s\n", FormatDollars(medical))
	fmt.Fprintf(&b, "2. Lost Wages: %s\n", FormatDollars(lostWages))
	fmt.Fprintf(&b, "3. Pain & Suffering: %s\n\n", FormatDollars(painSuffering))
	fmt.Fprintf(&b, "TOTAL DEMAND: %s\n\n", FormatDollars(total))
	b.WriteString("Please remit payment within 30 days of this letter.\n\n")
	b.WriteString("Sincerely,\n\n[Attorney Name]")
	return b.String()
}

func partyName(parties []models.Party, partyType, fallback string) string {
	for _, p := range parties {
		if p.PartyType == partyType && p.Name != "" {
			return p.Name
		}
	}
	return fallback
}
