package rag

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"caseflow/internal/models"
)

// FormatDollars renders an amount with thousands separators and cents only
// when the amount has a fractional part.
func FormatDollars(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	whole := cents / 100
	frac := cents % 100

	s := groupThousands(whole)
	if frac > 0 {
		s = fmt.Sprintf("%s.%02d", s, frac)
	}
	if neg {
		return "-$" + s
	}
	return "$" + s
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatFinancials renders one line per record for answer text.
func FormatFinancials(records []models.FinancialRecord) string {
	if len(records) == 0 {
		return "No financial records available"
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		recordType := r.RecordType
		if recordType == "" {
			recordType = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s - %s", recordType, FormatDollars(r.Amount), r.Description))
	}
	return strings.Join(lines, "\n")
}

// FormatParties renders one "- type: name" line per party.
func FormatParties(parties []models.Party) string {
	if len(parties) == 0 {
		return "No parties information available"
	}
	lines := make([]string, 0, len(parties))
	for _, p := range parties {
		partyType := p.PartyType
		if partyType == "" {
			partyType = "Unknown"
		}
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", partyType, name))
	}
	return strings.Join(lines, "\n")
}

// FormatContext assembles the context_used payload returned with every
// case-specific response. Empty sub-collections stay as empty slices so the
// payload shape is stable.
func FormatContext(cc models.CaseContext, userContext map[string]any) map[string]any {
	if userContext == nil {
		userContext = map[string]any{}
	}

	parties := make([]map[string]any, 0, len(cc.Parties))
	for _, p := range cc.Parties {
		parties = append(parties, map[string]any{
			"party_type":   p.PartyType,
			"name":         p.Name,
			"contact_info": p.ContactInfo,
		})
	}

	events := make([]map[string]any, 0, len(cc.Events))
	for _, e := range cc.Events {
		var date any
		if e.EventDate != nil {
			date = e.EventDate.Format("2006-01-02")
		}
		events = append(events, map[string]any{
			"event_date":  date,
			"description": e.Description,
		})
	}

	financials := make([]map[string]any, 0, len(cc.Financials))
	for _, f := range cc.Financials {
		financials = append(financials, map[string]any{
			"record_type": f.RecordType,
			"amount":      f.Amount,
			"description": f.Description,
		})
	}

	return map[string]any{
		"case_info": map[string]any{
			"case_id":      cc.Case.CaseID,
			"case_type":    cc.Case.CaseType,
			"status":       cc.Case.Status,
			"case_summary": cc.Case.Summary,
		},
		"parties":      parties,
		"events":       events,
		"financials":   financials,
		"user_context": userContext,
	}
}

// formatContextText renders the case context as prompt text.
func formatContextText(cc models.CaseContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Case %s (%s, %s)\n", cc.Case.CaseID, cc.Case.CaseType, cc.Case.Status)
	if cc.Case.DateFiled != nil {
		fmt.Fprintf(&b, "Filed: %s\n", cc.Case.DateFiled.Format("2006-01-02"))
	}
	if cc.Case.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", cc.Case.Summary)
	}
	b.WriteString("\nParties:\n")
	b.WriteString(FormatParties(cc.Parties))
	b.WriteString("\n\nTimeline:\n")
	if len(cc.Events) == 0 {
		b.WriteString("No timeline events")
	} else {
		for i, e := range cc.Events {
			if i > 0 {
				b.WriteByte('\n')
			}
			date := "Unknown"
			if e.EventDate != nil {
				date = e.EventDate.Format("2006-01-02")
			}
			fmt.Fprintf(&b, "- %s: %s", date, e.Description)
		}
	}
	b.WriteString("\n\nFinancials:\n")
	b.WriteString(FormatFinancials(cc.Financials))
	return b.String()
}
