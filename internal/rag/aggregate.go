package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"caseflow/internal/models"
)

// caseStats carries the per-case figures every system view draws on.
type caseStats struct {
	caseID      string
	caseType    string
	status      string
	dateFiled   string
	summary     string
	parties     []models.Party
	events      []models.TimelineEvent
	totalAmount float64
}

func (c caseStats) financialSummary() string {
	if c.totalAmount > 0 {
		return FormatDollars(c.totalAmount)
	}
	return "No financial records"
}

// aggregate answers a system-wide query from the case tables alone. No
// retrieval, no generation: the numbers come straight from the database.
func (e *Engine) aggregate(ctx context.Context, query string, view View) (models.QueryResponse, error) {
	cases, err := e.cases.ListCases(ctx)
	if err != nil {
		return models.QueryResponse{}, fmt.Errorf("list cases: %w", err)
	}

	stats := make([]caseStats, 0, len(cases))
	var totalAmount float64
	var active, pending, closed, other int
	for _, c := range cases {
		cc, err := e.cases.LoadCaseContext(ctx, c.CaseID)
		if err != nil {
			return models.QueryResponse{}, fmt.Errorf("load case %s: %w", c.CaseID, err)
		}
		s := caseStats{
			caseID:    c.CaseID,
			caseType:  c.CaseType,
			status:    c.Status,
			dateFiled: "Unknown",
			summary:   c.Summary,
			parties:   cc.Parties,
			events:    cc.Events,
		}
		if c.DateFiled != nil {
			s.dateFiled = c.DateFiled.Format("2006-01-02")
		}
		for _, f := range cc.Financials {
			s.totalAmount += f.Amount
		}
		totalAmount += s.totalAmount
		stats = append(stats, s)

		switch c.Status {
		case "Active":
			active++
		case "Pending":
			pending++
		case "Closed":
			closed++
		default:
			other++
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].caseID < stats[j].caseID })

	totals := systemTotals{
		totalCases: len(cases),
		active:     active,
		// Active cases are still awaiting resolution, so they count as
		// pending alongside Pending-status cases.
		pending: active + pending,
		closed:  closed,
		other:   other,
		amount:  totalAmount,
	}

	var answer string
	switch view {
	case ViewStatistics:
		answer = renderStatistics(totals)
	case ViewTimeline:
		answer = renderTimeline(totals, stats)
	case ViewDetail:
		answer = renderDetail(totals, stats)
	default:
		answer = renderList(totals, stats)
	}

	return models.QueryResponse{
		Answer: answer,
		Sources: []map[string]any{{
			"type":         "system_query",
			"query":        query,
			"total_cases":  totals.totalCases,
			"total_amount": totals.amount,
		}},
		ContextUsed: map[string]any{
			"query_type":     "system_overview",
			"cases_analyzed": totals.totalCases,
		},
	}, nil
}

type systemTotals struct {
	totalCases int
	active     int
	pending    int
	closed     int
	other      int
	amount     float64
}

func renderStatistics(t systemTotals) string {
	var b strings.Builder
	b.WriteString("Case System Overview\n\n")
	fmt.Fprintf(&b, "Total Cases: %d\n", t.totalCases)
	fmt.Fprintf(&b, "Active Cases: %d\n", t.active)
	fmt.Fprintf(&b, "Pending Cases: %d\n", t.pending)
	fmt.Fprintf(&b, "Total Financial Amount: %s\n\n", FormatDollars(t.amount))
	b.WriteString("Case Breakdown by Status:\n")
	fmt.Fprintf(&b, "- Active: %d cases\n", t.active)
	fmt.Fprintf(&b, "- Pending: %d cases\n", t.pending-t.active)
	fmt.Fprintf(&b, "- Closed: %d cases\n", t.closed)
	fmt.Fprintf(&b, "- Other: %d cases", t.other)
	return b.String()
}

func renderTimeline(t systemTotals, stats []caseStats) string {
	var b strings.Builder
	b.WriteString("Case Timeline Overview\n\n")
	fmt.Fprintf(&b, "Total Cases: %d\n", t.totalCases)
	fmt.Fprintf(&b, "Active Cases: %d\n", t.active)
	fmt.Fprintf(&b, "Pending Cases: %d\n\n", t.pending)
	b.WriteString("Case Dates and Timeline:\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "\n%s - %s (%s)\n", s.caseID, s.caseType, s.status)
		fmt.Fprintf(&b, "- Filing Date: %s\n", s.dateFiled)
		fmt.Fprintf(&b, "- Parties: %s\n", partySummary(s.parties))
		b.WriteString("- Timeline Events:\n")
		b.WriteString(timelineLines(s.events))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDetail(t systemTotals, stats []caseStats) string {
	var b strings.Builder
	b.WriteString("Comprehensive Case System Overview\n\n")
	fmt.Fprintf(&b, "Total Cases: %d\n", t.totalCases)
	fmt.Fprintf(&b, "Active Cases: %d\n", t.active)
	fmt.Fprintf(&b, "Pending Cases: %d\n", t.pending)
	fmt.Fprintf(&b, "Total Financial Amount: %s\n\n", FormatDollars(t.amount))
	b.WriteString("Detailed Case Information:\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "\n%s - %s (%s)\n", s.caseID, s.caseType, s.status)
		fmt.Fprintf(&b, "- Filed: %s\n", s.dateFiled)
		fmt.Fprintf(&b, "- Summary: %s\n", s.summary)
		fmt.Fprintf(&b, "- Parties: %s\n", partySummary(s.parties))
		b.WriteString("- Timeline Events:\n")
		b.WriteString(timelineLines(s.events))
		fmt.Fprintf(&b, "\n- Financial Summary: %s\n", s.financialSummary())
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderList(t systemTotals, stats []caseStats) string {
	var b strings.Builder
	b.WriteString("Case System Overview\n\n")
	fmt.Fprintf(&b, "Total Cases: %d\n", t.totalCases)
	fmt.Fprintf(&b, "Active Cases: %d\n", t.active)
	fmt.Fprintf(&b, "Pending Cases: %d\n", t.pending)
	fmt.Fprintf(&b, "Total Financial Amount: %s\n\n", FormatDollars(t.amount))
	b.WriteString("All Cases:\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "- %s - %s (%s) - Filed: %s - %s\n",
			s.caseID, s.caseType, s.status, s.dateFiled, s.financialSummary())
	}
	fmt.Fprintf(&b, "\nSummary: The system contains %d total cases with %d currently active and %d pending resolution. Total financial amount across all cases is %s.",
		t.totalCases, t.active, t.pending, FormatDollars(t.amount))
	return b.String()
}

// partySummary lists at most the first three parties.
func partySummary(parties []models.Party) string {
	if len(parties) == 0 {
		return "None listed"
	}
	limit := len(parties)
	if limit > 3 {
		limit = 3
	}
	items := make([]string, 0, limit)
	for _, p := range parties[:limit] {
		items = append(items, fmt.Sprintf("%s: %s", p.PartyType, p.Name))
	}
	return strings.Join(items, ", ")
}

func timelineLines(events []models.TimelineEvent) string {
	if len(events) == 0 {
		return "  No timeline events"
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		date := "Unknown"
		if e.EventDate != nil {
			date = e.EventDate.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("  - %s: %s", date, e.Description))
	}
	return strings.Join(lines, "\n")
}
