package rag

import "strings"

// View selects which system-wide rendering a query gets.
type View string

const (
	ViewStatistics View = "statistics"
	ViewTimeline   View = "timeline"
	ViewDetail     View = "detail"
	ViewList       View = "list"
)

// Classification reports whether a query spans the whole case system and, if
// so, which view to render.
type Classification struct {
	SystemWide bool
	View       View
}

// Substring match against the lowercased query. Any hit makes the query
// system-wide regardless of a supplied case ID.
var systemKeywords = []string{
	"number of cases", "total cases", "all cases", "case count",
	"pending cases", "active cases", "case status", "system cases",
	"how many cases", "case summary", "overview", "dashboard",
	"case list", "case inventory", "case management", "overall cases",
	"system overview", "case overview", "all cases details",
	"case statistics", "case details", "dates",
	"timeline", "events", "filing dates",
}

// View routing is first-match-wins in this order: count-style words pick
// statistics, date words pick timeline, detail words pick the comprehensive
// view, anything else lists.
var (
	statisticsWords = []string{"number", "count", "total", "how many"}
	timelineWords   = []string{"dates", "timeline", "events"}
	detailWords     = []string{"details", "comprehensive"}
)

func Classify(query string) Classification {
	q := strings.ToLower(query)
	for _, kw := range systemKeywords {
		if strings.Contains(q, kw) {
			return Classification{SystemWide: true, View: routeView(q)}
		}
	}
	return Classification{}
}

func routeView(q string) View {
	if containsAny(q, statisticsWords) {
		return ViewStatistics
	}
	if containsAny(q, timelineWords) {
		return ViewTimeline
	}
	if containsAny(q, detailWords) {
		return ViewDetail
	}
	return ViewList
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}
