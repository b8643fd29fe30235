package rag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyCaseSpecificQueries(t *testing.T) {
	for _, q := range []string{
		"What damages is the plaintiff seeking?",
		"Summarize the deposition of Dr. Reyes",
		"Who signed the settlement agreement?",
	} {
		require.False(t, Classify(q).SystemWide, "query %q", q)
	}
}

func TestClassifySystemWideQueries(t *testing.T) {
	cases := []struct {
		query string
		view  View
	}{
		{"How many cases are there?", ViewStatistics},
		{"What is the total cases count?", ViewStatistics},
		{"Show me all cases with their dates", ViewTimeline},
		{"Give me the timeline across cases", ViewTimeline},
		{"overall cases details", ViewDetail},
		{"Give me a comprehensive case overview", ViewDetail},
		{"case list", ViewList},
		{"Show the dashboard", ViewList},
	}
	for _, tc := range cases {
		got := Classify(tc.query)
		require.True(t, got.SystemWide, "query %q", tc.query)
		require.Equal(t, tc.view, got.View, "query %q", tc.query)
	}
}

func TestClassifyEveryKeywordRoutesSystemWide(t *testing.T) {
	for _, kw := range systemKeywords {
		got := Classify("Please show " + kw + " now")
		require.True(t, got.SystemWide, "keyword %q", kw)
	}
}

func TestClassifyViewPrecedenceCountBeatsTimeline(t *testing.T) {
	got := Classify("total count of timeline events across all cases")
	require.True(t, got.SystemWide)
	require.Equal(t, ViewStatistics, got.View)
}

func TestClassifyTimelineBeatsDetail(t *testing.T) {
	got := Classify("show case timeline details")
	require.True(t, got.SystemWide)
	require.Equal(t, ViewTimeline, got.View)
}
