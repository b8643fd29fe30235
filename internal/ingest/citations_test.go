package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractCitations(t *testing.T) {
	text := "See Roe v. Wade, 410 U.S. 113, and compare 98 F.3 1010 with 12 Cal.4 567."
	got := ExtractCitations(text)
	require.Equal(t, []string{"410 U.S. 113", "98 F.3 1010", "12 Cal.4 567"}, got)
}

func TestExtractCitationsNoMatches(t *testing.T) {
	require.Empty(t, ExtractCitations("The parties met on March 3 to discuss settlement."))
}

func TestExtractCitationsRepeatedMatches(t *testing.T) {
	text := "410 U.S. 113 controls; 410 U.S. 113 is cited twice."
	require.Equal(t, []string{"410 U.S. 113", "410 U.S. 113"}, ExtractCitations(text))
}
