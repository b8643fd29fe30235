package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSizingForByDocumentType(t *testing.T) {
	cases := []struct {
		docType string
		size    int
	}{
		{"legal_brief", 1500},
		{"brief", 1500},
		{"Contract", 800},
		{"complaint", 1000},
		{"legal_document", 1000},
		{"", 1000},
	}
	for _, tc := range cases {
		size, overlap := SizingFor(tc.docType)
		require.Equal(t, tc.size, size, "type %q", tc.docType)
		require.Equal(t, 200, overlap, "type %q", tc.docType)
	}
}

func TestSplitTextShortInputSingleChunk(t *testing.T) {
	text := "The complaint alleges negligence."
	chunks := SplitText(text, 1000, 200)
	require.Equal(t, []string{text}, chunks)
}

func TestSplitTextRespectsSizeBound(t *testing.T) {
	sentence := "The defendant failed to maintain the premises in a reasonably safe condition. "
	text := strings.Repeat(sentence, 80)

	for _, docType := range []string{"contract", "brief"} {
		size, overlap := SizingFor(docType)
		chunks := SplitText(text, size, overlap)
		require.Greater(t, len(chunks), 1, "type %q", docType)
		for i, c := range chunks {
			require.LessOrEqual(t, len([]rune(c)), size+overlap, "type %q chunk %d", docType, i)
			require.NotEmpty(t, strings.TrimSpace(c), "type %q chunk %d", docType, i)
		}
	}
}

func TestSplitTextPrefersParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("Liability turns on notice. ", 20)
	text := para + "\n\n" + para + "\n\n" + para

	chunks := SplitText(text, 1000, 200)
	for _, c := range chunks {
		require.NotContains(t, c, "\n\n\n")
	}
	require.Contains(t, strings.Join(chunks, " "), "Liability turns on notice.")
}

func TestSplitTextDeterministic(t *testing.T) {
	text := strings.Repeat("Paragraph one about damages.\n\nParagraph two about causation. ", 50)
	first := SplitText(text, 1000, 200)
	second := SplitText(text, 1000, 200)
	require.Equal(t, first, second)
}

func TestSplitTextUnsplittableRunFallsBackToFixedCuts(t *testing.T) {
	text := strings.Repeat("x", 2500)
	chunks := SplitText(text, 1000, 200)
	require.GreaterOrEqual(t, len(chunks), 3)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), 1000)
	}
	// Adjacent fixed cuts share the overlap tail.
	require.Equal(t, chunks[0][800:], chunks[1][:200])
}

func TestSplitTextCoversAllContent(t *testing.T) {
	text := "START marker. " + strings.Repeat("Middle filler sentence goes here. ", 60) + "END marker."
	chunks := SplitText(text, 500, 100)
	joined := strings.Join(chunks, " ")
	require.Contains(t, joined, "START marker")
	require.Contains(t, joined, "END marker")
}
