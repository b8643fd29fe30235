package rag

import (
	"fmt"
	"strings"

	"caseflow/internal/models"
)

func responsePrompt(query, caseContext string, passages []models.RetrievedPassage) string {
	var b strings.Builder
	b.WriteString("Based on the retrieved context and case information, provide a detailed response:\n")
	fmt.Fprintf(&b, "Query: %s\n", query)
	fmt.Fprintf(&b, "Case Context:\n%s\n", caseContext)
	b.WriteString("Retrieved Documents:\n")
	b.WriteString(formatPassagesForPrompt(passages))
	b.WriteString("\nRequirements:\n")
	b.WriteString("1. Cite relevant documents and sections\n")
	b.WriteString("2. Reference applicable legal precedents\n")
	b.WriteString("3. Provide factual support for conclusions\n")
	b.WriteString("4. Note any important caveats or limitations\n")
	b.WriteString("5. Include specific amounts and dates when available\n")
	return b.String()
}

// Passages are labeled Document 1..N in retrieval order so the model can
// cite them by number.
func formatPassagesForPrompt(passages []models.RetrievedPassage) string {
	if len(passages) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&b, "Document %d:\n%s\n\n", i+1, p.Text)
	}
	return b.String()
}
