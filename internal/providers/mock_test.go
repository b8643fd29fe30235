package providers

import (
	"context"
	"strings"
	"testing"
)

func TestMockGenerateCitesOnlySuppliedSnippets(t *testing.T) {
	m := NewMockProvider(8)

	resp, _, err := m.Generate(context.Background(), GenerateRequest{
		Operation: "case_answer",
		Context:   []string{"first snippet", "second snippet"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(resp.Text, "[Document "); got != 2 {
		t.Fatalf("expected 2 citations, got %d in %q", got, resp.Text)
	}

	resp, _, err = m.Generate(context.Background(), GenerateRequest{Operation: "case_answer"})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(resp.Text, "[Document") {
		t.Fatalf("expected no citations without snippets, got %q", resp.Text)
	}
}
