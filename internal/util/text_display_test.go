package util

import (
	"strings"
	"testing"
)

func TestDisplaySnippet(t *testing.T) {
	in := "Hello\x00   world \n\t C\\u0001"
	out := DisplaySnippet(in, 100)
	if out == "" {
		t.Fatalf("expected non-empty snippet")
	}
}

func TestDisplaySnippetKeepsCitations(t *testing.T) {
	in := "See Roe v. Wade, 410 U.S. 113, and 98 F.2d 1010."
	out := DisplaySnippet(in, 200)
	if !strings.Contains(out, "410 U.S. 113") || !strings.Contains(out, "98 F.2d 1010") {
		t.Fatalf("citation mangled by display cleanup: %q", out)
	}
}

func TestDisplayEvidenceSnippet(t *testing.T) {
	chunk := "The deposition covers the collision at the intersection. Medical expenses totaled $15,000 for the plaintiff. Unrelated boilerplate follows."
	q := "What were the medical expenses?"
	out := DisplayEvidenceSnippet(chunk, q, 200)
	if !strings.Contains(strings.ToLower(out), "medical") {
		t.Fatalf("expected relevance to medical expenses in snippet, got: %q", out)
	}
}
