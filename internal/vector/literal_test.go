package vector

import "testing"

func TestFromLiteral(t *testing.T) {
	v, err := FromLiteral("[0.5,-1,2.25]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 3 || v[0] != 0.5 || v[1] != -1 || v[2] != 2.25 {
		t.Fatalf("unexpected parse result: %#v", v)
	}
}

func TestFromLiteralEmpty(t *testing.T) {
	v, err := FromLiteral("[]")
	if err != nil || v != nil {
		t.Fatalf("expected nil vector for empty literal, got %#v err=%v", v, err)
	}
}
