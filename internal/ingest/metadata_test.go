package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlattenMetadataPrimitivesPassThrough(t *testing.T) {
	got := FlattenMetadata(map[string]any{
		"document_type": "contract",
		"chunk_index":   3,
		"score":         0.92,
		"final":         true,
		"missing":       nil,
	})
	require.Equal(t, "contract", got["document_type"])
	require.Equal(t, 3, got["chunk_index"])
	require.Equal(t, 0.92, got["score"])
	require.Equal(t, true, got["final"])
	require.Nil(t, got["missing"])
}

func TestFlattenMetadataJoinsLists(t *testing.T) {
	got := FlattenMetadata(map[string]any{
		"parties":   []string{"Smith", "Jones LLC"},
		"citations": []any{"410 U.S. 113", "98 F.3 1010"},
	})
	require.Equal(t, "Smith, Jones LLC", got["parties"])
	require.Equal(t, "410 U.S. 113, 98 F.3 1010", got["citations"])
}

func TestFlattenMetadataStringifiesUnknownTypes(t *testing.T) {
	got := FlattenMetadata(map[string]any{
		"nested": map[string]any{"a": 1},
	})
	require.IsType(t, "", got["nested"])
}
