package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"caseflow/internal/models"
	"caseflow/internal/providers"
	"caseflow/internal/util"
)

type fakeDocStore struct {
	docs []models.Document
}

func (f *fakeDocStore) UpsertDocument(_ context.Context, doc models.Document) error {
	f.docs = append(f.docs, doc)
	return nil
}

type fakePassageWriter struct {
	passages []models.Passage
	failWith error
}

func (f *fakePassageWriter) Write(_ context.Context, passages []models.Passage) ([]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.passages = append(f.passages, passages...)
	ids := make([]string, len(passages))
	for i, p := range passages {
		ids[i] = p.PassageID
	}
	return ids, nil
}

type fakeLLMSource struct {
	provider providers.LLMProvider
}

func (f *fakeLLMSource) PreferredLLMOrder() []int { return []int{0} }

func (f *fakeLLMSource) LLMProviderByIndex(int) (providers.LLMProvider, providers.ProviderRef) {
	return f.provider, providers.ProviderRef{}
}

func newTestService(writer *fakePassageWriter, docs *fakeDocStore) *Service {
	return NewService(docs, writer, &fakeLLMSource{provider: providers.NewMockProvider(8)})
}

func TestIngestRejectsEmptyInputs(t *testing.T) {
	svc := newTestService(&fakePassageWriter{}, &fakeDocStore{})

	_, err := svc.Ingest(context.Background(), "some text", "")
	require.ErrorIs(t, err, util.ErrInvalidInput)

	_, err = svc.Ingest(context.Background(), "   \n\t ", "CASE-001")
	require.ErrorIs(t, err, util.ErrInvalidInput)
}

func TestIngestStoresChunksWithDenseIndexes(t *testing.T) {
	writer := &fakePassageWriter{}
	docs := &fakeDocStore{}
	svc := newTestService(writer, docs)

	text := strings.Repeat("The plaintiff seeks damages for breach of contract. ", 60)
	res, err := svc.Ingest(context.Background(), text, "CASE-001")
	require.NoError(t, err)
	require.NotEmpty(t, res.DocumentID)
	require.Greater(t, len(res.PassageIDs), 1)
	require.Len(t, writer.passages, len(res.PassageIDs))

	for i, p := range writer.passages {
		require.Equal(t, i, p.ChunkIndex)
		require.Equal(t, "CASE-001", p.CaseID)
		require.Equal(t, res.DocumentID, p.DocumentID)
		require.Equal(t, "CASE-001", p.Metadata["case_id"])
		require.Equal(t, "legal_document", p.Metadata["document_type"])
	}
	require.Equal(t, "legal_document", res.Metadata["document_type"])
	require.Equal(t, len(res.PassageIDs), res.Metadata["chunk_count"])
}

func TestIngestMetadataIsFlattened(t *testing.T) {
	writer := &fakePassageWriter{}
	svc := newTestService(writer, &fakeDocStore{})

	text := "The court relied on 410 U.S. 113 in reaching its holding."
	_, err := svc.Ingest(context.Background(), text, "CASE-002")
	require.NoError(t, err)
	require.Len(t, writer.passages, 1)

	for _, v := range writer.passages[0].Metadata {
		switch v.(type) {
		case string, bool, int, int64, float64, nil:
		default:
			t.Fatalf("metadata value %v (%T) is not a primitive", v, v)
		}
	}
	require.Equal(t, "410 U.S. 113", writer.passages[0].Metadata["citations"])
}

func TestIngestSameTextTwiceAccumulates(t *testing.T) {
	writer := &fakePassageWriter{}
	svc := newTestService(writer, &fakeDocStore{})

	text := strings.Repeat("Settlement negotiations stalled over the indemnity clause. ", 40)
	first, err := svc.Ingest(context.Background(), text, "CASE-003")
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), text, "CASE-003")
	require.NoError(t, err)

	require.NotEqual(t, first.DocumentID, second.DocumentID)
	require.Len(t, writer.passages, len(first.PassageIDs)+len(second.PassageIDs))
}

func TestIngestRecordsDocumentLifecycle(t *testing.T) {
	docs := &fakeDocStore{}
	svc := newTestService(&fakePassageWriter{}, docs)

	_, err := svc.Ingest(context.Background(), "A short stipulation of dismissal.", "CASE-004")
	require.NoError(t, err)
	require.Len(t, docs.docs, 2)
	require.Equal(t, "processing", docs.docs[0].Status)
	require.Equal(t, "processed", docs.docs[1].Status)
}

func TestIngestWriteFailureMarksDocumentFailed(t *testing.T) {
	docs := &fakeDocStore{}
	writer := &fakePassageWriter{failWith: errors.New("connection refused")}
	svc := newTestService(writer, docs)

	_, err := svc.Ingest(context.Background(), "Answer and affirmative defenses.", "CASE-005")
	require.Error(t, err)
	require.Equal(t, "failed", docs.docs[len(docs.docs)-1].Status)
	require.Contains(t, docs.docs[len(docs.docs)-1].FailReason, "connection refused")
}
