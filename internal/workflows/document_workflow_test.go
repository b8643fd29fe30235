package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"caseflow/internal/activities"
	"caseflow/internal/models"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerIngestActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "ComputeDocumentIDActivity", func(context.Context, activities.ComputeDocumentIDInput) (activities.ComputeDocumentIDOutput, error) {
		return activities.ComputeDocumentIDOutput{}, nil
	})
	registerActivityName(env, "UpdateDocumentStatusActivity", func(context.Context, activities.UpdateDocumentStatusInput) error { return nil })
	registerActivityName(env, "ExtractTextActivity", func(context.Context, activities.ExtractTextInput) (activities.ExtractTextOutput, error) {
		return activities.ExtractTextOutput{}, nil
	})
	registerActivityName(env, "AnalyzeDocumentActivity", func(context.Context, activities.AnalyzeDocumentInput) (activities.AnalyzeDocumentOutput, error) {
		return activities.AnalyzeDocumentOutput{}, nil
	})
	registerActivityName(env, "ChunkDocumentActivity", func(context.Context, activities.ChunkDocumentInput) (activities.ChunkDocumentOutput, error) {
		return activities.ChunkDocumentOutput{}, nil
	})
	registerActivityName(env, "EmbedPassagesActivity", func(context.Context, activities.EmbedPassagesInput) (activities.EmbedPassagesOutput, error) {
		return activities.EmbedPassagesOutput{}, nil
	})
	registerActivityName(env, "WritePassagesActivity", func(context.Context, activities.WritePassagesInput) (activities.WritePassagesOutput, error) {
		return activities.WritePassagesOutput{}, nil
	})
	registerActivityName(env, "WriteDocumentArtifactsActivity", func(context.Context, activities.WriteDocumentArtifactsInput) error { return nil })
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })
}

func TestDocumentIngestWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentIngestWorkflow)
	registerIngestActivities(env)

	passages := []models.Passage{{PassageID: "p1", CaseID: "CASE-001", DocumentID: "doc123", ChunkIndex: 0, Text: "chunk"}}

	env.OnActivity("ComputeDocumentIDActivity", mock.Anything, activities.ComputeDocumentIDInput{DocumentPath: "/tmp/complaint.pdf"}).Return(activities.ComputeDocumentIDOutput{DocumentID: "doc123"}, nil)
	env.OnActivity("UpdateDocumentStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, activities.ExtractTextInput{DocumentPath: "/tmp/complaint.pdf"}).Return(activities.ExtractTextOutput{Text: "complaint body"}, nil)
	env.OnActivity("AnalyzeDocumentActivity", mock.Anything, mock.Anything).Return(activities.AnalyzeDocumentOutput{DocumentType: "legal_document", ProviderName: "mock", Model: "mock"}, nil)
	env.OnActivity("ChunkDocumentActivity", mock.Anything, mock.Anything).Return(activities.ChunkDocumentOutput{Passages: passages}, nil)
	env.OnActivity("EmbedPassagesActivity", mock.Anything, mock.Anything).Return(activities.EmbedPassagesOutput{Vectors: [][]float32{{0.1, 0.2}}, ProviderName: "mock", Model: "mock"}, nil)
	env.OnActivity("WritePassagesActivity", mock.Anything, mock.Anything).Return(activities.WritePassagesOutput{PassageIDs: []string{"p1"}}, nil)
	env.OnActivity("WriteDocumentArtifactsActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(DocumentIngestWorkflow, DocumentIngestInput{CaseID: "CASE-001", DocumentPath: "/tmp/complaint.pdf", EmbedProviders: 1, LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "processed", out)
}

func TestDocumentIngestWorkflowNoTextFailsGracefully(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentIngestWorkflow)
	registerActivityName(env, "ComputeDocumentIDActivity", func(context.Context, activities.ComputeDocumentIDInput) (activities.ComputeDocumentIDOutput, error) {
		return activities.ComputeDocumentIDOutput{}, nil
	})
	registerActivityName(env, "UpdateDocumentStatusActivity", func(context.Context, activities.UpdateDocumentStatusInput) error { return nil })
	registerActivityName(env, "ExtractTextActivity", func(context.Context, activities.ExtractTextInput) (activities.ExtractTextOutput, error) {
		return activities.ExtractTextOutput{}, nil
	})

	env.OnActivity("ComputeDocumentIDActivity", mock.Anything, mock.Anything).Return(activities.ComputeDocumentIDOutput{DocumentID: "doc123"}, nil)
	env.OnActivity("UpdateDocumentStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{}, errors.New("no extractable text found in PDF"))

	env.ExecuteWorkflow(DocumentIngestWorkflow, DocumentIngestInput{CaseID: "CASE-001", DocumentPath: "/tmp/scan.pdf", EmbedProviders: 1, LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "failed", out)
}

func TestDocumentIngestWorkflowAnalysisFailureUsesDefaults(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DocumentIngestWorkflow)
	registerIngestActivities(env)

	env.OnActivity("ComputeDocumentIDActivity", mock.Anything, mock.Anything).Return(activities.ComputeDocumentIDOutput{DocumentID: "doc123"}, nil)
	env.OnActivity("UpdateDocumentStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ExtractTextActivity", mock.Anything, mock.Anything).Return(activities.ExtractTextOutput{Text: "body"}, nil)
	env.OnActivity("AnalyzeDocumentActivity", mock.Anything, mock.Anything).Return(activities.AnalyzeDocumentOutput{}, errors.New("llm unavailable"))
	env.OnActivity("ChunkDocumentActivity", mock.Anything, mock.MatchedBy(func(in activities.ChunkDocumentInput) bool {
		return in.DocumentType == "legal_document"
	})).Return(activities.ChunkDocumentOutput{Passages: []models.Passage{{PassageID: "p1", Text: "body"}}}, nil)
	env.OnActivity("EmbedPassagesActivity", mock.Anything, mock.Anything).Return(activities.EmbedPassagesOutput{Vectors: [][]float32{{0.1}}, ProviderName: "mock", Model: "mock"}, nil)
	env.OnActivity("WritePassagesActivity", mock.Anything, mock.Anything).Return(activities.WritePassagesOutput{PassageIDs: []string{"p1"}}, nil)
	env.OnActivity("WriteDocumentArtifactsActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)

	env.ExecuteWorkflow(DocumentIngestWorkflow, DocumentIngestInput{CaseID: "CASE-001", DocumentPath: "/tmp/complaint.pdf", EmbedProviders: 1, LLMProviders: 1, CooldownSeconds: 10})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out string
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "processed", out)
}
