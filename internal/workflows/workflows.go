package workflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"caseflow/internal/activities"
	"caseflow/internal/providers"
	"caseflow/internal/util"
)

const (
	QueryGetDocumentStatus = "GetDocumentStatus"
	QueryGetProgress       = "GetProgress"
)

type providerState struct {
	disabledUntil map[int]time.Time
	retries       map[string]int
}

func newProviderState() providerState {
	return providerState{disabledUntil: map[int]time.Time{}, retries: map[string]int{}}
}

// CaseDocumentsWorkflow fans out one DocumentIngestWorkflow per PDF under the
// case input directory, bounded by MaxConcurrentChildren.
func CaseDocumentsWorkflow(ctx workflow.Context, input CaseIngestInput) (string, error) {
	progress := CaseIngestProgress{
		CaseID:        input.CaseID,
		PerDocument:   map[string]string{},
		ChildWorkflow: map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetProgress, func() (CaseIngestProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var listOut activities.ListCasePDFsOutput
	if err := workflow.ExecuteActivity(ctx, "ListCasePDFsActivity", activities.ListCasePDFsInput{InputDir: input.InputDir}).Get(ctx, &listOut); err != nil {
		return "", err
	}
	paths := listOut.Paths
	progress.Total = len(paths)
	maxChildren := input.MaxConcurrentChildren
	if maxChildren <= 0 {
		maxChildren = 3
	}

	for i := 0; i < len(paths); i += maxChildren {
		end := i + maxChildren
		if end > len(paths) {
			end = len(paths)
		}
		futures := make([]workflow.ChildWorkflowFuture, 0, end-i)
		childPaths := make([]string, 0, end-i)
		for _, path := range paths[i:end] {
			progress.PerDocument[path] = "processing"
			workflowID := "document-" + sanitizeID(input.CaseID) + "-" + sanitizeID(filepath.Base(path))
			cwo := workflow.ChildWorkflowOptions{WorkflowID: workflowID}
			childCtx := workflow.WithChildOptions(ctx, cwo)
			f := workflow.ExecuteChildWorkflow(childCtx, DocumentIngestWorkflow, DocumentIngestInput{
				CaseID:          input.CaseID,
				DocumentPath:    path,
				EmbedVersion:    defaultEmbedVersion(input.EmbedVersion),
				EmbedProviders:  input.EmbedProviders,
				LLMProviders:    input.LLMProviders,
				CooldownSeconds: input.CooldownSeconds,
			})
			futures = append(futures, f)
			childPaths = append(childPaths, path)
			progress.ChildWorkflow[path] = workflowID
		}

		for idx, f := range futures {
			var childStatus string
			err := f.Get(ctx, &childStatus)
			path := childPaths[idx]
			if err != nil {
				progress.Failed++
				progress.PerDocument[path] = "failed"
				continue
			}
			if childStatus == "failed" {
				progress.Failed++
			}
			progress.Done++
			progress.PerDocument[path] = childStatus
		}
	}

	_ = workflow.ExecuteActivity(ctx, "WriteCaseSummaryActivity", activities.WriteCaseSummaryInput{
		CaseID: input.CaseID,
		Summary: map[string]any{
			"case_id":             input.CaseID,
			"total":               progress.Total,
			"done":                progress.Done,
			"failed":              progress.Failed,
			"per_document_status": progress.PerDocument,
			"generated_at":        workflow.Now(ctx),
		},
	}).Get(ctx, nil)

	return "completed", nil
}

// DocumentIngestWorkflow processes one PDF: hash, extract, analyze, chunk,
// embed, persist. Documents with no extractable text fail gracefully so the
// parent keeps going.
func DocumentIngestWorkflow(ctx workflow.Context, input DocumentIngestInput) (string, error) {
	status := DocumentStatus{
		DocumentPath: input.DocumentPath,
		CurrentStep:  "init",
		Status:       "processing",
		RetryCounts:  map[string]int{},
		Steps:        map[string]string{},
	}
	if err := workflow.SetQueryHandler(ctx, QueryGetDocumentStatus, func() (DocumentStatus, error) {
		return status, nil
	}); err != nil {
		return "", err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	filename := filepath.Base(input.DocumentPath)
	cooldown := durationOrDefault(input.CooldownSeconds, 900)
	embedProviders := defaultCount(input.EmbedProviders)
	llmProviders := defaultCount(input.LLMProviders)
	embedState := newProviderState()
	llmState := newProviderState()

	status.CurrentStep = "compute_document_id"
	status.Steps[status.CurrentStep] = "processing"
	var idOut activities.ComputeDocumentIDOutput
	if err := workflow.ExecuteActivity(ctx, "ComputeDocumentIDActivity", activities.ComputeDocumentIDInput{DocumentPath: input.DocumentPath}).Get(ctx, &idOut); err != nil {
		return "", err
	}
	status.DocumentID = idOut.DocumentID
	status.Steps[status.CurrentStep] = "done"

	_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{DocumentID: idOut.DocumentID, CaseID: input.CaseID, Filename: filename, Status: "processing"}).Get(ctx, nil)

	status.CurrentStep = "extract_text"
	status.Steps[status.CurrentStep] = "processing"
	var textOut activities.ExtractTextOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{DocumentPath: input.DocumentPath}).Get(ctx, &textOut); err != nil {
		if isNoTextError(err) {
			status.Status = "failed"
			status.FailReason = "no extractable text found (OCR not enabled)"
			status.Steps[status.CurrentStep] = "failed"
			_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{DocumentID: idOut.DocumentID, CaseID: input.CaseID, Filename: filename, Status: "failed", FailReason: status.FailReason}).Get(ctx, nil)
			return status.Status, nil
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "analyze_document"
	status.Steps[status.CurrentStep] = "processing"
	analysis, analyzeErr := callAnalyzeWithFailover(ctx, &llmState, llmProviders, cooldown, activities.AnalyzeDocumentInput{
		CaseID:     input.CaseID,
		DocumentID: idOut.DocumentID,
		Text:       textOut.Text,
	}, status.RetryCounts)
	if analyzeErr != nil {
		// Analysis is advisory. Chunk with defaults rather than fail the document.
		analysis = activities.AnalyzeDocumentOutput{DocumentType: "legal_document"}
		status.Steps[status.CurrentStep] = "skipped"
	} else {
		status.Providers = append(status.Providers, analysis.ProviderName)
		status.Steps[status.CurrentStep] = "done"
	}

	status.CurrentStep = "chunk_document"
	status.Steps[status.CurrentStep] = "processing"
	var chunkOut activities.ChunkDocumentOutput
	if err := workflow.ExecuteActivity(ctx, "ChunkDocumentActivity", activities.ChunkDocumentInput{
		DocumentID:   idOut.DocumentID,
		CaseID:       input.CaseID,
		Text:         textOut.Text,
		DocumentType: analysis.DocumentType,
	}).Get(ctx, &chunkOut); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "embed_passages"
	status.Steps[status.CurrentStep] = "processing"
	texts := make([]string, 0, len(chunkOut.Passages))
	for _, p := range chunkOut.Passages {
		texts = append(texts, p.Text)
	}
	preferredIdx := -1
	if input.PreferredEmbedProviderIndex > 0 || input.StrictEmbedProvider {
		preferredIdx = input.PreferredEmbedProviderIndex
	}
	embedOut, err := callEmbedWithFailover(ctx, &embedState, embedProviders, cooldown, activities.EmbedPassagesInput{
		Operation:  "embed_passages",
		CaseID:     input.CaseID,
		DocumentID: idOut.DocumentID,
		Texts:      texts,
	}, status.RetryCounts, preferredIdx, input.StrictEmbedProvider)
	if err != nil {
		return "", err
	}
	status.Providers = append(status.Providers, embedOut.ProviderName)
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "write_passages"
	status.Steps[status.CurrentStep] = "processing"
	var writeOut activities.WritePassagesOutput
	if err := workflow.ExecuteActivity(ctx, "WritePassagesActivity", activities.WritePassagesInput{
		Passages:         chunkOut.Passages,
		Vectors:          embedOut.Vectors,
		EmbeddingVersion: defaultEmbedVersion(input.EmbedVersion),
	}).Get(ctx, &writeOut); err != nil {
		if isInvalidTextEncodingError(err) {
			status.Status = "failed"
			status.FailReason = "document contains invalid text encoding after extraction"
			status.Steps[status.CurrentStep] = "failed"
			_ = workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
				DocumentID: idOut.DocumentID,
				CaseID:     input.CaseID,
				Filename:   filename,
				Status:     "failed",
				FailReason: status.FailReason,
			}).Get(ctx, nil)
			return status.Status, nil
		}
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "write_artifacts"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "WriteDocumentArtifactsActivity", activities.WriteDocumentArtifactsInput{
		CaseID:     input.CaseID,
		DocumentID: idOut.DocumentID,
		Metadata: map[string]any{
			"document_id":   idOut.DocumentID,
			"filename":      filename,
			"document_type": analysis.DocumentType,
			"parties":       analysis.Parties,
			"citations":     analysis.Citations,
			"chunk_count":   len(chunkOut.Passages),
		},
		Passages:      chunkOut.Passages,
		Text:          textOut.Text,
		ProcessingLog: map[string]any{"status": "processed", "steps": status.Steps, "generated_at": workflow.Now(ctx)},
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"

	status.CurrentStep = "mark_processed"
	status.Steps[status.CurrentStep] = "processing"
	if err := workflow.ExecuteActivity(ctx, "UpdateDocumentStatusActivity", activities.UpdateDocumentStatusInput{
		DocumentID:   idOut.DocumentID,
		CaseID:       input.CaseID,
		Filename:     filename,
		DocumentType: analysis.DocumentType,
		Status:       "processed",
	}).Get(ctx, nil); err != nil {
		return "", err
	}
	status.Steps[status.CurrentStep] = "done"
	status.CurrentStep = "done"
	status.Status = "processed"
	return status.Status, nil
}

// BackfillWorkflow re-runs ingestion for documents that previously failed and
// records a manifest of what it touched.
func BackfillWorkflow(ctx workflow.Context, input BackfillInput) (string, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	info := workflow.GetInfo(ctx)
	runID := info.WorkflowExecution.RunID
	manifest := map[string]any{
		"run_id":     runID,
		"mode":       input.Mode,
		"case_id":    input.CaseID,
		"versions":   map[string]any{"embed": defaultEmbedVersion(input.EmbedVersion)},
		"started_at": workflow.Now(ctx),
	}

	switch strings.ToUpper(strings.TrimSpace(input.Mode)) {
	case "RETRY_FAILED_DOCUMENTS":
		var failed activities.ListFailedDocumentsOutput
		if err := workflow.ExecuteActivity(ctx, "ListFailedDocumentsActivity", activities.ListFailedDocumentsInput{CaseID: input.CaseID}).Get(ctx, &failed); err != nil {
			return "", err
		}
		retried := 0
		for _, d := range failed.Documents {
			if strings.TrimSpace(d.Filename) == "" {
				continue
			}
			path := pathForBackfill(input, d.Filename)
			var out string
			if err := workflow.ExecuteChildWorkflow(ctx, DocumentIngestWorkflow, DocumentIngestInput{
				CaseID:                      input.CaseID,
				DocumentPath:                path,
				EmbedVersion:                defaultEmbedVersion(input.EmbedVersion),
				EmbedProviders:              defaultCount(input.EmbedProviders),
				LLMProviders:                defaultCount(input.LLMProviders),
				PreferredEmbedProviderIndex: input.PreferredEmbedProviderIndex,
				StrictEmbedProvider:         input.StrictEmbedProvider,
				CooldownSeconds:             defaultSeconds(input.CooldownSeconds, 900),
			}).Get(ctx, &out); err == nil {
				retried++
			}
		}
		manifest["retried_failed_documents"] = retried
	default:
		return "", fmt.Errorf("unsupported backfill mode: %s", input.Mode)
	}

	var out activities.WriteRunManifestOutput
	if err := workflow.ExecuteActivity(ctx, "WriteRunManifestActivity", activities.WriteRunManifestInput{
		CaseID:   input.CaseID,
		RunID:    runID,
		Manifest: manifest,
	}).Get(ctx, &out); err != nil {
		return "", err
	}
	return out.Path, nil
}

func callEmbedWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.EmbedPassagesInput, retryCounts map[string]int, preferredIdx int, strict bool) (activities.EmbedPassagesOutput, error) {
	if retryCounts == nil {
		retryCounts = map[string]int{}
	}
	var lastErr error
	maxAttempts := providerCount * 4
	if maxAttempts <= 0 {
		maxAttempts = 4
	}
	if strict && preferredIdx >= 0 {
		maxAttempts = 4
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		idx := 0
		if strict && preferredIdx >= 0 {
			idx = preferredIdx
		} else if preferredIdx >= 0 {
			idx = (preferredIdx + attempt) % providerCount
		} else {
			idx = attempt % providerCount
		}
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.EmbedPassagesOutput
		err := workflow.ExecuteActivity(ctx, "EmbedPassagesActivity", input).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: input.Operation, CaseID: input.CaseID, DocumentID: input.DocumentID, ProviderName: out.ProviderName, Model: out.Model, RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "ok"}).Get(ctx, nil)
			return out, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: input.Operation, CaseID: input.CaseID, DocumentID: input.DocumentID, ProviderName: fmt.Sprintf("provider-%d", idx), RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "failed", ErrorType: string(errType)}).Get(ctx, nil)
		key := fmt.Sprintf("embed-%d", idx)
		retryCounts[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key]*2)*time.Second)
				if !strict {
					attempt--
				}
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key])*time.Second)
				if !strict {
					attempt--
				}
			}
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all embed providers exhausted")
	}
	return activities.EmbedPassagesOutput{}, lastErr
}

func callAnalyzeWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.AnalyzeDocumentInput, retryCounts map[string]int) (activities.AnalyzeDocumentOutput, error) {
	if retryCounts == nil {
		retryCounts = map[string]int{}
	}
	var lastErr error
	for attempt := 0; attempt < providerCount*4; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.AnalyzeDocumentOutput
		err := workflow.ExecuteActivity(ctx, "AnalyzeDocumentActivity", input).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: "document_analysis", CaseID: input.CaseID, DocumentID: input.DocumentID, ProviderName: out.ProviderName, Model: out.Model, RequestID: fmt.Sprintf("document_analysis-%d", attempt), Status: "ok"}).Get(ctx, nil)
			return out, nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{Operation: "document_analysis", CaseID: input.CaseID, DocumentID: input.DocumentID, ProviderName: fmt.Sprintf("provider-%d", idx), RequestID: fmt.Sprintf("document_analysis-%d", attempt), Status: "failed", ErrorType: string(errType)}).Get(ctx, nil)
		key := fmt.Sprintf("analyze-%d", idx)
		retryCounts[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key]*2)*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if retryCounts[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(retryCounts[key])*time.Second)
				attempt--
			}
		case providers.ErrorContext:
			return activities.AnalyzeDocumentOutput{}, err
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all llm providers exhausted")
	}
	return activities.AnalyzeDocumentOutput{}, lastErr
}

func isProviderDisabled(ctx workflow.Context, state *providerState, idx int) bool {
	until, ok := state.disabledUntil[idx]
	if !ok {
		return false
	}
	return workflow.Now(ctx).Before(until)
}

func disableProviderUntil(ctx workflow.Context, state *providerState, idx int, d time.Duration) {
	state.disabledUntil[idx] = workflow.Now(ctx).Add(d)
}

func defaultEmbedVersion(v string) string {
	if strings.TrimSpace(v) == "" {
		return "v1"
	}
	return v
}

func isNoTextError(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no extractable text")
}

func isInvalidTextEncodingError(err error) bool {
	e := strings.ToLower(err.Error())
	return strings.Contains(e, "invalid byte sequence") || strings.Contains(e, "sqlstate 22021")
}

func sanitizeID(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, ".", "-")
	s = strings.ReplaceAll(s, "/", "-")
	return s
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

func defaultCount(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}

func defaultSeconds(n int, fallback int) int {
	if n <= 0 {
		return fallback
	}
	return n
}

func pathForBackfill(input BackfillInput, filename string) string {
	base := strings.TrimSpace(input.DataInRoot)
	if base == "" {
		base = "./data/in"
	}
	return util.SafeJoin(filepath.Join(base, input.CaseID), filename)
}
