package workflows

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker) {
	w.RegisterWorkflow(CaseDocumentsWorkflow)
	w.RegisterWorkflow(DocumentIngestWorkflow)
	w.RegisterWorkflow(BackfillWorkflow)
}
