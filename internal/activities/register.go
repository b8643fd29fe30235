package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListCasePDFsActivity)
	w.RegisterActivity(a.ComputeDocumentIDActivity)
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.AnalyzeDocumentActivity)
	w.RegisterActivity(a.ChunkDocumentActivity)
	w.RegisterActivity(a.EmbedPassagesActivity)
	w.RegisterActivity(a.WritePassagesActivity)
	w.RegisterActivity(a.WriteDocumentArtifactsActivity)
	w.RegisterActivity(a.UpdateDocumentStatusActivity)
	w.RegisterActivity(a.ListFailedDocumentsActivity)
	w.RegisterActivity(a.WriteCaseSummaryActivity)
	w.RegisterActivity(a.WriteRunManifestActivity)
	w.RegisterActivity(a.LogLLMCallActivity)
}
