package activities

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"caseflow/internal/config"
	"caseflow/internal/ingest"
	"caseflow/internal/models"
	"caseflow/internal/providers"
	"caseflow/internal/storage"
	"caseflow/internal/util"
)

type Activities struct {
	cfg          config.Config
	documentRepo *storage.DocumentRepo
	passageRepo  *storage.PassageRepo
	llmAuditRepo *storage.LLMAuditRepo
	providers    *providers.Manager
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:          cfg,
		documentRepo: storage.NewDocumentRepo(db),
		passageRepo:  storage.NewPassageRepo(db),
		llmAuditRepo: storage.NewLLMAuditRepo(db),
		providers:    pm,
	}, nil
}

func (a *Activities) ListCasePDFsActivity(ctx context.Context, in ListCasePDFsInput) (ListCasePDFsOutput, error) {
	_ = ctx
	entries, err := os.ReadDir(in.InputDir)
	if err != nil {
		return ListCasePDFsOutput{}, fmt.Errorf("read input dir: %w", err)
	}
	paths := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			paths = append(paths, filepath.Join(in.InputDir, name))
		}
	}
	sort.Strings(paths)
	return ListCasePDFsOutput{Paths: paths}, nil
}

// ComputeDocumentIDActivity hashes the file contents so the same file always
// maps to the same document row.
func (a *Activities) ComputeDocumentIDActivity(ctx context.Context, in ComputeDocumentIDInput) (ComputeDocumentIDOutput, error) {
	_ = ctx
	f, err := os.Open(in.DocumentPath)
	if err != nil {
		return ComputeDocumentIDOutput{}, fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()
	id, err := util.SHA256HexFromReader(f)
	if err != nil {
		return ComputeDocumentIDOutput{}, fmt.Errorf("hash file: %w", err)
	}
	return ComputeDocumentIDOutput{DocumentID: id}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	_ = ctx
	f, r, err := pdf.Open(in.DocumentPath)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return ExtractTextOutput{}, fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(strings.TrimSpace(buf.String()))
	if text == "" {
		return ExtractTextOutput{}, util.ErrNoExtractableText
	}
	return ExtractTextOutput{Text: text}, nil
}

func (a *Activities) AnalyzeDocumentActivity(ctx context.Context, in AnalyzeDocumentInput) (AnalyzeDocumentOutput, error) {
	provider, ref := a.providers.LLMProviderByIndex(in.ProviderIndex)
	analysis, info, err := ingest.Analyze(ctx, provider, in.Text)
	if err != nil {
		return AnalyzeDocumentOutput{}, fmt.Errorf("analyze via %s failed: %w", ref.Raw, err)
	}
	return AnalyzeDocumentOutput{
		DocumentType:     analysis.DocumentType,
		Parties:          analysis.Parties,
		Citations:        analysis.Citations,
		MonetaryAmounts:  analysis.MonetaryAmounts,
		MedicalInfo:      analysis.MedicalInfo,
		LiabilityFactors: analysis.LiabilityFactors,
		ProviderName:     info.Name,
		Model:            info.Model,
	}, nil
}

func (a *Activities) ChunkDocumentActivity(ctx context.Context, in ChunkDocumentInput) (ChunkDocumentOutput, error) {
	_ = ctx
	analysis := ingest.DocumentAnalysis{DocumentType: in.DocumentType}
	if analysis.DocumentType == "" {
		analysis.DocumentType = "legal_document"
	}
	passages := ingest.BuildPassages(in.DocumentID, in.CaseID, in.Text, analysis)
	return ChunkDocumentOutput{Passages: passages}, nil
}

func (a *Activities) EmbedPassagesActivity(ctx context.Context, in EmbedPassagesInput) (EmbedPassagesOutput, error) {
	provider, _ := a.providers.EmbedProviderByIndex(in.ProviderIndex)
	vectors, info, err := provider.Embed(ctx, providers.EmbedRequest{
		Operation: in.Operation,
		Inputs:    in.Texts,
		Dimension: a.cfg.EmbedDim,
	})
	if err != nil {
		return EmbedPassagesOutput{}, err
	}
	return EmbedPassagesOutput{Vectors: vectors, ProviderName: info.Name, Model: info.Model}, nil
}

func (a *Activities) WritePassagesActivity(ctx context.Context, in WritePassagesInput) (WritePassagesOutput, error) {
	records := make([]storage.PassageRecord, 0, len(in.Passages))
	ids := make([]string, 0, len(in.Passages))
	for i, p := range in.Passages {
		var embedding []float32
		if i < len(in.Vectors) {
			embedding = in.Vectors[i]
		}
		records = append(records, storage.PassageRecord{
			PassageID:        p.PassageID,
			CaseID:           p.CaseID,
			DocumentID:       p.DocumentID,
			ChunkIndex:       p.ChunkIndex,
			Text:             util.SanitizeText(p.Text),
			Metadata:         p.Metadata,
			Embedding:        embedding,
			EmbeddingVersion: in.EmbeddingVersion,
		})
		ids = append(ids, p.PassageID)
	}
	if err := a.passageRepo.InsertPassages(ctx, records); err != nil {
		return WritePassagesOutput{}, err
	}
	return WritePassagesOutput{PassageIDs: ids}, nil
}

func (a *Activities) WriteDocumentArtifactsActivity(ctx context.Context, in WriteDocumentArtifactsInput) error {
	_ = ctx
	base := filepath.Join(a.cfg.DataOutRoot, in.CaseID, "documents", in.DocumentID)
	if err := util.EnsureDir(base); err != nil {
		return err
	}
	if err := util.WriteJSONAtomic(filepath.Join(base, "metadata.json"), in.Metadata); err != nil {
		return err
	}
	rows := make([]any, 0, len(in.Passages))
	for _, p := range in.Passages {
		rows = append(rows, p)
	}
	if err := util.WriteJSONLinesAtomic(filepath.Join(base, "passages.jsonl"), rows); err != nil {
		return err
	}
	if in.Text != "" {
		if err := util.WriteTextAtomic(filepath.Join(base, "text.txt"), in.Text); err != nil {
			return err
		}
	}
	return util.WriteJSONAtomic(filepath.Join(base, "processing_log.json"), in.ProcessingLog)
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	return a.documentRepo.UpsertDocument(ctx, models.Document{
		DocumentID:   in.DocumentID,
		CaseID:       in.CaseID,
		Filename:     in.Filename,
		DocumentType: in.DocumentType,
		Status:       in.Status,
		FailReason:   in.FailReason,
	})
}

func (a *Activities) ListFailedDocumentsActivity(ctx context.Context, in ListFailedDocumentsInput) (ListFailedDocumentsOutput, error) {
	docs, err := a.documentRepo.ListFailedDocuments(ctx, in.CaseID)
	if err != nil {
		return ListFailedDocumentsOutput{}, err
	}
	out := ListFailedDocumentsOutput{Documents: make([]FailedDocument, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, FailedDocument{DocumentID: d.DocumentID, Filename: d.Filename})
	}
	return out, nil
}

func (a *Activities) WriteCaseSummaryActivity(ctx context.Context, in WriteCaseSummaryInput) error {
	_ = ctx
	outPath := filepath.Join(a.cfg.DataOutRoot, in.CaseID, "ingest_summary.json")
	return util.WriteJSONAtomic(outPath, in.Summary)
}

func (a *Activities) WriteRunManifestActivity(ctx context.Context, in WriteRunManifestInput) (WriteRunManifestOutput, error) {
	_ = ctx
	path := filepath.Join(a.cfg.DataOutRoot, in.CaseID, "runs", in.RunID, "manifest.json")
	if err := util.WriteJSONAtomic(path, in.Manifest); err != nil {
		return WriteRunManifestOutput{}, err
	}
	return WriteRunManifestOutput{Path: path}, nil
}

func (a *Activities) LogLLMCallActivity(ctx context.Context, in LogLLMCallInput) error {
	return a.llmAuditRepo.Insert(ctx, storage.LLMCallRecord{
		CallID:       in.CallID,
		Operation:    in.Operation,
		CaseID:       in.CaseID,
		DocumentID:   in.DocumentID,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		RequestID:    in.RequestID,
		Status:       in.Status,
		ErrorType:    in.ErrorType,
	})
}
