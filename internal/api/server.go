package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"caseflow/internal/config"
	"caseflow/internal/ingest"
	"caseflow/internal/models"
	"caseflow/internal/providers"
	"caseflow/internal/rag"
	"caseflow/internal/storage"
	"caseflow/internal/util"
	"caseflow/internal/vector"
	"caseflow/internal/workflows"

	"github.com/google/uuid"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg          config.Config
	db           *storage.DB
	caseRepo     *storage.CaseRepo
	documentRepo *storage.DocumentRepo
	passageRepo  *storage.PassageRepo
	store        *vector.Store
	engine       *rag.Engine
	ingester     *ingest.Service
	providers    *providers.Manager
	temporal     tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	caseRepo := storage.NewCaseRepo(db)
	documentRepo := storage.NewDocumentRepo(db)
	store := vector.NewStore(db, pm, cfg.EmbedDim, cfg.EmbedVersion)
	return &Server{
		cfg:          cfg,
		db:           db,
		caseRepo:     caseRepo,
		documentRepo: documentRepo,
		passageRepo:  storage.NewPassageRepo(db),
		store:        store,
		engine:       rag.NewEngine(caseRepo, store, pm),
		ingester:     ingest.NewService(documentRepo, store, pm),
		providers:    pm,
		temporal:     tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/ingest", s.handleIngest)
	mux.HandleFunc("/cases", s.handleCases)
	mux.HandleFunc("/cases/", s.handleCasesScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		Query   string         `json:"query"`
		CaseID  string         `json:"case_id"`
		Context map[string]any `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	resp, err := s.engine.Query(r.Context(), req.Query, req.CaseID, req.Context)
	if err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleIngest is the synchronous path: raw text in, stored passages out.
// PDF uploads go through /cases/{id}/documents and the worker instead.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		CaseID string `json:"case_id"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	if _, err := s.caseRepo.GetCase(r.Context(), strings.TrimSpace(req.CaseID)); err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	res, err := s.ingester.Ingest(r.Context(), req.Text, req.CaseID)
	if err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	cases, err := s.caseRepo.ListCases(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

func (s *Server) handleCasesScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/cases/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("case id required"))
		return
	}
	caseID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		cc, err := s.caseRepo.LoadCaseContext(r.Context(), caseID)
		if err != nil {
			writeErr(w, statusForError(err), err)
			return
		}
		writeJSON(w, http.StatusOK, cc)
		return
	}

	switch parts[1] {
	case "documents":
		if len(parts) == 4 && parts[3] == "passages" {
			if r.Method != http.MethodGet {
				writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
				return
			}
			s.handleListPassages(w, r, caseID, parts[2])
			return
		}
		switch r.Method {
		case http.MethodGet:
			s.handleListDocuments(w, r, caseID)
		case http.MethodPost:
			s.handleUpload(w, r, caseID)
		default:
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		}
	case "ingest":
		switch r.Method {
		case http.MethodPost:
			s.handleStartIngest(w, r, caseID)
		case http.MethodGet:
			s.handleIngestProgress(w, r, caseID)
		default:
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		}
	case "letter":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleDraftLetter(w, r, caseID)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("unknown resource"))
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request, caseID string) {
	if _, err := s.caseRepo.GetCase(r.Context(), caseID); err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	docs, err := s.documentRepo.ListDocumentsByCase(r.Context(), caseID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	count, err := s.passageRepo.CountPassages(r.Context(), caseID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "passage_count": count})
}

// handleDraftLetter composes a demand letter from the case record and the
// retrieval answers to a fixed set of section queries.
func (s *Server) handleDraftLetter(w http.ResponseWriter, r *http.Request, caseID string) {
	var req struct {
		TemplateType string         `json:"template_type"`
		Context      map[string]any `json:"context"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
	}
	draft, err := s.engine.DraftLetter(r.Context(), caseID, req.TemplateType, req.Context)
	if err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleListPassages(w http.ResponseWriter, r *http.Request, caseID, documentID string) {
	if _, err := s.caseRepo.GetCase(r.Context(), caseID); err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	passages, err := s.passageRepo.ListPassagesByDocument(r.Context(), caseID, documentID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	type passageView struct {
		PassageID  string         `json:"passage_id"`
		ChunkIndex int            `json:"chunk_index"`
		Snippet    string         `json:"snippet"`
		Metadata   map[string]any `json:"metadata"`
	}
	out := make([]passageView, 0, len(passages))
	for _, p := range passages {
		out = append(out, passageView{
			PassageID:  p.PassageID,
			ChunkIndex: p.ChunkIndex,
			Snippet:    util.DisplaySnippet(p.Text, 240),
			Metadata:   p.Metadata,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"document_id": documentID, "passages": out})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, caseID string) {
	if _, err := s.caseRepo.GetCase(r.Context(), caseID); err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			files = append(files, single)
		}
	}
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	inDir := filepath.Join(s.cfg.DataInRoot, caseID)
	if err := util.EnsureDir(inDir); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	type uploadResult struct {
		Filename   string `json:"filename"`
		DocumentID string `json:"document_id"`
	}
	out := make([]uploadResult, 0, len(files))

	for _, fh := range files {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			continue
		}
		documentID, savedPath, err := saveUploadedFile(inDir, fh)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if err := s.documentRepo.UpsertDocument(r.Context(), models.Document{
			DocumentID: documentID,
			CaseID:     caseID,
			Filename:   filepath.Base(savedPath),
			Status:     "pending",
		}); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, uploadResult{Filename: filepath.Base(savedPath), DocumentID: documentID})
	}

	writeJSON(w, http.StatusOK, map[string]any{"uploaded": out})
}

func (s *Server) handleStartIngest(w http.ResponseWriter, r *http.Request, caseID string) {
	if _, err := s.caseRepo.GetCase(r.Context(), caseID); err != nil {
		writeErr(w, statusForError(err), err)
		return
	}
	workflowID := "case-ingest-" + caseID + "-" + uuid.NewString()[:8]
	run, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.CaseDocumentsWorkflow, workflows.CaseIngestInput{
		CaseID:                caseID,
		InputDir:              filepath.Join(s.cfg.DataInRoot, caseID),
		MaxConcurrentChildren: s.cfg.IngestMaxChildren,
		EmbedProviders:        s.providers.EmbedCount(),
		LLMProviders:          s.providers.LLMCount(),
		CooldownSeconds:       s.cfg.ProviderCooldownSecs,
		EmbedVersion:          s.cfg.EmbedVersion,
	})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"workflow_id": run.GetID(),
		"run_id":      run.GetRunID(),
	})
}

func (s *Server) handleIngestProgress(w http.ResponseWriter, r *http.Request, caseID string) {
	_ = caseID
	workflowID := strings.TrimSpace(r.URL.Query().Get("workflow_id"))
	if workflowID == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("workflow_id is required"))
		return
	}
	resp, err := s.temporal.QueryWorkflow(r.Context(), workflowID, "", workflows.QueryGetProgress)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	var progress workflows.CaseIngestProgress
	if err := resp.Get(&progress); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, util.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, util.ErrCaseNotFound):
		return http.StatusNotFound
	case errors.Is(err, util.ErrGenerationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (documentID, path string, err error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*.pdf")
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
	}()

	if _, err := io.Copy(tmp, src); err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("seek temp: %w", err)
	}
	documentID, err = util.SHA256HexFromReader(tmp)
	if err != nil {
		return "", "", fmt.Errorf("hash upload: %w", err)
	}

	finalPath := util.SafeJoin(dstDir, fh.Filename)
	if err := tmp.Close(); err != nil {
		return "", "", err
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", "", fmt.Errorf("atomic move upload: %w", err)
	}

	return documentID, finalPath, nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "CF-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case status == http.StatusBadGateway:
			return apiError{
				Code:    "CF-API-5020",
				Message: "All response providers are unavailable. Retry shortly.",
			}
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "CF-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "CF-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "CF-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "CF-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "CF-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusMethodNotAllowed:
		code = "CF-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "query is required"):
			msg = "A query is required."
		case strings.Contains(raw, "case_id is required"):
			msg = "A case is required for case-specific queries."
		case strings.Contains(raw, "document text is empty"):
			msg = "Document text is empty."
		case strings.Contains(raw, "no files provided"):
			msg = "No PDF files were provided."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
