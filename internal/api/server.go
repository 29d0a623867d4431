package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"profilemeister/internal/catalog"
	"profilemeister/internal/config"
	"profilemeister/internal/profile"
	"profilemeister/internal/storage"
	"profilemeister/internal/util"
	"profilemeister/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg      config.Config
	db       *storage.DB
	runRepo  *storage.RunRepo
	catalog  *catalog.Catalog
	temporal tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	cat := catalog.Default()
	if cfg.CatalogOverridesPath != "" {
		o, err := catalog.LoadOverrides(cfg.CatalogOverridesPath)
		if err != nil {
			panic(err)
		}
		cat, err = cat.Apply(o)
		if err != nil {
			panic(err)
		}
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:      cfg,
		db:       db,
		runRepo:  storage.NewRunRepo(db),
		catalog:  cat,
		temporal: tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/catalog", s.handleCatalog)
	mux.HandleFunc("/profiles", s.handleProfiles)
	mux.HandleFunc("/profiles/", s.handleProfilesScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sections": s.catalog.Sections()})
}

type startRunRequest struct {
	InputDir     string              `json:"input_dir"`
	Sections     []string            `json:"sections,omitempty"`
	Dependencies map[string][]string `json:"dependencies,omitempty"`
	Provider     string              `json:"provider,omitempty"`
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	runID := uuid.NewString()
	var req startRunRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		dir, err := s.saveUploads(r, runID)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err)
			return
		}
		req.InputDir = dir
		req.Sections = splitList(r.FormValue("sections"))
		req.Provider = r.FormValue("provider")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if strings.TrimSpace(req.InputDir) == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("input_dir is required"))
			return
		}
	}

	if _, err := s.resolveSections(req.Sections, req.Dependencies); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	if err := s.runRepo.CreateRun(r.Context(), runID, "", req.InputDir); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	we, err := s.startRun(r.Context(), runID, req)
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"profile_run_id": runID,
		"workflow_id":    we.GetID(),
		"run_id":         we.GetRunID(),
	})
}

func (s *Server) handleProfilesScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/profiles/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	runID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		run, err := s.runRepo.GetRun(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
		return
	}

	switch parts[1] {
	case "progress":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleProgress(w, r, runID)
	case "sections":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		sections, err := s.runRepo.ListSections(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sections": sections})
	case "report":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		run, err := s.runRepo.GetRun(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if run.ReportPath == "" {
			writeErr(w, http.StatusNotFound, fmt.Errorf("report not generated yet"))
			return
		}
		http.ServeFile(w, r, run.ReportPath)
	case "cancel":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		if err := s.temporal.CancelWorkflow(r.Context(), "profile-"+runID, ""); err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"profile_run_id": runID, "cancelling": true})
	case "retry":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleRetry(w, r, runID)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, runID string) {
	var prog workflows.ProfileProgress
	resp, err := s.temporal.QueryWorkflow(r.Context(), "profile-"+runID, "", workflows.QueryGetProgress)
	if err != nil {
		// No live workflow to query. Derive progress from persisted state.
		run, rErr := s.runRepo.GetRun(r.Context(), runID)
		if rErr != nil {
			writeErr(w, http.StatusNotFound, rErr)
			return
		}
		sections, sErr := s.runRepo.ListSections(r.Context(), runID)
		if sErr != nil {
			writeErr(w, http.StatusInternalServerError, sErr)
			return
		}
		per := make(map[string]string, len(sections))
		done := 0
		failed := 0
		for _, sec := range sections {
			per[sec.SectionID] = sec.State
			switch sec.State {
			case "done":
				done++
			case "failed":
				failed++
			}
		}
		writeJSON(w, http.StatusOK, workflows.ProfileProgress{
			RunID:       runID,
			CompanyName: run.CompanyName,
			Status:      run.Status,
			Total:       len(sections),
			Done:        done,
			Failed:      failed,
			PerSection:  per,
			ReportPath:  run.ReportPath,
		})
		return
	}
	if err := resp.Get(&prog); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

// handleRetry starts a fresh run restricted to the failed sections of a
// previous one, over the same document directory. Unchanged upstream stages
// replay from the response cache, so only the failed work is redone.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request, runID string) {
	run, err := s.runRepo.GetRun(r.Context(), runID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	inputDir := retryInputDir(run, s.cfg.DataInRoot)
	failed, err := s.runRepo.ListFailedSections(r.Context(), runID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if len(failed) == 0 {
		writeErr(w, http.StatusConflict, fmt.Errorf("run has no failed sections"))
		return
	}
	sections := make([]string, 0, len(failed))
	for _, sec := range failed {
		sections = append(sections, sec.SectionID)
	}

	newRunID := uuid.NewString()
	if err := s.runRepo.CreateRun(r.Context(), newRunID, "", inputDir); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	we, err := s.startRun(r.Context(), newRunID, startRunRequest{
		InputDir: inputDir,
		Sections: sections,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"profile_run_id": newRunID,
		"retried_from":   runID,
		"sections":       sections,
		"workflow_id":    we.GetID(),
		"run_id":         we.GetRunID(),
	})
}

func (s *Server) startRun(ctx context.Context, runID string, req startRunRequest) (tclient.WorkflowRun, error) {
	return s.temporal.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:                                       "profile-" + runID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.ProfileBuildWorkflow, workflows.ProfileBuildInput{
		RunID:                 runID,
		InputDir:              req.InputDir,
		Sections:              req.Sections,
		Dependencies:          req.Dependencies,
		MaxConcurrentSections: s.cfg.MaxConcurrentSections,
		MaxGatewayAttempts:    s.cfg.MaxGatewayAttempts,
		RetryInitialSeconds:   s.cfg.RetryInitialSeconds,
		MaxBundleBytes:        s.cfg.MaxBundleMB << 20,
		Provider:              req.Provider,
	})
}

// resolveSections validates a requested subset against the configured
// catalog before anything is persisted or started.
func (s *Server) resolveSections(sections []string, deps map[string][]string) ([]catalog.SectionSpec, error) {
	cat := s.catalog
	if len(deps) > 0 {
		var err error
		cat, err = cat.Apply(&catalog.Overrides{Dependencies: deps})
		if err != nil {
			return nil, err
		}
	}
	return cat.Resolve(sections)
}

// retryInputDir returns the document directory a retry should read. Runs
// persist the directory they were started with; rows written before the
// input_dir column existed fall back to the upload layout.
func retryInputDir(run profile.Run, dataInRoot string) string {
	if run.InputDir != "" {
		return run.InputDir
	}
	return filepath.Join(dataInRoot, run.RunID)
}

// uploadSizeLimit rejects oversized uploads before any file is written, so
// the bundle limit surfaces as a 400 instead of a failed run.
func uploadSizeLimit(files []*multipart.FileHeader, maxBytes int64) error {
	var total int64
	for _, fh := range files {
		total += fh.Size
	}
	if total > maxBytes {
		return fmt.Errorf("uploaded documents total %d bytes, limit is %d", total, maxBytes)
	}
	return nil
}

func (s *Server) saveUploads(r *http.Request, runID string) (string, error) {
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		return "", fmt.Errorf("parse multipart: %w", err)
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		return "", fmt.Errorf("no files provided")
	}
	if err := uploadSizeLimit(files, int64(s.cfg.MaxBundleMB)<<20); err != nil {
		return "", err
	}
	dir := filepath.Join(s.cfg.DataInRoot, runID)
	if err := util.EnsureDir(dir); err != nil {
		return "", err
	}
	for _, fh := range files {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			return "", fmt.Errorf("only PDF files are accepted: %s", fh.Filename)
		}
		if err := saveUpload(fh, util.SafeJoin(dir, fh.Filename)); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func saveUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create upload target: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	return nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": toAPIError(code, err)})
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toAPIError(status int, err error) apiError {
	code := "PM-API-5000"
	msg := "Internal server error. Please retry or check service logs."
	switch status {
	case http.StatusBadRequest:
		code = "PM-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case http.StatusNotFound:
		code = "PM-API-4004"
		msg = "Requested resource was not found."
	case http.StatusConflict:
		code = "PM-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case http.StatusMethodNotAllowed:
		code = "PM-API-4005"
		msg = "This endpoint does not support the requested method."
	}
	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "input_dir is required"):
			msg = "An input directory with source PDFs is required."
		case strings.Contains(low, "no files provided"):
			msg = "No PDF files were provided."
		case strings.Contains(low, "only pdf files"):
			msg = "Only PDF files are accepted."
		case strings.Contains(low, "unknown section id"):
			msg = "Request names a section that is not in the catalog."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(low, "no failed sections"):
			msg = "The run has no failed sections to retry."
		case strings.Contains(low, "report not generated"):
			msg = "The report has not been generated yet."
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
