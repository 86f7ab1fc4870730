package upload

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bi-tools/insighthub/pkg/ingest"
	"github.com/bi-tools/insighthub/pkg/models/api"
	"github.com/bi-tools/insighthub/pkg/models/domain"
	"github.com/bi-tools/insighthub/pkg/schema"
	"github.com/bi-tools/insighthub/pkg/services/session"
	"github.com/bi-tools/insighthub/pkg/store/catalog"
	"github.com/rs/zerolog"
)

const (
	maxUploadBytes = 64 << 20
	sampleRows     = 5
	categoryCap    = 20
)

type Handler struct {
	catalog   *catalog.Catalog
	pipelines *session.Registry
}

func NewHandler(cat *catalog.Catalog, pipelines *session.Registry) *Handler {
	return &Handler{catalog: cat, pipelines: pipelines}
}

// Upload ingests a batch of tabular files, classifies each one and loads
// the affected department pipelines.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse multipart form", "")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided", "")
		return
	}

	// A departments list is matched to files by position; on a count
	// mismatch every file falls back to the single department value.
	deptValues := r.MultipartForm.Value["departments"]
	perFile := len(deptValues) == len(files)
	fallback := domain.DepartmentUnknown
	if v := r.FormValue("department"); v != "" {
		fallback = domain.ParseDepartment(v)
	} else if len(deptValues) > 0 && !perFile {
		fallback = domain.ParseDepartment(deptValues[0])
	}
	// When the caller routes files explicitly, content sniffing stays out
	// of the way.
	sniff := len(deptValues) <= 1

	sessionID := catalog.NewSessionID()
	response := api.UploadResponse{UploadedFiles: []api.UploadedFile{}, FailedFiles: []api.FailedFile{}}
	deptPaths := map[domain.Department][]string{}

	for i, fh := range files {
		requested := fallback
		if perFile {
			requested = domain.ParseDepartment(deptValues[i])
		}
		uploaded, failed := h.processFile(r, fh, requested, sniff, sessionID)
		if failed != nil {
			logger.Warn().Str("file", fh.Filename).Str("error", failed.Error).Msg("upload rejected")
			response.FailedFiles = append(response.FailedFiles, *failed)
			continue
		}
		response.UploadedFiles = append(response.UploadedFiles, *uploaded)
		dept := domain.Department(uploaded.Department)
		deptPaths[dept] = append(deptPaths[dept], uploaded.FilePath)
	}

	for dept, paths := range deptPaths {
		if _, err := h.pipelines.Get(dept).LoadFiles(ctx, paths); err != nil {
			logger.Warn().Err(err).Str("department", string(dept)).Msg("pipeline load failed after upload")
		}
	}

	response.Success = len(response.UploadedFiles) > 0
	response.FileCount = len(response.UploadedFiles)
	if !response.Success {
		w.WriteHeader(http.StatusBadRequest)
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode upload response")
	}
}

func (h *Handler) processFile(r *http.Request, fh *multipart.FileHeader, requested domain.Department, sniff bool, sessionID string) (*api.UploadedFile, *api.FailedFile) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !ingest.SupportedExtension(fh.Filename) {
		return nil, &api.FailedFile{
			Filename:       fh.Filename,
			Error:          "unsupported file format",
			DetectedFormat: strings.TrimPrefix(ext, "."),
		}
	}

	src, err := fh.Open()
	if err != nil {
		return nil, &api.FailedFile{Filename: fh.Filename, Error: "could not open uploaded file", DetectedFormat: strings.TrimPrefix(ext, ".")}
	}
	defer src.Close()

	// Stage to a temp file so the dataset can be inspected before the
	// department directory is known.
	tmp, err := os.CreateTemp("", "insighthub-*"+ext)
	if err != nil {
		return nil, &api.FailedFile{Filename: fh.Filename, Error: "could not stage uploaded file", DetectedFormat: strings.TrimPrefix(ext, ".")}
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, &api.FailedFile{Filename: fh.Filename, Error: "could not read uploaded file", DetectedFormat: strings.TrimPrefix(ext, ".")}
	}
	tmp.Close()

	ds, err := ingest.ReadFile(tmp.Name())
	if err != nil {
		return nil, &api.FailedFile{Filename: fh.Filename, Error: err.Error(), DetectedFormat: strings.TrimPrefix(ext, ".")}
	}

	dept := requested
	switch {
	case !dept.Valid():
		dept, _ = schema.Classify(ds)
	case sniff && dept != domain.DepartmentReviews && schema.LooksLikeReviews(ds):
		// Header-based routing is wrong often enough for review exports
		// that content wins over the requested department.
		dept = domain.DepartmentReviews
	}

	staged, err := os.Open(tmp.Name())
	if err != nil {
		return nil, &api.FailedFile{Filename: fh.Filename, Error: "could not store uploaded file", DetectedFormat: strings.TrimPrefix(ext, ".")}
	}
	defer staged.Close()

	safeName := catalog.SecureFilename(fh.Filename)
	path, err := h.catalog.SaveUpload(dept, sessionID, safeName, staged)
	if err != nil {
		return nil, &api.FailedFile{Filename: fh.Filename, Error: "could not store uploaded file", DetectedFormat: strings.TrimPrefix(ext, ".")}
	}

	return &api.UploadedFile{
		Filename:         safeName,
		OriginalFilename: fh.Filename,
		RowCount:         ds.RowCount(),
		ColumnCount:      ds.ColumnCount(),
		Columns:          ds.Columns,
		Format:           strings.TrimPrefix(ext, "."),
		Department:       string(dept),
		SampleData:       sampleData(ds),
		Categories:       categories(ds),
		SessionID:        sessionID,
		Timestamp:        time.Now().Format(time.RFC3339),
		FilePath:         path,
	}, nil
}

// UploadDirect stores a single file outside any session and loads it
// immediately, returning the URL of its analysis.
func (h *Handler) UploadDirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "could not parse multipart form", "")
		return
	}
	src, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided", "")
		return
	}
	defer src.Close()

	if !ingest.SupportedExtension(fh.Filename) {
		writeError(w, http.StatusBadRequest, "unsupported file format", "")
		return
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	tmp, err := os.CreateTemp("", "insighthub-*"+ext)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not stage uploaded file", "")
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "could not read uploaded file", "")
		return
	}
	tmp.Close()

	ds, err := ingest.ReadFile(tmp.Name())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	dept := domain.ParseDepartment(r.FormValue("department"))
	if !dept.Valid() {
		dept, _ = schema.Classify(ds)
	}

	staged, err := os.Open(tmp.Name())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not store uploaded file", "")
		return
	}
	defer staged.Close()

	safeName := catalog.SecureFilename(fh.Filename)
	path, err := h.catalog.SaveDirect(dept, safeName, staged)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not store uploaded file", "")
		return
	}

	if _, err := h.pipelines.Get(dept).LoadFiles(ctx, []string{path}); err != nil {
		logger.Warn().Err(err).Str("department", string(dept)).Msg("pipeline load failed after direct upload")
	}

	fileID := strings.TrimSuffix(safeName, filepath.Ext(safeName))
	response := api.UploadDirectResponse{
		Success:     true,
		Filename:    safeName,
		Department:  string(dept),
		RowCount:    ds.RowCount(),
		AnalysisURL: "/analyze/" + string(dept) + "/" + fileID,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error().Err(err).Msg("failed to encode direct upload response")
	}
}

func sampleData(ds *domain.Dataset) [][]string {
	n := sampleRows
	if ds.RowCount() < n {
		n = ds.RowCount()
	}
	out := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, append([]string(nil), ds.Rows[i]...))
	}
	return out
}

func categories(ds *domain.Dataset) []string {
	col := "category"
	if !ds.HasColumn(col) {
		col = "product_category"
	}
	cells, ok := ds.Column(col)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, c := range cells {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
		if len(out) == categoryCap {
			break
		}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, message, fallback string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: message, Response: fallback})
}
