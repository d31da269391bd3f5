package http

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"auditreport/internal/convert"
	"auditreport/internal/core"
	"auditreport/internal/files"
	applog "auditreport/internal/log"
	"auditreport/internal/report"
	"auditreport/internal/services"
	"auditreport/internal/storage"
)

const (
	contentTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	contentTypePDF  = "application/pdf"

	// ReportFilename is the download name of generated reports.
	ReportFilename = "审核报告.docx"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type projectResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type projectDetailResponse struct {
	projectResponse
	Data  core.ReportData `json:"data"`
	Files []fileResponse  `json:"files"`
}

type fileResponse struct {
	ID         int64     `json:"id"`
	ProjectID  int64     `json:"project_id"`
	Filename   string    `json:"filename"`
	Filepath   string    `json:"filepath"`
	FileType   string    `json:"file_type"`
	Category   string    `json:"category"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

func toProjectResponse(p core.Project) projectResponse {
	return projectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Code:      p.Code,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toDetailResponse(d services.ProjectDetail) projectDetailResponse {
	out := projectDetailResponse{
		projectResponse: toProjectResponse(d.Project),
		Data:            d.Data,
		Files:           make([]fileResponse, 0, len(d.Files)),
	}
	if out.Data == nil {
		out.Data = core.ReportData{}
	}
	for _, f := range d.Files {
		out.Files = append(out.Files, toFileResponse(f))
	}
	return out
}

func toFileResponse(f core.ProjectFile) fileResponse {
	return fileResponse{
		ID:         f.ID,
		ProjectID:  f.ProjectID,
		Filename:   f.Filename,
		Filepath:   f.Path,
		FileType:   f.FileType,
		Category:   f.Category,
		UploadedAt: f.UploadedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// errorStatus maps service errors to a status code and client message.
// notFound is the message used for storage.ErrNotFound.
func errorStatus(err error, notFound string) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, notFound
	case errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrCodeTooLong),
		errors.Is(err, core.ErrEmptyFilename),
		errors.Is(err, files.ErrInvalidName):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, files.ErrTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "File too large"
	case services.IsTimeout(err):
		return http.StatusInternalServerError, "Report generation timed out"
	case errors.Is(err, report.ErrTemplateNotFound), errors.Is(err, convert.ErrConversionFailed):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// fail logs err and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFound, component, op string) {
	status, detail := errorStatus(err, notFound)
	if status >= http.StatusInternalServerError {
		applog.LogError(r.Context(), "Request failed", err, component, op, nil)
	}
	writeError(w, status, detail)
}

// serveFile streams the file at path with the given media type. A non-empty
// downloadName makes the response an attachment.
func serveFile(w http.ResponseWriter, r *http.Request, path, contentType, downloadName string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", contentType)
	if downloadName != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": downloadName}))
	} else {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filepath.Base(path)}))
	}
	http.ServeContent(w, r, filepath.Base(path), info.ModTime(), f)
	return nil
}
