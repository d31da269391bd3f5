package http

import (
	"errors"
	"net/http"

	"auditreport/internal/core"
	applog "auditreport/internal/log"
)

const (
	msgProjectNotFound = "Project not found"
	msgFileNotFound    = "File not found"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badBody(w, r, err)
		return
	}

	p, err := s.projects.Create(r.Context(), sanitizeInput(req.Name), sanitizeInput(req.Code))
	if err != nil {
		s.fail(w, r, err, msgProjectNotFound, applog.ComponentProject, applog.OpCreate)
		return
	}
	writeJSON(w, http.StatusOK, toProjectResponse(p))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		s.fail(w, r, err, msgProjectNotFound, applog.ComponentProject, applog.OpList)
		return
	}
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, err := s.projects.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, msgProjectNotFound, applog.ComponentProject, applog.OpRead)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponse(detail))
}

func (s *Server) handleSaveProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req dataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badBody(w, r, err)
		return
	}
	if err := s.projects.SaveData(r.Context(), id, req.Data); err != nil {
		s.fail(w, r, err, msgProjectNotFound, applog.ComponentProject, applog.OpUpdate)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "success"})
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.projects.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err, msgProjectNotFound, applog.ComponentProject, applog.OpDelete)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Leave room for the multipart envelope and the category field.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	category := sanitizeInput(r.FormValue("category"))
	if category == "" {
		category = core.DefaultCategory
	}

	created, err := s.projects.UploadFile(r.Context(), id, header.Filename, category, file)
	if err != nil {
		s.fail(w, r, err, msgProjectNotFound, applog.ComponentFiles, applog.OpUpload)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(created))
}

func (s *Server) handleFileCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: core.FileCategories})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.projects.DeleteFile(r.Context(), id); err != nil {
		s.fail(w, r, err, msgFileNotFound, applog.ComponentFiles, applog.OpDelete)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

// badBody answers a request whose body could not be decoded.
func (s *Server) badBody(w http.ResponseWriter, r *http.Request, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Invalid request body",
		applog.FieldError, err.Error(),
		"error_type", applog.ErrorTypeValidation)
	writeError(w, http.StatusBadRequest, err.Error())
}
