package http

import (
	"net/http"

	"auditreport/internal/core"
	applog "auditreport/internal/log"
)

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req dataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badBody(w, r, err)
		return
	}
	if req.Data == nil {
		req.Data = core.ReportData{}
	}

	path, err := s.reports.GenerateDocx(r.Context(), req.Data)
	if err != nil {
		s.fail(w, r, err, "", applog.ComponentReport, applog.OpGenerate)
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentReport).InfoContext(r.Context(), "Report generated",
		applog.FieldReportPath, path,
		applog.FieldProject, core.TextValue(req.Data["project_name"]))

	if err := serveFile(w, r, path, contentTypeDocx, ReportFilename); err != nil {
		s.fail(w, r, err, "", applog.ComponentReport, applog.OpGenerate)
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req dataRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badBody(w, r, err)
		return
	}
	if req.Data == nil {
		req.Data = core.ReportData{}
	}

	pdf, err := s.reports.PreviewPDF(r.Context(), req.Data)
	if err != nil {
		s.fail(w, r, err, "", applog.ComponentConverter, applog.OpPreview)
		return
	}

	if err := serveFile(w, r, pdf, contentTypePDF, ""); err != nil {
		s.fail(w, r, err, "", applog.ComponentConverter, applog.OpPreview)
	}
}
