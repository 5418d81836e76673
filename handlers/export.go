package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"budgetpricing/pricing"
)

type exportRequest struct {
	Format string `json:"format"`
}

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

// HandleExportStart renders the priced budget. A session exports once.
// Route: POST /api/sessions/{sessionId}/export
func HandleExportStart(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "export_start", err)
		}

		var req exportRequest
		if err := e.BindBody(&req); err != nil {
			return ErrorBanner(e, http.StatusBadRequest, "Invalid request body")
		}
		format, err := pricing.ParseExportFormat(req.Format)
		if err != nil {
			return ErrorBanner(e, http.StatusBadRequest, err.Error())
		}

		t, err := s.StartExport(taskContext(e), format)
		if err != nil {
			return respondError(e, "export_start", err)
		}
		return taskAccepted(e, s, t)
	}
}

// HandleExportDownload serves the rendered export as an attachment.
// Route: GET /api/sessions/{sessionId}/export
func HandleExportDownload(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "export_download", err)
		}
		art, err := s.Artifact()
		if err != nil {
			return respondError(e, "export_download", err)
		}

		disposition := mime.FormatMediaType("attachment", map[string]string{
			"filename": sanitizeFilename(art.FileName),
		})
		e.Response.Header().Set("Content-Type", art.ContentType)
		e.Response.Header().Set("Content-Disposition", disposition)
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(art.Data)
		return err
	}
}
