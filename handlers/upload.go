package handlers

import (
	"io"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"budgetpricing/pricing"
	"budgetpricing/services"
)

const maxUploadSize = 10 << 20

// HandleUpload accepts a budget workbook in the multipart field "file" and
// starts processing it.
// Route: POST /api/sessions/{sessionId}/upload
func HandleUpload(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "upload", err)
		}

		// Parse multipart form (max 10MB)
		if err := e.Request.ParseMultipartForm(maxUploadSize); err != nil {
			return ErrorBanner(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorBanner(e, http.StatusBadRequest, "Please select a budget file to upload")
		}
		defer file.Close()

		if err := services.ValidateBudgetFile(header.Filename); err != nil {
			return respondError(e, "upload", err)
		}

		data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
		if err != nil {
			return respondError(e, "upload", err)
		}
		if len(data) > maxUploadSize {
			return ErrorBanner(e, http.StatusBadRequest, "File too large")
		}

		t, err := s.StartUpload(taskContext(e), pricing.Upload{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
		if err != nil {
			return respondError(e, "upload", err)
		}
		return taskAccepted(e, s, t)
	}
}
