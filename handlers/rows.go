package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"budgetpricing/pricing"
)

type fieldUpdateRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// fieldValue accepts a JSON string or a bare JSON number.
func fieldValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// HandleRowUpdate edits one field of a line item.
// Route: PATCH /api/sessions/{sessionId}/rows/{rowId}
func HandleRowUpdate(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "row_update", err)
		}

		var req fieldUpdateRequest
		if err := e.BindBody(&req); err != nil {
			return ErrorBanner(e, http.StatusBadRequest, "Invalid request body")
		}
		field, err := pricing.ParseField(req.Field)
		if err != nil {
			return respondError(e, "row_update", err)
		}

		if err := s.SetField(e.Request.PathValue("rowId"), field, fieldValue(req.Value)); err != nil {
			return respondError(e, "row_update", err)
		}
		return e.JSON(http.StatusOK, s.View())
	}
}

// HandleRowReset restores a row to its uploaded values.
// Route: POST /api/sessions/{sessionId}/rows/{rowId}/reset
func HandleRowReset(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "row_reset", err)
		}
		if err := s.ResetRow(e.Request.PathValue("rowId")); err != nil {
			return respondError(e, "row_reset", err)
		}
		return e.JSON(http.StatusOK, s.View())
	}
}

// HandleRecompute starts a recalculation of all rows. Only one runs at a time.
// Route: POST /api/sessions/{sessionId}/recompute
func HandleRecompute(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "recompute", err)
		}
		t, err := s.StartRecompute(taskContext(e))
		if err != nil {
			return respondError(e, "recompute", err)
		}
		return taskAccepted(e, s, t)
	}
}
