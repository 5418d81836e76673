package handlers

import (
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"budgetpricing/pricing"
)

type createSessionRequest struct {
	OrderID string `json:"orderId"`
}

// HandleSessionCreate opens a pricing session, for an order when orderId is
// given. Sessions of orders past the upload step start with the budget loaded.
// Route: POST /api/sessions
func HandleSessionCreate(sessions *pricing.Registry, orders pricing.OrderProvider) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req createSessionRequest
		if err := e.BindBody(&req); err != nil {
			return ErrorBanner(e, http.StatusBadRequest, "Invalid request body")
		}

		var order *pricing.Order
		if id := strings.TrimSpace(req.OrderID); id != "" {
			o, err := orders.GetOrder(e.Request.Context(), id)
			if err != nil {
				return respondError(e, "session_create", err)
			}
			order = o
		}

		s, err := sessions.Create(e.Request.Context(), order)
		if err != nil {
			return respondError(e, "session_create", err)
		}
		return e.JSON(http.StatusCreated, s.View())
	}
}

// HandleSessionView returns the session with its priced rows.
// Route: GET /api/sessions/{sessionId}
func HandleSessionView(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "session_view", err)
		}
		return e.JSON(http.StatusOK, s.View())
	}
}

// HandleSessionEnd ends the session and cancels its tasks.
// Route: DELETE /api/sessions/{sessionId}
func HandleSessionEnd(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := sessions.End(e.Request.PathValue("sessionId")); err != nil {
			return respondError(e, "session_end", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleProceed moves a priced budget on to the export step.
// Route: POST /api/sessions/{sessionId}/proceed
func HandleProceed(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "proceed", err)
		}
		if err := s.Proceed(); err != nil {
			return respondError(e, "proceed", err)
		}
		return e.JSON(http.StatusOK, s.View())
	}
}

// HandleBannerDismiss clears the session's failure banner.
// Route: DELETE /api/sessions/{sessionId}/banner
func HandleBannerDismiss(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "banner_dismiss", err)
		}
		s.DismissBanner()
		return e.NoContent(http.StatusNoContent)
	}
}
