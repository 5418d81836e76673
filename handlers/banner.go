package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetpricing/pricing"
)

// Banner is the dismissible notification payload every failed request
// answers with.
type Banner struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error Banner `json:"error"`
}

// ErrorBanner answers with an error banner and the given status code.
func ErrorBanner(e *core.RequestEvent, statusCode int, message string) error {
	return e.JSON(statusCode, errorResponse{Error: Banner{Type: "error", Message: message}})
}

// statusFor maps pricing errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pricing.ErrSessionNotFound),
		errors.Is(err, pricing.ErrRowNotFound),
		errors.Is(err, pricing.ErrOrderNotFound),
		errors.Is(err, pricing.ErrCandidateNotFound),
		errors.Is(err, pricing.ErrNoArtifact):
		return http.StatusNotFound
	case errors.Is(err, pricing.ErrTaskInFlight),
		errors.Is(err, pricing.ErrInvalidTransition),
		errors.Is(err, pricing.ErrWrongStep),
		errors.Is(err, pricing.ErrAlreadyExported),
		errors.Is(err, pricing.ErrCatalogueNotOpen),
		errors.Is(err, pricing.ErrNotSearched):
		return http.StatusConflict
	case errors.Is(err, pricing.ErrUnknownField),
		errors.Is(err, pricing.ErrHeaderRow),
		errors.Is(err, pricing.ErrInvalidQuery),
		errors.Is(err, pricing.ErrUnsupportedFile):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError classifies err and answers with the matching banner.
// Unexpected errors are logged and not echoed to the client.
func respondError(e *core.RequestEvent, handler string, err error) error {
	var fieldErr *pricing.FieldError
	if errors.As(err, &fieldErr) {
		return e.JSON(http.StatusBadRequest, errorResponse{Error: Banner{
			Type:    "error",
			Message: fieldErr.Error(),
			Field:   string(fieldErr.Field),
		}})
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.String("handler", handler), zap.Error(err))
		return ErrorBanner(e, status, "Something went wrong, please try again")
	}
	zap.L().Debug("request rejected", zap.String("handler", handler), zap.Int("status", status), zap.Error(err))
	return ErrorBanner(e, status, err.Error())
}

// sessionFor resolves the {sessionId} path value.
func sessionFor(e *core.RequestEvent, sessions *pricing.Registry) (*pricing.Session, error) {
	return sessions.Get(e.Request.PathValue("sessionId"))
}

// taskContext detaches a task from the request so it outlives the response.
func taskContext(e *core.RequestEvent) context.Context {
	return context.WithoutCancel(e.Request.Context())
}

type taskResponse struct {
	Task  string            `json:"task"`
	State pricing.TaskState `json:"state"`
}

// taskAccepted answers 202 with the current state of the started task.
func taskAccepted(e *core.RequestEvent, s *pricing.Session, t *pricing.Task) error {
	return e.JSON(http.StatusAccepted, taskResponse{
		Task:  t.Key().String(),
		State: s.Task(t.Key()),
	})
}
