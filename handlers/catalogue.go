package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"budgetpricing/pricing"
)

type catalogueResult struct {
	pricing.CatalogueItem
	MatchBand pricing.Band `json:"matchBand"`
}

type catalogueResponse struct {
	RowID   string              `json:"rowId"`
	Current pricing.RowView     `json:"current"`
	Query   pricing.SearchQuery `json:"query"`
	State   pricing.SearchState `json:"state"`
	Results []catalogueResult   `json:"results"`
	Reason  string              `json:"reason,omitempty"`
}

func newCatalogueResponse(f pricing.SearchFlow) catalogueResponse {
	results := make([]catalogueResult, len(f.Results))
	for i, it := range f.Results {
		results[i] = catalogueResult{CatalogueItem: it, MatchBand: pricing.MatchBand(it.Score)}
	}
	return catalogueResponse{
		RowID:   f.RowID,
		Current: pricing.NewRowView(f.Current, false),
		Query:   f.Query,
		State:   f.State,
		Results: results,
		Reason:  f.Reason,
	}
}

// HandleCatalogueOpen opens the replacement dialog for a line item.
// Route: POST /api/sessions/{sessionId}/rows/{rowId}/catalogue
func HandleCatalogueOpen(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "catalogue_open", err)
		}
		flow, err := s.OpenCatalogue(e.Request.PathValue("rowId"))
		if err != nil {
			return respondError(e, "catalogue_open", err)
		}
		return e.JSON(http.StatusOK, newCatalogueResponse(flow))
	}
}

// HandleCatalogueView returns the dialog state and the latest results.
// Route: GET /api/sessions/{sessionId}/rows/{rowId}/catalogue
func HandleCatalogueView(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "catalogue_view", err)
		}
		flow, err := s.Catalogue(e.Request.PathValue("rowId"))
		if err != nil {
			return respondError(e, "catalogue_view", err)
		}
		return e.JSON(http.StatusOK, newCatalogueResponse(flow))
	}
}

// searchRequest fields left out keep the dialog's current query values.
type searchRequest struct {
	Query     *string  `json:"query"`
	Limit     *int     `json:"limit"`
	Threshold *float64 `json:"threshold"`
}

// HandleCatalogueSearch starts a search, replacing any search still running
// for the row.
// Route: POST /api/sessions/{sessionId}/rows/{rowId}/catalogue/search
func HandleCatalogueSearch(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "catalogue_search", err)
		}
		rowID := e.Request.PathValue("rowId")

		flow, err := s.Catalogue(rowID)
		if err != nil {
			return respondError(e, "catalogue_search", err)
		}

		var req searchRequest
		if err := e.BindBody(&req); err != nil {
			return ErrorBanner(e, http.StatusBadRequest, "Invalid request body")
		}
		q := flow.Query
		if req.Query != nil {
			q.Text = *req.Query
		}
		if req.Limit != nil {
			q.Limit = *req.Limit
		}
		if req.Threshold != nil {
			q.Threshold = *req.Threshold
		}

		t, err := s.StartSearch(taskContext(e), rowID, q)
		if err != nil {
			return respondError(e, "catalogue_search", err)
		}
		return taskAccepted(e, s, t)
	}
}

type selectRequest struct {
	ItemID string `json:"itemId"`
}

// HandleCatalogueSelect applies a candidate to the row, closes the dialog and
// starts a recalculation.
// Route: POST /api/sessions/{sessionId}/rows/{rowId}/catalogue/select
func HandleCatalogueSelect(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "catalogue_select", err)
		}

		var req selectRequest
		if err := e.BindBody(&req); err != nil || req.ItemID == "" {
			return ErrorBanner(e, http.StatusBadRequest, "itemId is required")
		}

		if _, err := s.SelectCandidate(taskContext(e), e.Request.PathValue("rowId"), req.ItemID); err != nil {
			return respondError(e, "catalogue_select", err)
		}
		return e.JSON(http.StatusOK, s.View())
	}
}

// HandleCatalogueClose closes the dialog without changing the row.
// Route: DELETE /api/sessions/{sessionId}/rows/{rowId}/catalogue
func HandleCatalogueClose(sessions *pricing.Registry) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		s, err := sessionFor(e, sessions)
		if err != nil {
			return respondError(e, "catalogue_close", err)
		}
		s.CloseCatalogue(e.Request.PathValue("rowId"))
		return e.NoContent(http.StatusNoContent)
	}
}
