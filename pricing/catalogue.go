package pricing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Catalogue search defaults.
const (
	DefaultSearchLimit     = 50
	DefaultSearchThreshold = 0.5
)

// CatalogueItem is a candidate returned by the catalogue search service.
type CatalogueItem struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Manufacturer string          `json:"manufacturer"`
	Code         string          `json:"code"`
	Unit         string          `json:"unit"`
	Price        decimal.Decimal `json:"price"`
	Assembly     decimal.Decimal `json:"assembly"`
	Score        float64         `json:"score"`
	Info         string          `json:"info,omitempty"`
}

// SearchQuery is a free-text catalogue query.
type SearchQuery struct {
	Text      string  `json:"query"`
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
}

func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: query text is required", ErrInvalidQuery)
	}
	if q.Limit < 1 {
		return fmt.Errorf("%w: limit must be at least 1", ErrInvalidQuery)
	}
	if math.IsNaN(q.Threshold) || q.Threshold < 0 || q.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be between 0 and 1", ErrInvalidQuery)
	}
	return nil
}

// SearchState is the visible state of a catalogue flow.
type SearchState string

const (
	SearchNotSearched SearchState = "not_searched"
	SearchSearching   SearchState = "searching"
	SearchSearched    SearchState = "searched"
	SearchFailed      SearchState = "failed"
)

// SearchFlow is an open catalogue replacement dialog for one row.
type SearchFlow struct {
	RowID   string
	Current LineItem
	Query   SearchQuery
	State   SearchState
	Results []CatalogueItem
	Reason  string

	// token is the sequence number of the search whose results the flow accepts.
	token uint64
}

func (f *SearchFlow) candidate(itemID string) (CatalogueItem, error) {
	if f.State != SearchSearched {
		return CatalogueItem{}, ErrNotSearched
	}
	for _, it := range f.Results {
		if it.ID == itemID {
			return it, nil
		}
	}
	return CatalogueItem{}, fmt.Errorf("%w: %s", ErrCandidateNotFound, itemID)
}

func (f *SearchFlow) clone() SearchFlow {
	out := *f
	out.Results = append([]CatalogueItem(nil), f.Results...)
	return out
}
