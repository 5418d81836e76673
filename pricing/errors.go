package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound   = errors.New("pricing session not found")
	ErrRowNotFound       = errors.New("row not found")
	ErrHeaderRow         = errors.New("header rows carry no prices")
	ErrDuplicateRow      = errors.New("duplicate row id")
	ErrRowSetChanged     = errors.New("recalculated rows do not match the priced rows")
	ErrUnknownField      = errors.New("unknown field")
	ErrInvalidTransition = errors.New("invalid workflow transition")
	ErrWrongStep         = errors.New("operation not available in the current step")
	ErrTaskInFlight      = errors.New("task already in flight")
	ErrCatalogueNotOpen  = errors.New("catalogue selection is not open for this row")
	ErrNotSearched       = errors.New("catalogue has not been searched yet")
	ErrCandidateNotFound = errors.New("candidate not found in search results")
	ErrInvalidQuery      = errors.New("invalid catalogue query")
	ErrUnsupportedFile   = errors.New("unsupported budget file")
	ErrAlreadyExported   = errors.New("budget already exported")
	ErrNoArtifact        = errors.New("no export available")
	ErrOrderNotFound     = errors.New("order not found")

	errSuperseded = errors.New("task superseded")
)

// FieldError reports a rejected field edit. The row keeps its previous value.
type FieldError struct {
	Field  Field
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
