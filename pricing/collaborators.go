package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Upload describes a budget file handed to the intake. Data may be empty when
// only the file descriptor is known.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Data        []byte
}

// Intake turns an uploaded budget into seed rows.
type Intake interface {
	Process(ctx context.Context, up Upload) ([]Row, error)
}

// Recalculator refreshes a row collection, e.g. with live prices. It must
// return the same rows in the same order.
type Recalculator interface {
	Recalculate(ctx context.Context, rows []Row) ([]Row, error)
}

// CatalogueSearcher returns candidates ordered by relevance.
type CatalogueSearcher interface {
	Search(ctx context.Context, q SearchQuery) ([]CatalogueItem, error)
}

type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

// ParseExportFormat defaults to xlsx.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ExportRequest is what the exporter receives.
type ExportRequest struct {
	Order    *Order
	FileName string
	Rows     []Row
	Format   ExportFormat
}

// Artifact is a rendered, downloadable export.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

type Exporter interface {
	Export(ctx context.Context, req ExportRequest) (Artifact, error)
}

// OrderProvider supplies orders. Orders are never mutated by the pricing core.
type OrderProvider interface {
	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrders(ctx context.Context, query string) ([]Order, error)
}

// Observer receives task outcomes and session counts.
type Observer interface {
	TaskObserver
	SetActiveSessions(n int)
}

type noopObserver struct{}

func (noopObserver) ObserveTask(Action, TaskStatus, time.Duration) {}
func (noopObserver) SetActiveSessions(int)                        {}
