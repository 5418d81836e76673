package services

import (
	"context"
	"fmt"
	"time"

	"budgetpricing/pricing"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// SpreadsheetExporter renders a priced budget as .xlsx or .pdf.
type SpreadsheetExporter struct {
	Latency time.Duration
	Now     func() time.Time
}

func (x SpreadsheetExporter) Export(ctx context.Context, req pricing.ExportRequest) (pricing.Artifact, error) {
	if err := wait(ctx, x.Latency); err != nil {
		return pricing.Artifact{}, err
	}

	now := time.Now()
	if x.Now != nil {
		now = x.Now()
	}
	data := BuildExportData(req.Order, req.FileName, req.Rows, now)

	var (
		out         []byte
		contentType string
		err         error
	)
	switch req.Format {
	case pricing.FormatXLSX, "":
		req.Format = pricing.FormatXLSX
		out, err = GenerateExcel(data)
		contentType = ContentTypeXLSX
	case pricing.FormatPDF:
		out, err = GeneratePDF(data)
		contentType = ContentTypePDF
	default:
		return pricing.Artifact{}, fmt.Errorf("unsupported export format %q", req.Format)
	}
	if err != nil {
		return pricing.Artifact{}, err
	}

	return pricing.Artifact{
		FileName:    ExportFileName(req.FileName, req.Format),
		ContentType: contentType,
		Data:        out,
		CreatedAt:   now,
	}, nil
}
