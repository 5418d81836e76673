package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetpricing/pricing"
)

var exportNow = time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)

func testOrder() *pricing.Order {
	return &pricing.Order{
		ID:       "o1",
		Name:     "Pelhřimov SPŠ a SOU Křemešnická",
		Code:     "088N",
		Customer: "Stavební firma s.r.o.",
		Status:   pricing.OrderStatusInProgress,
	}
}

func assertDecimal(t *testing.T, what, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("%s = %s, want %s", what, got, want)
	}
}

func TestBuildExportData_PelhrimovBudget(t *testing.T) {
	data := BuildExportData(testOrder(), "Pelhřimov_Budget_v1.xlsx", PelhrimovBudget(), exportNow)

	if data.Title != "Pelhřimov SPŠ a SOU Křemešnická" {
		t.Errorf("Title = %q", data.Title)
	}
	if data.OrderCode != "088N" || data.Customer != "Stavební firma s.r.o." {
		t.Errorf("order fields = %q / %q", data.OrderCode, data.Customer)
	}
	if data.CreatedDate != "09. 02. 2026" {
		t.Errorf("CreatedDate = %q", data.CreatedDate)
	}
	if len(data.Rows) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(data.Rows))
	}
	if data.Items != 6 {
		t.Errorf("Items = %d, want 6", data.Items)
	}

	if !data.Rows[0].Header || data.Rows[0].Description != "Chlazení - Multisplit" {
		t.Errorf("row 0 = %+v, want section header", data.Rows[0])
	}
	first := data.Rows[1]
	if first.Header {
		t.Fatal("row 1 should be a line item")
	}
	assertDecimal(t, "row 1 final unit", "41750", first.FinalPriceUnit)
	assertDecimal(t, "row 1 line total", "41750", first.LineTotal)
	assertDecimal(t, "row 1 delivery total", "45000", first.DeliveryTotal)

	assertDecimal(t, "grand total", "111475", data.GrandTotal)
	assertDecimal(t, "delivery total", "104480", data.DeliveryTotal)
	assertDecimal(t, "assembly total", "20300", data.AssemblyTotal)
}

func TestBuildExportData_NoOrderUsesFileStem(t *testing.T) {
	data := BuildExportData(nil, "Budget_v2.xlsx", nil, exportNow)
	if data.Title != "Budget_v2" {
		t.Errorf("Title = %q, want %q", data.Title, "Budget_v2")
	}
	if data.Items != 0 || !data.GrandTotal.IsZero() {
		t.Errorf("empty budget should have no items and zero total, got %d / %s", data.Items, data.GrandTotal)
	}
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		file   string
		format pricing.ExportFormat
		expect string
	}{
		{"Pelhřimov_Budget_v1.xlsx", pricing.FormatXLSX, "Pelhřimov_Budget_v1.xlsx"},
		{"Pelhřimov_Budget_v1.xlsx", pricing.FormatPDF, "Pelhřimov_Budget_v1.pdf"},
		{"budget.xlsm", pricing.FormatXLSX, "budget.xlsx"},
		{"", pricing.FormatXLSX, "Exported_Budget.xlsx"},
		{"", pricing.FormatPDF, "Exported_Budget.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.expect, func(t *testing.T) {
			if got := ExportFileName(tt.file, tt.format); got != tt.expect {
				t.Errorf("ExportFileName(%q, %s) = %q, want %q", tt.file, tt.format, got, tt.expect)
			}
		})
	}
}
