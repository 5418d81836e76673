package services

import (
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestGenerateExcel_PelhrimovBudget(t *testing.T) {
	data := BuildExportData(testOrder(), "Pelhřimov_Budget_v1.xlsx", PelhrimovBudget(), exportNow)

	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateExcel() returned empty bytes")
	}

	f := openWorkbook(t, result)

	sheets := f.GetSheetList()
	if len(sheets) == 0 || sheets[0] != "Pelhřimov SPŠ a SOU Křemešnická" {
		t.Fatalf("unexpected sheet list %v", sheets)
	}
	sheet := sheets[0]

	cells := []struct {
		cell   string
		expect string
	}{
		{"A1", "Pelhřimov SPŠ a SOU Křemešnická"},
		{"A2", "Order: 088N | Customer: Stavební firma s.r.o."},
		{"A3", "File: Pelhřimov_Budget_v1.xlsx | Date: 09. 02. 2026"},
		{"A5", "Match"},
		{"M5", "Total"},
		{"A6", "Chlazení - Multisplit"},
		{"B7", "1.1"},
		{"C7", "Venkovní jednotka 3MXM52N"},
		{"A10", "Rozvody chladu"},
		{"C15", "Delivery Total:"},
		{"C16", "Assembly Total:"},
		{"C17", "Grand Total:"},
	}
	for _, c := range cells {
		got, _ := f.GetCellValue(sheet, c.cell)
		if got != c.expect {
			t.Errorf("%s = %q, want %q", c.cell, got, c.expect)
		}
	}

	raw := []struct {
		cell   string
		expect string
	}{
		{"M7", "41750"},
		{"I7", "45000"},
		{"G8", "2"},
		{"I15", "104480"},
		{"K16", "20300"},
		{"M17", "111475"},
	}
	for _, c := range raw {
		got, _ := f.GetCellValue(sheet, c.cell, excelize.Options{RawCellValue: true})
		if got != c.expect {
			t.Errorf("raw %s = %q, want %q", c.cell, got, c.expect)
		}
	}
}

func TestGenerateExcel_EmptyBudget(t *testing.T) {
	data := ExportData{
		Title:       "Empty Budget",
		CreatedDate: "09. 02. 2026",
		Rows:        []ExportRow{},
	}

	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateExcel() returned empty bytes")
	}
}

func TestGenerateExcel_LongTitle(t *testing.T) {
	data := ExportData{
		Title:       "This is a very long title that exceeds thirty one characters",
		CreatedDate: "09. 02. 2026",
		Rows:        []ExportRow{},
	}

	result, err := GenerateExcel(data)
	if err != nil {
		t.Fatalf("GenerateExcel() error = %v", err)
	}

	f := openWorkbook(t, result)

	sheets := f.GetSheetList()
	if len([]rune(sheets[0])) > 31 {
		t.Errorf("sheet name exceeds 31 characters: %q", sheets[0])
	}
}

func TestExcelSheetName(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"", "Budget"},
		{"Budget 1/2", "Budget 1-2"},
		{"a[b]c:d*e?f\\g", "a-b-c-d-e-f-g"},
		{strings.Repeat("ř", 40), strings.Repeat("ř", 31)},
	}
	for _, tt := range tests {
		if got := excelSheetName(tt.input); got != tt.expect {
			t.Errorf("excelSheetName(%q) = %q, want %q", tt.input, got, tt.expect)
		}
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"", ""},
		{"Normal text", "Normal text"},
		{"=SUM(A1:A2)", "'=SUM(A1:A2)"},
		{"+cmd", "'+cmd"},
		{"-1", "'-1"},
		{"@import", "'@import"},
	}
	for _, tt := range tests {
		if got := sanitizeExcelCell(tt.input); got != tt.expect {
			t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.input, got, tt.expect)
		}
	}
}

func TestOrderLine(t *testing.T) {
	tests := []struct {
		code, customer string
		expect         string
	}{
		{"088N", "Stavební firma s.r.o.", "Order: 088N | Customer: Stavební firma s.r.o."},
		{"088N", "", "Order: 088N"},
		{"", "Office Parks a.s.", "Customer: Office Parks a.s."},
		{"", "", ""},
	}
	for _, tt := range tests {
		got := orderLine(ExportData{OrderCode: tt.code, Customer: tt.customer})
		if got != tt.expect {
			t.Errorf("orderLine(%q, %q) = %q, want %q", tt.code, tt.customer, got, tt.expect)
		}
	}
}
