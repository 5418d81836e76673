package services

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetpricing/pricing"
)

// DefaultExportName is used when the session has no budget file name.
const DefaultExportName = "Exported_Budget.xlsx"

// ExportRow represents a single row in the budget export (section header or line item).
type ExportRow struct {
	Header           bool // section label; only Description is set
	Index            string
	Supplier         string
	Position         string
	Description      string
	Unit             string
	MatchProbability float64
	Quantity         decimal.Decimal
	Discount         decimal.Decimal
	DeliveryPrice    decimal.Decimal
	AssemblyPrice    decimal.Decimal
	FinalPriceUnit   decimal.Decimal
	DeliveryTotal    decimal.Decimal
	AssemblyTotal    decimal.Decimal
	LineTotal        decimal.Decimal
}

// ExportData holds all data needed for export.
type ExportData struct {
	Title         string
	OrderCode     string
	Customer      string
	FileName      string
	CreatedDate   string
	Rows          []ExportRow
	Items         int
	DeliveryTotal decimal.Decimal
	AssemblyTotal decimal.Decimal
	GrandTotal    decimal.Decimal
}

// BuildExportData flattens priced rows and order metadata into ExportData.
func BuildExportData(order *pricing.Order, fileName string, rows []pricing.Row, now time.Time) ExportData {
	data := ExportData{
		FileName:    fileName,
		CreatedDate: FormatDate(now),
		Rows:        make([]ExportRow, 0, len(rows)),
	}
	if order != nil {
		data.Title = order.Name
		data.OrderCode = order.Code
		data.Customer = order.Customer
	}
	if data.Title == "" {
		data.Title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}

	for _, r := range rows {
		switch v := r.(type) {
		case pricing.Header:
			data.Rows = append(data.Rows, ExportRow{Header: true, Description: v.Label})
		case pricing.LineItem:
			t := v.Totals()
			data.Rows = append(data.Rows, ExportRow{
				Index:            v.Index,
				Supplier:         v.Supplier,
				Position:         v.Position,
				Description:      v.Description,
				Unit:             v.Unit,
				MatchProbability: v.MatchProbability,
				Quantity:         v.Quantity,
				Discount:         v.Discount,
				DeliveryPrice:    v.DeliveryPrice,
				AssemblyPrice:    v.AssemblyPrice,
				FinalPriceUnit:   t.FinalPriceUnit,
				DeliveryTotal:    t.DeliveryTotal,
				AssemblyTotal:    t.AssemblyTotal,
				LineTotal:        t.LineTotal,
			})
		}
	}

	sum := pricing.Summarize(rows)
	data.Items = sum.Items
	data.DeliveryTotal = sum.DeliveryTotal
	data.AssemblyTotal = sum.AssemblyTotal
	data.GrandTotal = sum.GrandTotal
	return data
}

// ExportFileName derives the artifact name from the budget file name.
func ExportFileName(fileName string, format pricing.ExportFormat) string {
	if fileName == "" {
		fileName = DefaultExportName
	}
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return stem + "." + string(format)
}
