// Package pricing implements the budget pricing workflow: the row pricing
// engine, the row store, the upload/price/export stepper, the catalogue
// replacement flow and the in-memory sessions that tie them together.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Totals are the derived values of a line item.
type Totals struct {
	DeliveryTotal  decimal.Decimal
	AssemblyTotal  decimal.Decimal
	FinalPriceUnit decimal.Decimal
	LineTotal      decimal.Decimal
}

// Compute derives the totals of a line item.
//
// The discount applies to the delivery unit price only. DeliveryTotal is taken
// on the undiscounted unit price, while FinalPriceUnit and LineTotal use the
// discounted one.
func Compute(in Inputs) Totals {
	discountedDelivery := in.DeliveryPrice.Mul(one.Sub(in.Discount.Shift(-2)))
	finalPriceUnit := discountedDelivery.Add(in.AssemblyPrice)

	return Totals{
		DeliveryTotal:  in.DeliveryPrice.Mul(in.Quantity),
		AssemblyTotal:  in.AssemblyPrice.Mul(in.Quantity),
		FinalPriceUnit: finalPriceUnit,
		LineTotal:      finalPriceUnit.Mul(in.Quantity),
	}
}

// PricedRow pairs a row with its derived totals. Totals is nil for headers.
type PricedRow struct {
	Row    Row
	Totals *Totals
}

// ComputeRow prices a single row. Headers pass through untouched.
func ComputeRow(r Row) PricedRow {
	li, ok := r.(LineItem)
	if !ok {
		return PricedRow{Row: r}
	}
	t := li.Totals()
	return PricedRow{Row: r, Totals: &t}
}

// GrandTotal sums the line totals of all line items.
func GrandTotal(rows []Row) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if li, ok := r.(LineItem); ok {
			total = total.Add(li.Totals().LineTotal)
		}
	}
	return total
}

// Summary aggregates a row collection for footers and exports.
type Summary struct {
	Items         int
	Sections      int
	DeliveryTotal decimal.Decimal
	AssemblyTotal decimal.Decimal
	GrandTotal    decimal.Decimal
}

func Summarize(rows []Row) Summary {
	s := Summary{
		DeliveryTotal: decimal.Zero,
		AssemblyTotal: decimal.Zero,
		GrandTotal:    decimal.Zero,
	}
	for _, r := range rows {
		switch v := r.(type) {
		case Header:
			s.Sections++
		case LineItem:
			t := v.Totals()
			s.Items++
			s.DeliveryTotal = s.DeliveryTotal.Add(t.DeliveryTotal)
			s.AssemblyTotal = s.AssemblyTotal.Add(t.AssemblyTotal)
			s.GrandTotal = s.GrandTotal.Add(t.LineTotal)
		}
	}
	return s
}

// Band classifies a match probability for display.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// MatchBand returns the confidence band of a catalogue match.
func MatchBand(probability float64) Band {
	switch {
	case probability >= 0.8:
		return BandHigh
	case probability >= 0.7:
		return BandMedium
	}
	return BandLow
}
