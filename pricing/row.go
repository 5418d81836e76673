package pricing

import (
	"github.com/shopspring/decimal"
)

// Row is one line of a priced budget: either a Header or a LineItem.
// The interface is sealed; no other type can be a Row.
type Row interface {
	RowID() string
	isRow()
}

// Header is a non-priceable section label.
type Header struct {
	ID    string
	Label string
}

func (h Header) RowID() string { return h.ID }
func (Header) isRow()          {}

// Inputs are the user-editable priced values of a line item.
type Inputs struct {
	Discount      decimal.Decimal // percent off the delivery unit price, 0..100
	Quantity      decimal.Decimal
	DeliveryPrice decimal.Decimal // unit price before discount
	AssemblyPrice decimal.Decimal // unit price, never discounted
}

// LineItem is a priceable budget line.
type LineItem struct {
	ID               string
	Index            string // position code in the budget, e.g. "1.2"
	Supplier         string
	Position         string // internal tag, e.g. "K1.1"
	Description      string
	Unit             string
	MatchProbability float64 // catalogue match confidence, 0..1; zero for manual rows
	Inputs
}

func (li LineItem) RowID() string { return li.ID }
func (LineItem) isRow()           {}

// Totals computes the derived values of the line item from its current inputs.
func (li LineItem) Totals() Totals {
	return Compute(li.Inputs)
}

// NewInputs builds Inputs from plain numbers. It is meant for seed data and tests.
func NewInputs(discount, quantity, deliveryPrice, assemblyPrice float64) Inputs {
	return Inputs{
		Discount:      decimal.NewFromFloat(discount),
		Quantity:      decimal.NewFromFloat(quantity),
		DeliveryPrice: decimal.NewFromFloat(deliveryPrice),
		AssemblyPrice: decimal.NewFromFloat(assemblyPrice),
	}
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	return out
}
