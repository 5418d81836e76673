package pricing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Field names an editable line item field.
type Field string

const (
	FieldDescription   Field = "description"
	FieldSupplier      Field = "supplier"
	FieldUnit          Field = "unit"
	FieldDiscount      Field = "discount"
	FieldQuantity      Field = "quantity"
	FieldDeliveryPrice Field = "deliveryPrice"
	FieldAssemblyPrice Field = "assemblyPrice"
)

// ParseField maps a wire field name to a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.TrimSpace(s)); f {
	case FieldDescription, FieldSupplier, FieldUnit,
		FieldDiscount, FieldQuantity, FieldDeliveryPrice, FieldAssemblyPrice:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

func (f Field) numeric() bool {
	switch f {
	case FieldDiscount, FieldQuantity, FieldDeliveryPrice, FieldAssemblyPrice:
		return true
	}
	return false
}

// Store is the ordered row collection of one pricing session.
//
// Row identity and order never change after construction. Every mutation bumps
// the row's version and marks it dirty until a recalculation round trip
// confirms it.
type Store struct {
	mu       sync.RWMutex
	rows     []Row
	pos      map[string]int
	original map[string]Row
	version  map[string]uint64
	dirty    map[string]bool
}

// NewStore seeds a store. The seed is also kept as the reset baseline.
func NewStore(seed []Row) (*Store, error) {
	s := &Store{
		rows:     cloneRows(seed),
		pos:      make(map[string]int, len(seed)),
		original: make(map[string]Row, len(seed)),
		version:  make(map[string]uint64, len(seed)),
		dirty:    make(map[string]bool),
	}
	for i, r := range seed {
		id := r.RowID()
		if id == "" {
			return nil, fmt.Errorf("row %d: empty id", i)
		}
		if _, ok := s.pos[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRow, id)
		}
		s.pos[id] = i
		s.original[id] = r
	}
	return s, nil
}

// Rows returns a copy of the rows in display order.
func (s *Store) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRows(s.rows)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Row returns a single row by id.
func (s *Store) Row(id string) (Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.pos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	return s.rows[i], nil
}

// Dirty reports whether the row was edited since the last recalculation.
func (s *Store) Dirty(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty[id]
}

// DirtyCount returns how many rows await recalculation.
func (s *Store) DirtyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirty)
}

// GrandTotal sums the line totals of the current rows.
func (s *Store) GrandTotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GrandTotal(s.rows)
}

// lineItem must be called with s.mu held.
func (s *Store) lineItem(id string) (int, LineItem, error) {
	i, ok := s.pos[id]
	if !ok {
		return 0, LineItem{}, fmt.Errorf("%w: %s", ErrRowNotFound, id)
	}
	li, ok := s.rows[i].(LineItem)
	if !ok {
		return 0, LineItem{}, fmt.Errorf("%w: %s", ErrHeaderRow, id)
	}
	return i, li, nil
}

// put must be called with s.mu held.
func (s *Store) put(i int, r Row) {
	id := r.RowID()
	s.rows[i] = r
	s.version[id]++
	s.dirty[id] = true
}

// SetField overwrites one editable field of a line item. Numeric values must
// be finite, non-negative decimals; a discount must not exceed 100. A rejected
// value leaves the row unchanged.
func (s *Store) SetField(id string, field Field, value string) error {
	if _, err := ParseField(string(field)); err != nil {
		return err
	}

	var num decimal.Decimal
	if field.numeric() {
		var err error
		if num, err = parseAmount(field, value); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, li, err := s.lineItem(id)
	if err != nil {
		return err
	}

	switch field {
	case FieldDescription:
		li.Description = value
	case FieldSupplier:
		li.Supplier = value
	case FieldUnit:
		li.Unit = value
	case FieldDiscount:
		li.Discount = num
	case FieldQuantity:
		li.Quantity = num
	case FieldDeliveryPrice:
		li.DeliveryPrice = num
	case FieldAssemblyPrice:
		li.AssemblyPrice = num
	}
	s.put(i, li)
	return nil
}

// Bounds on typed amounts. Larger exponents expand to huge digit strings on
// every render.
const (
	maxExponent = 12
	maxDigits   = 18
)

func parseAmount(field Field, value string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return decimal.Zero, &FieldError{Field: field, Value: value, Reason: "a number is required"}
	}
	// Accept a decimal comma as typed in cs-CZ locales.
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Zero, &FieldError{Field: field, Value: value, Reason: "not a number"}
	}
	if d.Exponent() > maxExponent || d.Exponent() < -maxExponent || d.NumDigits() > maxDigits {
		return decimal.Zero, &FieldError{Field: field, Value: value, Reason: "out of range"}
	}
	if d.IsNegative() {
		return decimal.Zero, &FieldError{Field: field, Value: value, Reason: "must not be negative"}
	}
	if field == FieldDiscount && d.GreaterThan(hundred) {
		return decimal.Zero, &FieldError{Field: field, Value: value, Reason: "must be between 0 and 100"}
	}
	return d, nil
}

// ResetRow restores a line item to the values it was seeded with.
func (s *Store) ResetRow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, _, err := s.lineItem(id)
	if err != nil {
		return err
	}
	s.rows[i] = s.original[id]
	s.version[id]++
	// The seed values are the last confirmed prices of the row.
	delete(s.dirty, id)
	return nil
}

// ApplyCatalogueSelection replaces the identification and unit prices of a
// line item with a catalogue item. Quantity and discount are kept, and the
// match becomes certain.
func (s *Store) ApplyCatalogueSelection(id string, item CatalogueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, li, err := s.lineItem(id)
	if err != nil {
		return err
	}
	li.Description = item.Description
	li.Supplier = item.Manufacturer
	li.Unit = item.Unit
	li.DeliveryPrice = item.Price
	li.AssemblyPrice = item.Assembly
	li.MatchProbability = 1.0
	s.put(i, li)
	return nil
}

// Snapshot captures the rows sent to a recalculation together with their versions.
type Snapshot struct {
	Rows     []Row
	versions map[string]uint64
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := make(map[string]uint64, len(s.version))
	for id, v := range s.version {
		versions[id] = v
	}
	return Snapshot{Rows: cloneRows(s.rows), versions: versions}
}

// ApplyRecalculated replaces rows with the result of a recalculation of snap.
// The result must contain the same rows in the same order. Rows edited after
// the snapshot was taken are skipped and stay dirty, so a late result never
// overwrites a newer edit. It returns the number of rows applied.
func (s *Store) ApplyRecalculated(snap Snapshot, rows []Row) (int, error) {
	if len(rows) != len(snap.Rows) {
		return 0, fmt.Errorf("%w: got %d rows, want %d", ErrRowSetChanged, len(rows), len(snap.Rows))
	}
	for i, r := range rows {
		want := snap.Rows[i]
		if r == nil || r.RowID() != want.RowID() {
			return 0, fmt.Errorf("%w: row %d is not %s", ErrRowSetChanged, i, want.RowID())
		}
		if _, isHeader := want.(Header); isHeader {
			if _, ok := r.(Header); !ok {
				return 0, fmt.Errorf("%w: %s changed kind", ErrRowSetChanged, want.RowID())
			}
		} else if _, ok := r.(LineItem); !ok {
			return 0, fmt.Errorf("%w: %s changed kind", ErrRowSetChanged, want.RowID())
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for _, r := range rows {
		id := r.RowID()
		if s.version[id] != snap.versions[id] {
			continue
		}
		s.rows[s.pos[id]] = r
		delete(s.dirty, id)
		applied++
	}
	return applied, nil
}
