package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"budgetpricing/pricing"
)

// OrderStore reads orders from the orders collection. Orders are never
// written by the pricing workflow.
type OrderStore struct {
	App *pocketbase.PocketBase
}

func (s OrderStore) GetOrder(_ context.Context, id string) (*pricing.Order, error) {
	rec, err := s.App.FindRecordById("orders", id)
	if err != nil {
		return nil, lookupError(id, err)
	}
	o, err := orderFromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderByCode looks an order up by its short code, e.g. "088N".
func (s OrderStore) GetOrderByCode(_ context.Context, code string) (*pricing.Order, error) {
	rec, err := s.App.FindFirstRecordByData("orders", "code", code)
	if err != nil {
		return nil, lookupError(code, err)
	}
	o, err := orderFromRecord(rec)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns orders newest first. A non-empty query keeps orders
// whose name, code or customer contains it.
func (s OrderStore) ListOrders(_ context.Context, query string) ([]pricing.Order, error) {
	filter := "id != ''"
	params := map[string]any{}
	if q := strings.TrimSpace(query); q != "" {
		filter = "name ~ {:q} || code ~ {:q} || customer ~ {:q}"
		params["q"] = q
	}

	records, err := s.App.FindRecordsByFilter("orders", filter, "-date,code", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]pricing.Order, 0, len(records))
	for _, rec := range records {
		o, err := orderFromRecord(rec)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// lookupError maps a missing record to ErrOrderNotFound and keeps any other
// failure as is.
func lookupError(key string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", pricing.ErrOrderNotFound, key)
	}
	return fmt.Errorf("find order %s: %w", key, err)
}

func orderFromRecord(rec *core.Record) (pricing.Order, error) {
	status, err := pricing.ParseOrderStatus(rec.GetString("status"))
	if err != nil {
		return pricing.Order{}, fmt.Errorf("order %s: %w", rec.Id, err)
	}
	return pricing.Order{
		ID:       rec.Id,
		Name:     rec.GetString("name"),
		Code:     rec.GetString("code"),
		Customer: rec.GetString("customer"),
		Date:     rec.GetDateTime("date").Time(),
		Status:   status,
	}, nil
}
