package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"budgetpricing/pricing"
)

// CatalogueSearch serves catalogue queries from the catalogue_items collection.
// Relevance is the score stored with each item; no text matching is done.
type CatalogueSearch struct {
	App     *pocketbase.PocketBase
	Latency time.Duration
}

func (c CatalogueSearch) Search(ctx context.Context, q pricing.SearchQuery) ([]pricing.CatalogueItem, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := wait(ctx, c.Latency); err != nil {
		return nil, err
	}

	records, err := c.App.FindRecordsByFilter(
		"catalogue_items",
		"score >= {:threshold}",
		"-score,code",
		q.Limit,
		0,
		map[string]any{"threshold": q.Threshold},
	)
	if err != nil {
		return nil, fmt.Errorf("query catalogue: %w", err)
	}

	items := make([]pricing.CatalogueItem, 0, len(records))
	for _, rec := range records {
		items = append(items, catalogueItemFromRecord(rec))
	}
	return items, nil
}

func catalogueItemFromRecord(rec *core.Record) pricing.CatalogueItem {
	return pricing.CatalogueItem{
		ID:           rec.GetString("item_id"),
		Description:  rec.GetString("description"),
		Manufacturer: rec.GetString("manufacturer"),
		Code:         rec.GetString("code"),
		Unit:         rec.GetString("unit"),
		Price:        decimal.NewFromFloat(rec.GetFloat("price")),
		Assembly:     decimal.NewFromFloat(rec.GetFloat("assembly")),
		Score:        rec.GetFloat("score"),
		Info:         rec.GetString("info"),
	}
}
