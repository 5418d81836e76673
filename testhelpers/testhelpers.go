// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"budgetpricing/collections"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	if err := collections.Setup(app); err != nil {
		t.Fatalf("failed to set up collections: %v", err)
	}

	return app
}

// CreateTestOrder creates an order record and returns it.
func CreateTestOrder(t *testing.T, app *pocketbase.PocketBase, name, code, status string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("orders")
	if err != nil {
		t.Fatalf("failed to find orders collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("code", code)
	record.Set("customer", "Test Customer")
	record.Set("date", time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))
	record.Set("status", status)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test order: %v", err)
	}

	return record
}

// CreateTestCatalogueItem creates a catalogue item with the given item id,
// code, prices and match score.
func CreateTestCatalogueItem(t *testing.T, app *pocketbase.PocketBase, itemID, code string, price, assembly, score float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("catalogue_items")
	if err != nil {
		t.Fatalf("failed to find catalogue_items collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("item_id", itemID)
	record.Set("code", code)
	record.Set("description", "Catalogue item "+code)
	record.Set("manufacturer", "Test")
	record.Set("unit", "ks")
	record.Set("price", price)
	record.Set("assembly", assembly)
	record.Set("score", score)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test catalogue item: %v", err)
	}

	return record
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
