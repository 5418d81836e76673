package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetpricing/pricing"
)

// Setup programmatically creates/ensures the orders and catalogue_items
// collections exist.
func Setup(app *pocketbase.PocketBase) error {
	statuses := make([]string, len(pricing.OrderStatuses))
	for i, s := range pricing.OrderStatuses {
		statuses[i] = string(s)
	}

	_, err := ensureCollection(app, "orders", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "code", Required: true})
		c.Fields.Add(&core.TextField{Name: "customer"})
		c.Fields.Add(&core.DateField{Name: "date"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    statuses,
			MaxSelect: 1,
		})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_orders_code", true, "code", "")
	})
	if err != nil {
		return err
	}

	// Number fields stay optional: a required number rejects zero.
	_, err = ensureCollection(app, "catalogue_items", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "item_id", Required: true})
		c.Fields.Add(&core.TextField{Name: "code", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "manufacturer"})
		c.Fields.Add(&core.TextField{Name: "unit", Required: true})
		c.Fields.Add(&core.NumberField{Name: "price"})
		c.Fields.Add(&core.NumberField{Name: "assembly"})
		c.Fields.Add(&core.NumberField{Name: "score"})
		c.Fields.Add(&core.TextField{Name: "info"})
		c.AddIndex("idx_catalogue_items_item_id", true, "item_id", "")
		c.AddIndex("idx_catalogue_items_code", true, "code", "")
	})
	return err
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) (*core.Collection, error) {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		zap.L().Debug("collection already exists", zap.String("collection", name))
		return existing, nil
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	zap.L().Info("created collection", zap.String("collection", name), zap.String("id", collection.Id))
	return collection, nil
}
