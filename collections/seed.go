package collections

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetpricing/pricing"
)

// ── Definition structs ───────────────────────────────────────────────────

type orderDef struct {
	name     string
	code     string
	customer string
	date     time.Time
	status   pricing.OrderStatus
}

type catalogueDef struct {
	id           string
	description  string
	manufacturer string
	code         string
	unit         string
	price        float64
	assembly     float64
	score        float64
	info         string
}

var seedOrders = []orderDef{
	{"Pelhřimov SPŠ a SOU Křemešnická", "088N", "Stavební firma s.r.o.", day(2026, 2, 9), pricing.OrderStatusInProgress},
	{"Bytový dům Praha 5", "089N", "Development Group", day(2026, 2, 8), pricing.OrderStatusNew},
	{"Rekonstrukce kanceláří Brno", "085N", "Office Parks a.s.", day(2026, 1, 25), pricing.OrderStatusCompleted},
}

var seedCatalogue = []catalogueDef{
	{"101", "Klimatizace nástěnná 3.5kW Set", "Daikin", "DAIK-35", "ks", 12500, 2500, 0.95, "R32, A++/A+, WiFi ready, 21dB"},
	{"102", "Klimatizace nástěnná 3.5kW Vnitřní", "Toshiba", "TOS-35-IN", "ks", 8900, 1500, 0.82, "R32, A++, Inverter, 10m max pipe"},
	{"103", "Klimatizace nástěnná 2.5kW Set", "LG", "LG-25", "ks", 11000, 2200, 0.76, "R32, A++/A+, Plasmaster Ionizer"},
	{"104", "Montážní sada pro klimatizace", "Generic", "MNT-SET", "kpl", 1500, 0, 0.45, "Wall brackets 450mm, 4x bolts, anti-vibration"},
	{"105", "Klimatizace Samsung WindFree 3.5kW", "Samsung", "SAM-WF-35", "ks", 13200, 2500, 0.72, "WindFree cooling, AI Auto Comfort, R32"},
	{"106", "Panasonic Etherea 3.5kW Set", "Panasonic", "PAN-ETH-35", "ks", 14500, 2500, 0.68, "Nanoe X, Built-in WiFi, A+++/A++"},
	{"107", "Mitsubishi MSZ-LN 3.5kW", "Mitsubishi", "MIT-LN-35", "ks", 16800, 2800, 0.65, "3D i-see sensor, Dual Barrier Coating, R32"},
	{"108", "Sinclair Terrel 3.5kW", "Sinclair", "SIN-TER-35", "ks", 9500, 2200, 0.60, "Plasma tec, Heater, I FEEL function"},
	{"109", "Gree Fairy 3.5kW Set", "Gree", "GREE-FAI-35", "ks", 9200, 2200, 0.55, "Cold plasma, Heated chassis, -22°C operation"},
	{"110", "Aux Freedom 3.5kW", "Aux", "AUX-FRE-35", "ks", 8500, 2000, 0.50, "Self-cleaning, 4D airflow, 0.5W standby"},
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Seed populates the orders and catalogue_items collections. Each collection
// is seeded only while it is empty, so Seed can run on every start.
func Seed(app *pocketbase.PocketBase) error {
	ordersCol, err := app.FindCollectionByNameOrId("orders")
	if err != nil {
		return fmt.Errorf("seed: could not find orders collection: %w", err)
	}
	catalogueCol, err := app.FindCollectionByNameOrId("catalogue_items")
	if err != nil {
		return fmt.Errorf("seed: could not find catalogue_items collection: %w", err)
	}

	if empty, err := isEmpty(app, ordersCol); err != nil {
		return err
	} else if empty {
		zap.L().Info("seed: orders collection is empty, inserting seed orders")
		for _, d := range seedOrders {
			r := core.NewRecord(ordersCol)
			r.Set("name", d.name)
			r.Set("code", d.code)
			r.Set("customer", d.customer)
			r.Set("date", d.date)
			r.Set("status", string(d.status))
			if err := app.Save(r); err != nil {
				return fmt.Errorf("seed: save order %q: %w", d.code, err)
			}
		}
	}

	if empty, err := isEmpty(app, catalogueCol); err != nil {
		return err
	} else if empty {
		zap.L().Info("seed: catalogue_items collection is empty, inserting seed catalogue")
		for _, d := range seedCatalogue {
			r := core.NewRecord(catalogueCol)
			r.Set("item_id", d.id)
			r.Set("description", d.description)
			r.Set("manufacturer", d.manufacturer)
			r.Set("code", d.code)
			r.Set("unit", d.unit)
			r.Set("price", d.price)
			r.Set("assembly", d.assembly)
			r.Set("score", d.score)
			r.Set("info", d.info)
			if err := app.Save(r); err != nil {
				return fmt.Errorf("seed: save catalogue item %q: %w", d.code, err)
			}
		}
	}
	return nil
}

func isEmpty(app *pocketbase.PocketBase, col *core.Collection) (bool, error) {
	existing, err := app.FindRecordsByFilter(col, "id != ''", "", 1, 0)
	if err != nil {
		return false, fmt.Errorf("seed: could not query %s: %w", col.Name, err)
	}
	return len(existing) == 0, nil
}
