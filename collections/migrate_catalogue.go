package collections

import (
	"fmt"

	"github.com/pocketbase/pocketbase"
	"go.uber.org/zap"
)

// MigratePercentScores rescales catalogue_items.score values stored as
// percentages (0..100) into the 0..1 range the search threshold uses.
// Safe to call on every startup -- returns early if nothing to migrate.
func MigratePercentScores(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId("catalogue_items")
	if err != nil {
		return fmt.Errorf("migrate: could not find catalogue_items collection: %w", err)
	}

	scaled, err := app.FindRecordsByFilter(col, "score > 1", "", 0, 0, nil)
	if err != nil {
		return fmt.Errorf("migrate: could not query percent scores: %w", err)
	}
	if len(scaled) == 0 {
		return nil
	}

	log := zap.L().With(zap.String("collection", col.Name))
	log.Info("migrate: rescaling percent scores", zap.Int("count", len(scaled)))

	for _, rec := range scaled {
		score := rec.GetFloat("score") / 100
		if score > 1 {
			score = 1
		}
		rec.Set("score", score)
		if err := app.Save(rec); err != nil {
			log.Warn("migrate: failed to rescale score",
				zap.String("item_id", rec.GetString("item_id")), zap.Error(err))
			continue
		}
	}

	log.Info("migrate: percent score migration complete")
	return nil
}
