// Package services provides the collaborators of the pricing workflow: budget
// intake, recalculation, catalogue search, order lookup and export rendering.
package services

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"budgetpricing/pricing"
)

// BudgetExtensions are the accepted budget file extensions.
var BudgetExtensions = []string{".xlsx", ".xlsm"}

// ValidateBudgetFile checks the file name of an uploaded budget.
func ValidateBudgetFile(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: no file", pricing.ErrUnsupportedFile)
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range BudgetExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q, expected one of %s", pricing.ErrUnsupportedFile, name, strings.Join(BudgetExtensions, ", "))
}

// BudgetIntake accepts an uploaded budget and returns its rows. Budget
// parsing is not implemented; every accepted upload yields the same
// Pelhřimov budget after the configured processing latency.
type BudgetIntake struct {
	Latency time.Duration
}

func (b BudgetIntake) Process(ctx context.Context, up pricing.Upload) ([]pricing.Row, error) {
	if err := ValidateBudgetFile(up.Name); err != nil {
		return nil, err
	}
	if len(up.Data) > 0 {
		if err := checkWorkbook(up.Data); err != nil {
			return nil, err
		}
	}
	if err := wait(ctx, b.Latency); err != nil {
		return nil, err
	}
	return PelhrimovBudget(), nil
}

// checkWorkbook verifies that data opens as a workbook with at least one sheet.
func checkWorkbook(data []byte) error {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: failed to open Excel file: %v", pricing.ErrUnsupportedFile, err)
	}
	defer f.Close()

	if len(f.GetSheetList()) == 0 {
		return fmt.Errorf("%w: workbook has no sheets", pricing.ErrUnsupportedFile)
	}
	return nil
}

// PelhrimovBudget is the seed budget every upload resolves to.
func PelhrimovBudget() []pricing.Row {
	return []pricing.Row{
		pricing.Header{ID: "h1", Label: "Chlazení - Multisplit"},
		pricing.LineItem{ID: "1", Index: "1.1", Supplier: "Daikin", Position: "K1", Description: "Venkovní jednotka 3MXM52N", Unit: "ks", MatchProbability: 0.95, Inputs: pricing.NewInputs(15, 1, 45000, 3500)},
		pricing.LineItem{ID: "2", Index: "1.2", Supplier: "Daikin", Position: "K1.1", Description: "Vnitřní jednotka FTXM25N", Unit: "ks", MatchProbability: 0.85, Inputs: pricing.NewInputs(15, 2, 12500, 2500)},
		pricing.LineItem{ID: "3", Index: "1.3", Supplier: "Daikin", Position: "K1.2", Description: "Vnitřní jednotka FTXM35N", Unit: "ks", MatchProbability: 0.65, Inputs: pricing.NewInputs(15, 1, 14500, 2500)},
		pricing.Header{ID: "h2", Label: "Rozvody chladu"},
		pricing.LineItem{ID: "4", Index: "2.1", Supplier: "Generic", Description: "CU potrubí 6/10 izolované", Unit: "m", MatchProbability: 0.45, Inputs: pricing.NewInputs(0, 45, 280, 120)},
		pricing.LineItem{ID: "5", Index: "2.2", Supplier: "Generic", Description: "Kabel CYKY-J 3x1.5", Unit: "m", MatchProbability: 0.9, Inputs: pricing.NewInputs(0, 60, 18, 25)},
		pricing.LineItem{ID: "6", Index: "2.3", Supplier: "Aspen", Description: "Čerpadlo kondenzátu Mini Orange", Unit: "ks", MatchProbability: 0.75, Inputs: pricing.NewInputs(10, 3, 2100, 800)},
	}
}

// PassThroughRecalculator stands in for the live price service: it waits the
// configured latency and returns the rows unchanged.
type PassThroughRecalculator struct {
	Latency time.Duration
}

func (p PassThroughRecalculator) Recalculate(ctx context.Context, rows []pricing.Row) ([]pricing.Row, error) {
	if err := wait(ctx, p.Latency); err != nil {
		return nil, err
	}
	out := make([]pricing.Row, len(rows))
	copy(out, rows)
	return out, nil
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
