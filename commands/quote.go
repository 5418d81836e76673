// Package commands holds the sub-commands registered on the PocketBase root
// command.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"budgetpricing/collections"
	"budgetpricing/pricing"
	"budgetpricing/services"
)

// QuoteOptions configures a headless pricing run.
type QuoteOptions struct {
	OrderCode string
	Out       string
	Format    string
	Seed      bool
	Timeout   time.Duration
}

// NewQuoteCommand returns the quote command. It prices an order end to end
// without the web UI and writes the export to disk.
func NewQuoteCommand(app *pocketbase.PocketBase, seed bool) *cobra.Command {
	opts := QuoteOptions{Seed: seed}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price an order and write the budget export",
		Long: `Run a full pricing session for an order: upload the budget when the
order has none yet, recalculate, proceed to export and write the file.

Examples:
  budgetpricing quote --order 088N
  budgetpricing quote --order 089N --format pdf --out ./quotes/089N.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := collections.Setup(app); err != nil {
				return fmt.Errorf("setup collections: %w", err)
			}
			if opts.Seed {
				if err := collections.Seed(app); err != nil {
					return fmt.Errorf("seed: %w", err)
				}
			}
			_, err := RunQuote(cmd.Context(), app, opts, cmd.OutOrStdout())
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.OrderCode, "order", "o", "", "order code, e.g. 088N")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output file (default: the export file name in the current directory)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", string(pricing.FormatXLSX), "export format (xlsx, pdf)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "limit for each pricing step")
	_ = cmd.MarkFlagRequired("order")

	return cmd
}

// RunQuote drives one pricing session through every step with zero-latency
// collaborators and returns the grand total of the exported budget.
func RunQuote(ctx context.Context, app *pocketbase.PocketBase, opts QuoteOptions, w io.Writer) (decimal.Decimal, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := pricing.ParseExportFormat(opts.Format)
	if err != nil {
		return decimal.Zero, err
	}

	orders := services.OrderStore{App: app}
	order, err := orders.GetOrderByCode(ctx, opts.OrderCode)
	if err != nil {
		return decimal.Zero, err
	}

	registry := pricing.NewRegistry(pricing.Deps{
		Intake:       services.BudgetIntake{},
		Recalculator: services.PassThroughRecalculator{},
		Searcher:     services.CatalogueSearch{App: app},
		Exporter:     services.SpreadsheetExporter{},
		Logger:       zap.L(),
		TaskTimeout:  opts.Timeout,
	}, 0)

	s, err := registry.Create(ctx, order)
	if err != nil {
		return decimal.Zero, fmt.Errorf("open session: %w", err)
	}
	defer registry.End(s.ID())

	await := func(t *pricing.Task, err error) error {
		if err != nil {
			return err
		}
		return t.Wait(ctx)
	}

	if s.Step() == pricing.StepUpload {
		if err := await(s.StartUpload(ctx, pricing.Upload{Name: pricing.DefaultBudgetFile})); err != nil {
			return decimal.Zero, fmt.Errorf("upload: %w", err)
		}
	}
	if s.Step() == pricing.StepPrice {
		if err := await(s.StartRecompute(ctx)); err != nil {
			return decimal.Zero, fmt.Errorf("recompute: %w", err)
		}
		if err := s.Proceed(); err != nil {
			return decimal.Zero, err
		}
	}
	if err := await(s.StartExport(ctx, format)); err != nil {
		return decimal.Zero, fmt.Errorf("export: %w", err)
	}

	art, err := s.Artifact()
	if err != nil {
		return decimal.Zero, err
	}
	out := opts.Out
	if out == "" {
		out = art.FileName
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return decimal.Zero, fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, art.Data, 0o644); err != nil {
		return decimal.Zero, fmt.Errorf("write export: %w", err)
	}

	view := s.View()
	fmt.Fprintf(w, "Order %s (%s)\n", order.Code, order.Name)
	fmt.Fprintf(w, "  Items:       %d\n", countItems(view.Rows))
	fmt.Fprintf(w, "  Grand total: %s\n", services.FormatCZK(view.GrandTotal))
	fmt.Fprintf(w, "  Written to:  %s\n", out)
	return view.GrandTotal, nil
}

func countItems(rows []pricing.RowView) int {
	n := 0
	for _, r := range rows {
		if r.Kind == pricing.KindItem {
			n++
		}
	}
	return n
}
