package main

import (
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"go.uber.org/zap"

	"budgetpricing/collections"
	"budgetpricing/commands"
	"budgetpricing/config"
	"budgetpricing/handlers"
	"budgetpricing/logging"
	"budgetpricing/metrics"
	"budgetpricing/pricing"
	"budgetpricing/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	m := metrics.New()
	app := pocketbase.New()

	orders := services.OrderStore{App: app}
	sessions := pricing.NewRegistry(pricing.Deps{
		Intake:          services.BudgetIntake{Latency: cfg.Latency.Upload},
		Recalculator:    services.PassThroughRecalculator{Latency: cfg.Latency.Recompute},
		Searcher:        services.CatalogueSearch{App: app, Latency: cfg.Latency.Search},
		Exporter:        services.SpreadsheetExporter{Latency: cfg.Latency.Export},
		Observer:        m,
		Logger:          logger,
		TaskTimeout:     cfg.TaskTimeout,
		SearchLimit:     cfg.Catalogue.Limit,
		SearchThreshold: cfg.Catalogue.Threshold,
	}, cfg.Session.IdleTTL)

	app.RootCmd.AddCommand(commands.NewQuoteCommand(app, cfg.Seed))

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		if err := collections.Setup(app); err != nil {
			return err
		}
		if cfg.Seed {
			if err := collections.Seed(app); err != nil {
				logger.Warn("seed data failed", zap.Error(err))
			}
		}
		if err := collections.MigratePercentScores(app); err != nil {
			logger.Warn("catalogue score migration failed", zap.Error(err))
		}
		return se.Next()
	})

	app.Cron().MustAdd("pricing-session-sweep", cfg.Session.SweepSchedule, func() {
		if n := sessions.Sweep(time.Now()); n > 0 {
			logger.Info("swept idle pricing sessions", zap.Int("count", n), zap.Int("active", sessions.Len()))
		}
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.BindFunc(handlers.RequestMetrics(m))

		se.Router.GET("/metrics", apis.WrapStdHandler(m.Handler()))

		// ── Orders ───────────────────────────────────────────────
		se.Router.GET("/api/orders", handlers.HandleOrderList(orders))
		se.Router.GET("/api/orders/{id}", handlers.HandleOrderGet(orders))

		// ── Sessions and workflow ────────────────────────────────
		se.Router.POST("/api/sessions", handlers.HandleSessionCreate(sessions, orders))
		se.Router.GET("/api/sessions/{sessionId}", handlers.HandleSessionView(sessions))
		se.Router.DELETE("/api/sessions/{sessionId}", handlers.HandleSessionEnd(sessions))
		se.Router.POST("/api/sessions/{sessionId}/upload", handlers.HandleUpload(sessions))
		se.Router.POST("/api/sessions/{sessionId}/proceed", handlers.HandleProceed(sessions))
		se.Router.DELETE("/api/sessions/{sessionId}/banner", handlers.HandleBannerDismiss(sessions))

		// ── Rows ─────────────────────────────────────────────────
		se.Router.PATCH("/api/sessions/{sessionId}/rows/{rowId}", handlers.HandleRowUpdate(sessions))
		se.Router.POST("/api/sessions/{sessionId}/rows/{rowId}/reset", handlers.HandleRowReset(sessions))
		se.Router.POST("/api/sessions/{sessionId}/recompute", handlers.HandleRecompute(sessions))

		// ── Catalogue replacement ────────────────────────────────
		se.Router.POST("/api/sessions/{sessionId}/rows/{rowId}/catalogue", handlers.HandleCatalogueOpen(sessions))
		se.Router.GET("/api/sessions/{sessionId}/rows/{rowId}/catalogue", handlers.HandleCatalogueView(sessions))
		se.Router.DELETE("/api/sessions/{sessionId}/rows/{rowId}/catalogue", handlers.HandleCatalogueClose(sessions))
		se.Router.POST("/api/sessions/{sessionId}/rows/{rowId}/catalogue/search", handlers.HandleCatalogueSearch(sessions))
		se.Router.POST("/api/sessions/{sessionId}/rows/{rowId}/catalogue/select", handlers.HandleCatalogueSelect(sessions))

		// ── Export ───────────────────────────────────────────────
		se.Router.POST("/api/sessions/{sessionId}/export", handlers.HandleExportStart(sessions))
		se.Router.GET("/api/sessions/{sessionId}/export", handlers.HandleExportDownload(sessions))

		return se.Next()
	})

	if err := app.Start(); err != nil {
		logger.Fatal("app stopped", zap.Error(err))
	}
}
