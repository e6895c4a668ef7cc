package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/nasermirzaei89/bazaar"
	"github.com/nasermirzaei89/bazaar/db/sqlite3"
	"github.com/urfave/cli/v2"
)

func runServe(cctx *cli.Context, cfg bazaar.Config) error {
	app, err := bazaar.NewApp(cctx.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return app.Run(cctx.Context)
}

func withDB(cctx *cli.Context, cfg bazaar.Config, fn func(db *sql.DB) error) error {
	db, err := sqlite3.NewDB(cctx.Context, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	defer func() {
		err := db.Close()
		if err != nil {
			slog.ErrorContext(cctx.Context, "failed to close database", "error", err)
		}
	}()

	return fn(db)
}

func runMigrateUp(cctx *cli.Context, cfg bazaar.Config) error {
	return withDB(cctx, cfg, func(db *sql.DB) error {
		return sqlite3.MigrateUp(cctx.Context, db)
	})
}

func runMigrateDown(cctx *cli.Context, cfg bazaar.Config) error {
	return withDB(cctx, cfg, sqlite3.MigrateDown)
}

func runReconcile(cctx *cli.Context, cfg bazaar.Config) error {
	return withDB(cctx, cfg, func(db *sql.DB) error {
		reconciler := sqlite3.NewReconciler(db)

		drifts, err := reconciler.Check(cctx.Context)
		if err != nil {
			return fmt.Errorf("failed to check counters: %w", err)
		}

		for _, drift := range drifts {
			slog.WarnContext(cctx.Context, "counter drift",
				"kind", drift.Kind,
				"table", drift.Table,
				"id", drift.ID,
				"actual", drift.Actual,
				"expected", drift.Expected,
			)
		}

		slog.InfoContext(cctx.Context, "reconcile check finished", "drifts", len(drifts))

		if !cctx.Bool("fix") || len(drifts) == 0 {
			return nil
		}

		fixed, err := reconciler.Fix(cctx.Context)
		if err != nil {
			return fmt.Errorf("failed to fix counters: %w", err)
		}

		slog.InfoContext(cctx.Context, "counters fixed", "rows", fixed)

		return nil
	})
}
