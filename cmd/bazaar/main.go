package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/nasermirzaei89/bazaar"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx := context.Background()

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.WarnContext(ctx, "failed to load .env file", "error", err)
	}

	cfg := bazaar.LoadConfig()

	initLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	app := &cli.App{
		Name:  "bazaar",
		Usage: "vote ledger and moderation engine for the parts marketplace",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Action: func(cctx *cli.Context) error {
					return runServe(cctx, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:  "up",
						Usage: "apply all pending migrations",
						Action: func(cctx *cli.Context) error {
							return runMigrateUp(cctx, cfg)
						},
					},
					{
						Name:  "down",
						Usage: "revert all migrations",
						Action: func(cctx *cli.Context) error {
							return runMigrateDown(cctx, cfg)
						},
					},
				},
			},
			{
				Name:  "reconcile",
				Usage: "compare denormalized counters with their source rows",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "fix",
						Usage: "rewrite drifted counters",
					},
				},
				Action: func(cctx *cli.Context) error {
					return runReconcile(cctx, cfg)
				},
			},
		},
	}

	err = app.RunContext(ctx, os.Args)
	if err != nil {
		slog.ErrorContext(ctx, "failed to run command", "error", err)
		os.Exit(1)
	}
}
