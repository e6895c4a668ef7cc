package bazaar

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/bazaar/contents"
	"github.com/nasermirzaei89/bazaar/db/sqlite3"
	"github.com/nasermirzaei89/bazaar/discuss"
	"github.com/nasermirzaei89/bazaar/metrics"
	"github.com/nasermirzaei89/bazaar/moderation"
	"github.com/nasermirzaei89/bazaar/notify"
	"github.com/nasermirzaei89/bazaar/notify/natsnotify"
	"github.com/nasermirzaei89/bazaar/reports"
	"github.com/nasermirzaei89/bazaar/server"
	"github.com/nasermirzaei89/bazaar/users"
	"github.com/nasermirzaei89/bazaar/votes"
	"github.com/nasermirzaei89/bazaar/web"
)

type App struct {
	server    *server.Server
	handler   *web.Handler
	db        *sql.DB
	publisher *natsnotify.Publisher
}

func NewApp(ctx context.Context, cfg Config) (*App, error) {
	db, err := sqlite3.NewDB(ctx, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	app := &App{
		server: &cfg.Server,
		db:     db,
	}

	var notifier notify.Notifier = notify.LogNotifier{}

	if cfg.NATSURL != "" {
		app.publisher, err = natsnotify.Connect(cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("failed to create notifier: %w", err)
		}

		notifier = app.publisher
	}

	m := metrics.New()

	userRepo := sqlite3.NewUserRepository(db)
	postRepo := sqlite3.NewPostRepository(db)
	listingRepo := sqlite3.NewListingRepository(db)
	imageRepo := sqlite3.NewImageRepository(db)
	commentRepo := sqlite3.NewCommentRepository(db)
	voteRepo := sqlite3.NewVoteRepository(db)
	reportRepo := sqlite3.NewReportRepository(db)

	usersSvc := users.NewService(userRepo)

	services := web.Services{
		Users:      usersSvc,
		Contents:   contents.NewService(postRepo, listingRepo, imageRepo, usersSvc),
		Discuss:    discuss.NewService(commentRepo, usersSvc),
		Votes:      votes.NewService(voteRepo, m),
		Reports:    reports.NewService(reportRepo, sqlite3.NewItemResolver(db), notifier, m),
		Moderation: moderation.NewExecutor(sqlite3.NewModerationStore(db), notifier, m),
	}

	cookieStore := sessions.NewCookieStore(cfg.SessionKey)

	app.handler = web.NewHandler(services, cookieStore, cfg.SessionName, m.Handler())

	return app, nil
}

func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer app.close(ctx)

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func (app *App) close(ctx context.Context) {
	if app.publisher != nil {
		err := app.publisher.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close notifier", "error", err)
		}
	}

	if app.db != nil {
		err := app.db.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close database", "error", err)
		}
	}
}
