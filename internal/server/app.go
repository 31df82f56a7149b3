// Package server wires the club services together and runs the HTTP server
// until the process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bridgeclub/clubhouse/internal/logging"
	"github.com/bridgeclub/clubhouse/internal/server/auth"
	"github.com/bridgeclub/clubhouse/internal/server/config"
	"github.com/bridgeclub/clubhouse/internal/server/httpserver"
	"github.com/bridgeclub/clubhouse/internal/server/objectstore"
	"github.com/bridgeclub/clubhouse/internal/server/repositories/repomanager"
	"github.com/bridgeclub/clubhouse/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpserver.Server
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	level := slog.LevelInfo
	if c.IsDevelopment() {
		level = slog.LevelDebug
	}
	logger := logging.NewJSON(os.Stdout, level)

	db, rm, err := openDB(ctx, c)
	if err != nil {
		return nil, err
	}

	store, err := objectstore.New(ctx, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	users := services.NewUserService(db, rm, logger)
	groups := services.NewGroupService(db, rm, logger)
	events := services.NewEventService(db, rm, groups, logger)

	srv := httpserver.New(c.HTTPAddr, logger, httpserver.Deps{
		Sessions:  auth.NewCodec(c.SessionSecret, c.SessionTTL, !c.IsDevelopment(), logger),
		Users:     users,
		Groups:    groups,
		Files:     services.NewFileService(groups, store, logger),
		Events:    events,
		Messages:  services.NewMessageService(db, rm, groups, logger),
		Dashboard: services.NewDashboardService(users, groups, events),
		DB:        db,
	})

	return &App{config: c, logger: logger, db: db, http: srv}, nil
}

// Migrate applies pending schema migrations and returns.
func Migrate(ctx context.Context, c *config.Config) error {
	db, _, err := openDB(ctx, c)
	if err != nil {
		return err
	}
	return db.Close()
}

// openDB opens the pgx pool and brings the schema up to date.
func openDB(ctx context.Context, c *config.Config) (*sql.DB, repomanager.RepositoryManager, error) {
	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	db.SetMaxOpenConns(c.DatabaseMaxConns)

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migration error: %w", err)
	}
	return db, rm, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or the HTTP server fails, then closes
// the database pool.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "env", app.config.Environment)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
