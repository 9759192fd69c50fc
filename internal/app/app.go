package app

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"dynhttp/internal/config"
	"dynhttp/internal/note"
	"dynhttp/internal/platform/logger"
	"dynhttp/internal/platform/pg"
	"dynhttp/internal/platform/retry"
	"dynhttp/internal/platform/sqlite"
	"dynhttp/internal/shared"
	"dynhttp/pkg/httperr"
)

const shutdownTimeout = 5 * time.Second

// App wires application components.
type App struct {
	cfg config.Config
	log *slog.Logger
}

// New creates a new App instance and loads configuration.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Env:          cfg.Env,
		ConsoleLevel: cfg.Log.ConsoleLevel,
		FileLevel:    cfg.Log.FileLevel,
		File:         cfg.Log.File,
		App:          "notes",
	})
	return &App{cfg: cfg, log: log}, nil
}

// Run opens the database, serves HTTP and shuts down on SIGINT or SIGTERM.
func (a *App) Run() error {
	defer func() { _ = logger.Close(a.log) }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.log.Info("starting",
		slog.String("addr", a.cfg.HTTP.Addr),
		slog.String("db_driver", a.cfg.DB.Driver),
		slog.String("renderer", a.cfg.Errors.Renderer),
		slog.Bool("hide_internal_detail", a.cfg.Errors.HideInternalDetail),
	)

	db, closeDB, err := a.openDB(ctx)
	if err != nil {
		return shared.Wrap(err, "open database")
	}
	defer closeDB()

	fsys, dir := migrationSource(a.cfg)
	if err := note.Migrate(db, a.cfg.DB.Driver, fsys, dir); err != nil {
		return shared.Wrap(err, "migrate database")
	}

	if a.cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.handler(note.NewStore(db)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return shared.Wrap(err, "serve http")
		}
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// handler picks the renderer named in the configuration.
func (a *App) handler(store *note.Store) http.Handler {
	opts := a.cfg.ErrorOptions()
	switch a.cfg.Errors.Renderer {
	case "json":
		return NewRouter(httperr.New[httperr.JSONRenderer](opts, a.log), store, a.log)
	case "problem":
		return NewRouter(httperr.New[httperr.ProblemRenderer](opts, a.log), store, a.log)
	default:
		return NewRouter(httperr.NewText(opts, a.log), store, a.log)
	}
}

// openDB connects to the configured database. PostgreSQL is retried with
// backoff since it may still be starting.
func (a *App) openDB(ctx context.Context) (*sql.DB, func(), error) {
	if a.cfg.DB.Driver == "postgres" {
		var (
			db      *sql.DB
			closeFn func()
		)
		cfg := retry.DefaultConfig()
		cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
			a.log.Warn("database not ready",
				slog.Int("attempt", attempt),
				slog.Duration("retry_in", delay),
				slog.Any("err", err),
			)
		}
		err := retry.Do(ctx, cfg, func(ctx context.Context) error {
			var err error
			db, closeFn, err = pg.OpenDB(ctx, a.cfg.DB.DSN)
			return err
		}, pg.IsTransient)
		if err != nil {
			return nil, nil, shared.MarkKind(err, shared.KindDependencyFailure)
		}
		return db, closeFn, nil
	}
	db, err := sqlite.NewDB(ctx, a.cfg.DB.Path)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

// migrationSource returns the embedded schema unless DB_MIGRATIONS points
// at a directory on disk.
func migrationSource(cfg config.Config) (fs.FS, string) {
	if cfg.DB.Migrations != "" {
		return os.DirFS(cfg.DB.Migrations), "."
	}
	return note.Migrations, note.MigrationsDir(cfg.DB.Driver)
}
