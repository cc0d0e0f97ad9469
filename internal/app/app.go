// Package app opens the database and wires stores, notifications and the
// HTTP handler from a Config. cmd/server and the CLI share it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"babis/internal/adapters/email"
	web "babis/internal/adapters/http"
	"babis/internal/adapters/storage"
	clientStore "babis/internal/adapters/storage/client"
	instructorStore "babis/internal/adapters/storage/instructor"
	"babis/internal/application/orchestrators"
	"babis/internal/application/projections"
	"babis/internal/config"
)

// MemoryDB selects an in-memory database.
const MemoryDB = ":memory:"

// shutdownTimeout bounds graceful shutdown in Serve.
const shutdownTimeout = 10 * time.Second

// App holds the opened database and the wired dependencies.
type App struct {
	Config   *config.Config
	DB       *storage.TimedDB
	Stores   *web.Stores
	Notifier orchestrators.Notifier // nil when notify_to is empty
}

// SetupLogging installs the default slog logger: text in development,
// JSON in production.
func SetupLogging(cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
	return nil
}

// Open opens the database, creates the schema and wires every store.
// PRE: cfg has been validated
// POST: The returned App owns the database; callers must Close it
func Open(cfg *config.Config) (*App, error) {
	// WAL mode, foreign keys and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.DBPath == MemoryDB {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	if err := storage.InitDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	timedDB := storage.NewTimedDB(db, cfg.SlowQueryMs)
	a := &App{
		Config: cfg,
		DB:     timedDB,
		Stores: &web.Stores{
			InstructorStore: instructorStore.NewSQLiteStore(timedDB),
			ClientStore:     clientStore.NewSQLiteStore(timedDB),
		},
	}

	if to := cfg.Recipients(); len(to) > 0 {
		var sender email.Sender
		if cfg.ResendAPIKey != "" {
			sender = email.NewResendSender(cfg.ResendAPIKey, cfg.NotifyFrom)
			slog.Info("email_sender", "kind", "resend", "recipients", len(to))
		} else {
			sender = email.NewNoopSender()
			slog.Info("email_sender", "kind", "noop", "hint", "set BABIS_RESEND_API_KEY for real delivery")
		}
		a.Notifier = email.NewNotifier(sender, cfg.NotifyFrom, to)
	}

	slog.Info("database_ready", "path", cfg.DBPath)
	return a, nil
}

// Close closes the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// RosterDeps returns the projection dependencies.
func (a *App) RosterDeps() projections.RosterDeps {
	return projections.RosterDeps{
		InstructorStore: a.Stores.InstructorStore,
		ClientStore:     a.Stores.ClientStore,
	}
}

// ImportDeps returns the import orchestrator dependencies.
func (a *App) ImportDeps() orchestrators.ImportRosterDeps {
	return orchestrators.ImportRosterDeps{
		InstructorStore: a.Stores.InstructorStore,
		ClientStore:     a.Stores.ClientStore,
	}
}

// Handler builds the HTTP handler with the middleware chain.
func (a *App) Handler() http.Handler {
	cfg := a.Config
	return web.NewMux(a.Stores, web.Options{
		CSRFKey:           []byte(cfg.CSRFKey),
		SecureCookies:     cfg.IsProduction(),
		AdminUser:         cfg.AdminUser,
		AdminPasswordHash: cfg.AdminPasswordHash,
		SlowRequestMs:     cfg.SlowRequestMs,
		PerPage:           cfg.PerPage,
		Notifier:          a.Notifier,
		QueryStats:        a.DB.Stats,
	})
}

// Serve listens on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Config.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("server_started", "addr", ln.Addr().String(), "env", a.Config.Env)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("server_stopped")
	return nil
}
