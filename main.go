package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MGallo-Code/bungie-verify/internal/callback"
	"github.com/MGallo-Code/bungie-verify/internal/config"
	"github.com/MGallo-Code/bungie-verify/internal/oauth"
	"github.com/MGallo-Code/bungie-verify/internal/store"
	"github.com/MGallo-Code/bungie-verify/internal/verify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Embeds the migration files INTO the go bin

//go:embed migrations/*.sql
var migrationsDir embed.FS

func main() {
	// Load config first so we can set log level
	cfg, err := config.LoadConfig()
	if err != nil {
		// Fallback logger before config is available
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}

	// Include source location in log entries at debug level only.
	addSrc := cfg.LogLevel == slog.LevelDebug

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     cfg.LogLevel,
		AddSource: addSrc,
	})))

	// Cancel ctx on SIGINT/SIGTERM; run() shuts down when ctx is done.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, nil); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// run holds all server logic and returns error instead of calling os.Exit,
// so deferred resource cleanup (record store close) always runs.
// Shuts down when ctx is cancelled.
// If ready is non-nil, the server's base URL is sent on it once the listener is bound.
func run(ctx context.Context, cfg *config.Config, ready chan<- string) error {
	rs, closeStore, err := openRecordStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	bungie := oauth.NewBungieProvider(oauth.BungieOptions{
		ClientID:       cfg.BungieClientID,
		ClientSecret:   cfg.BungieClientSecret,
		APIKey:         cfg.BungieAPIKey,
		RedirectURL:    cfg.RedirectURI,
		BaseURL:        cfg.BungieBaseURL,
		Timeout:        cfg.BungieTimeout,
		LegacyIdentity: cfg.IdentityMode == config.IdentityLegacy,
	})

	h := callback.Handler{
		Verifier: &verify.Verifier{Provider: bungie},
		Auth:     bungie,
		Records:  rs,
	}

	// Bind listener; ":0" picks a free port (useful in tests).
	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{Handler: buildRouter(&h)}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("bungie-verify listening", "addr", ln.Addr().String(), "record_store", cfg.RecordStore)
		// Send error only if server stops for a reason other than explicit shutdown.
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Signal readiness to caller (used by tests; nil in production).
	if ready != nil {
		ready <- "http://" + ln.Addr().String()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	// In-flight callbacks get 30s to finish, including their record update.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// openRecordStore builds the backend selected by cfg.RecordStore.
// The returned close func is always non-nil.
func openRecordStore(ctx context.Context, cfg *config.Config) (store.RecordStore, func(), error) {
	noop := func() {}

	switch cfg.RecordStore {
	case config.StoreAirtable:
		return store.NewAirtableStore(store.AirtableOptions{
			APIKey:  cfg.AirtableAPIKey,
			BaseID:  cfg.AirtableBaseID,
			Table:   cfg.AirtableTableName,
			BaseURL: cfg.AirtableBaseURL,
		}), noop, nil

	case config.StorePostgres:
		ps, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to set up postgres store: %w", err)
		}
		migrationsFS, err := fs.Sub(migrationsDir, "migrations")
		if err != nil {
			ps.Close()
			return nil, noop, fmt.Errorf("failed to access embedded migrations: %w", err)
		}
		if err := ps.Migrate(ctx, migrationsFS); err != nil {
			ps.Close()
			return nil, noop, fmt.Errorf("failed to run migrations: %w", err)
		}
		return ps, ps.Close, nil

	case config.StoreRedis:
		rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to set up redis client: %w", err)
		}
		return store.NewRedisStore(rdb), func() { rdb.Close() }, nil

	default:
		slog.Warn("record store disabled; verifications will not be persisted")
		return store.NopStore{}, noop, nil
	}
}

// buildRouter wires all routes and middleware.
// Called from run() and from smoke tests.
func buildRouter(h *callback.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", h.Home)
	r.Get("/callback", h.Callback)
	r.Get("/authorize", h.Authorize)
	r.Get("/health", h.CheckHealth)

	return r
}
