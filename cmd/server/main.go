package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"outreach/internal/adapters/email"
	web "outreach/internal/adapters/http"
	"outreach/internal/adapters/http/middleware"
	"outreach/internal/adapters/http/perf"
	"outreach/internal/adapters/metrics"
	"outreach/internal/adapters/realtime"
	"outreach/internal/adapters/storage"
	attendeeStore "outreach/internal/adapters/storage/attendee"
	eventStore "outreach/internal/adapters/storage/event"
	leadStore "outreach/internal/adapters/storage/lead"
	permissionStore "outreach/internal/adapters/storage/permission"
	profileStore "outreach/internal/adapters/storage/profile"
	"outreach/internal/application/orchestrators"
	"outreach/internal/config"
	"outreach/internal/platform/sl"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	root := &cobra.Command{
		Use:           "outreach",
		Short:         "Event registration and lead follow-up",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), grantCmd(), seedCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("command_failed", sl.Err(err))
		os.Exit(1)
	}
}

// app is everything a command needs once the database is open.
type app struct {
	cfg       config.Config
	db        *storage.DB
	close     func() error
	stores    *web.Stores
	collector *perf.Collector
	metrics   *metrics.Metrics
}

// openApp loads config, opens and migrates the database, and builds the stores.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	raw, dialect, err := storage.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	m := metrics.New()
	timed := storage.NewTimedDB(raw, time.Duration(cfg.SlowQueryMs)*time.Millisecond, collector, m)
	db := storage.New(timed, dialect)

	if err := storage.MigrateDB(ctx, db); err != nil {
		raw.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	schema, _ := storage.SchemaVersion(ctx, db)
	slog.Info("database_ready", "driver", cfg.DBDriver, "schema", schema)

	return &app{
		cfg:   cfg,
		db:    db,
		close: raw.Close,
		stores: &web.Stores{
			ProfileStore:    profileStore.NewSQLStore(db),
			PermissionStore: permissionStore.NewSQLStore(db),
			EventStore:      eventStore.NewSQLStore(db),
			AttendeeStore:   attendeeStore.NewSQLStore(db),
			LeadStore:       leadStore.NewSQLStore(db),
		},
		collector: collector,
		metrics:   m,
	}, nil
}

func (a *app) createDeps() orchestrators.CreateProfileDeps {
	return orchestrators.CreateProfileDeps{Profiles: a.stores.ProfileStore, Permissions: a.stores.PermissionStore}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	created, err := orchestrators.ExecuteSeedSuperAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, orchestrators.SeedSuperAdminDeps{
		CreateProfileDeps: a.createDeps(),
		Counter:           a.stores.ProfileStore,
	})
	if err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}
	if created {
		slog.Info("super_admin_seeded", "email", cfg.AdminEmail)
	}

	sessions, err := sessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	var mailer email.Sender = email.LogSender{}
	if cfg.ResendKey != "" {
		mailer = email.NewResendSender(cfg.ResendKey, cfg.EmailFrom, cfg.ReplyTo)
		slog.Info("email_configured", "provider", "resend")
	} else if cfg.IsProduction() {
		slog.Warn("email_disabled", "detail", "OUTREACH_RESEND_KEY is not set; emails are logged, not sent")
	}

	// On Postgres the row-change triggers feed the hub through LISTEN, so
	// writes must not publish a second time.
	hub := realtime.NewHub()
	defer hub.Close()
	var publisher realtime.Publisher = hub
	if cfg.DBDriver == config.DriverPostgres {
		publisher = realtime.Discard{}
		listener := realtime.NewPGListener(cfg.DatabaseURL, storage.NotifyChannel, hub)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("pg_listener_stopped", sl.Err(err))
			}
		}()
	}

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	var tokens *middleware.TokenIssuer
	if cfg.JWTSecret != "" {
		tokens = middleware.NewTokenIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	}

	handler := web.NewMux(ctx, a.stores, web.Options{
		BaseURL:            cfg.BaseURL,
		Location:           cfg.Location(),
		Secure:             cfg.IsProduction(),
		CSRFKey:            csrfKey,
		Sessions:           sessions,
		SessionTTL:         cfg.SessionTTL,
		Tokens:             tokens,
		Mailer:             mailer,
		Hub:                hub,
		Publisher:          publisher,
		Collector:          a.collector,
		Metrics:            a.metrics,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		SlowRequest:        time.Duration(cfg.SlowRequestMs) * time.Millisecond,
		Debounce:           cfg.RealtimeDebounce,
	})

	if cfg.MetricsAddr != "" {
		go a.metrics.Serve(ctx, cfg.MetricsAddr)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "timezone", cfg.Timezone)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	// Open lead streams end when their request contexts are cancelled.
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sessionStore returns a Redis-backed store when OUTREACH_REDIS_ADDR is set.
func sessionStore(ctx context.Context, cfg config.Config) (middleware.SessionStore, error) {
	if cfg.RedisAddr == "" {
		return middleware.NewMemorySessionStore(cfg.SessionTTL), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	slog.Info("sessions_configured", "store", "redis", "addr", cfg.RedisAddr)
	return middleware.NewRedisSessionStore(client, cfg.SessionTTL), nil
}
