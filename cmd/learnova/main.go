package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/learnova/learnova/cmd/learnova/cli"
	"github.com/learnova/learnova/internal/app"
	"github.com/learnova/learnova/internal/auth"
	"github.com/learnova/learnova/internal/navigation"
	"github.com/learnova/learnova/internal/observability"
	"github.com/learnova/learnova/internal/platform/db"
	"github.com/learnova/learnova/internal/shared"
	"github.com/learnova/learnova/internal/shell"
	"github.com/learnova/learnova/internal/tenant"
	"github.com/learnova/learnova/jobs"
)

func main() {
	if len(os.Args) > 1 {
		os.Exit(runCommand(os.Args[1:]))
	}
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	catalogs := navigation.DefaultCatalogs()
	if err := navigation.ValidateCatalogs(catalogs); err != nil {
		logger.Error("navigation catalogs", slog.Any("error", err))
		os.Exit(1)
	}
	for aud, c := range catalogs {
		if tokens := navigation.UnregisteredPermissions(c); len(tokens) > 0 {
			logger.Warn("catalog references unregistered permissions", slog.String("audience", string(aud)), slog.Any("permissions", tokens))
		}
	}

	var dbpool *pgxpool.Pool
	if cfg.PGDSN != "" {
		dbpool, err = db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
	} else {
		logger.Warn("PG_DSN not set, serving the demo school without sign-in persistence")
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	var schoolStore tenant.Store = tenant.NewStaticStore(tenant.DemoSchool())
	if dbpool != nil {
		schoolStore = tenant.NewCachedStore(tenant.NewPGStore(dbpool), redisClient, cfg.TenantCacheTTL)
	}
	tenants := tenant.NewResolver(schoolStore, tenant.ResolverConfig{
		BaseDomain:  cfg.TenantBaseDomain,
		SystemLabel: cfg.TenantSystemLabel,
		DevHosts:    cfg.TenantDevHosts,
		Timeout:     cfg.TenantLookupTimeout,
	}, metrics, logger)

	var (
		badgeSource navigation.BadgeSource
		badgeReset  shell.BadgeResetter
	)
	if cfg.BadgesEnabled {
		badges := navigation.NewRedisBadges(redisClient)
		badgeSource, badgeReset = badges, badges
	}
	menus := navigation.NewResolver(catalogs, badgeSource, metrics, logger)

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	var authRepo auth.Repository = auth.UnavailableRepository{}
	if dbpool != nil {
		authRepo = auth.NewRepository(dbpool)
	}
	authHandler := auth.NewHandler(logger, auth.NewService(authRepo), sessionManager, csrfManager, shared.NewAuditLogger(dbpool))

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		Tenants:        tenants,
		AuthHandler:    authHandler,
		ShellHandler:   shell.NewHandler(menus, badgeReset, logger),
		JobHandler:     jobs.NewHandler(inspector, logger),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runCommand(args []string) int {
	switch args[0] {
	case "catalog":
		fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
		asJSON := fs.Bool("json", false, "print the lint summary as JSON")
		if len(args) < 2 || args[1] != "lint" {
			fmt.Fprintln(os.Stderr, "usage: learnova catalog lint [--json]")
			return 2
		}
		if err := fs.Parse(args[2:]); err != nil {
			return 2
		}
		return cli.LintCatalogs(navigation.DefaultCatalogs(), cli.CatalogLintOptions{JSONOutput: *asJSON})
	case "jobs":
		return runJobs(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		return 2
	}
}

func runJobs(args []string) int {
	fs := flag.NewFlagSet("jobs", flag.ContinueOnError)
	redisAddr := fs.String("redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address")
	slug := fs.String("slug", "", "school slug to refresh; empty refreshes every school")
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: learnova jobs <warmup|stats> [--slug s] [--redis addr]")
		return 2
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	jobsCLI, err := cli.NewJobsCLI(*redisAddr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer jobsCLI.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	switch args[0] {
	case "warmup":
		info, err := jobsCLI.Trigger(ctx, jobs.TaskTenantCacheWarmup, *slug)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("enqueued %s (%s)\n", info.Type, info.ID)
	case "stats":
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	default:
		fmt.Fprintf(os.Stderr, "unknown jobs command %q\n", args[0])
		return 2
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
