package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/wayfarer-app/account-api/internal/adapters/funcinvoke/httpinvoke"
	"github.com/wayfarer-app/account-api/internal/adapters/httpapi"
	"github.com/wayfarer-app/account-api/internal/adapters/identityhttp"
	memidentity "github.com/wayfarer-app/account-api/internal/adapters/memory/identity"
	memprofilerepo "github.com/wayfarer-app/account-api/internal/adapters/memory/profilerepo"
	memtokenguard "github.com/wayfarer-app/account-api/internal/adapters/memory/tokenguard"
	memtravelrepo "github.com/wayfarer-app/account-api/internal/adapters/memory/travelrepo"
	"github.com/wayfarer-app/account-api/internal/adapters/postgres"
	pgprofilerepo "github.com/wayfarer-app/account-api/internal/adapters/postgres/profilerepo"
	pgtravelrepo "github.com/wayfarer-app/account-api/internal/adapters/postgres/travelrepo"
	redistokenguard "github.com/wayfarer-app/account-api/internal/adapters/redis/tokenguard"
	"github.com/wayfarer-app/account-api/internal/app/deletion"
	"github.com/wayfarer-app/account-api/internal/app/recovery"
	"github.com/wayfarer-app/account-api/internal/app/settings"
	platformclock "github.com/wayfarer-app/account-api/internal/platform/clock"
	"github.com/wayfarer-app/account-api/internal/platform/config"
	"github.com/wayfarer-app/account-api/internal/platform/logger"
	"github.com/wayfarer-app/account-api/internal/platform/metrics"
	identityport "github.com/wayfarer-app/account-api/internal/ports/out/identity"
	profilerepoport "github.com/wayfarer-app/account-api/internal/ports/out/profilerepo"
	tokenguardport "github.com/wayfarer-app/account-api/internal/ports/out/tokenguard"
	travelrepoport "github.com/wayfarer-app/account-api/internal/ports/out/travelrepo"
)

func main() {
	log := logger.SetupDefault(os.Stdout)

	port := getenv("PORT", "8080")

	wfCfg, err := config.LoadWorkflowConfigFromEnv()
	if err != nil {
		fatal(log, "invalid workflow config", err)
	}

	// Identity configuration:
	// - Production: IDENTITY_MODE=http talks to the real provider
	// - Local dev: IDENTITY_MODE=memory runs against the in-memory fake
	//   (pair it with cmd/devidp for an end-to-end local loop)
	identityMode := getenv("IDENTITY_MODE", "http")
	var identitySvc identityport.Service
	switch identityMode {
	case "memory":
		identitySvc = memidentity.NewService()
	default:
		idCfg, err := config.LoadIdentityConfigFromEnv()
		if err != nil {
			fatal(log, "invalid identity config", err)
		}
		identitySvc = identityhttp.New(idCfg)
	}

	fnCfg, err := config.LoadFunctionsConfigFromEnv()
	if err != nil {
		fatal(log, "invalid functions config", err)
	}
	functions := httpinvoke.New(fnCfg)

	clk := platformclock.NewSystemClock()

	storageBackend := getenv("STORAGE_BACKEND", "memory")
	var (
		travelRepo  travelrepoport.Repository
		profileRepo profilerepoport.Repository
		cleanup     func()
	)

	switch storageBackend {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if err := postgres.Migrate(dsn); err != nil {
			fatal(log, "migrate", err)
		}
		pool, err := postgres.NewPool(context.Background(), dsn, postgres.PoolOptions{})
		if err != nil {
			fatal(log, "invalid postgres config", err)
		}
		cleanup = pool.Close

		travelRepo = pgtravelrepo.NewRepo(pool)
		profileRepo = pgprofilerepo.NewRepo(pool)
	default:
		travelRepo = memtravelrepo.NewRepo()
		profileRepo = memprofilerepo.NewRepo()
	}

	if cleanup != nil {
		defer cleanup()
	}

	// The replay guard is best effort; redis makes it survive restarts and
	// span replicas.
	var guard tokenguardport.Guard
	switch getenv("GUARD_BACKEND", "memory") {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: getenv("REDIS_ADDR", "localhost:6379")})
		defer func() { _ = rdb.Close() }()
		guard = redistokenguard.NewGuard(rdb)
	default:
		guard = memtokenguard.NewGuard()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mc := metrics.NewCollector(reg)

	recoverySvc := recovery.NewService(identitySvc, guard, log, mc)
	recoverySvc.RequireRefreshToken = wfCfg.RecoveryRequireRefreshToken
	recoverySvc.GuardTTL = wfCfg.RecoveryGuardTTL

	settingsSvc := settings.NewService(identitySvc, profileRepo, log, mc)

	deletionSvc := deletion.NewService(travelRepo, profileRepo, identitySvc, functions, log, mc)
	deletionSvc.RequireSession = wfCfg.DeletionRequireSession

	api := httpapi.NewServer(recoverySvc, settingsSvc, deletionSvc, identitySvc, profileRepo, travelRepo, clk)

	rl := httpapi.NewRateLimiter(httpapi.DefaultRateLimiterConfig())
	defer rl.Stop()

	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		RateLimiter: rl,
		Metrics:     metrics.Handler(reg),
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api listening", "port", port,
			"storage", storageBackend, "identity", identityMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(log, "listen", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
