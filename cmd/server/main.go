package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bronn/internal/auth"
	"bronn/internal/engine"
	"bronn/internal/federation"
	"bronn/internal/gate"
	"bronn/internal/identity"
	"bronn/internal/jwtoken"
	"bronn/internal/platform/config"
	"bronn/internal/platform/httpserver"
	"bronn/internal/platform/logger"
	"bronn/internal/platform/metrics"
	"bronn/internal/platform/ratelimit"
	platformredis "bronn/internal/platform/redis"
	httptransport "bronn/internal/transport/http"
	"bronn/internal/user"
	audit "bronn/pkg/platform/audit"
	auditkafka "bronn/pkg/platform/audit/publisher"
	auditpg "bronn/pkg/platform/audit/store/postgres"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	users, pool, err := newUserStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	recorder := audit.NewRecorder(1024, log)
	worker, closeSinks, err := newAuditWorker(ctx, cfg, recorder, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	verifier, err := identity.NewOIDCVerifier(ctx, cfg.ProviderIssuer, cfg.ProviderAudience, cfg.VerifyTimeout, log)
	if err != nil {
		return err
	}

	var resolver identity.Resolver = identity.BearerResolver{Verifier: verifier}
	if cfg.TrustProxyHeaders {
		log.Info("trusted proxy identity headers enabled")
		resolver = identity.TrustedHeaderResolver{Next: resolver}
	}

	signer := engine.NewSigner(cfg.SigningKeysDir)
	engineClient := engine.NewClient(cfg.EngineURL, signer, cfg.EngineTimeout, log)
	rewriter := engine.URLRewriter{
		InternalHost: cfg.EngineInternal,
		ExternalURL:  cfg.EngineExternalURL,
	}

	federationSvc := federation.NewService(
		verifier, users, engineClient, rewriter, cfg.EngineProjectID, m, recorder, log)

	tokens := jwtoken.NewService(cfg.SessionSigningKey, "bronn", cfg.SessionTTL)
	nativeSvc := auth.NewService(users, tokens, m, recorder, log)

	mode := gate.ParseMode(cfg.AuthMode)
	log.Info("auth mode resolved", "mode", mode.String())
	authGate := gate.New(gate.Fixed(mode), log, m, recorder)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	limiter := ratelimit.New(redisClient, m, recorder, log,
		ratelimit.WithDisabled(redisClient == nil))

	checks := map[string]httptransport.HealthCheck{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if redisClient != nil {
		checks["redis"] = redisClient.Health
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Gate:       authGate,
		Federation: httptransport.NewFederationHandler(federationSvc, resolver, log),
		Native:     httptransport.NewNativeHandler(nativeSvc, log),
		Limiter:    limiter,
		Logger:     log,
		Checks:     checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := worker.Run(ctx); err != nil {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting bronn auth bridge", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
	}
	return nil
}

// newUserStore prefers PostgreSQL and falls back to the in-memory store for
// local development when no DSN is configured.
func newUserStore(ctx context.Context, cfg config.Server, log *slog.Logger) (user.Store, *pgxpool.Pool, error) {
	if cfg.PostgresDSN == "" {
		log.Warn("no database configured, using in-memory user store")
		return user.NewInMemoryStore(), nil, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return user.NewPostgresStore(pool), pool, nil
}

// newAuditWorker assembles the audit pipeline from whatever sinks are
// configured. With no sinks the worker still drains the channel so Record
// never backs up.
func newAuditWorker(ctx context.Context, cfg config.Server, recorder *audit.Recorder, log *slog.Logger) (*audit.Worker, func(), error) {
	var sinks []audit.Sink
	var closers []func()

	if cfg.PostgresDSN != "" {
		db, err := auditpg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { db.Close() })
		sinks = append(sinks, auditpg.New(db))
	}

	if len(cfg.KafkaBrokers) > 0 {
		k, err := auditkafka.NewKafka(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, k.Close)
		sinks = append(sinks, k)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return audit.NewWorker(recorder.Events(), log, sinks...), closeAll, nil
}
