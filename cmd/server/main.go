package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"formpulse/internal/audit"
	erasurehandler "formpulse/internal/erasure/handler"
	erasureservice "formpulse/internal/erasure/service"
	"formpulse/internal/erasure/token"
	"formpulse/internal/platform/config"
	"formpulse/internal/platform/httpserver"
	"formpulse/internal/platform/logger"
	"formpulse/internal/platform/metrics"
	"formpulse/internal/platform/ratelimit"
	platformredis "formpulse/internal/platform/redis"
	reportinghandler "formpulse/internal/reporting/handler"
	reportingservice "formpulse/internal/reporting/service"
	submissionhandler "formpulse/internal/submission/handler"
	"formpulse/internal/submission/identity"
	submissionservice "formpulse/internal/submission/service"
	"formpulse/internal/submission/store"
	httptransport "formpulse/internal/transport/http"
)

const auditInboxSize = 256

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Storage: PostgreSQL when configured, in-memory otherwise. The memory
	// backend keeps a local checkout runnable without any infrastructure.
	var (
		txRunner   submissionservice.TxRunner
		reads      store.Stores
		auditStore audit.Store
		health     func() error
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		db.SetMaxOpenConns(25)
		db.SetConnMaxIdleTime(5 * time.Minute)

		if err := store.EnsureSchema(ctx, db); err != nil {
			log.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}

		txRunner = newSubmissionPostgresTx(db)
		reads = store.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		health = func() error { return db.Ping() }
		log.Info("storage backend ready", "backend", "postgres")
	} else {
		memory := store.NewMemory()
		txRunner = memory
		reads = memory.Stores()
		auditStore = audit.NewInMemoryStore()
		health = func() error { return nil }
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	// Rate limiting: Redis-backed per-IP windows when available.
	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if cfg.SubmitRateLimit > 0 {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		if redisClient != nil {
			defer redisClient.Close()
			limiter = ratelimit.NewRedis(redisClient.Client, cfg.SubmitRateLimit, cfg.SubmitRateWindow)
			log.Info("rate limiter ready", "backend", "redis", "limit", cfg.SubmitRateLimit)
		} else {
			limiter = ratelimit.NewMemory(cfg.SubmitRateLimit, cfg.SubmitRateWindow)
			log.Info("rate limiter ready", "backend", "memory", "limit", cfg.SubmitRateLimit)
		}
	}

	// Audit trail: handlers enqueue, a worker persists in the background.
	auditInbox := make(chan audit.Event, auditInboxSize)
	auditSink := audit.NewChannelSink(auditInbox)
	auditWorker := audit.NewWorker(auditStore, auditInbox, log)

	hasher := identity.NewHasher(cfg.FingerprintSalt)
	tokens := token.NewService(cfg.ErasureTokenSecret, "formpulse", cfg.ErasureTokenTTL)

	submissions := submissionservice.NewService(txRunner, reads, hasher, m, log,
		submissionservice.WithAuditSink(auditSink))
	erasure := erasureservice.NewService(reads.Respondents, auditSink, m, log)
	reporting := reportingservice.NewService(reads, log)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:          log,
		Metrics:         m,
		Submissions:     submissionhandler.New(submissions, log),
		Erasure:         erasurehandler.New(erasure, tokens, log),
		Reporting:       reportinghandler.New(reporting, log),
		AdminAPIKeyHash: cfg.AdminAPIKeyHash,
		SubmitLimiter:   limiter,
		Health:          health,
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting formpulse", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := auditWorker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
