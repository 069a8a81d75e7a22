package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"casefile/internal/audit"
	"casefile/internal/auth/persistence"
	authService "casefile/internal/auth/service"
	sessionStore "casefile/internal/auth/store/session"
	userStore "casefile/internal/auth/store/user"
	"casefile/internal/auth/tracer"
	authCleanup "casefile/internal/auth/workers/cleanup"
	"casefile/internal/platform/config"
	"casefile/internal/platform/database"
	"casefile/internal/platform/logger"
	"casefile/internal/platform/metrics"
	lockout "casefile/internal/ratelimit/service/lockout"
	lockoutStore "casefile/internal/ratelimit/store/lockout"
	lockoutCleanup "casefile/internal/ratelimit/workers/cleanup"
	httptransport "casefile/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing auth backend",
		"addr", cfg.Addr,
		"session_ttl", cfg.SessionTTL.String(),
		"remember_me_ttl", cfg.RememberMeTTL.String(),
	)

	m := metrics.New()

	auditStore := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer publisher.Close()

	var users authService.UserStore = userStore.New()
	var sessions authService.SessionStore = sessionStore.New()
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		users = userStore.NewPostgres(pool)
		sessions = sessionStore.NewPostgres(pool)
		log.Info("using postgres stores")
	}

	limiter, err := lockout.New(lockoutStore.New(),
		lockout.WithLogger(log),
		lockout.WithAuditPublisher(publisher),
		lockout.WithMetrics(m),
	)
	if err != nil {
		log.Error("lockout service init failed", "error", err)
		os.Exit(1)
	}

	var handler persistence.Handler
	fileStore, err := persistence.NewFileStore(cfg.PersistencePth)
	if err != nil {
		log.Warn("session persistence unavailable, remembered sessions will not survive restarts", "error", err)
		handler = persistence.NewMemoryStore()
	} else {
		handler = fileStore
	}

	auth, err := authService.New(users, sessions, limiter,
		authService.WithLogger(log),
		authService.WithAuditPublisher(publisher),
		authService.WithMetrics(m),
		authService.WithTracer(tracer.NewOTel()),
		authService.WithSessionPersistence(handler),
		authService.WithSessionTTL(cfg.SessionTTL),
		authService.WithRememberMeTTL(cfg.RememberMeTTL),
	)
	if err != nil {
		log.Error("auth service init failed", "error", err)
		os.Exit(1)
	}

	if restored := auth.RestorePersistedSession(ctx); restored != nil {
		log.Info("restored remembered session",
			"user_id", restored.User.ID.String(),
			"expires_at", restored.Session.ExpiresAt,
		)
	}

	lockoutWorker, err := lockoutCleanup.New(limiter,
		lockoutCleanup.WithInterval(cfg.LockoutSweep),
		lockoutCleanup.WithLogger(log),
	)
	if err != nil {
		log.Error("lockout worker init failed", "error", err)
		os.Exit(1)
	}
	sessionWorker, err := authCleanup.New(auth,
		authCleanup.WithInterval(cfg.SessionSweep),
		authCleanup.WithLogger(log),
	)
	if err != nil {
		log.Error("session worker init failed", "error", err)
		os.Exit(1)
	}

	root := chi.NewRouter()
	root.Mount("/", httptransport.NewRouter(httptransport.NewHandler(auth, log), log))
	root.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return lockoutWorker.Start(gctx) })
	g.Go(func() error { return sessionWorker.Start(gctx) })
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
