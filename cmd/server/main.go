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

	applyhandler "civicportal/internal/apply/handler"
	applyservice "civicportal/internal/apply/service"
	"civicportal/internal/audit"
	directoryhandler "civicportal/internal/directory/handler"
	directoryservice "civicportal/internal/directory/service"
	moderationhandler "civicportal/internal/moderation/handler"
	modmodels "civicportal/internal/moderation/models"
	moderationservice "civicportal/internal/moderation/service"
	"civicportal/internal/moderation/store/application"
	onboardinghandler "civicportal/internal/onboarding/handler"
	onboardingservice "civicportal/internal/onboarding/service"
	"civicportal/internal/onboarding/store/artifact"
	"civicportal/internal/onboarding/store/profile"
	"civicportal/internal/platform/config"
	"civicportal/internal/platform/httpserver"
	"civicportal/internal/platform/logger"
	"civicportal/internal/platform/metrics"
	"civicportal/internal/platform/middleware"
	"civicportal/internal/platform/postgres"
	platformredis "civicportal/internal/platform/redis"
	sessionhandler "civicportal/internal/session/handler"
	"civicportal/internal/session/lockout"
	sessionmodels "civicportal/internal/session/models"
	sessionservice "civicportal/internal/session/service"
	"civicportal/internal/session/store/account"
	"civicportal/internal/session/store/credentials"
	"civicportal/internal/session/token"
)

// main wires configuration, storage, services and handlers, then runs the
// HTTP server until a shutdown signal. Business logic lives in the internal
// service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	// Stores fall back to in-memory implementations when a backend is not
	// configured, which keeps local development infrastructure-free.
	var (
		profiles        profileStore
		applications    applicationStore
		accounts        accountStore
		credentialStore sessionservice.CredentialStore
	)
	if db != nil {
		profiles = profile.NewPostgres(db)
		applications = application.NewPostgres(db)
		accounts = account.NewPostgres(db)
	} else {
		profiles = profile.NewInMemory()
		applications = application.NewInMemory()
		accounts = account.NewInMemory()
	}
	if redisClient != nil {
		credentialStore = credentials.NewRedis(redisClient.Client, cfg.SessionTTL)
	} else {
		credentialStore = credentials.NewInMemory()
	}

	artifactStore, err := artifact.NewDisk(cfg.UploadsDir)
	if err != nil {
		log.Error("uploads directory unavailable", "error", err)
		os.Exit(1)
	}

	var auditPublisher interface {
		Emit(ctx context.Context, event audit.Event) error
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditPublisher = kafkaPublisher
	} else {
		auditPublisher = audit.NewPublisher(audit.NewInMemoryStore())
	}

	mtr := metrics.New()
	tokens := token.NewService(cfg.JWTSigningKey, "civicportal")

	sessions, err := sessionservice.NewManager(ctx, credentialStore,
		sessionservice.NewPartnerChecker(accounts),
		sessionservice.NewAdminChecker(cfg.AdminLogins, tokens, cfg.SessionTTL),
		sessionservice.WithLogger(log),
		sessionservice.WithMetrics(mtr),
		sessionservice.WithAuditPublisher(auditPublisher),
		sessionservice.WithLockout(lockout.New()),
	)
	if err != nil {
		log.Error("session manager init failed", "error", err)
		os.Exit(1)
	}

	machine := onboardingservice.NewMachine(profiles, artifactStore,
		onboardingservice.WithLogger(log),
		onboardingservice.WithMetrics(mtr),
		onboardingservice.WithAuditPublisher(auditPublisher),
	)
	queue := moderationservice.NewQueue(applications,
		moderationservice.WithLogger(log),
		moderationservice.WithMetrics(mtr),
		moderationservice.WithAuditPublisher(auditPublisher),
	)
	applySvc := applyservice.New(applications, artifactStore, accounts, machine,
		applyservice.WithLogger(log),
		applyservice.WithMetrics(mtr),
		applyservice.WithAuditPublisher(auditPublisher),
	)
	directorySvc := directoryservice.New(applications, profiles)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))

	sessionhandler.New(sessions, log).Register(router)
	onboardinghandler.New(machine, sessions, artifactStore, applications, log).Register(router)
	moderationhandler.New(queue, log, middleware.RequireAdmin(tokens, log)).Register(router)
	applyhandler.New(applySvc, log).Register(router)
	directoryhandler.New(directorySvc, log).Register(router)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting civicportal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("civicportal stopped")
}

// The store interfaces below join the per-service consumer interfaces so one
// store value can serve every service that needs it, regardless of backend.

type profileStore interface {
	onboardingservice.ProfileStore
	directoryservice.ProfileLister
}

type applicationStore interface {
	Create(ctx context.Context, app *modmodels.Application) error
	List(ctx context.Context, statuses ...modmodels.Status) ([]modmodels.Application, error)
	FindByKey(ctx context.Context, key string) (*modmodels.Application, error)
	SetStatus(ctx context.Context, id string, status modmodels.Status) error
}

type accountStore interface {
	FindByEmail(ctx context.Context, email string) (*sessionmodels.Account, error)
	Create(ctx context.Context, acct *sessionmodels.Account) error
}
