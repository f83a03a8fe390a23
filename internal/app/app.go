// Package app builds the dependency graph shared by the server and the
// operator CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"catapult/internal/audit"
	auditkafka "catapult/internal/audit/kafka"
	"catapult/internal/companion"
	coursehandler "catapult/internal/course/handler"
	courseservice "catapult/internal/course/service"
	coursestore "catapult/internal/course/store"
	"catapult/internal/lrs"
	"catapult/internal/platform/config"
	"catapult/internal/platform/metrics"
	"catapult/internal/platform/middleware"
	"catapult/internal/platform/postgres"
	"catapult/internal/platform/redis"
	reghandler "catapult/internal/registration/handler"
	regservice "catapult/internal/registration/service"
	regstore "catapult/internal/registration/store"
	"catapult/pkg/platform/httputil"
)

const auditQueueSize = 1024

// App holds the wired services and the resources that must be closed.
type App struct {
	Config        config.Server
	Logger        *slog.Logger
	DB            *sql.DB
	Registry      *prometheus.Registry
	Registrations *regservice.Service
	Courses       *courseservice.Service

	redis       *redis.Client
	auditSink   *auditkafka.Sink
	auditWorker *audit.Worker
}

// New opens Postgres, Redis and Kafka as configured and wires the services.
func New(ctx context.Context, cfg config.Server, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(a.Registry)

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	a.DB = db

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.redis = rc

	publisher, err := a.auditPublisher(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	lrsOpts := []lrs.Option{
		lrs.WithHTTPClient(&http.Client{Timeout: cfg.LRS.Timeout}),
		lrs.WithMetrics(m),
		lrs.WithLogger(logger),
	}
	if cfg.LRS.Username != "" {
		lrsOpts = append(lrsOpts, lrs.WithBasicAuth(cfg.LRS.Username, cfg.LRS.Password))
	}
	if cfg.LRS.RateLimit > 0 {
		burst := max(1, int(cfg.LRS.RateLimit))
		lrsOpts = append(lrsOpts, lrs.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.LRS.RateLimit), burst)))
	}
	lrsClient, err := lrs.New(cfg.LRS.Endpoint, lrsOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	companionClient, err := companion.New(cfg.Companion.BaseURL,
		companion.WithCredentials(cfg.Companion.Key, cfg.Companion.Secret),
		companion.WithMetrics(m),
		companion.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	var courses interface {
		courseservice.Store
		regservice.CourseLookup
	} = coursestore.NewPostgres(db)
	if rc != nil {
		courses = coursestore.NewRedisCache(coursestore.NewPostgres(db), rc.Client,
			coursestore.WithTTL(cfg.Redis.CourseTTL),
			coursestore.WithCacheMetrics(m),
			coursestore.WithCacheLogger(logger),
		)
	}

	regOpts := []regservice.Option{regservice.WithLogger(logger), regservice.WithMetrics(m)}
	courseOpts := []courseservice.Option{courseservice.WithLogger(logger)}
	if publisher != nil {
		regOpts = append(regOpts, regservice.WithAuditPublisher(publisher))
		courseOpts = append(courseOpts, courseservice.WithAuditPublisher(publisher))
	}

	a.Registrations = regservice.New(
		regstore.NewPostgres(db),
		newRegistrationPostgresTx(db, cfg.TxTimeout),
		courses,
		lrsClient,
		companionClient,
		regOpts...,
	)
	a.Courses = courseservice.New(courses, companionClient, courseOpts...)
	return a, nil
}

// auditPublisher wires the Kafka sink behind a non-blocking queue. Without
// brokers audit events are only logged.
func (a *App) auditPublisher(ctx context.Context) (*audit.Publisher, error) {
	if len(a.Config.Kafka.Brokers) == 0 {
		return nil, nil
	}
	sink, err := auditkafka.NewSink(a.Config.Kafka.Brokers, a.Config.Kafka.AuditTopic)
	if err != nil {
		return nil, err
	}
	a.auditSink = sink
	if err := sink.EnsureTopic(ctx, 3, 1); err != nil {
		return nil, err
	}
	queue := audit.NewQueue(auditQueueSize)
	a.auditWorker = audit.NewWorker(sink, queue.Inbox(), a.Logger)
	return audit.NewPublisher(queue, audit.WithLogger(a.Logger)), nil
}

// RunBackground runs the audit worker until ctx ends.
func (a *App) RunBackground(ctx context.Context) error {
	if a.auditWorker == nil {
		<-ctx.Done()
		return nil
	}
	if err := a.auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Router mounts the local API behind request id, logging, recovery and
// tenant middleware.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(a.Logger))
	r.Use(middleware.Recovery(a.Logger))

	r.Get("/healthz", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	validator := middleware.NewTenantValidator(a.Config.JWTSigningKey)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant(validator, a.Logger))
		reghandler.New(a.Registrations, a.Logger).Register(r)
		coursehandler.New(a.Courses, a.Logger).Register(r)
	})
	return r
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"postgres": "ok"}
	code := http.StatusOK
	if err := a.DB.PingContext(ctx); err != nil {
		status["postgres"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if a.redis != nil {
		status["redis"] = "ok"
		if err := a.redis.Health(ctx); err != nil {
			// the course cache falls back to Postgres
			status["redis"] = err.Error()
		}
	}
	httputil.WriteJSON(w, code, status)
}

// Close releases every resource New opened.
func (a *App) Close() {
	if a.auditSink != nil {
		a.auditSink.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("failed to close database", "error", err)
		}
	}
}
