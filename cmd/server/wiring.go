package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auditapi "clubid/internal/audit"
	"clubid/internal/entity/cache"
	entitysvc "clubid/internal/entity/service"
	entitystore "clubid/internal/entity/store"
	"clubid/internal/identity/code"
	identityhandler "clubid/internal/identity/handler"
	identitysvc "clubid/internal/identity/service"
	"clubid/internal/identity/store/person"
	"clubid/internal/identity/store/sequence"
	integrationhandler "clubid/internal/integration/handler"
	integrationmetrics "clubid/internal/integration/metrics"
	integrationsvc "clubid/internal/integration/service"
	integrationstore "clubid/internal/integration/store"
	jwttoken "clubid/internal/jwt_token"
	"clubid/internal/notify"
	"clubid/internal/platform/config"
	"clubid/internal/platform/database"
	"clubid/internal/platform/health"
	"clubid/internal/platform/kafka/producer"
	"clubid/internal/platform/redis"
	rolerequesthandler "clubid/internal/rolerequest/handler"
	rolerequestmetrics "clubid/internal/rolerequest/metrics"
	rolerequestsvc "clubid/internal/rolerequest/service"
	rolerequeststore "clubid/internal/rolerequest/store"
	"clubid/internal/seeder"
	"clubid/migrations"
	"clubid/pkg/platform/audit"
	auditmetrics "clubid/pkg/platform/audit/metrics"
	auditmemory "clubid/pkg/platform/audit/store/memory"
	auditpostgres "clubid/pkg/platform/audit/store/postgres"
	"clubid/pkg/platform/circuit"
	"clubid/pkg/platform/middleware/auth"
	"clubid/pkg/platform/middleware/request"
	"clubid/pkg/platform/outbox"
	outboxmetrics "clubid/pkg/platform/outbox/metrics"
	outboxmemory "clubid/pkg/platform/outbox/store/memory"
	outboxpostgres "clubid/pkg/platform/outbox/store/postgres"
	"clubid/pkg/platform/outbox/worker"
	"clubid/pkg/platform/tracing"
	"clubid/pkg/platform/tx"
)

const maxBodyBytes = 1 << 20

type application struct {
	router     chi.Router
	background []func(context.Context) error
	closers    []func() error
	logger     *slog.Logger
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

type stores struct {
	persons      identitysvc.PersonStore
	sequences    code.SequenceStore
	entities     entitysvc.Store
	roleRequests rolerequestsvc.Store
	integrations integrationsvc.Store
	audit        audit.Store
	outbox       outbox.Store
	runner       tx.Runner
}

func memoryStores() *stores {
	return &stores{
		persons:      person.NewInMemoryStore(),
		sequences:    sequence.NewInMemoryStore(),
		entities:     entitystore.NewInMemory(),
		roleRequests: rolerequeststore.NewInMemory(),
		integrations: integrationstore.NewInMemory(),
		audit:        auditmemory.New(),
		outbox:       outboxmemory.New(),
		runner:       tx.NewMemory(),
	}
}

func postgresStores(pool *database.Pool, timeout time.Duration) *stores {
	db := pool.DB()
	return &stores{
		persons:      person.NewPostgres(db),
		sequences:    sequence.NewPostgres(db),
		entities:     entitystore.NewPostgres(db),
		roleRequests: rolerequeststore.NewPostgres(db),
		integrations: integrationstore.NewPostgres(db),
		audit:        auditpostgres.New(db),
		outbox:       outboxpostgres.New(db),
		runner:       tx.NewPostgres(db, timeout),
	}
}

func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (*application, error) {
	app := &application{logger: log}
	healthHandler := health.New(cfg.Server.Environment)

	st := memoryStores()
	if cfg.UsesPostgres() {
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		if err := migrations.Apply(ctx, pool.DB()); err != nil {
			app.close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		if err := pool.RegisterMetrics(prometheus.DefaultRegisterer, "clubid"); err != nil {
			app.close()
			return nil, err
		}
		healthHandler.RegisterCheck("database", pool.Health)
		st = postgresStores(pool, cfg.Server.RequestTimeout)
	}

	dispatcher, err := buildDispatcher(ctx, cfg, log, st, app, healthHandler)
	if err != nil {
		app.close()
		return nil, err
	}

	tracer := tracing.NewOTel("clubid")
	trailOpts := []audit.Option{audit.WithMetrics(auditmetrics.New())}
	if cfg.Audit.MirrorToLog {
		trailOpts = append(trailOpts, audit.WithLogger(log))
	}
	trail := audit.NewTrail(st.audit, trailOpts...)

	directory := entitysvc.NewDirectory(st.entities, entitysvc.WithLogger(log))
	authorizer := identitysvc.NewAuthorizer(st.persons)
	issuer := code.NewIssuer(st.sequences, code.WithLogger(log))

	integrationOpts := []integrationsvc.Option{
		integrationsvc.WithLogger(log),
		integrationsvc.WithMetrics(integrationmetrics.New()),
		integrationsvc.WithTracer(tracer),
		integrationsvc.WithDispatcher(dispatcher),
	}
	if cfg.Redis.URL != "" {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.closers = append(app.closers, client.Close)
		if err := client.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
			app.close()
			return nil, err
		}
		healthHandler.RegisterCheck("redis", client.Health)
		breaker := circuit.New("entity_admin_cache",
			circuit.OnStateChange(func(name string, from, to circuit.State) {
				log.Warn("circuit state changed", "circuit", name, "from", from.String(), "to", to.String())
			}),
		)
		integrationOpts = append(integrationOpts, integrationsvc.WithAdminRouting(
			cache.New(client, directory, cache.WithTTL(cfg.Redis.AdminTTL), cache.WithLogger(log), cache.WithBreaker(breaker)),
		))
	}

	integrations := integrationsvc.New(st.integrations, st.persons, authorizer, directory, st.runner, trail, integrationOpts...)
	identities := identitysvc.New(st.persons, issuer, st.runner, trail,
		identitysvc.WithLogger(log),
		identitysvc.WithTracer(tracer),
		identitysvc.WithReconsenter(integrations),
		identitysvc.WithMemberships(directory),
	)
	roleRequests := rolerequestsvc.New(st.roleRequests, st.persons, authorizer, issuer, st.runner, trail,
		rolerequestsvc.WithLogger(log),
		rolerequestsvc.WithMetrics(rolerequestmetrics.New()),
		rolerequestsvc.WithTracer(tracer),
		rolerequestsvc.WithDispatcher(dispatcher),
	)

	if cfg.Server.SeedDemoData {
		if _, err := seeder.New(identities, directory, log).SeedAll(ctx); err != nil {
			app.close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	validator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
	)

	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.Logger(log, request.NewMetrics()))
	r.Use(request.Timeout(cfg.Server.RequestTimeout))
	r.Use(request.BodyLimit(maxBodyBytes))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequireAuth(validator, log))

		identityhandler.New(identities, log).Register(r)
		rolerequesthandler.New(roleRequests, log).Register(r)
		integrationhandler.New(integrations, log).Register(r)
		auditapi.NewHandler(auditapi.NewReader(authorizer, trail), log).Register(r)
	})

	app.router = r
	return app, nil
}

// buildDispatcher stages notifications in the outbox when Kafka is
// configured, and logs them otherwise.
func buildDispatcher(ctx context.Context, cfg *config.Config, log *slog.Logger, st *stores, app *application, h *health.Handler) (notify.Dispatcher, error) {
	if !cfg.Kafka.Enabled {
		log.Info("kafka not configured, notifications are logged only")
		return notify.NewLogDispatcher(log), nil
	}

	p, err := producer.New(cfg.Kafka.Producer, log)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	app.closers = append(app.closers, p.Close)
	if err := p.EnsureTopic(ctx, cfg.Kafka.Producer.Topic, cfg.Kafka.Producer.Partitions, cfg.Kafka.Producer.ReplicationFactor); err != nil {
		return nil, fmt.Errorf("ensure notifications topic: %w", err)
	}
	h.RegisterCheck("kafka", p.Healthy)

	w := worker.New(st.outbox, p, st.runner,
		worker.WithTopic(cfg.Kafka.Producer.Topic),
		worker.WithBatchSize(cfg.Notifications.BatchSize),
		worker.WithPollInterval(cfg.Notifications.PollInterval),
		worker.WithRetention(cfg.Notifications.Retention),
		worker.WithMetrics(outboxmetrics.New()),
		worker.WithLogger(log),
	)
	app.background = append(app.background, w.Run)
	return notify.NewOutboxDispatcher(st.outbox), nil
}
