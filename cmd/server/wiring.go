package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"vouch/internal/anchor"
	"vouch/internal/audit"
	"vouch/internal/contentstore"
	endorsementmetrics "vouch/internal/endorsement/metrics"
	endorsementservice "vouch/internal/endorsement/service"
	endorsementstore "vouch/internal/endorsement/store"
	"vouch/internal/engine"
	enginehandler "vouch/internal/engine/handler"
	identitymetrics "vouch/internal/identity/metrics"
	"vouch/internal/identity/models"
	identityservice "vouch/internal/identity/service"
	identitystore "vouch/internal/identity/store"
	issuerhandler "vouch/internal/issuer/handler"
	issuerservice "vouch/internal/issuer/service"
	issuerstore "vouch/internal/issuer/store"
	jwttoken "vouch/internal/jwt_token"
	"vouch/internal/platform/config"
	"vouch/internal/platform/metrics"
	"vouch/internal/platform/postgres"
	"vouch/internal/platform/redis"
	ratelimit "vouch/internal/ratelimit/middleware"
	ratelimitmodels "vouch/internal/ratelimit/models"
	"vouch/internal/ratelimit/store/bucket"
	"vouch/internal/scoring"
	"vouch/internal/walletauth"
	"vouch/pkg/platform/circuit"
	"vouch/pkg/platform/keylock"
	adminmw "vouch/pkg/platform/middleware/admin"
	authmw "vouch/pkg/platform/middleware/auth"
	"vouch/pkg/platform/middleware/metadata"
	"vouch/pkg/platform/middleware/request"
	"vouch/pkg/platform/middleware/requesttime"
	txcontext "vouch/pkg/platform/tx"
)

type application struct {
	router      http.Handler
	auditWorker *audit.Worker
	background  []func(ctx context.Context) error
	closers     []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// stores groups the persistence backends selected by configuration.
type stores struct {
	identities   identityservice.Store
	endorsements endorsementservice.Store
	issuers      issuerservice.Store
	audit        audit.Sink
	runner       txcontext.Runner
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*application, error) {
	app := &application{}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, db, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		app.closers = append(app.closers, func() { _ = db.Close() })
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		app.close()
		return nil, err
	}
	var content contentstore.Store = contentstore.NewInMemoryStore()
	if rdb != nil {
		app.closers = append(app.closers, func() { _ = rdb.Close() })
		content = contentstore.NewRedisStore(rdb.Client)
	}

	sink, err := auditSink(ctx, cfg, st.audit, log, app)
	if err != nil {
		app.close()
		return nil, err
	}
	buffer := audit.NewRingBuffer(4096)
	publisher := audit.NewPublisher(buffer)
	app.auditWorker = audit.NewWorker(buffer, sink, 0, func(err error) {
		log.Error("audit flush failed", "error", err)
	})

	policy, err := models.ParseReputationPolicy(cfg.Scoring.ReputationPolicy)
	if err != nil {
		app.close()
		return nil, err
	}
	identities := identityservice.New(st.identities, st.runner,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(identitymetrics.New(reg)),
		identityservice.WithAuditPublisher(publisher),
		identityservice.WithPolicy(policy),
	)
	endorsements := endorsementservice.New(st.endorsements, identities, st.runner,
		endorsementservice.WithLogger(log),
		endorsementservice.WithMetrics(endorsementmetrics.New(reg)),
		endorsementservice.WithAuditPublisher(publisher),
	)
	issuerAdmin := issuerservice.NewAdmin(st.issuers,
		issuerservice.WithLogger(log),
		issuerservice.WithAuditPublisher(publisher),
	)
	if n, err := issuerAdmin.LoadSeedFile(ctx, cfg.IssuerSeed); err != nil {
		app.close()
		return nil, err
	} else if n > 0 {
		log.Info("issuer seed applied", "issuers", n, "path", cfg.IssuerSeed)
	}

	eng := engine.New(engine.Deps{
		Identities:   identities,
		Endorsements: endorsements,
		Issuers:      issuerservice.New(st.issuers),
		Content:      contentstore.WithTimeout(content, cfg.Timeouts.ContentStore),
		Anchor: anchor.WithBreaker(
			anchor.WithTimeout(anchor.NewInMemoryLedger(anchor.NewChainContext(cfg.Chain.ChainID, cfg.Chain.ContractAddress)), cfg.Timeouts.Anchor),
			circuit.New("anchor", circuit.WithFailureThreshold(5), circuit.WithCooldown(30*time.Second)),
			log,
		),
	},
		engine.WithLogger(log),
		engine.WithAuditPublisher(publisher),
		engine.WithReputationEngine(scoring.NewReputationEngine(
			scoring.NewDecay(cfg.Scoring.DecayModel, cfg.Scoring.DecayPerDay, cfg.Scoring.HalfLife),
		)),
		engine.WithSybilScorer(scoring.NewSybilScorer(cfg.Scoring.WalletAgeMinimum)),
	)

	limiter, windows := rateLimiter(cfg.RateLimit, rdb, log)
	app.background = append(app.background, func(ctx context.Context) error {
		return windows.RunSweeper(ctx, time.Minute)
	})

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	httpMetrics := metrics.New(reg)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log, httpMetrics))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "postgres unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(reg))

	walletauth.NewHandler(walletauth.New(jwtService, cfg.Auth.TokenTTL, log), log).
		Register(r, limiter.ByIP(ratelimitmodels.ClassAuth))
	enginehandler.New(eng, log,
		enginehandler.WithEndorseLimit(limiter.ByHolder(ratelimitmodels.ClassEndorse)),
		enginehandler.WithWriteLimit(limiter.ByHolder(ratelimitmodels.ClassWrite)),
	).Register(r, authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log))
	issuerhandler.New(issuerAdmin, log).Register(r, adminmw.RequireAdminToken(cfg.Auth.AdminToken, log))

	app.router = r
	return app, nil
}

// openStores selects PostgreSQL when configured, otherwise in-memory stores.
// Every service shares the returned runner so nested transactions join.
func openStores(ctx context.Context, cfg config.Config) (*stores, *sql.DB, error) {
	locks := keylock.New(keylock.DefaultShards)
	if cfg.Postgres.URL == "" {
		return &stores{
			identities:   identitystore.NewInMemoryStore(),
			endorsements: endorsementstore.NewInMemoryStore(),
			issuers:      issuerstore.NewInMemoryStore(),
			audit:        audit.NewInMemoryStore(),
			runner:       txcontext.NewInMemoryRunner(locks, cfg.Timeouts.Transaction),
		}, nil, nil
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return &stores{
		identities:   identitystore.NewPostgres(db),
		endorsements: endorsementstore.NewPostgres(db),
		issuers:      issuerstore.NewPostgres(db),
		audit:        audit.NewPostgresStore(db),
		runner:       txcontext.NewPostgresRunner(db, locks, cfg.Timeouts.Transaction),
	}, db, nil
}

// rateLimiter keeps windows in Redis when it is configured, with an
// in-memory store taking over while Redis is failing.
func rateLimiter(cfg config.RateLimit, rdb *redis.Client, log *slog.Logger) (*ratelimit.Middleware, *bucket.InMemoryBucketStore) {
	limits := map[ratelimitmodels.Class]ratelimitmodels.Limit{
		ratelimitmodels.ClassAuth:    {Requests: cfg.AuthRequests, Window: cfg.AuthWindow},
		ratelimitmodels.ClassEndorse: {Requests: cfg.EndorseRequests, Window: cfg.EndorseWindow},
		ratelimitmodels.ClassWrite:   {Requests: cfg.WriteRequests, Window: cfg.WriteWindow},
	}
	memory := bucket.NewInMemoryBucketStore()
	if rdb == nil {
		return ratelimit.New(memory, limits, log, ratelimit.WithDisabled(cfg.Disabled)), memory
	}
	return ratelimit.New(bucket.NewRedisBucketStore(rdb.Client), limits, log,
		ratelimit.WithDisabled(cfg.Disabled),
		ratelimit.WithFallback(memory, circuit.New("ratelimit", circuit.WithFailureThreshold(3), circuit.WithCooldown(10*time.Second))),
	), memory
}

// auditSink fans events out to the audit store and, when brokers are
// configured, to Kafka.
func auditSink(ctx context.Context, cfg config.Config, store audit.Sink, log *slog.Logger, app *application) (audit.Sink, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return store, nil
	}
	kafka, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, kafka.Close)
	if err := kafka.EnsureTopic(ctx, 3, 1); err != nil {
		return nil, fmt.Errorf("kafka audit topic: %w", err)
	}
	log.Info("kafka audit publisher enabled", "topic", cfg.Kafka.Topic)
	breaker := circuit.New("kafka-audit", circuit.WithFailureThreshold(3), circuit.WithCooldown(time.Minute))
	return audit.FanOut{store, audit.NewGuardedSink(kafka, breaker)}, nil
}
