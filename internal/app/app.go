package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rushhourgame/railnet/internal/clients/redis"
	"github.com/rushhourgame/railnet/internal/config"
	"github.com/rushhourgame/railnet/internal/data/aggregates"
	"github.com/rushhourgame/railnet/internal/data/db"
	"github.com/rushhourgame/railnet/internal/data/edges"
	"github.com/rushhourgame/railnet/internal/data/graph"
	"github.com/rushhourgame/railnet/internal/observability"
	"github.com/rushhourgame/railnet/internal/platform/logger"
	"github.com/rushhourgame/railnet/internal/platform/neo4jdb"
)

type App struct {
	Log     *logger.Logger
	Cfg     *config.Config
	DB      *db.Service
	Metrics *observability.Metrics
	Stores  *aggregates.Stores
	Network *edges.Network

	Projector *graph.NetworkProjector

	edgeCache    *redis.EdgeCache
	neo4j        *neo4jdb.Client
	otelShutdown func(context.Context) error
}

// New opens the database and the optional Redis and Neo4j backends, then wires the stores.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.OtelOptions())
	a.Metrics = observability.NewMetrics(cfg.Metrics.Namespace)

	svc, err := db.NewService(cfg.DBOptions(), log, observability.NewQueryCounter(a.Metrics))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.DB = svc
	if sqlDB, err := svc.DB().DB(); err == nil {
		if err := a.Metrics.RegisterDBStats(sqlDB, svc.Driver()); err != nil {
			log.Warn("db stats collector not registered", "error", err)
		}
	}

	var cache edges.Cache
	ec, err := redis.NewEdgeCache(log, cfg.Redis)
	if err != nil {
		log.Warn("redis edge cache unavailable, using in-process cache", "error", err)
	}
	if ec != nil {
		a.edgeCache = ec
		cache = ec
	} else {
		cache = edges.NewMemoryCache(cfg.Redis.TTL)
	}

	client, err := neo4jdb.New(log, cfg.Neo4j)
	if err != nil {
		log.Warn("neo4j unavailable, network projection disabled", "error", err)
	}
	a.neo4j = client
	a.Projector = graph.NewNetworkProjector(client, log)

	a.Stores = aggregates.NewStores(aggregates.BaseDeps{
		DB:  svc.DB(),
		Log: log,
		Hooks: aggregates.ChainHooks(
			aggregates.NewObservabilityHooks(a.Metrics),
			aggregates.NewSlowOperationHooks(log, durationOr(cfg.Database.SlowThreshold, time.Second)),
		),
		Listeners: []aggregates.ChangeListener{edges.NewInvalidator(cache), a.Projector},
	})
	a.Network = edges.NewNetwork(a.Stores, edges.Options{Cache: cache, Metrics: a.Metrics, Log: log})
	return a, nil
}

// Migrate creates tables, indexes and, when Neo4j is configured, graph constraints.
func (a *App) Migrate(ctx context.Context) error {
	if a == nil || a.DB == nil {
		return fmt.Errorf("app not initialized")
	}
	if err := a.DB.AutoMigrateAll(); err != nil {
		return err
	}
	a.Projector.EnsureSchema(ctx)
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.edgeCache != nil {
		if err := a.edgeCache.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
	}
	if err := a.neo4j.Close(ctx); err != nil {
		a.Log.Warn("neo4j close failed", "error", err)
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	a.Log.Sync()
}

func durationOr(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
