package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/heron-guild/guildhall/config"
	"github.com/heron-guild/guildhall/internal/application/command"
	"github.com/heron-guild/guildhall/internal/application/eventhandler"
	"github.com/heron-guild/guildhall/internal/application/query"
	"github.com/heron-guild/guildhall/internal/domain/council"
	"github.com/heron-guild/guildhall/internal/domain/guild"
	"github.com/heron-guild/guildhall/internal/domain/shared"
	"github.com/heron-guild/guildhall/internal/infrastructure/catalog"
	"github.com/heron-guild/guildhall/internal/infrastructure/external/oracle"
	"github.com/heron-guild/guildhall/internal/infrastructure/messaging"
	"github.com/heron-guild/guildhall/internal/infrastructure/persistence/postgres"
	"github.com/heron-guild/guildhall/internal/infrastructure/persistence/projections"
	"github.com/heron-guild/guildhall/internal/infrastructure/persistence/redis"
	"github.com/heron-guild/guildhall/internal/infrastructure/persistence/snapshotfile"
	"github.com/heron-guild/guildhall/internal/infrastructure/service"
	"github.com/heron-guild/guildhall/pkg/circuitbreaker"
	"github.com/heron-guild/guildhall/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// config → logger → catalog → snapshots → event bus → handlers → store
// ══════════════════════════════════════════════════════════════════════════════

type eventBus interface {
	shared.EventBus
	Close() error
}

type app struct {
	cfg *config.Config
	log *logger.Logger

	catalog    *catalog.Catalog
	store      *command.Store
	bus        eventBus
	dispatcher *messaging.Dispatcher
	decisions  *projections.DecisionView

	// durableDecisions is set when decisions are also kept in the database.
	durableDecisions *service.MirroredDecisionLog

	// restored is true when the state came from a stored snapshot.
	restored bool

	dispatch *command.DispatchHandler
	drafts   *command.DraftBadgeHandler
	keys     *command.GenerateKeysHandler

	journal    *query.GetJournalHandler
	queue      *query.GetCouncilQueueHandler
	decisionsQ *query.GetDecisionsHandler
	assessment *query.GetTierAssessmentHandler
	guidance   *query.GuidanceHandler

	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}
	if err := a.wire(ctx); err != nil {
		_ = a.close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg, log := a.cfg, a.log

	// ─────────────────────────────────────────────────────────────────────────
	// 1. SEED CONTENT
	// ─────────────────────────────────────────────────────────────────────────
	var err error
	if cfg.Guild.CatalogDir != "" {
		a.catalog, err = catalog.LoadDir(cfg.Guild.CatalogDir)
	} else {
		a.catalog, err = catalog.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	cache := a.openRedis()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SNAPSHOT PERSISTENCE
	// ─────────────────────────────────────────────────────────────────────────
	repo, durable, err := a.openSnapshots(ctx, cache)
	if err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS AND SUBSCRIBERS
	// ─────────────────────────────────────────────────────────────────────────
	a.bus, err = a.openBus(cache)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.bus.Close() })

	seeded, err := a.catalog.Seed(cfg.Guild.UserID, cfg.Guild.UserName, cfg.Guild.UserEmail)
	if err != nil {
		return fmt.Errorf("failed to seed state: %w", err)
	}
	initial, restored := command.LoadOrSeed(ctx, repo, cfg.Guild.UserID, func() guild.State { return seeded }, log)
	if cfg.Guild.CouncilRole {
		initial.User.CouncilRole = true
	}
	a.restored = restored

	decisionLog := a.openDecisionLog(ctx, durable, initial)
	if err := a.startDispatcher(decisionLog); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. STORE
	// ─────────────────────────────────────────────────────────────────────────
	env := guild.DefaultEnv(service.NewUUIDGenerator())
	env.ArtifactFee = shared.Cents(cfg.Guild.PhysicalFeeCents)

	a.store = command.NewStore(initial, env, repo, a.bus, command.StoreConfig{
		UserID:      cfg.Guild.UserID,
		SaveTimeout: cfg.Storage.SaveTimeout,
	}, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	client := a.openOracle()

	var drafter command.BadgeDrafter
	var guide query.Guide
	if client != nil {
		drafter, guide = client, client
		if cache != nil && a.enabled(config.FeatureGuidanceCache) {
			guide = redis.NewGuidanceCache(client, cache, cfg.Redis.GuidanceTTL, log)
		}
	}

	a.dispatch = command.NewDispatchHandler(a.store, log)
	a.drafts = command.NewDraftBadgeHandler(drafter, a.check(config.FeatureOracleDrafting), log)
	a.keys = command.NewGenerateKeysHandler(a.store, command.DefaultGenerateKeysConfig(), log)

	a.journal = query.NewGetJournalHandler(a.store)
	a.queue = query.NewGetCouncilQueueHandler(a.store)
	a.decisionsQ = query.NewGetDecisionsHandler(decisionLog)
	a.assessment = query.NewGetTierAssessmentHandler(a.store, a.catalog.Tiers)
	a.guidance = query.NewGuidanceHandler(a.store, guide, a.check(config.FeatureOracleGuidance), log)

	log.Debug("guildhall ready", logger.Bool("restored", restored))
	return nil
}

// close flushes pending snapshot writes and releases connections in reverse
// order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.dispatcher != nil {
		a.dispatcher.Stop()
		if dlq := a.dispatcher.DeadLetters(); dlq != nil && dlq.Size() > 0 {
			a.log.Warn("event handlers gave up on some events", logger.Int("dead_letters", dlq.Size()))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) enabled(feature string) bool {
	return a.cfg.Features.IsEnabled(feature, &config.FeatureContext{UserID: a.cfg.Guild.UserID})
}

func (a *app) check(feature string) func() bool {
	return a.cfg.Features.Check(feature, a.cfg.Guild.UserID)
}

func (a *app) onBreakerChange(name string, from, to circuitbreaker.State) {
	a.log.Warn("circuit breaker state changed",
		logger.String("breaker", name),
		logger.String("from", from.String()),
		logger.String("to", to.String()),
	)
}

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure
// ─────────────────────────────────────────────────────────────────────────────

func (a *app) openRedis() *redis.Cache {
	rc := a.cfg.Redis
	if !rc.Enabled {
		return nil
	}
	cfg := redis.DefaultConfig()
	cfg.Addr = rc.Addr
	cfg.Password = rc.Password
	cfg.DB = rc.DB
	if rc.PoolSize > 0 {
		cfg.PoolSize = rc.PoolSize
	}
	if rc.DialTimeout > 0 {
		cfg.DialTimeout = rc.DialTimeout
	}
	if rc.ReadTimeout > 0 {
		cfg.ReadTimeout = rc.ReadTimeout
	}
	if rc.WriteTimeout > 0 {
		cfg.WriteTimeout = rc.WriteTimeout
	}

	cache, err := redis.NewCache(cfg)
	if err != nil {
		a.log.Warn("redis unavailable, continuing without it", logger.String("addr", rc.Addr), logger.Err(err))
		return nil
	}
	a.closers = append(a.closers, func() { _ = cache.Close() })
	return cache
}

func (a *app) openSnapshots(ctx context.Context, cache *redis.Cache) (guild.SnapshotRepository, council.DecisionLog, error) {
	var (
		repo    guild.SnapshotRepository
		durable council.DecisionLog
	)

	switch a.cfg.Storage.Location {
	case config.StorageGuildSync:
		conn, err := a.openDatabase(ctx)
		if err != nil {
			return nil, nil, err
		}
		if a.cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		breaker := circuitbreaker.StorageBreaker(a.onBreakerChange)
		repo = service.NewGuardedSnapshotRepository(postgres.NewSnapshotRepository(conn), breaker)
		if a.enabled(config.FeatureCouncilDecisionLog) {
			durable = postgres.NewDecisionLogRepository(conn)
		}
	default:
		files, err := snapshotfile.New(a.cfg.Storage.Dir())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open snapshot directory: %w", err)
		}
		repo = files
	}

	if cache != nil && a.enabled(config.FeatureSnapshotCache) {
		repo = redis.NewSnapshotCache(repo, cache, a.cfg.Redis.SnapshotTTL, a.log)
	}
	return repo, durable, nil
}

func (a *app) openDatabase(ctx context.Context) (*postgres.Connection, error) {
	db := a.cfg.Database
	cfg := postgres.DefaultConfig()
	cfg.URL = db.URL
	if db.MaxConns > 0 {
		cfg.MaxConns = int32(db.MaxConns)
	}
	if db.MinConns > 0 {
		cfg.MinConns = int32(db.MinConns)
	}
	if db.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = db.ConnMaxLifetime
	}
	if db.ConnMaxIdleTime > 0 {
		cfg.MaxConnIdleTime = db.ConnMaxIdleTime
	}

	a.log.Debug("connecting to database")
	conn, err := postgres.NewConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, conn.Close)

	if health, err := conn.Health(ctx); err == nil {
		a.log.Debug("database ready",
			logger.Latency(health.PingLatency),
			logger.Int("max_conns", int(health.MaxConns)),
		)
	}
	return conn, nil
}

func (a *app) openBus(cache *redis.Cache) (eventBus, error) {
	local := messaging.DefaultInMemoryEventBusConfig()
	local.Logger = a.log

	channel := a.cfg.Redis.EventChannel
	if cache == nil || channel == "" || !a.enabled(config.FeatureEventSharing) {
		return messaging.NewInMemoryEventBus(local), nil
	}
	return messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         redis.NewPubSubClient(cache.Client()),
		ChannelName:    channel,
		LocalBusConfig: local,
		Logger:         a.log,
	})
}

// openDecisionLog returns the view every read goes through. With a durable
// log it mirrors the database; otherwise it is rebuilt from the snapshot.
func (a *app) openDecisionLog(ctx context.Context, durable council.DecisionLog, s guild.State) *projections.DecisionView {
	view := projections.NewDecisionView()
	a.decisions = view
	if durable == nil {
		view.Rebuild(projections.DecisionsFromState(s))
		return view
	}

	mirrored := service.NewMirroredDecisionLog(durable, view)
	timeout := a.cfg.Database.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := mirrored.Hydrate(hctx, 500); err != nil {
		a.log.Warn("failed to load decision log, using snapshot", logger.Err(err))
		view.Rebuild(projections.DecisionsFromState(s))
	}
	a.durableDecisions = mirrored
	return view
}

func (a *app) startDispatcher(view *projections.DecisionView) error {
	dc := messaging.DefaultDispatcherConfig()
	dc.Logger = a.log
	a.dispatcher = messaging.NewDispatcher(a.bus, dc)
	a.dispatcher.Use(messaging.RecoveryMiddleware(a.log), messaging.LoggingMiddleware(a.log))

	if a.enabled(config.FeatureCouncilDecisionLog) {
		var target council.DecisionLog = view
		if a.durableDecisions != nil {
			target = a.durableDecisions
		}
		h := eventhandler.NewOnRequestResolvedHandler(target, eventhandler.DefaultDecisionLogConfig(), a.log)
		if err := a.dispatcher.Register("decision_log", h.Handle, shared.EventRequestResolved); err != nil {
			return err
		}
	}

	if a.enabled(config.FeatureMilestoneNotices) {
		var out io.Writer = os.Stdout
		if jsonOutput {
			out = os.Stderr
		}
		notifier := service.MultiNotifier{
			service.NewConsoleNotifier(out),
			service.NewLogNotifier(a.log),
		}
		h := eventhandler.NewOnMemberMilestoneHandler(notifier, a.cfg.Guild.UserID, a.log)
		if err := a.dispatcher.Register("milestone_notices", h.Handle, eventhandler.MilestoneEvents...); err != nil {
			return err
		}
	}

	return a.dispatcher.Start()
}

func (a *app) openOracle() *oracle.Client {
	oc := a.cfg.Oracle
	if !oc.Enabled() {
		return nil
	}
	cfg := oracle.DefaultConfig(oc.APIKey)
	if oc.Model != "" {
		cfg.Model = oc.Model
	}
	if oc.MaxTokens > 0 {
		cfg.MaxTokens = int64(oc.MaxTokens)
	}
	if oc.Timeout > 0 {
		cfg.Timeout = oc.Timeout
	}
	cfg.MaxRetries = oc.MaxRetries
	if oc.RequestsPerSecond > 0 {
		cfg.RateLimiter.RequestsPerSecond = oc.RequestsPerSecond
	}
	if oc.BurstSize > 0 {
		cfg.RateLimiter.BurstSize = oc.BurstSize
	}

	client, err := oracle.NewClient(cfg, circuitbreaker.OracleBreaker(a.onBreakerChange), a.log)
	if err != nil {
		a.log.Warn("oracle disabled", logger.Err(err))
		return nil
	}
	return client
}
