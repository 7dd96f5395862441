package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/spendtrail/spendtraild/internal/badge"
	"github.com/spendtrail/spendtraild/internal/bus"
	"github.com/spendtrail/spendtraild/internal/classify"
	"github.com/spendtrail/spendtraild/internal/config"
	"github.com/spendtrail/spendtraild/internal/ingest"
	"github.com/spendtrail/spendtraild/internal/kv"
	"github.com/spendtrail/spendtraild/internal/location"
	"github.com/spendtrail/spendtraild/internal/lock"
	"github.com/spendtrail/spendtraild/internal/logging"
	"github.com/spendtrail/spendtraild/internal/metrics"
	"github.com/spendtrail/spendtraild/internal/profile"
	"github.com/spendtrail/spendtraild/internal/queue"
	"github.com/spendtrail/spendtraild/internal/settings"
	"github.com/spendtrail/spendtraild/internal/status"
	"github.com/spendtrail/spendtraild/internal/store"
	"github.com/spendtrail/spendtraild/internal/syncengine"
	"github.com/spendtrail/spendtraild/internal/webhook"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved profile configuration passed to the fx module.
type Params struct {
	ProfileName string
	Config      *config.Config
	SocketPath  string // optional override for testing; empty = use default
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideStateMachine,
			provideLock,
			provideStore,
			provideKV,
			provideBadge,
			provideQueue,
			provideSettings,
			provideClassifier,
			provideEnricher,
			provideWebhookClient,
			provideSyncEngine,
			provideIngestHandler,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) *config.Config {
	if p.Config != nil {
		return p.Config
	}
	return config.Default()
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.Dir(p.ProfileName))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.ProfileName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideKV(p Params, cfg *config.Config, db *store.DB, logger *zap.Logger) (kv.Store, error) {
	switch cfg.Storage.Backend {
	case "", "sqlite":
		return kv.NewSQLiteStore(db), nil
	case "redis":
		client := kv.NewRedisClient(cfg.Storage)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kv.Ping(ctx, client); err != nil {
			return nil, err
		}
		logger.Info("redis storage backend", zap.String("addr", cfg.Storage.RedisAddr))
		return kv.NewRedisStore(client, p.ProfileName), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func provideBadge(store kv.Store, logger *zap.Logger) *badge.Counter {
	return badge.NewCounter(store, logger)
}

func provideQueue(store kv.Store, badgeCounter *badge.Counter, logger *zap.Logger) *queue.Store {
	return queue.NewStore(store, badgeCounter, logger)
}

func provideSettings(cfg *config.Config, store kv.Store, logger *zap.Logger) *settings.Settings {
	return settings.New(store, cfg.SMS.AutoSyncDefault, logger)
}

func provideClassifier(cfg *config.Config) *classify.Classifier {
	return classify.New(cfg.SMS.BankSenders, cfg.SMS.Keywords)
}

func provideEnricher(cfg *config.Config, logger *zap.Logger) *location.Enricher {
	var provider location.Provider = location.NullProvider{}
	if cfg.Location.Lat != nil && cfg.Location.Lng != nil {
		provider = location.FixedProvider{Pos: location.Coordinates{
			Lat: cfg.Location.Lat,
			Lng: cfg.Location.Lng,
		}}
	}
	return location.NewEnricher(provider, cfg.Location.Timeout(), logger)
}

func provideWebhookClient(cfg *config.Config, logger *zap.Logger) webhook.Submitter {
	return webhook.NewClient(cfg.API.BaseURL, cfg.API.WebhookKey, cfg.API.Timeout(), logger)
}

func provideSyncEngine(cfg *config.Config, q *queue.Store, client webhook.Submitter, db *store.DB, machine *status.Machine, b *bus.Bus, logger *zap.Logger) *syncengine.Engine {
	return syncengine.NewEngine(q, client, db, machine, b, cfg.Sync.Interval(), logger)
}

func provideIngestHandler(
	classifier *classify.Classifier,
	enricher *location.Enricher,
	client webhook.Submitter,
	q *queue.Store,
	st *settings.Settings,
	db *store.DB,
	b *bus.Bus,
	logger *zap.Logger,
) *ingest.Handler {
	return ingest.NewHandler(classifier, enricher, client, q, st, db, b, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, engine *syncengine.Engine, machine *status.Machine, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			metrics.Register()

			// Start control server in background.
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("control server error", zap.Error(err))
				}
			}()

			// Start background drain if configured.
			engine.Start(context.Background())

			if err := machine.Transition(status.Ready); err != nil {
				return err
			}
			logger.Info("daemon ready")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			engine.Stop()
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
