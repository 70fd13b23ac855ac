package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dyluth/teamboard/internal/backend"
	"github.com/dyluth/teamboard/internal/config"
	"github.com/dyluth/teamboard/internal/loader"
	"github.com/dyluth/teamboard/internal/notify"
	"github.com/dyluth/teamboard/internal/optimistic"
	"github.com/dyluth/teamboard/internal/printer"
	"github.com/dyluth/teamboard/pkg/record"
	"github.com/dyluth/teamboard/pkg/store"
	"github.com/redis/go-redis/v9"
)

// flushTimeout bounds how long a command waits for its last notification.
const flushTimeout = 5 * time.Second

// app is the wiring shared by every command: config, store, loader,
// confirmation backend and notification emitter.
type app struct {
	cfg       *config.TeamboardConfig
	store     *store.Store
	loader    *loader.Loader
	confirmer backend.Confirmer
	policy    optimistic.Policy
	emitter   *notify.Emitter
	rdb       *redis.Client
}

// openApp loads configuration and connects to the configured store.
// Notifications are printed to out and, with the redis driver, published
// for `teamboard watch`.
func openApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := config.LoadOptional(configPath)
	if err != nil {
		return nil, printer.Error(
			"invalid configuration",
			fmt.Sprintf("Error: %v", err),
			[]string{fmt.Sprintf("Fix or remove %s", configPath)},
		)
	}
	if instanceName != "" {
		if err := config.ValidateInstanceName(instanceName); err != nil {
			return nil, printer.Error("invalid instance name", err.Error(), nil)
		}
		cfg.Instance = instanceName
	}

	medium, rdb, err := openMedium(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	st, err := store.New(medium, cfg.Instance)
	if err != nil {
		medium.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	var source loader.Source = loader.NewStaticSource()
	if cfg.Loader.SeedDir != "" {
		source = loader.NewFileSource(cfg.Loader.SeedDir)
	}

	b := cfg.Confirmation.Backend
	sim := backend.NewSimulated(cfg.BackendLatency(), b.FailureRate, b.FailureReason)
	sim.FailIDs = b.FailIDs

	mode, err := optimistic.ParseMode(cfg.Confirmation.Mode)
	if err != nil {
		st.Close()
		return nil, err
	}
	policy := optimistic.UniformPolicy(mode)
	if len(cfg.Confirmation.StoreIDs) > 0 {
		policy = optimistic.IDPolicy(cfg.Confirmation.StoreIDs, optimistic.ModeStore, optimistic.ModeShared)
	}

	sinks := notify.MultiSink{notify.NewConsoleSink(out)}
	if rdb != nil {
		sinks = append(sinks, notify.NewRedisSink(rdb, cfg.Instance))
	}

	return &app{
		cfg:       cfg,
		store:     st,
		loader:    loader.New(st, source, loader.WithDelay(cfg.LoaderDelay())),
		confirmer: sim,
		policy:    policy,
		emitter:   notify.NewEmitter(sinks, cfg.NotificationDelay()),
		rdb:       rdb,
	}, nil
}

func openMedium(ctx context.Context, sc *config.StorageConfig) (store.Medium, *redis.Client, error) {
	switch sc.Driver {
	case config.DriverRedis:
		m, err := store.NewRedisMediumFromURL(sc.RedisURL)
		if err != nil {
			return nil, nil, printer.Error(
				"invalid Redis URL",
				fmt.Sprintf("Error: %v", err),
				[]string{"Check storage.redis_url or TEAMBOARD_REDIS_URL"},
			)
		}
		if err := m.Ping(ctx); err != nil {
			m.Close()
			return nil, nil, printer.ErrorWithContext(
				"Redis connection failed",
				fmt.Sprintf("Could not connect to Redis at %s", sc.RedisURL),
				map[string]string{"Error": err.Error()},
				[]string{
					"Start Redis and retry",
					"Use local storage instead:\n  storage:\n    driver: file",
				},
			)
		}
		return m, m.Client(), nil

	case config.DriverFile:
		m, err := store.NewFileMedium(sc.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		return m, nil, nil

	default:
		return store.NewMemoryMedium(), nil, nil
	}
}

// engine hydrates kind and builds an optimistic engine over it.
func (a *app) engine(ctx context.Context, kind record.Kind) (*optimistic.Engine, error) {
	coll, err := a.loader.Hydrate(ctx, kind)
	if err != nil {
		return nil, err
	}
	return optimistic.New(kind, a.store, coll,
		optimistic.WithConfirmer(a.confirmer),
		optimistic.WithPolicy(a.policy),
		optimistic.WithNotifier(a.emitter),
	)
}

// Close waits for the last scheduled notification, then releases the store.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	_ = a.emitter.Flush(ctx)
	a.emitter.Close()
	return a.store.Close()
}

// loadFailure renders a hydration error. The view is blocked entirely; no
// stale data is shown.
func loadFailure(kind record.Kind, err error) error {
	return printer.Error(
		fmt.Sprintf("failed to load %s", kind),
		err.Error(),
		[]string{
			"Retry the command",
			"Clear the cache and refetch:\n  teamboard reset " + string(kind),
		},
	)
}

func parseKind(arg string) (record.Kind, error) {
	kind, err := record.ParseKind(arg)
	if err != nil {
		return "", printer.Error(
			"unknown kind",
			err.Error(),
			[]string{"Valid kinds: employees, tasks"},
		)
	}
	return kind, nil
}
