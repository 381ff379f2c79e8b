// Package daemon composes the background sync daemon from its parts.
package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/nexoft/phonebook/internal/bus"
	"github.com/nexoft/phonebook/internal/config"
	"github.com/nexoft/phonebook/internal/device"
	"github.com/nexoft/phonebook/internal/lock"
	"github.com/nexoft/phonebook/internal/logging"
	"github.com/nexoft/phonebook/internal/profile"
	"github.com/nexoft/phonebook/internal/remote"
	"github.com/nexoft/phonebook/internal/status"
	"github.com/nexoft/phonebook/internal/store"
	intsync "github.com/nexoft/phonebook/internal/sync"
)

// Params holds the resolved profile passed to the fx module.
type Params struct {
	Profile string
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
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
			provideDirectory,
			provideBook,
			provideEngine,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	return config.LoadOrDefault(profile.ConfigPath())
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile), p.Profile)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, b *bus.Bus, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.DBPath(p.Profile)
	db, err := store.Open(dbPath, b)
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

func provideDirectory(cfg *config.Config, logger *zap.Logger) intsync.Directory {
	return remote.NewClient(cfg.API.BaseURL, cfg.API.Key, cfg.Timeout(), logger)
}

func provideBook(p Params, cfg *config.Config) device.Book {
	path := cfg.Device.BookPath
	if path == "" {
		path = profile.BookPath(p.Profile)
	}
	return device.NewFileBook(path)
}

func provideEngine(db *store.DB, dir intsync.Directory, book device.Book, b *bus.Bus, m *status.Machine, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(db, dir, book, b, m, logger)
}

func registerLifecycle(lc fx.Lifecycle, cfg *config.Config, engine *intsync.Engine, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			engine.Start(context.Background(), cfg.RefreshInterval())
			logger.Info("sync engine started",
				zap.Duration("refresh_interval", cfg.RefreshInterval()))
			return nil
		},
		OnStop: func(_ context.Context) error {
			engine.Stop()
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
