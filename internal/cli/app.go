package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ppiankov/lieblocker/internal/analyze"
	"github.com/ppiankov/lieblocker/internal/cache"
	"github.com/ppiankov/lieblocker/internal/extract/adapters"
	"github.com/ppiankov/lieblocker/internal/model"
	"github.com/ppiankov/lieblocker/internal/pipeline"
	"github.com/ppiankov/lieblocker/internal/settings"
	"github.com/ppiankov/lieblocker/internal/store"
	"github.com/ppiankov/lieblocker/internal/store/postgres"
	"github.com/ppiankov/lieblocker/internal/store/sqlite"
)

const defaultSQLitePath = "~/" + configDirName + "/results.db"

// app holds the collaborators every command shares
type app struct {
	cfg       model.Config
	log       *slog.Logger
	local     cache.Cache
	remote    store.Remote
	store     *store.ResultStore
	settings  *settings.Merged
	extractor *adapters.Registry
	analyzer  *analyze.Analyzer
	fetcher   *pipeline.Fetcher
}

// newApp builds the shared stack from the merged configuration
func newApp(ctx context.Context, v *viper.Viper) (*app, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg.Log)

	local, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	remote, err := openRemote(ctx, cfg.Remote, log)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	fetcher := pipeline.NewFetcher(
		cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes, cfg.HTTP.RespectRobots,
		cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy,
	).WithCache(local, cfg.Cache.MemoryTTL).WithLogger(log)

	return &app{
		cfg:    cfg,
		log:    log,
		local:  local,
		remote: remote,
		store:  store.NewResultStore(remote, local, log),
		settings: &settings.Merged{
			Secure: settings.NewEnvSource(),
			Plain:  settings.NewViperSource(v, settingsPrefix),
			Logger: log,
		},
		extractor: adapters.NewRegistry(adapters.Options{
			SettleDelay:     cfg.Extraction.SettleDelay,
			StrategyTimeout: cfg.Extraction.StrategyTimeout,
			Logger:          log,
		}),
		analyzer: analyze.New(analyze.WithHTTPClient(fetcher.Client()), analyze.WithLogger(log)),
		fetcher:  fetcher,
	}, nil
}

// newPipeline returns a single-URL pipeline over the shared stack
func (a *app) newPipeline() *pipeline.Pipeline {
	return pipeline.NewPipeline(a.fetcher, pipeline.Options{
		Settings:  a.settings,
		Extractor: a.extractor,
		Analyzer:  a.analyzer,
		Store:     a.store,
		Logger:    a.log,
	})
}

func (a *app) Close() {
	if a.remote != nil {
		if err := a.remote.Close(); err != nil {
			a.log.Warn("close remote store", "error", err)
		}
	}
	if err := a.local.Close(); err != nil {
		a.log.Warn("close cache", "error", err)
	}
}

// openRemote connects the configured structured store. The none driver
// leaves the result store local only.
func openRemote(ctx context.Context, cfg model.RemoteConfig, log *slog.Logger) (store.Remote, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return nil, nil
	case "postgres", "postgresql":
		s, err := postgres.Connect(ctx, cfg.DSN, log)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return s, nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		path, err := cache.ExpandHome(dsn)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		s, err := sqlite.Open(path, log)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown remote driver %q (supported: none, postgres, sqlite)", cfg.Driver)
	}
}
