package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/five82/cargodash/internal/cargo"
	"github.com/five82/cargodash/internal/config"
	"github.com/five82/cargodash/internal/logging"
	"github.com/five82/cargodash/internal/prefs"
	"github.com/five82/cargodash/internal/section"
	"github.com/five82/cargodash/internal/state"
	"github.com/five82/cargodash/internal/telemetry"
	"github.com/five82/cargodash/internal/ui"
)

// Options configure the cargodash application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses default ~/.config/cargodash/prefs.toml
	PollEvery  time.Duration // zero uses the configured health interval
	Section    string        // start section; empty uses the saved one
}

// Env holds what both the dashboard and the headless commands need.
type Env struct {
	Config  config.Config
	Logger  *zap.Logger
	Client  *cargo.Client
	Metrics *prometheus.Registry
}

// Setup loads configuration and builds the logger, metrics and API client.
func Setup(configPath string) (*Env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector, err := telemetry.NewPrometheusCollector(registry)
	if err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	client, err := cargo.NewClient(cfg.APIBase,
		cargo.WithLogger(logger),
		cargo.WithCollector(collector),
	)
	if err != nil {
		return nil, fmt.Errorf("init cargo client: %w", err)
	}

	return &Env{Config: cfg, Logger: logger, Client: client, Metrics: registry}, nil
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = e.Logger.Sync()
}

// Run boots the cargodash TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(opts.ConfigPath)
	if err != nil {
		return err
	}
	defer env.Close()
	logger := env.Logger

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		logger.Warn("using default preferences", zap.String("path", prefsPath), zap.Error(err))
	}

	startSection := userPrefs.Section
	if opts.Section != "" {
		startSection = opts.Section
	}

	interval := env.Config.HealthInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if bind := env.Config.MetricsBind; bind != "" {
		logger.Info("serving metrics", zap.String("addr", bind))
		g.Go(func() error {
			return telemetry.Serve(gctx, bind, env.Metrics)
		})
	}

	store := &state.Store{}
	pollerDone := StartPoller(gctx, store, env.Client, interval, logger)

	logger.Info("starting dashboard",
		zap.String("api_base", env.Client.BaseURL()),
		zap.String("user", env.Config.UserID),
		zap.Duration("poll", interval))

	g.Go(func() error {
		defer cancel()
		err := ui.Run(ui.Options{
			Context:   gctx,
			Client:    env.Client,
			Store:     store,
			Config:    &env.Config,
			Logger:    logger,
			ThemeName: userPrefs.Theme,
			PrefsPath: prefsPath,
			Section:   section.ID(startSection),
		})
		// A cancelled context kills the program; that is a normal exit.
		if errors.Is(err, tea.ErrProgramKilled) && gctx.Err() != nil {
			return nil
		}
		return err
	})

	err = g.Wait()
	<-pollerDone
	if err != nil {
		logger.Error("dashboard exited", zap.Error(err))
	}
	return err
}
