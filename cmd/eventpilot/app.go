package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/eventpilot/cache"
	"github.com/c360studio/eventpilot/config"
	"github.com/c360studio/eventpilot/llm"
	"github.com/c360studio/eventpilot/model"
	"github.com/c360studio/eventpilot/pipeline"
	"github.com/c360studio/eventpilot/search"
	"github.com/c360studio/eventpilot/server"
	"github.com/c360studio/eventpilot/venues"
)

// App holds the wired service: orchestrator, cache, venue table, and the
// optional file watcher. Close releases background resources.
type App struct {
	Config       *config.Config
	Orchestrator *pipeline.Orchestrator
	Cache        *cache.Cache
	Table        *venues.Table

	watcher *venues.Watcher
	logger  *slog.Logger
}

// NewApp wires every component from configuration.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := model.NewSingleEndpointRegistry("default", "openai", cfg.Model.Endpoint, cfg.Model.Default)
	completer := llm.NewClient(registry,
		llm.WithTimeout(cfg.Model.Timeout),
		llm.WithLogger(logger))

	extractor := pipeline.NewLLMExtractor(completer, logger)
	drafter := pipeline.NewLLMDrafter(completer, logger,
		pipeline.WithDraftTemperature(cfg.Model.Temperature))

	var searcher search.Client
	if cfg.Search.Endpoint != "" {
		searcher = search.NewHTTPClient(cfg.Search.Endpoint,
			search.WithTimeout(cfg.Search.Timeout),
			search.WithLogger(logger))
	}

	table, watcher, err := buildVenueTable(cfg, logger)
	if err != nil {
		return nil, err
	}

	var resultCache *cache.Cache
	if cfg.Cache.Enabled {
		resultCache = cache.New(cfg.Cache.MaxEntries, cfg.Cache.TTL, cfg.Cache.SweepInterval, logger)
	}

	limits := pipeline.Limits{
		MinInputLength: cfg.Planner.MinInputLength,
		MaxInputLength: cfg.Planner.MaxInputLength,
		MaxAttendees:   cfg.Planner.MaxAttendees,
		BudgetFloor:    cfg.Planner.BudgetFloor,
	}

	venueOpts := []pipeline.VenueSearchOption{
		pipeline.WithSearchLimit(cfg.Search.MaxResults),
	}
	if cfg.Search.Enrich {
		venueOpts = append(venueOpts,
			pipeline.WithDescriber(search.NewEnricher(cfg.Search.Timeout, logger)))
	}

	executors := []pipeline.Executor{
		pipeline.NewParseStage(extractor, logger),
		pipeline.NewValidateStage(limits, logger),
		pipeline.NewPlanStage(drafter, logger),
		pipeline.NewVenueSearchStage(searcher, table, cfg.Search.AllowedDomains, logger, venueOpts...),
		pipeline.NewErrorStage(logger),
	}

	orchestrator, err := pipeline.NewOrchestrator(executors, resultCache, limits, logger)
	if err != nil {
		closeQuietly(resultCache, watcher)
		return nil, fmt.Errorf("wire orchestrator: %w", err)
	}

	return &App{
		Config:       cfg,
		Orchestrator: orchestrator,
		Cache:        resultCache,
		Table:        table,
		watcher:      watcher,
		logger:       logger,
	}, nil
}

// buildVenueTable loads the venue table and, when configured, a watcher
// that hot-reloads it on file changes.
func buildVenueTable(cfg *config.Config, logger *slog.Logger) (*venues.Table, *venues.Watcher, error) {
	if cfg.Venues.TablePath == "" {
		return venues.NewDefaultTable(), nil, nil
	}

	table, err := venues.LoadTable(cfg.Venues.TablePath)
	if err != nil {
		return nil, nil, fmt.Errorf("load venue table: %w", err)
	}
	if !cfg.Venues.Watch {
		return table, nil, nil
	}

	watcher, err := venues.NewWatcher(table, cfg.Venues.TablePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("watch venue table: %w", err)
	}
	return table, watcher, nil
}

// StartWatcher begins venue-table hot reloading if configured.
func (a *App) StartWatcher(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Start(ctx)
	}
}

// Serve runs the HTTP API until the context is cancelled.
func (a *App) Serve(ctx context.Context) error {
	component := server.New(a.Orchestrator, a.Cache, a.logger)
	srv := server.NewServer(a.Config.Server.Addr, component, a.Config.Server.ShutdownTimeout, a.logger)
	return srv.Run(ctx)
}

// Close releases the cache sweeper and the venue watcher.
func (a *App) Close() {
	closeQuietly(a.Cache, a.watcher)
}

func closeQuietly(c *cache.Cache, w *venues.Watcher) {
	if c != nil {
		c.Close()
	}
	if w != nil {
		_ = w.Close()
	}
}

// planTimeout bounds a one-shot CLI run.
const planTimeout = 3 * time.Minute
