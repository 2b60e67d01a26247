package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/amishk599/jobpulse/internal/adapter"
	"github.com/amishk599/jobpulse/internal/ai"
	"github.com/amishk599/jobpulse/internal/analytics"
	"github.com/amishk599/jobpulse/internal/checkpoint"
	"github.com/amishk599/jobpulse/internal/config"
	"github.com/amishk599/jobpulse/internal/connector"
	"github.com/amishk599/jobpulse/internal/filter"
	"github.com/amishk599/jobpulse/internal/metrics"
	"github.com/amishk599/jobpulse/internal/model"
	"github.com/amishk599/jobpulse/internal/normalize"
	"github.com/amishk599/jobpulse/internal/pipeline"
	"github.com/amishk599/jobpulse/internal/ratelimit"
	"github.com/amishk599/jobpulse/internal/report"
	"github.com/amishk599/jobpulse/internal/retry"
	"github.com/amishk599/jobpulse/internal/staging"
	"github.com/amishk599/jobpulse/internal/telemetry"
	"github.com/amishk599/jobpulse/internal/warehouse"
)

// cleanups runs deferred closers in reverse order.
type cleanups []func()

func (c *cleanups) add(fn func()) { *c = append(*c, fn) }

func (c cleanups) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func createSource(sc config.SourceConfig, cfg *config.Config, httpClient *http.Client) (model.Source, bool) {
	ua := cfg.HTTP.UserAgent
	switch sc.Type {
	case "remoteok":
		return adapter.NewRemoteOKAdapter(sc.Name, sc.BaseURL, httpClient, ua), true
	case "weworkremotely":
		return adapter.NewWeWorkRemotelyAdapter(sc.Name, sc.BaseURL, sc.Categories, httpClient, ua), true
	case "ycombinator":
		return adapter.NewYCombinatorAdapter(sc.Name, sc.BaseURL, httpClient, ua), true
	case "naukri":
		return adapter.NewNaukriAdapter(sc.Name, sc.BaseURL, sc.Role, httpClient, ua), true
	default:
		return nil, false
	}
}

// selectSources returns the enabled sources, narrowed to names when given.
func selectSources(cfg *config.Config, names []string) ([]config.SourceConfig, error) {
	enabled := cfg.EnabledSources()
	if len(names) == 0 {
		return enabled, nil
	}
	var out []config.SourceConfig
	for _, name := range names {
		i := slices.IndexFunc(enabled, func(s config.SourceConfig) bool { return s.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("source %q is not configured or not enabled", name)
		}
		out = append(out, enabled[i])
	}
	return out, nil
}

func buildConnectors(
	cfg *config.Config,
	sources []config.SourceConfig,
	checkpoints model.CheckpointStore,
	stager connector.Stager,
	logger *slog.Logger,
) []*connector.Connector {
	httpClient := telemetry.NewHTTPClient(cfg.HTTP.Timeout)
	limiter := ratelimit.NewSourceRateLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.SourceOverrides)
	titleFilter := filter.NewTitleFilter(cfg.Filters.TitleKeywords, cfg.Filters.TitleExcludeKeywords)

	var out []*connector.Connector
	for _, sc := range sources {
		src, ok := createSource(sc, cfg, httpClient)
		if !ok {
			logger.Warn("unsupported source type, skipping", "source", sc.Name, "type", sc.Type)
			continue
		}
		src = ratelimit.NewRateLimitedSource(src, limiter)
		src = retry.NewRetrySource(src, cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, logger)

		limits := connector.Limits{MaxPages: sc.MaxPages, MaxItems: sc.MaxItems}
		out = append(out, connector.New(src, titleFilter, checkpoints, stager, limits, logger))
		logger.Debug("registered source", "name", sc.Name, "type", sc.Type, "max_pages", sc.MaxPages)
	}
	return out
}

// openWarehouse opens the configured store and applies the schema.
func openWarehouse(ctx context.Context, cfg *config.Config) (*warehouse.Store, error) {
	store, err := warehouse.Open(ctx, cfg.Warehouse.Driver, cfg.Warehouse.DSN)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// openCheckpoints returns the configured checkpoint store. store may be nil
// unless the backend is "warehouse".
func openCheckpoints(cfg *config.Config, store *warehouse.Store) (model.CheckpointStore, error) {
	switch cfg.Checkpoints.Backend {
	case "warehouse":
		if store == nil {
			return nil, fmt.Errorf("warehouse checkpoints need an open warehouse")
		}
		return store.Checkpoints(), nil
	default:
		return checkpoint.NewFileStore(cfg.Checkpoints.Dir)
	}
}

func setupTagger(cfg *config.Config, logger *slog.Logger) normalize.TermExtractor {
	if !cfg.AI.Enabled {
		return nil
	}
	provider := ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, telemetry.NewHTTPClient(cfg.AI.Timeout))
	logger.Info("ai skill tagger enabled", "model", cfg.AI.Model)
	return ai.NewSkillTagger(provider, nil, logger)
}

func buildNormalizer(cfg *config.Config, tagger normalize.TermExtractor, logger *slog.Logger) *normalize.Normalizer {
	extra := make([]normalize.Term, len(cfg.Normalizer.ExtraSkills))
	for i, s := range cfg.Normalizer.ExtraSkills {
		extra[i] = normalize.Term{Name: s.Name, Category: s.Category, Aliases: s.Aliases}
	}
	return normalize.New(normalize.DefaultVocabulary(extra...), cfg.Normalizer.HeuristicTerms, tagger, logger)
}

func setupEngine(cfg *config.Config, store *warehouse.Store, logger *slog.Logger) (*analytics.Engine, func(), error) {
	forecaster, err := analytics.NewForecaster(cfg.Analytics.Forecaster, cfg.Analytics.SeasonLength)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	var opts []analytics.Option
	switch cfg.Analytics.Cache.Type {
	case "memory":
		opts = append(opts, analytics.WithCache(analytics.NewMemoryCache(), cfg.Analytics.Cache.TTL))
	case "redis":
		rc := analytics.NewRedisCache(cfg.Analytics.Cache.RedisAddr, cfg.Analytics.Cache.RedisPassword, cfg.Analytics.Cache.RedisDB)
		opts = append(opts, analytics.WithCache(rc, cfg.Analytics.Cache.TTL))
		closeFn = func() { _ = rc.Close() }
		logger.Debug("analytics cache: redis", "addr", cfg.Analytics.Cache.RedisAddr)
	}
	return analytics.NewEngine(store, forecaster, logger, opts...), closeFn, nil
}

func setupReporter(cfg *config.Config, logger *slog.Logger) (model.Reporter, func(), error) {
	switch cfg.Reporting.Type {
	case "slack":
		logger.Info("using slack reporter")
		return report.NewSlackReporter(cfg.Reporting.WebhookURL, telemetry.NewHTTPClient(cfg.HTTP.Timeout), logger), func() {}, nil
	case "nats":
		r, err := report.NewNATSReporter(cfg.Reporting.NATSURL, cfg.Reporting.NATSSubject, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using nats reporter", "subject", cfg.Reporting.NATSSubject)
		return r, func() { _ = r.Close() }, nil
	default:
		return report.NewLogReporter(logger), func() {}, nil
	}
}

// runOptions shape one pipeline build.
type runOptions struct {
	DryRun   bool
	Sources  []string // empty means every enabled source
	Progress func(done, total int)
	Metrics  *metrics.Pipeline
}

// buildPipeline wires every stage from config. The returned cleanups must
// be run once the pipeline is no longer used.
func buildPipeline(ctx context.Context, cfg *config.Config, opts runOptions, logger *slog.Logger) (*pipeline.Pipeline, cleanups, error) {
	var done cleanups
	fail := func(err error) (*pipeline.Pipeline, cleanups, error) {
		done.run()
		return nil, nil, err
	}

	sources, err := selectSources(cfg, opts.Sources)
	if err != nil {
		return fail(err)
	}
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}

	var store *warehouse.Store
	if !opts.DryRun || cfg.Checkpoints.Backend == "warehouse" {
		if store, err = openWarehouse(ctx, cfg); err != nil {
			return fail(fmt.Errorf("opening warehouse: %w", err))
		}
		done.add(func() { store.Close() })
	}

	checkpoints, err := openCheckpoints(cfg, store)
	if err != nil {
		return fail(err)
	}

	stagingDir := cfg.StagingDir()
	if opts.DryRun {
		// Dry runs stage into a scratch dir and keep checkpoints in memory,
		// seeded so already-ingested postings are still skipped.
		mem := checkpoint.NewMemoryStore()
		if err := seedDryRun(ctx, mem, checkpoints, names); err != nil {
			return fail(err)
		}
		checkpoints = mem
		if stagingDir, err = os.MkdirTemp("", "jobpulse-dryrun-"); err != nil {
			return fail(err)
		}
		dir := stagingDir
		done.add(func() { os.RemoveAll(dir) })
	}
	stager := staging.NewStore(stagingDir)

	reporter, closeReporter, err := setupReporter(cfg, logger)
	if err != nil {
		return fail(err)
	}
	done.add(closeReporter)

	stages := pipeline.Stages{
		Sources:     names,
		Staging:     stager,
		Checkpoints: checkpoints,
		Normalizer:  buildNormalizer(cfg, setupTagger(cfg, logger), logger),
		Reporter:    reporter,
		Metrics:     opts.Metrics,
	}
	for _, c := range buildConnectors(cfg, sources, checkpoints, stager, logger) {
		stages.Ingesters = append(stages.Ingesters, c)
	}

	if !opts.DryRun {
		loader := warehouse.NewLoader(store, cfg.Loader.BatchSize, logger)
		if opts.Progress != nil {
			loader.OnProgress(opts.Progress)
		}
		stages.Loader = loader

		engine, closeEngine, err := setupEngine(cfg, store, logger)
		if err != nil {
			return fail(err)
		}
		done.add(closeEngine)
		stages.Snapshotter = pipeline.NewTrendingSnapshotter(engine, store, cfg.Analytics.TrendingWindow, cfg.Analytics.TopN)
	}

	p := pipeline.New(stages, pipeline.Options{
		Parallelism: cfg.SourceConcurrency,
		DryRun:      opts.DryRun,
	}, logger)
	return p, done, nil
}

// seedDryRun copies real checkpoints into mem with loaded offsets reset,
// since the dry run stages into an empty scratch dir.
func seedDryRun(ctx context.Context, mem *checkpoint.MemoryStore, from model.CheckpointStore, names []string) error {
	if err := mem.Seed(ctx, from, names); err != nil {
		return fmt.Errorf("seeding dry-run checkpoints: %w", err)
	}
	for _, name := range names {
		cp, err := mem.Get(ctx, name)
		if err != nil {
			return err
		}
		cp.LoadedOffset = 0
		if err := mem.Put(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}
