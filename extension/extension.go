// Package extension provides the Forge extension adapter for groupbuy.
//
// It implements the forge.Extension interface to integrate the group-buy
// engine and its LINE bot into a Forge application with automatic
// dependency discovery, DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.groupbuy" or "groupbuy" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/announce"
	audithook "github.com/xraph/groupbuy/audit_hook"
	"github.com/xraph/groupbuy/bot"
	"github.com/xraph/groupbuy/line"
	"github.com/xraph/groupbuy/observability"
	"github.com/xraph/groupbuy/query"
	"github.com/xraph/groupbuy/store"
	"github.com/xraph/groupbuy/store/memory"
	"github.com/xraph/groupbuy/store/mongo"
	"github.com/xraph/groupbuy/store/postgres"
	"github.com/xraph/groupbuy/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "groupbuy"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Chat-driven group-buy order ledgers"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts groupbuy as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *groupbuy.Engine
	queries    *query.Service
	bot        *bot.Bot
	store      store.Store
	engineOpts []groupbuy.Option
	useGrove   bool
}

// New creates a new groupbuy Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *groupbuy.Engine { return e.engine }

// Bot returns the command bot. It is nil until Register is called.
func (e *Extension) Bot() *bot.Bot { return e.bot }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine and bot, registers them in the DI container and
// mounts the webhook.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil && e.useGrove {
		s, err := e.resolveGroveStore(fapp)
		if err != nil {
			return err
		}
		e.store = s
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	client, err := e.lineClient()
	if err != nil {
		return err
	}

	logger := slog.Default()
	opts := e.buildEngineOpts(fapp, client, logger)
	e.engine = groupbuy.New(e.store, opts...)
	e.queries = query.NewService(e.store, query.WithLogger(logger))
	e.bot = bot.New(e.engine, e.queries, client, client,
		bot.WithLogger(logger),
		bot.WithCoordinators(e.config.Coordinators...),
		bot.WithEchoUnrecognized(e.config.EchoUnrecognized),
		bot.WithConcurrency(e.config.Concurrency),
	)

	if err := vessel.Provide(fapp.Container(), func() (*groupbuy.Engine, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}
	if err := vessel.Provide(fapp.Container(), func() (*query.Service, error) {
		return e.queries, nil
	}); err != nil {
		return err
	}

	if !e.config.DisableRoutes {
		return e.registerRoutes(fapp.Router())
	}
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("groupbuy: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(ctx context.Context) error {
	defer e.MarkStopped()
	if e.engine != nil {
		return e.engine.Stop(ctx)
	}
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("groupbuy: store not initialized")
	}
	return e.store.Ping(ctx)
}

func (e *Extension) registerRoutes(r forge.Router) error {
	handler := line.NewWebhookHandler(e.config.ChannelSecret, e.bot, slog.Default())
	return r.Group(e.config.BasePath).POST("/webhook", handler,
		forge.WithName("groupbuy.webhook"),
		forge.WithSummary("LINE Messaging API webhook"),
		forge.WithTags("groupbuy"),
	)
}

func (e *Extension) lineClient() (*line.Client, error) {
	var opts []line.ClientOption
	if e.config.LINEEndpoint != "" {
		opts = append(opts, line.WithEndpoint(e.config.LINEEndpoint))
	}
	client, err := line.NewClient(e.config.ChannelAccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("groupbuy: %w", err)
	}
	return client, nil
}

// buildEngineOpts constructs groupbuy.Option values from the resolved config.
func (e *Extension) buildEngineOpts(fapp forge.App, client *line.Client, logger *slog.Logger) []groupbuy.Option {
	opts := make([]groupbuy.Option, 0, len(e.engineOpts)+4)
	opts = append(opts,
		groupbuy.WithLogger(logger),
		groupbuy.WithPlugin(audithook.New(audithook.SlogRecorder{Logger: logger}, audithook.WithLogger(logger))),
	)

	if m := fapp.Metrics(); m != nil {
		opts = append(opts, groupbuy.WithPlugin(observability.NewMetricsExtension(observability.NewCollector(m))))
	}

	if e.config.AnnounceTo != "" {
		opts = append(opts, groupbuy.WithPlugin(announce.NewPlugin(
			announce.NewDirectSink(client), e.config.AnnounceTo,
			announce.WithLogger(logger),
		)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// resolveGroveStore pulls a grove.DB out of the container and wraps it in
// the store matching its driver.
func (e *Extension) resolveGroveStore(fapp forge.App) (store.Store, error) {
	var (
		db  *grove.DB
		err error
	)
	if e.config.GroveDatabase != "" {
		db, err = vessel.InjectNamed[*grove.DB](fapp.Container(), e.config.GroveDatabase)
	} else {
		db, err = vessel.Inject[*grove.DB](fapp.Container())
	}
	if err != nil {
		return nil, fmt.Errorf("groupbuy: resolve grove database: %w", err)
	}
	return storeFor(db)
}

func storeFor(db *grove.DB) (store.Store, error) {
	switch name := db.Driver().Name(); name {
	case "pg":
		return postgres.New(db), nil
	case "sqlite":
		return sqlite.New(db), nil
	case "mongo":
		return mongo.New(db), nil
	default:
		return nil, fmt.Errorf("groupbuy: unsupported grove driver %q", name)
	}
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("groupbuy: configuration is required but not found in config files; " +
				"ensure 'extensions.groupbuy' or 'groupbuy' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("groupbuy: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("coordinators", len(e.config.Coordinators)),
		forge.F("announce", e.config.AnnounceTo != ""),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.groupbuy", "groupbuy"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("groupbuy: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("groupbuy: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")
	if cfg.Concurrency == 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.EchoUnrecognized {
		yamlConfig.EchoUnrecognized = true
	}

	// String fields: YAML takes precedence.
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&yamlConfig.BasePath, programmaticConfig.BasePath)
	fill(&yamlConfig.ChannelSecret, programmaticConfig.ChannelSecret)
	fill(&yamlConfig.ChannelAccessToken, programmaticConfig.ChannelAccessToken)
	fill(&yamlConfig.LINEEndpoint, programmaticConfig.LINEEndpoint)
	fill(&yamlConfig.AnnounceTo, programmaticConfig.AnnounceTo)
	fill(&yamlConfig.GroveDatabase, programmaticConfig.GroveDatabase)

	if len(yamlConfig.Coordinators) == 0 {
		yamlConfig.Coordinators = programmaticConfig.Coordinators
	}
	if yamlConfig.Concurrency == 0 {
		yamlConfig.Concurrency = programmaticConfig.Concurrency
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
