package extension

import (
	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/plugin"
	"github.com/xraph/groupbuy/store"
)

// Option configures the groupbuy Forge extension.
type Option func(*Extension)

// WithStore sets the store for the groupbuy engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a groupbuy.Option through to the underlying engine.
func WithEngineOption(opt groupbuy.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a groupbuy plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, groupbuy.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for groupbuy routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithChannel sets the LINE channel secret and access token.
func WithChannel(secret, token string) Option {
	return func(e *Extension) {
		e.config.ChannelSecret = secret
		e.config.ChannelAccessToken = token
	}
}

// WithCoordinators sets the user ids allowed to run keyword commands.
func WithCoordinators(ids ...string) Option {
	return func(e *Extension) { e.config.Coordinators = ids }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI container.
// The extension will auto-construct the appropriate store backend (postgres/sqlite/mongo)
// based on the grove driver type. Pass an empty string to use the default (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}
