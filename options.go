package groupbuy

import (
	"log/slog"
	"strings"

	"github.com/xraph/groupbuy/plugin"
)

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		if err := e.plugins.Register(p); err != nil {
			e.logger.Warn("plugin registration failed", "plugin", p.Name(), "error", err)
		}
	}
}

// WithCurrency sets the currency unit prices are quoted in.
func WithCurrency(code string) Option {
	return func(e *Engine) {
		if code != "" {
			e.currency = strings.ToLower(code)
		}
	}
}
