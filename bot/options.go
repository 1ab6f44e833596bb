package bot

import "log/slog"

// DefaultConcurrency bounds how many events of one batch run at once.
const DefaultConcurrency = 8

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) { b.logger = l }
}

// WithCoordinators sets the user ids allowed to run coordinator commands.
func WithCoordinators(ids ...string) Option {
	return func(b *Bot) {
		for _, id := range ids {
			if id != "" {
				b.coordinators[id] = struct{}{}
			}
		}
	}
}

// WithEchoUnrecognized makes the bot repeat text it does not understand.
func WithEchoUnrecognized(echo bool) Option {
	return func(b *Bot) { b.echo = echo }
}

// WithConcurrency sets how many events of one batch are handled at once.
func WithConcurrency(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.concurrency = n
		}
	}
}
