// Package announce broadcasts coordinator announcements, such as a new
// ledger opening, to a configured chat.
//
// The Plugin turns engine hooks into Announcements and hands them to a
// Sink. DirectSink pushes them straight to the chat; Publisher queues them
// on RabbitMQ, where Consume delivers them to a DirectSink elsewhere.
package announce

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/groupbuy/bot"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/plugin"
	"github.com/xraph/groupbuy/reply"
)

// Announcement kinds.
const (
	KindLedgerCreated = "ledger.created"
	KindLedgerStatus  = "ledger.status"
)

// Announcement is one message for a chat.
type Announcement struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Ledger    string    `json:"ledger"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink delivers announcements.
type Sink interface {
	Announce(ctx context.Context, a Announcement) error
}

// DirectSink pushes announcements through the chat transport.
type DirectSink struct {
	pusher bot.Pusher
}

// NewDirectSink creates a sink that pushes through p.
func NewDirectSink(p bot.Pusher) *DirectSink {
	return &DirectSink{pusher: p}
}

// Announce implements Sink.
func (s *DirectSink) Announce(ctx context.Context, a Announcement) error {
	return s.pusher.Push(ctx, a.To, a.Text)
}

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Plugin)(nil)
	_ plugin.OnLedgerCreated       = (*Plugin)(nil)
	_ plugin.OnLedgerStatusChanged = (*Plugin)(nil)
)

// Plugin announces ledger creation and status changes.
type Plugin struct {
	sink         Sink
	to           string
	logger       *slog.Logger
	statusChange bool
}

// Option configures the Plugin.
type Option func(*Plugin)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Plugin) { p.logger = l }
}

// WithStatusChanges also announces ledgers being opened or closed.
func WithStatusChanges(on bool) Option {
	return func(p *Plugin) { p.statusChange = on }
}

// NewPlugin announces to the chat id to through sink.
func NewPlugin(sink Sink, to string, opts ...Option) *Plugin {
	p := &Plugin{
		sink:   sink,
		to:     to,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "announce" }

// OnLedgerCreated implements plugin.OnLedgerCreated.
func (p *Plugin) OnLedgerCreated(ctx context.Context, l *ledger.Ledger) error {
	return p.send(ctx, KindLedgerCreated, l.Title, reply.LedgerCreated(l))
}

// OnLedgerStatusChanged implements plugin.OnLedgerStatusChanged.
func (p *Plugin) OnLedgerStatusChanged(ctx context.Context, l *ledger.Ledger, _ ledger.Status) error {
	if !p.statusChange {
		return nil
	}
	return p.send(ctx, KindLedgerStatus, l.Title, reply.StatusChanged(l))
}

func (p *Plugin) send(ctx context.Context, kind, title, text string) error {
	if p.to == "" {
		return nil
	}

	a := Announcement{
		ID:        uuid.NewString(),
		Kind:      kind,
		Ledger:    title,
		To:        p.to,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.sink.Announce(ctx, a); err != nil {
		p.logger.Warn("announcement failed",
			"id", a.ID,
			"kind", kind,
			"ledger", title,
			"error", err,
		)
		return err
	}
	return nil
}
