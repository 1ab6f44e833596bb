// Package bot turns inbound chat events into ledger operations and replies.
//
// Each event is parsed, executed against the engine or the query service,
// and answered with exactly one reply. Failures are reported to the sender
// of that event and never affect the other events of the batch.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/command"
	"github.com/xraph/groupbuy/query"
	"github.com/xraph/groupbuy/reply"
)

// Bot dispatches chat events.
type Bot struct {
	engine       *groupbuy.Engine
	queries      *query.Service
	replier      Replier
	profiles     Profiles
	logger       *slog.Logger
	coordinators map[string]struct{}
	echo         bool
	concurrency  int
}

// New creates a Bot.
func New(engine *groupbuy.Engine, queries *query.Service, replier Replier, profiles Profiles, opts ...Option) *Bot {
	b := &Bot{
		engine:       engine,
		queries:      queries,
		replier:      replier,
		profiles:     profiles,
		logger:       slog.Default(),
		coordinators: make(map[string]struct{}),
		concurrency:  DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsCoordinator reports whether userID may run coordinator commands.
func (b *Bot) IsCoordinator(userID string) bool {
	_, ok := b.coordinators[userID]
	return ok
}

// HandleEvents handles a webhook batch and returns once every event has
// been answered. The returned error joins reply delivery failures only.
func (b *Bot) HandleEvents(ctx context.Context, events []Event) error {
	errs := make([]error, len(events))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, ev := range events {
		g.Go(func() error {
			errs[i] = b.HandleEvent(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// HandleEvent answers a single event. A panic while computing the answer
// is logged and answered with the busy reply.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic delivering reply",
				"event", ev.ID,
				"user", ev.UserID,
				"panic", r,
			)
			err = groupbuy.Remote("reply", fmt.Errorf("panic: %v", r))
		}
	}()

	text, ok := b.respondRecovered(ctx, ev)
	if !ok {
		return nil
	}
	if err := b.replier.Reply(ctx, ev.ReplyToken, text); err != nil {
		b.logger.Error("reply failed",
			"event", ev.ID,
			"user", ev.UserID,
			"error", err,
		)
		return groupbuy.Remote("reply", err)
	}
	return nil
}

func (b *Bot) respondRecovered(ctx context.Context, ev Event) (text string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic handling event",
				"event", ev.ID,
				"user", ev.UserID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			text, ok = reply.Busy, true
		}
	}()
	return b.Respond(ctx, ev)
}

// Respond computes the reply for ev. It reports false when the event gets
// no reply.
func (b *Bot) Respond(ctx context.Context, ev Event) (string, bool) {
	if ev.Kind != EventText {
		return "", false
	}

	sender := command.Sender{
		UserID:        ev.UserID,
		IsCoordinator: b.IsCoordinator(ev.UserID),
		Source:        ev.Source,
	}
	cmd := command.Parse(ev.Text, sender)

	text, err := b.execute(ctx, ev, sender, cmd)
	if err == nil {
		if text == "" {
			return "", false
		}
		return text, true
	}

	if _, isQuery := cmd.(command.QueryLedger); isQuery && errors.Is(err, groupbuy.ErrNotFound) {
		return b.unrecognized(ev.Text)
	}

	b.logError(ev, cmd, err)
	return reply.Error(err), true
}

func (b *Bot) execute(ctx context.Context, ev Event, sender command.Sender, cmd command.Command) (string, error) {
	switch c := cmd.(type) {
	case command.CreateLedger:
		l, err := b.engine.CreateLedger(ctx, groupbuy.CreateLedgerInput{
			Title:       c.Title,
			Product:     c.Product,
			UnitPrice:   c.UnitPrice,
			Description: c.Description,
		})
		if err != nil {
			return "", err
		}
		return reply.LedgerCreated(l), nil

	case command.ToggleLedger:
		l, err := b.engine.ToggleLedger(ctx, c.Title)
		if err != nil {
			return "", err
		}
		return reply.StatusChanged(l), nil

	case command.SetStatus:
		l, err := b.engine.SetLedgerStatus(ctx, c.Title, c.Status)
		if errors.Is(err, groupbuy.ErrAlreadyInState) {
			return reply.AlreadyInState(c.Title, c.Status), nil
		}
		if err != nil {
			return "", err
		}
		return reply.StatusChanged(l), nil

	case command.MarkPaid:
		rows, err := b.engine.MarkPaid(ctx, c.Title, c.DisplayName, c.Paid)
		if err != nil {
			return "", err
		}
		return reply.PaymentMarked(c.Title, c.DisplayName, rows, c.Paid), nil

	case command.CheckMember:
		orders, err := b.queries.CheckMember(ctx, c.DisplayName)
		if err != nil {
			return "", err
		}
		return reply.MemberCheck(c.DisplayName, orders), nil

	case command.OrderDelta:
		name, err := b.profiles.DisplayName(ctx, ev.Source, ev.ChatID, ev.UserID)
		if err != nil {
			return "", groupbuy.Remote("profile", err)
		}
		res, err := b.engine.ApplyDelta(ctx, groupbuy.DeltaInput{
			Title:       c.Title,
			MemberID:    ev.UserID,
			DisplayName: name,
			Amount:      c.Amount,
			Comment:     c.Comment,
			HasComment:  c.HasComment,
		})
		if err != nil {
			return "", err
		}
		return reply.Delta(name, c.Amount, res), nil

	case command.QueryLedger:
		view, err := b.queries.Ledger(ctx, c.Title, sender.IsCoordinator, sender.UserID)
		if err != nil {
			return "", err
		}
		return reply.LedgerView(view), nil

	case command.QueryMine:
		orders, err := b.queries.MemberOrders(ctx, sender.UserID)
		if err != nil {
			return "", err
		}
		return reply.MemberOrders(orders), nil

	case command.QueryAll:
		sums, err := b.queries.Summaries(ctx)
		if err != nil {
			return "", err
		}
		return reply.Summaries(sums), nil

	case command.Help:
		return reply.Help(sender.IsCoordinator), nil

	case command.Malformed:
		return "", c.Err()

	case command.Unrecognized:
		text, _ := b.unrecognized(c.Text)
		return text, nil
	}

	return "", nil
}

func (b *Bot) unrecognized(text string) (string, bool) {
	if !b.echo || strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

func (b *Bot) logError(ev Event, cmd command.Command, err error) {
	attrs := []any{
		"event", ev.ID,
		"user", ev.UserID,
		"command", cmd.Kind().String(),
		"error", err,
	}
	if groupbuy.IsUserError(err) {
		b.logger.Debug("command rejected", attrs...)
		return
	}
	b.logger.Error("command failed", attrs...)
}
