// Package plugin provides an extensible plugin system for groupbuy.
// Plugins can hook into engine lifecycle events to extend functionality.
package plugin

import (
	"context"

	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. engine is the *groupbuy.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine is stopping.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger lifecycle hooks
// ──────────────────────────────────────────────────

// OnLedgerCreated is called after a ledger has been created.
type OnLedgerCreated interface {
	Plugin
	OnLedgerCreated(ctx context.Context, l *ledger.Ledger) error
}

// OnLedgerStatusChanged is called after a ledger has been opened or closed.
type OnLedgerStatusChanged interface {
	Plugin
	OnLedgerStatusChanged(ctx context.Context, l *ledger.Ledger, from ledger.Status) error
}

// ──────────────────────────────────────────────────
// Order hooks
// ──────────────────────────────────────────────────

// OnOrderPlaced is called after a delta created or updated a row.
type OnOrderPlaced interface {
	Plugin
	OnOrderPlaced(ctx context.Context, l *ledger.Ledger, row *order.Row, delta int64) error
}

// OnOrderRemoved is called after a delta brought a row to zero and it was
// deleted.
type OnOrderRemoved interface {
	Plugin
	OnOrderRemoved(ctx context.Context, l *ledger.Ledger, row *order.Row) error
}

// OnOrderRejected is called when a delta was refused by the engine.
type OnOrderRejected interface {
	Plugin
	OnOrderRejected(ctx context.Context, title, memberID string, delta int64, reason error) error
}

// OnPaymentMarked is called after the paid flag changed on one or more rows.
type OnPaymentMarked interface {
	Plugin
	OnPaymentMarked(ctx context.Context, title string, rows []*order.Row, paid bool) error
}
