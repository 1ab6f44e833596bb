package store

import (
	"context"

	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
)

// Store is the row store behind the engine. It holds ledger headers and
// the order rows attached to them.
//
// Implementations must return groupbuy.ErrNotFound for missing ledgers,
// groupbuy.ErrNoOrderFound for missing rows and groupbuy.ErrAlreadyExists
// when a ledger title is taken.
type Store interface {
	// Ledger methods
	ListLedgers(ctx context.Context) ([]*ledger.Ledger, error)
	GetLedger(ctx context.Context, title string) (*ledger.Ledger, error)
	CreateLedger(ctx context.Context, l *ledger.Ledger) error
	UpdateLedger(ctx context.Context, l *ledger.Ledger) error

	// Row methods. ListRows returns rows in creation order with Position
	// set; a limit of zero or less means no limit. GetRow leaves Position
	// unset.
	ListRows(ctx context.Context, ledgerTitle string, limit int) ([]*order.Row, error)
	GetRow(ctx context.Context, ledgerTitle, memberID string) (*order.Row, error)
	AppendRow(ctx context.Context, r *order.Row) error
	UpdateRow(ctx context.Context, r *order.Row) error
	DeleteRow(ctx context.Context, r *order.Row) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ ledger.Store = (Store)(nil)
	_ order.Store  = (Store)(nil)
)
