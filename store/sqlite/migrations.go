package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the groupbuy store (SQLite).
var Migrations = migrate.NewGroup("groupbuy")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_groupbuy_ledgers",
			Version: "20240601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS groupbuy_ledgers (
    id          TEXT PRIMARY KEY,
    title       TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'OPEN',
    product     TEXT NOT NULL DEFAULT '',
    unit_price  INTEGER NOT NULL DEFAULT 0,
    currency    TEXT NOT NULL DEFAULT 'twd',
    description TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_groupbuy_ledgers_title ON groupbuy_ledgers (title);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS groupbuy_ledgers`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_groupbuy_orders",
			Version: "20240601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS groupbuy_orders (
    id           TEXT PRIMARY KEY,
    ledger_title TEXT NOT NULL,
    member_id    TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    price        INTEGER NOT NULL DEFAULT 0,
    currency     TEXT NOT NULL DEFAULT 'twd',
    comment      TEXT NOT NULL DEFAULT '',
    paid         INTEGER NOT NULL DEFAULT 0,
    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_groupbuy_orders_member ON groupbuy_orders (ledger_title, member_id);
CREATE INDEX IF NOT EXISTS idx_groupbuy_orders_ledger ON groupbuy_orders (ledger_title, created_at);
CREATE INDEX IF NOT EXISTS idx_groupbuy_orders_display_name ON groupbuy_orders (display_name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS groupbuy_orders`)
				return err
			},
		},
	)
}
