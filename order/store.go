package order

import "context"

type Store interface {
	ListRows(ctx context.Context, ledgerTitle string, limit int) ([]*Row, error)
	GetRow(ctx context.Context, ledgerTitle, memberID string) (*Row, error)
	AppendRow(ctx context.Context, r *Row) error
	UpdateRow(ctx context.Context, r *Row) error
	DeleteRow(ctx context.Context, r *Row) error
}
