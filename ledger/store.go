package ledger

import "context"

type Store interface {
	ListLedgers(ctx context.Context) ([]*Ledger, error)
	GetLedger(ctx context.Context, title string) (*Ledger, error)
	CreateLedger(ctx context.Context, l *Ledger) error
	UpdateLedger(ctx context.Context, l *Ledger) error
}
