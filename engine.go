package groupbuy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xraph/groupbuy/id"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/plugin"
	"github.com/xraph/groupbuy/store"
	"github.com/xraph/groupbuy/types"
)

// MaxQuantity is the largest quantity a single row may hold.
const MaxQuantity int64 = 99_999

// Engine applies ledger commands against a row store. It owns the ledger
// invariants: status gating, quantity arithmetic, price derivation and
// deletion on zero.
type Engine struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	locks    *keyedMutex
	currency string
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		locks:    newKeyedMutex(),
		currency: types.DefaultCurrency,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("groupbuy engine started",
		"plugins", e.plugins.Count(),
		"currency", e.currency,
	)

	return nil
}

// Stop notifies plugins and closes the store.
func (e *Engine) Stop(ctx context.Context) error {
	e.plugins.EmitShutdown(ctx)
	return e.store.Close()
}

// Store returns the row store the engine writes to.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// ──────────────────────────────────────────────────
// Ledger management
// ──────────────────────────────────────────────────

// CreateLedgerInput carries the header of a new ledger.
type CreateLedgerInput struct {
	Title       string
	Product     string
	UnitPrice   int64
	Description string
}

// CreateLedger creates an OPEN ledger. It fails with ErrAlreadyExists if
// the normalized title is taken.
func (e *Engine) CreateLedger(ctx context.Context, in CreateLedgerInput) (*ledger.Ledger, error) {
	title := ledger.NormalizeTitle(in.Title)
	product := strings.TrimSpace(in.Product)
	if title == "" || product == "" || in.UnitPrice < 0 {
		return nil, ErrInvalidInput
	}

	unlock := e.locks.Lock(title)
	defer unlock()

	_, err := e.store.GetLedger(ctx, title)
	switch {
	case err == nil:
		return nil, &LedgerError{Title: title, Err: ErrAlreadyExists}
	case !errors.Is(err, ErrNotFound):
		return nil, Remote("get ledger", err)
	}

	l := &ledger.Ledger{
		Entity:      types.NewEntity(),
		ID:          id.NewLedgerID(),
		Title:       title,
		Status:      ledger.StatusOpen,
		Product:     product,
		UnitPrice:   types.Money{Amount: in.UnitPrice, Currency: e.currency},
		Description: strings.TrimSpace(in.Description),
	}

	if err := e.store.CreateLedger(ctx, l); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, &LedgerError{Title: title, Err: ErrAlreadyExists}
		}
		return nil, Remote("create ledger", err)
	}

	e.logger.Info("ledger created",
		"ledger", l.Title,
		"product", l.Product,
		"unit_price", l.UnitPrice.Amount,
	)
	e.plugins.EmitLedgerCreated(ctx, l)

	return l, nil
}

// ToggleLedger flips a ledger between OPEN and CLOSED.
func (e *Engine) ToggleLedger(ctx context.Context, title string) (*ledger.Ledger, error) {
	return e.changeStatus(ctx, title, func(current ledger.Status) (ledger.Status, error) {
		return current.Toggle(), nil
	})
}

// SetLedgerStatus moves a ledger to status. It fails with ErrAlreadyInState
// when the ledger already has it.
func (e *Engine) SetLedgerStatus(ctx context.Context, title string, status ledger.Status) (*ledger.Ledger, error) {
	if !status.Valid() {
		return nil, ErrInvalidInput
	}
	return e.changeStatus(ctx, title, func(current ledger.Status) (ledger.Status, error) {
		if current == status {
			return current, ErrAlreadyInState
		}
		return status, nil
	})
}

func (e *Engine) changeStatus(ctx context.Context, title string, next func(ledger.Status) (ledger.Status, error)) (*ledger.Ledger, error) {
	title = ledger.NormalizeTitle(title)

	unlock := e.locks.Lock(title)
	defer unlock()

	l, err := e.getLedger(ctx, title)
	if err != nil {
		return nil, err
	}

	from := l.Status
	to, err := next(from)
	if err != nil {
		return nil, &LedgerError{Title: title, Err: err}
	}

	l.Status = to
	l.Touch()
	if err := e.store.UpdateLedger(ctx, l); err != nil {
		return nil, Remote("update ledger", err)
	}

	e.logger.Info("ledger status changed",
		"ledger", title,
		"from", from,
		"to", to,
	)
	e.plugins.EmitLedgerStatusChanged(ctx, l, from)

	return l, nil
}

// ──────────────────────────────────────────────────
// Orders
// ──────────────────────────────────────────────────

// DeltaInput is one member's signed quantity change on a ledger.
type DeltaInput struct {
	Title       string
	MemberID    string
	DisplayName string
	Amount      int64

	// Comment replaces the row comment when HasComment is set. A row's
	// comment is never cleared implicitly.
	Comment    string
	HasComment bool
}

// DeltaResult describes the row after a delta was applied.
type DeltaResult struct {
	Ledger *ledger.Ledger

	// Row is the row as written, or as it was before deletion.
	Row *order.Row

	Previous int64
	Quantity int64
	Created  bool
	Deleted  bool
}

// ApplyDelta adds in.Amount to the member's row on the ledger.
//
// A first order must be positive. A delta that brings the quantity to
// exactly zero deletes the row; one that would make it negative is rejected
// with a *QuantityError and leaves the row unchanged.
func (e *Engine) ApplyDelta(ctx context.Context, in DeltaInput) (*DeltaResult, error) {
	title := ledger.NormalizeTitle(in.Title)
	if in.MemberID == "" {
		return nil, ErrInvalidInput
	}

	unlock := e.locks.Lock(title)
	defer unlock()

	res, err := e.applyDelta(ctx, title, in)
	if err != nil && IsUserError(err) {
		e.plugins.EmitOrderRejected(ctx, title, in.MemberID, in.Amount, err)
	}
	return res, err
}

func (e *Engine) applyDelta(ctx context.Context, title string, in DeltaInput) (*DeltaResult, error) {
	l, err := e.getLedger(ctx, title)
	if err != nil {
		return nil, err
	}
	if !l.IsOpen() {
		return nil, &LedgerError{Title: title, Err: ErrLedgerClosed}
	}

	row, err := e.store.GetRow(ctx, title, in.MemberID)
	if err != nil && !errors.Is(err, ErrNoOrderFound) {
		return nil, Remote("get row", err)
	}

	if row == nil {
		if in.Amount <= 0 {
			return nil, &QuantityError{Title: title, Current: 0, Requested: in.Amount}
		}
		if in.Amount > MaxQuantity {
			return nil, &QuantityError{Title: title, Current: 0, Requested: in.Amount, Limit: MaxQuantity}
		}

		row = &order.Row{
			Entity:      types.NewEntity(),
			ID:          id.NewOrderID(),
			LedgerTitle: title,
			MemberID:    in.MemberID,
			DisplayName: in.DisplayName,
			Quantity:    in.Amount,
		}
		if in.HasComment {
			row.Comment = in.Comment
		}
		if !row.Reprice(l.UnitPrice) {
			return nil, fmt.Errorf("%w: price overflow on %s", ErrInvalidInput, title)
		}

		if err := e.store.AppendRow(ctx, row); err != nil {
			return nil, Remote("append row", err)
		}

		e.logger.Debug("order placed",
			"ledger", title,
			"member", in.MemberID,
			"quantity", row.Quantity,
		)
		e.plugins.EmitOrderPlaced(ctx, l, row, in.Amount)

		return &DeltaResult{Ledger: l, Row: row, Quantity: row.Quantity, Created: true}, nil
	}

	previous := row.Quantity
	if in.Amount > MaxQuantity-previous {
		return nil, &QuantityError{Title: title, Current: previous, Requested: in.Amount, Limit: MaxQuantity}
	}
	next := previous + in.Amount

	switch {
	case next < 0:
		return nil, &QuantityError{Title: title, Current: previous, Requested: in.Amount}

	case next == 0:
		if err := e.store.DeleteRow(ctx, row); err != nil {
			return nil, Remote("delete row", err)
		}

		e.logger.Debug("order removed",
			"ledger", title,
			"member", in.MemberID,
		)
		e.plugins.EmitOrderRemoved(ctx, l, row)

		return &DeltaResult{Ledger: l, Row: row, Previous: previous, Deleted: true}, nil
	}

	price, ok := l.UnitPrice.MultiplyChecked(next)
	if !ok {
		return nil, fmt.Errorf("%w: price overflow on %s", ErrInvalidInput, title)
	}
	row.Quantity = next
	row.Price = price
	if in.DisplayName != "" {
		row.DisplayName = in.DisplayName
	}
	if in.HasComment {
		row.Comment = in.Comment
	}
	row.Touch()

	if err := e.store.UpdateRow(ctx, row); err != nil {
		return nil, Remote("update row", err)
	}

	e.logger.Debug("order updated",
		"ledger", title,
		"member", in.MemberID,
		"from", previous,
		"to", next,
	)
	e.plugins.EmitOrderPlaced(ctx, l, row, in.Amount)

	return &DeltaResult{Ledger: l, Row: row, Previous: previous, Quantity: next}, nil
}

// MarkPaid sets the paid flag on every row of the ledger whose display
// name matches displayName, ignoring case.
//
// Rows are updated one at a time. When an update fails, the rows already
// written stay marked: they are returned together with the error and the
// payment hook fires for them alone.
func (e *Engine) MarkPaid(ctx context.Context, title, displayName string, paid bool) ([]*order.Row, error) {
	title = ledger.NormalizeTitle(title)
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, ErrInvalidInput
	}

	unlock := e.locks.Lock(title)
	defer unlock()

	if _, err := e.getLedger(ctx, title); err != nil {
		return nil, err
	}

	rows, err := e.store.ListRows(ctx, title, 0)
	if err != nil {
		return nil, Remote("list rows", err)
	}

	var marked []*order.Row
	for _, r := range rows {
		if !strings.EqualFold(strings.TrimSpace(r.DisplayName), displayName) {
			continue
		}
		r.Paid = paid
		r.Touch()
		if err := e.store.UpdateRow(ctx, r); err != nil {
			if len(marked) > 0 {
				e.logger.Warn("payment partially marked",
					"ledger", title,
					"name", displayName,
					"rows", len(marked),
					"paid", paid,
					"error", err,
				)
				e.plugins.EmitPaymentMarked(ctx, title, marked, paid)
			}
			return marked, Remote("update row", err)
		}
		marked = append(marked, r)
	}

	if len(marked) == 0 {
		return nil, &LedgerError{Title: title, Err: ErrNoOrderFound}
	}

	e.logger.Info("payment marked",
		"ledger", title,
		"name", displayName,
		"rows", len(marked),
		"paid", paid,
	)
	e.plugins.EmitPaymentMarked(ctx, title, marked, paid)

	return marked, nil
}

// GetRow returns the member's row on the ledger without side effects.
func (e *Engine) GetRow(ctx context.Context, title, memberID string) (*order.Row, error) {
	title = ledger.NormalizeTitle(title)

	row, err := e.store.GetRow(ctx, title, memberID)
	if err != nil {
		if errors.Is(err, ErrNoOrderFound) {
			return nil, &LedgerError{Title: title, Err: ErrNoOrderFound}
		}
		return nil, Remote("get row", err)
	}
	return row, nil
}

// GetLedger returns the ledger header by title.
func (e *Engine) GetLedger(ctx context.Context, title string) (*ledger.Ledger, error) {
	return e.getLedger(ctx, ledger.NormalizeTitle(title))
}

func (e *Engine) getLedger(ctx context.Context, title string) (*ledger.Ledger, error) {
	l, err := e.store.GetLedger(ctx, title)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &LedgerError{Title: title, Err: ErrNotFound}
		}
		return nil, Remote("get ledger", err)
	}
	return l, nil
}
