// Package query answers read-only questions about ledgers: a member's
// orders across every ledger, one ledger's rows, a lookup by display name
// and per-ledger totals.
package query

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/store"
	"github.com/xraph/groupbuy/types"
)

// DefaultScanLimit bounds how many ledgers are read concurrently.
const DefaultScanLimit = 8

// MemberOrder pairs a row with the ledger it belongs to.
type MemberOrder struct {
	Ledger *ledger.Ledger
	Row    *order.Row
}

// LedgerView is one ledger as seen by the sender. Coordinators see every
// row; members see only their own.
type LedgerView struct {
	Ledger      *ledger.Ledger
	Rows        []*order.Row
	Coordinator bool
}

// Quantity returns the total quantity of the visible rows.
func (v *LedgerView) Quantity() int64 {
	var n int64
	for _, r := range v.Rows {
		n += r.Quantity
	}
	return n
}

// LedgerSummary aggregates the rows of one ledger.
type LedgerSummary struct {
	Ledger   *ledger.Ledger
	Members  int
	Paid     int
	Quantity int64
	Amount   types.Money
}

// Service runs read-only queries against a store.
type Service struct {
	store     store.Store
	logger    *slog.Logger
	scanLimit int
	order     func(a, b MemberOrder) int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithScanLimit sets how many ledgers are read concurrently.
func WithScanLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.scanLimit = n
		}
	}
}

// WithOrder replaces the ordering of MemberOrders and CheckMember results.
func WithOrder(cmpFn func(a, b MemberOrder) int) Option {
	return func(s *Service) {
		if cmpFn != nil {
			s.order = cmpFn
		}
	}
}

// NewService creates a query service over s.
func NewService(s store.Store, opts ...Option) *Service {
	svc := &Service{
		store:     s,
		logger:    slog.Default(),
		scanLimit: DefaultScanLimit,
		order:     ByTitleSuffix,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ByTitleSuffix orders by the last character of the ledger title and then
// by the whole title, so D1A, D2A, D1B list as D1A, D2A, D1B.
func ByTitleSuffix(a, b MemberOrder) int {
	ta, tb := a.Ledger.Title, b.Ledger.Title
	if c := cmp.Compare(lastRune(ta), lastRune(tb)); c != 0 {
		return c
	}
	return cmp.Compare(ta, tb)
}

func lastRune(s string) rune {
	r := []rune(s)
	if len(r) == 0 {
		return 0
	}
	return r[len(r)-1]
}

// MemberOrders returns the member's row on every ledger that has a product.
// The result is empty, not nil, when the member has no orders.
func (s *Service) MemberOrders(ctx context.Context, memberID string) ([]MemberOrder, error) {
	return s.scan(ctx, func(ctx context.Context, l *ledger.Ledger) ([]*order.Row, error) {
		row, err := s.store.GetRow(ctx, l.Title, memberID)
		if errors.Is(err, groupbuy.ErrNoOrderFound) {
			return nil, nil
		}
		if err != nil {
			return nil, groupbuy.Remote("get row", err)
		}
		return []*order.Row{row}, nil
	})
}

// CheckMember returns every row whose display name matches displayName,
// ignoring case, across all ledgers with a product.
func (s *Service) CheckMember(ctx context.Context, displayName string) ([]MemberOrder, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, groupbuy.ErrInvalidInput
	}

	return s.scan(ctx, func(ctx context.Context, l *ledger.Ledger) ([]*order.Row, error) {
		rows, err := s.store.ListRows(ctx, l.Title, 0)
		if err != nil {
			return nil, groupbuy.Remote("list rows", err)
		}
		var matched []*order.Row
		for _, r := range rows {
			if strings.EqualFold(strings.TrimSpace(r.DisplayName), displayName) {
				matched = append(matched, r)
			}
		}
		return matched, nil
	})
}

// scan runs fetch for every complete ledger concurrently and returns the
// collected rows in the service order.
func (s *Service) scan(ctx context.Context, fetch func(context.Context, *ledger.Ledger) ([]*order.Row, error)) ([]MemberOrder, error) {
	ledgers, err := s.completeLedgers(ctx)
	if err != nil {
		return nil, err
	}

	found := make([][]*order.Row, len(ledgers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.scanLimit)
	for i, l := range ledgers {
		g.Go(func() error {
			rows, err := fetch(gctx, l)
			if err != nil {
				return err
			}
			found[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]MemberOrder, 0, len(ledgers))
	for i, rows := range found {
		for _, r := range rows {
			out = append(out, MemberOrder{Ledger: ledgers[i], Row: r})
		}
	}
	slices.SortStableFunc(out, s.order)

	s.logger.Debug("ledgers scanned",
		"ledgers", len(ledgers),
		"rows", len(out),
	)

	return out, nil
}

func (s *Service) completeLedgers(ctx context.Context) ([]*ledger.Ledger, error) {
	all, err := s.store.ListLedgers(ctx)
	if err != nil {
		return nil, groupbuy.Remote("list ledgers", err)
	}
	out := all[:0]
	for _, l := range all {
		if l.Complete() {
			out = append(out, l)
		}
	}
	return out, nil
}

// Ledger returns the ledger as seen by memberID. A coordinator sees all
// rows in row order; anyone else sees only their own row and gets
// ErrNoOrderFound when they have none.
func (s *Service) Ledger(ctx context.Context, title string, isCoordinator bool, memberID string) (*LedgerView, error) {
	title = ledger.NormalizeTitle(title)

	l, err := s.store.GetLedger(ctx, title)
	if err != nil {
		if errors.Is(err, groupbuy.ErrNotFound) {
			return nil, &groupbuy.LedgerError{Title: title, Err: groupbuy.ErrNotFound}
		}
		return nil, groupbuy.Remote("get ledger", err)
	}

	rows, err := s.store.ListRows(ctx, title, 0)
	if err != nil {
		return nil, groupbuy.Remote("list rows", err)
	}

	view := &LedgerView{Ledger: l, Coordinator: isCoordinator}
	if isCoordinator {
		view.Rows = rows
		return view, nil
	}

	for _, r := range rows {
		if r.MemberID == memberID {
			view.Rows = []*order.Row{r}
			return view, nil
		}
	}
	return nil, &groupbuy.LedgerError{Title: title, Err: groupbuy.ErrNoOrderFound}
}

// Summaries totals every ledger, in store order.
func (s *Service) Summaries(ctx context.Context) ([]LedgerSummary, error) {
	ledgers, err := s.store.ListLedgers(ctx)
	if err != nil {
		return nil, groupbuy.Remote("list ledgers", err)
	}

	out := make([]LedgerSummary, len(ledgers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.scanLimit)
	for i, l := range ledgers {
		g.Go(func() error {
			rows, err := s.store.ListRows(gctx, l.Title, 0)
			if err != nil {
				return groupbuy.Remote("list rows", err)
			}
			out[i] = summarize(l, rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func summarize(l *ledger.Ledger, rows []*order.Row) LedgerSummary {
	sum := LedgerSummary{
		Ledger:  l,
		Members: len(rows),
		Amount:  types.Zero(l.UnitPrice.Currency),
	}
	for _, r := range rows {
		sum.Quantity += r.Quantity
		sum.Amount = sum.Amount.Add(r.Price)
		if r.Paid {
			sum.Paid++
		}
	}
	return sum
}
