package query_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/id"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/query"
	"github.com/xraph/groupbuy/store"
	"github.com/xraph/groupbuy/store/memory"
	"github.com/xraph/groupbuy/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	engine *groupbuy.Engine
	store  *memory.Store
	svc    *query.Service
}

func newFixture(t *testing.T, opts ...query.Option) *fixture {
	t.Helper()
	s := memory.New()
	e := groupbuy.New(s, groupbuy.WithLogger(discard))
	require.NoError(t, e.Start(context.Background()))

	opts = append([]query.Option{query.WithLogger(discard)}, opts...)
	return &fixture{engine: e, store: s, svc: query.NewService(s, opts...)}
}

func (f *fixture) ledger(t *testing.T, title string, price int64) {
	t.Helper()
	_, err := f.engine.CreateLedger(context.Background(), groupbuy.CreateLedgerInput{
		Title:     title,
		Product:   "Product " + title,
		UnitPrice: price,
	})
	require.NoError(t, err)
}

func (f *fixture) order(t *testing.T, title, member, name string, amount int64) {
	t.Helper()
	_, err := f.engine.ApplyDelta(context.Background(), groupbuy.DeltaInput{
		Title:       title,
		MemberID:    member,
		DisplayName: name,
		Amount:      amount,
	})
	require.NoError(t, err)
}

func titles(orders []query.MemberOrder) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.Ledger.Title
	}
	return out
}

func TestMemberOrders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, title := range []string{"D1B", "D2A", "D1A"} {
		f.ledger(t, title, 50)
		f.order(t, title, "U1", "Amy", 1)
	}
	f.ledger(t, "D3A", 50)
	f.order(t, "D3A", "U2", "Ben", 4)

	// A ledger without a product is skipped even if it has rows.
	require.NoError(t, f.store.CreateLedger(ctx, &ledger.Ledger{
		Entity: types.NewEntity(),
		ID:     id.NewLedgerID(),
		Title:  "D0A",
		Status: ledger.StatusOpen,
	}))
	require.NoError(t, f.store.AppendRow(ctx, &order.Row{
		Entity:      types.NewEntity(),
		ID:          id.NewOrderID(),
		LedgerTitle: "D0A",
		MemberID:    "U1",
		Quantity:    1,
	}))

	orders, err := f.svc.MemberOrders(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"D1A", "D2A", "D1B"}, titles(orders))
	for _, o := range orders {
		assert.Equal(t, "U1", o.Row.MemberID)
	}

	none, err := f.svc.MemberOrders(ctx, "U9")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMemberOrdersCustomOrder(t *testing.T) {
	ctx := context.Background()
	byTitleDesc := func(a, b query.MemberOrder) int {
		switch {
		case a.Ledger.Title > b.Ledger.Title:
			return -1
		case a.Ledger.Title < b.Ledger.Title:
			return 1
		}
		return 0
	}
	f := newFixture(t, query.WithOrder(byTitleDesc), query.WithScanLimit(1))

	for _, title := range []string{"D1A", "D3A", "D2A"} {
		f.ledger(t, title, 10)
		f.order(t, title, "U1", "Amy", 2)
	}

	orders, err := f.svc.MemberOrders(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, []string{"D3A", "D2A", "D1A"}, titles(orders))
}

func TestLedgerView(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger(t, "D1", 100)
	f.order(t, "D1", "U1", "Amy", 2)
	f.order(t, "D1", "U2", "Ben", 1)

	view, err := f.svc.Ledger(ctx, "d1", true, "U-admin")
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.True(t, view.Coordinator)
	assert.Equal(t, 1, view.Rows[0].Position)
	assert.Equal(t, "Amy", view.Rows[0].DisplayName)
	assert.Equal(t, 2, view.Rows[1].Position)
	assert.Equal(t, int64(3), view.Quantity())

	view, err = f.svc.Ledger(ctx, "D1", false, "U2")
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "Ben", view.Rows[0].DisplayName)
	assert.Equal(t, 2, view.Rows[0].Position)

	_, err = f.svc.Ledger(ctx, "D1", false, "U3")
	assert.ErrorIs(t, err, groupbuy.ErrNoOrderFound)

	_, err = f.svc.Ledger(ctx, "D9", true, "U-admin")
	assert.ErrorIs(t, err, groupbuy.ErrNotFound)
}

func TestCheckMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger(t, "D1A", 100)
	f.ledger(t, "D1B", 100)
	f.order(t, "D1A", "U1", "Amy", 2)
	f.order(t, "D1B", "U1", "Amy", 1)
	f.order(t, "D1B", "U2", "Ben", 1)

	orders, err := f.svc.CheckMember(ctx, " amy ")
	require.NoError(t, err)
	assert.Equal(t, []string{"D1A", "D1B"}, titles(orders))

	_, err = f.svc.CheckMember(ctx, "")
	assert.ErrorIs(t, err, groupbuy.ErrInvalidInput)
}

func TestSummaries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.ledger(t, "D1", 100)
	f.ledger(t, "D2", 30)
	f.order(t, "D1", "U1", "Amy", 2)
	f.order(t, "D1", "U2", "Ben", 1)

	_, err := f.engine.MarkPaid(ctx, "D1", "Ben", true)
	require.NoError(t, err)

	sums, err := f.svc.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, sums, 2)

	assert.Equal(t, "D1", sums[0].Ledger.Title)
	assert.Equal(t, 2, sums[0].Members)
	assert.Equal(t, 1, sums[0].Paid)
	assert.Equal(t, int64(3), sums[0].Quantity)
	assert.True(t, sums[0].Amount.Equal(types.TWD(300)))

	assert.Equal(t, 0, sums[1].Members)
	assert.True(t, sums[1].Amount.Equal(types.TWD(0)))
}

type brokenStore struct {
	store.Store
}

func (brokenStore) ListLedgers(context.Context) ([]*ledger.Ledger, error) {
	return nil, errors.New("connection reset")
}

func TestRemoteFailure(t *testing.T) {
	svc := query.NewService(brokenStore{memory.New()}, query.WithLogger(discard))

	_, err := svc.MemberOrders(context.Background(), "U1")
	require.Error(t, err)
	assert.ErrorIs(t, err, groupbuy.ErrRemote)
	assert.True(t, groupbuy.IsRetryable(err))

	_, err = svc.Summaries(context.Background())
	assert.ErrorIs(t, err, groupbuy.ErrRemote)
}
