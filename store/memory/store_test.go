package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/id"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/store/memory"
	"github.com/xraph/groupbuy/types"
)

func newLedger(title string) *ledger.Ledger {
	return &ledger.Ledger{
		Entity:    types.NewEntity(),
		ID:        id.NewLedgerID(),
		Title:     title,
		Status:    ledger.StatusOpen,
		Product:   "Mango",
		UnitPrice: types.TWD(100),
	}
}

func newRow(title, member string, qty int64) *order.Row {
	r := &order.Row{
		Entity:      types.NewEntity(),
		ID:          id.NewOrderID(),
		LedgerTitle: title,
		MemberID:    member,
		DisplayName: member,
		Quantity:    qty,
	}
	r.Reprice(types.TWD(100))
	return r
}

func TestLedgerLifecycle(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.CreateLedger(ctx, newLedger("D1")))
	assert.ErrorIs(t, s.CreateLedger(ctx, newLedger("d1")), groupbuy.ErrAlreadyExists)

	got, err := s.GetLedger(ctx, " d1 ")
	require.NoError(t, err)
	assert.Equal(t, "D1", got.Title)

	got.Status = ledger.StatusClosed
	stored, err := s.GetLedger(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusOpen, stored.Status, "returned ledger must be a copy")

	require.NoError(t, s.UpdateLedger(ctx, got))
	stored, err = s.GetLedger(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusClosed, stored.Status)

	_, err = s.GetLedger(ctx, "D9")
	assert.ErrorIs(t, err, groupbuy.ErrNotFound)
	assert.ErrorIs(t, s.UpdateLedger(ctx, newLedger("D9")), groupbuy.ErrNotFound)
}

func TestRows(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.CreateLedger(ctx, newLedger("D1")))

	assert.ErrorIs(t, s.AppendRow(ctx, newRow("D2", "alice", 1)), groupbuy.ErrNotFound)

	alice := newRow("D1", "alice", 2)
	require.NoError(t, s.AppendRow(ctx, alice))
	require.NoError(t, s.AppendRow(ctx, newRow("D1", "bob", 1)))
	require.NoError(t, s.AppendRow(ctx, newRow("D1", "carol", 4)))
	assert.ErrorIs(t, s.AppendRow(ctx, newRow("D1", "bob", 1)), groupbuy.ErrAlreadyExists)

	rows, err := s.ListRows(ctx, "d1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, r := range rows {
		assert.Equal(t, i+1, r.Position)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, []string{rows[0].MemberID, rows[1].MemberID, rows[2].MemberID})

	limited, err := s.ListRows(ctx, "D1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	bob, err := s.GetRow(ctx, "D1", "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", bob.DisplayName)

	bob.Quantity = 5
	bob.Reprice(types.TWD(100))
	require.NoError(t, s.UpdateRow(ctx, bob))
	bob, err = s.GetRow(ctx, "D1", "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(5), bob.Quantity)
	assert.True(t, bob.Price.Equal(types.TWD(500)))

	require.NoError(t, s.DeleteRow(ctx, bob))
	_, err = s.GetRow(ctx, "D1", "bob")
	assert.ErrorIs(t, err, groupbuy.ErrNoOrderFound)
	assert.ErrorIs(t, s.DeleteRow(ctx, bob), groupbuy.ErrNoOrderFound)

	rows, err = s.ListRows(ctx, "D1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "carol", rows[1].MemberID)
	assert.Equal(t, 2, rows[1].Position)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(ctx), groupbuy.ErrStoreClosed)
	assert.ErrorIs(t, s.CreateLedger(ctx, newLedger("D1")), groupbuy.ErrStoreClosed)
}
