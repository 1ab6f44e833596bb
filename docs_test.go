package groupbuy_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/store/memory"
	"github.com/xraph/groupbuy/types"
)

// TestDocumentationExamples verifies that the package documentation examples work.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		e := groupbuy.New(memory.New(),
			groupbuy.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		)
		if err := e.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer e.Stop(ctx)

		l, err := e.CreateLedger(ctx, groupbuy.CreateLedgerInput{
			Title:     "D1",
			Product:   "Mango",
			UnitPrice: 100,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !l.IsOpen() {
			t.Fatalf("new ledger status = %s, want OPEN", l.Status)
		}

		res, err := e.ApplyDelta(ctx, groupbuy.DeltaInput{
			Title:       "D1",
			MemberID:    "U1",
			DisplayName: "Alice",
			Amount:      2,
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Quantity != 2 {
			t.Errorf("quantity = %d, want 2", res.Quantity)
		}
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		m := groupbuy.TWD(100)
		if got := m.Multiply(3).String(); got != "NT$300" {
			t.Errorf("Multiply: got %s", got)
		}
		if got := groupbuy.Sum(m, m).String(); got != "NT$200" {
			t.Errorf("Sum: got %s", got)
		}
		if !groupbuy.Zero("twd").Equal(types.Zero(types.DefaultCurrency)) {
			t.Error("Zero should default to twd")
		}
	})
}
