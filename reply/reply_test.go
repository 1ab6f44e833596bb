package reply

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/query"
	"github.com/xraph/groupbuy/types"
)

func mango() *ledger.Ledger {
	return &ledger.Ledger{
		Title:       "D1",
		Status:      ledger.StatusOpen,
		Product:     "Mango",
		UnitPrice:   types.TWD(100),
		Description: "Fresh mangoes",
	}
}

func row(pos int, name string, qty int64) *order.Row {
	return &order.Row{
		LedgerTitle: "D1",
		MemberID:    "U-" + name,
		DisplayName: name,
		Quantity:    qty,
		Price:       types.TWD(100 * qty),
		Position:    pos,
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"format", &groupbuy.FormatError{Usage: "請依格式輸入:\n\"toggle-D1\""}, "請依格式輸入:\n\"toggle-D1\""},
		{"zero first order", &groupbuy.QuantityError{Title: "D1", Current: 0, Requested: 0}, "數量不可為零"},
		{"negative first order", &groupbuy.QuantityError{Title: "D1", Current: 0, Requested: -2}, "數量不可小於零，目前數量 0"},
		{"below zero", &groupbuy.QuantityError{Title: "D1", Current: 3, Requested: -5}, "數量不可小於零，目前數量 3"},
		{"above limit", &groupbuy.QuantityError{Title: "D1", Current: 1, Requested: 1 << 62, Limit: 99999}, "數量不可超過 99999，目前數量 1"},
		{"not found", &groupbuy.LedgerError{Title: "D9", Err: groupbuy.ErrNotFound}, "D9 尚未開始"},
		{"exists", &groupbuy.LedgerError{Title: "D1", Err: groupbuy.ErrAlreadyExists}, "❗D1 已存在❗"},
		{"closed", &groupbuy.LedgerError{Title: "D1", Err: groupbuy.ErrLedgerClosed}, "D1 已關閉"},
		{"no order", &groupbuy.LedgerError{Title: "D1", Err: groupbuy.ErrNoOrderFound}, "D1 查無訂單"},
		{"invalid input", groupbuy.ErrInvalidInput, InvalidRequest},
		{"remote", groupbuy.Remote("get ledger", errors.New("timeout")), Busy},
		{"wrapped", fmt.Errorf("dispatch: %w", &groupbuy.LedgerError{Title: "D2", Err: groupbuy.ErrNotFound}), "D2 尚未開始"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Error(tt.err))
		})
	}
}

func TestLedgerMessages(t *testing.T) {
	l := mango()
	assert.Equal(t, "創建 D1:Fresh mangoes", LedgerCreated(l))
	assert.Equal(t, "已將 D1 開啟", StatusChanged(l))

	l.Status = ledger.StatusClosed
	assert.Equal(t, "已將 D1 關閉", StatusChanged(l))

	assert.Equal(t, "D1 已開啟", AlreadyInState("D1", ledger.StatusOpen))
	assert.Equal(t, "D1 已關閉", AlreadyInState("D1", ledger.StatusClosed))
}

func TestDelta(t *testing.T) {
	l := mango()

	got := Delta("Amy", 2, &groupbuy.DeltaResult{Ledger: l, Row: row(1, "Amy", 3), Previous: 1, Quantity: 3})
	assert.Equal(t, "Amy:D1+2\n目前數量 3，金額 NT$300", got)

	got = Delta("Amy", -3, &groupbuy.DeltaResult{Ledger: l, Row: row(1, "Amy", 3), Previous: 3, Deleted: true})
	assert.Equal(t, "Amy:D1-3\n已取消訂單", got)
}

func TestMemberOrders(t *testing.T) {
	assert.Equal(t, NoOrders, MemberOrders(nil))

	kiwi := &ledger.Ledger{Title: "D2", Product: "Kiwi", UnitPrice: types.TWD(50)}
	paid := &order.Row{Quantity: 1, Price: types.TWD(50), Paid: true, Comment: "green"}

	got := MemberOrders([]query.MemberOrder{
		{Ledger: mango(), Row: row(1, "Amy", 2)},
		{Ledger: kiwi, Row: paid},
	})
	assert.Equal(t, "你的訂單:\nD1 Mango x2 NT$200\nD2 Kiwi x1 NT$50 ✔ #green\n合計 NT$250", got)

	assert.Equal(t, "Amy 目前沒有訂單", MemberCheck("Amy", nil))
}

func TestLedgerView(t *testing.T) {
	rows := []*order.Row{row(1, "Amy", 2), row(2, "Ben", 1)}
	rows[1].Paid = true
	rows[0].Comment = "ripe"

	got := LedgerView(&query.LedgerView{Ledger: mango(), Rows: rows, Coordinator: true})
	assert.Equal(t, "D1 Mango NT$100（開放中）\nFresh mangoes\n1. Amy x2 #ripe\n2. Ben x1 ✔\n共 2 人 3 份 NT$300", got)

	got = LedgerView(&query.LedgerView{Ledger: mango(), Rows: rows[1:]})
	assert.Equal(t, "D1 Mango NT$100（開放中）\nFresh mangoes\n2. Ben x1 ✔", got)

	got = LedgerView(&query.LedgerView{Ledger: mango(), Coordinator: true})
	assert.Equal(t, "D1 Mango NT$100（開放中）\nFresh mangoes\n"+NoOrders, got)
}

func TestSummaries(t *testing.T) {
	assert.Equal(t, NoLedgers, Summaries(nil))

	got := Summaries([]query.LedgerSummary{{
		Ledger:   mango(),
		Members:  2,
		Paid:     1,
		Quantity: 3,
		Amount:   types.TWD(300),
	}})
	assert.Equal(t, "全部訂單:\nD1 Mango（開放中）2 人 3 份 NT$300 已付 1/2", got)
}

func TestHelp(t *testing.T) {
	member := Help(false)
	admin := Help(true)

	assert.Contains(t, member, "我的訂單")
	assert.NotContains(t, member, "create-")
	assert.Contains(t, admin, "create-D1-品名-單價-描述")
	assert.Contains(t, admin, "paid-D1-名稱")
}
