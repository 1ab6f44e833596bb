// Package reply renders engine and query results as chat text.
//
// Every function is pure. The wording follows the bot's Traditional Chinese
// register and is what members see in the group.
package reply

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/query"
	"github.com/xraph/groupbuy/types"
)

// Fixed messages.
const (
	Busy           = "系統忙碌中，請稍後再試"
	NoOrders       = "目前沒有訂單"
	NoLedgers      = "目前沒有團購"
	ZeroQuantity   = "數量不可為零"
	InvalidRequest = "輸入內容有誤"
)

// LedgerCreated confirms a new ledger.
func LedgerCreated(l *ledger.Ledger) string {
	return fmt.Sprintf("創建 %s:%s", l.Title, l.Description)
}

// StatusChanged confirms a toggle or an explicit open/close.
func StatusChanged(l *ledger.Ledger) string {
	if l.IsOpen() {
		return fmt.Sprintf("已將 %s 開啟", l.Title)
	}
	return fmt.Sprintf("已將 %s 關閉", l.Title)
}

// AlreadyInState reports an open/close that changed nothing.
func AlreadyInState(title string, status ledger.Status) string {
	if status == ledger.StatusOpen {
		return fmt.Sprintf("%s 已開啟", title)
	}
	return fmt.Sprintf("%s 已關閉", title)
}

// Delta confirms an applied order delta, e.g. "Amy:D1+2".
func Delta(displayName string, amount int64, res *groupbuy.DeltaResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s%+d", displayName, res.Ledger.Title, amount)

	switch {
	case res.Deleted:
		b.WriteString("\n已取消訂單")
	case res.Row != nil:
		fmt.Fprintf(&b, "\n目前數量 %d，金額 %s", res.Quantity, res.Row.Price)
	}
	return b.String()
}

// PaymentMarked confirms a paid or unpaid mark.
func PaymentMarked(title, displayName string, rows []*order.Row, paid bool) string {
	state := "未付款"
	if paid {
		state = "已付款"
	}
	return fmt.Sprintf("已將 %s %s 標記為%s（%d 筆）", title, displayName, state, len(rows))
}

// MemberOrders lists a member's orders across ledgers.
func MemberOrders(orders []query.MemberOrder) string {
	if len(orders) == 0 {
		return NoOrders
	}

	var b strings.Builder
	b.WriteString("你的訂單:")
	writeOrders(&b, orders)
	return b.String()
}

// MemberCheck lists the orders found under a display name.
func MemberCheck(displayName string, orders []query.MemberOrder) string {
	if len(orders) == 0 {
		return fmt.Sprintf("%s %s", displayName, NoOrders)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s 的訂單:", displayName)
	writeOrders(&b, orders)
	return b.String()
}

func writeOrders(b *strings.Builder, orders []query.MemberOrder) {
	prices := make([]types.Money, 0, len(orders))
	for _, o := range orders {
		fmt.Fprintf(b, "\n%s %s x%d %s%s", o.Ledger.Title, o.Ledger.Product, o.Row.Quantity, o.Row.Price, paidMark(o.Row))
		if o.Row.Comment != "" {
			fmt.Fprintf(b, " #%s", o.Row.Comment)
		}
		prices = append(prices, o.Row.Price)
	}
	if total, ok := sum(prices); ok {
		fmt.Fprintf(b, "\n合計 %s", total)
	}
}

// LedgerView renders one ledger. Coordinators get every row with its
// position; members get their own row.
func LedgerView(v *query.LedgerView) string {
	l := v.Ledger

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s（%s）", l.Title, l.Product, l.UnitPrice, statusLabel(l.Status))
	if l.Description != "" {
		fmt.Fprintf(&b, "\n%s", l.Description)
	}

	if len(v.Rows) == 0 {
		fmt.Fprintf(&b, "\n%s", NoOrders)
		return b.String()
	}

	for _, r := range v.Rows {
		fmt.Fprintf(&b, "\n%d. %s x%d%s", r.Position, r.DisplayName, r.Quantity, paidMark(r))
		if r.Comment != "" {
			fmt.Fprintf(&b, " #%s", r.Comment)
		}
	}

	if v.Coordinator {
		prices := make([]types.Money, len(v.Rows))
		for i, r := range v.Rows {
			prices[i] = r.Price
		}
		total, _ := sum(prices)
		fmt.Fprintf(&b, "\n共 %d 人 %d 份 %s", len(v.Rows), v.Quantity(), total)
	}
	return b.String()
}

// Summaries renders the per-ledger totals shown for "all orders".
func Summaries(sums []query.LedgerSummary) string {
	if len(sums) == 0 {
		return NoLedgers
	}

	var b strings.Builder
	b.WriteString("全部訂單:")
	for _, s := range sums {
		fmt.Fprintf(&b, "\n%s %s（%s）%d 人 %d 份 %s 已付 %d/%d",
			s.Ledger.Title, s.Ledger.Product, statusLabel(s.Ledger.Status),
			s.Members, s.Quantity, s.Amount, s.Paid, s.Members)
	}
	return b.String()
}

// Help lists the commands available to the sender.
func Help(isCoordinator bool) string {
	lines := []string{
		"指令說明:",
		"D1+1 訂購，D1-1 減少",
		"D1+1#備註 附加備註",
		"D1 查看訂單",
		"我的訂單 查看所有訂單",
	}
	if isCoordinator {
		lines = append(lines,
			"create-D1-品名-單價-描述 開團",
			"toggle-D1 / open-D1 / close-D1 開關團購",
			"paid-D1-名稱 / unpaid-D1-名稱 付款標記",
			"check-名稱 查詢成員（私訊）",
			"全部訂單 團購總覽（私訊）",
		)
	}
	return strings.Join(lines, "\n")
}

// Error maps an error to the text shown to the sender.
func Error(err error) string {
	var (
		fe *groupbuy.FormatError
		qe *groupbuy.QuantityError
		le *groupbuy.LedgerError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return fe.Usage
	case errors.As(err, &qe):
		if qe.Requested == 0 {
			return ZeroQuantity
		}
		if qe.Limit > 0 {
			return fmt.Sprintf("數量不可超過 %d，目前數量 %d", qe.Limit, qe.Current)
		}
		return fmt.Sprintf("數量不可小於零，目前數量 %d", qe.Current)
	case errors.As(err, &le):
		return ledgerError(le)
	case errors.Is(err, groupbuy.ErrInvalidInput):
		return InvalidRequest
	default:
		return Busy
	}
}

func ledgerError(le *groupbuy.LedgerError) string {
	switch {
	case errors.Is(le.Err, groupbuy.ErrNotFound):
		return fmt.Sprintf("%s 尚未開始", le.Title)
	case errors.Is(le.Err, groupbuy.ErrAlreadyExists):
		return fmt.Sprintf("❗%s 已存在❗", le.Title)
	case errors.Is(le.Err, groupbuy.ErrLedgerClosed):
		return fmt.Sprintf("%s 已關閉", le.Title)
	case errors.Is(le.Err, groupbuy.ErrNoOrderFound):
		return fmt.Sprintf("%s 查無訂單", le.Title)
	case errors.Is(le.Err, groupbuy.ErrAlreadyInState):
		return fmt.Sprintf("%s 狀態未變更", le.Title)
	default:
		return Busy
	}
}

func statusLabel(s ledger.Status) string {
	if s == ledger.StatusOpen {
		return "開放中"
	}
	return "已關閉"
}

func paidMark(r *order.Row) string {
	if r.Paid {
		return " ✔"
	}
	return ""
}

// sum totals prices when they share a currency.
func sum(prices []types.Money) (types.Money, bool) {
	if len(prices) == 0 {
		return types.Money{}, false
	}
	total := types.Zero(prices[0].Currency)
	for _, p := range prices {
		if p.Currency != total.Currency {
			return types.Money{}, false
		}
		total = total.Add(p)
	}
	return total, true
}
