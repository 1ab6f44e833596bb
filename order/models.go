package order

import (
	"github.com/xraph/groupbuy/id"
	"github.com/xraph/groupbuy/types"
)

// Row is one member's standing order within a ledger.
type Row struct {
	types.Entity
	ID          id.OrderID  `json:"id"`
	LedgerTitle string      `json:"ledger_title"`
	MemberID    string      `json:"member_id"`
	DisplayName string      `json:"display_name"`
	Quantity    int64       `json:"quantity"`
	Price       types.Money `json:"price"`
	Comment     string      `json:"comment,omitempty"`
	Paid        bool        `json:"paid"`

	// Position is the 1-based index of the row within its ledger. It is
	// assigned when rows are listed and never persisted.
	Position int `json:"position,omitempty"`
}

// Reprice recomputes the row price from its quantity. It reports false and
// leaves Price untouched when the total would overflow.
func (r *Row) Reprice(unitPrice types.Money) bool {
	price, ok := unitPrice.MultiplyChecked(r.Quantity)
	if !ok {
		return false
	}
	r.Price = price
	return true
}
