package ledger

import (
	"strings"

	"github.com/xraph/groupbuy/id"
	"github.com/xraph/groupbuy/types"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusOpen {
		return StatusClosed
	}
	return StatusOpen
}

func (s Status) Valid() bool {
	return s == StatusOpen || s == StatusClosed
}

type Ledger struct {
	types.Entity
	ID          id.LedgerID `json:"id"`
	Title       string      `json:"title"`
	Status      Status      `json:"status"`
	Product     string      `json:"product"`
	UnitPrice   types.Money `json:"unit_price"`
	Description string      `json:"description"`
}

// IsOpen reports whether members may currently place orders.
func (l *Ledger) IsOpen() bool { return l.Status == StatusOpen }

// Complete reports whether the ledger header carries a product name.
// Ledgers without one are skipped by cross-ledger queries.
func (l *Ledger) Complete() bool { return strings.TrimSpace(l.Product) != "" }

// NormalizeTitle returns the canonical form of a ledger title.
// Titles are unique across the store in this form.
func NormalizeTitle(title string) string {
	return strings.ToUpper(strings.TrimSpace(title))
}
