package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/groupbuy/id"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/types"
)

// ==================== Ledger models ====================

type ledgerModel struct {
	grove.BaseModel `grove:"table:groupbuy_ledgers"`

	ID          string    `grove:"id,pk"`
	Title       string    `grove:"title"`
	Status      string    `grove:"status"`
	Product     string    `grove:"product"`
	UnitPrice   int64     `grove:"unit_price"`
	Currency    string    `grove:"currency"`
	Description string    `grove:"description"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toLedgerModel(l *ledger.Ledger) *ledgerModel {
	return &ledgerModel{
		ID:          l.ID.String(),
		Title:       ledger.NormalizeTitle(l.Title),
		Status:      string(l.Status),
		Product:     l.Product,
		UnitPrice:   l.UnitPrice.Amount,
		Currency:    l.UnitPrice.Currency,
		Description: l.Description,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func fromLedgerModel(m *ledgerModel) (*ledger.Ledger, error) {
	ledgerID, err := id.ParseLedgerID(m.ID)
	if err != nil {
		return nil, err
	}

	return &ledger.Ledger{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          ledgerID,
		Title:       m.Title,
		Status:      ledger.Status(m.Status),
		Product:     m.Product,
		UnitPrice:   types.Money{Amount: m.UnitPrice, Currency: m.Currency},
		Description: m.Description,
	}, nil
}

// ==================== Order models ====================

type orderModel struct {
	grove.BaseModel `grove:"table:groupbuy_orders"`

	ID          string    `grove:"id,pk"`
	LedgerTitle string    `grove:"ledger_title"`
	MemberID    string    `grove:"member_id"`
	DisplayName string    `grove:"display_name"`
	Quantity    int64     `grove:"quantity"`
	Price       int64     `grove:"price"`
	Currency    string    `grove:"currency"`
	Comment     string    `grove:"comment"`
	Paid        bool      `grove:"paid"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toOrderModel(r *order.Row) *orderModel {
	return &orderModel{
		ID:          r.ID.String(),
		LedgerTitle: ledger.NormalizeTitle(r.LedgerTitle),
		MemberID:    r.MemberID,
		DisplayName: r.DisplayName,
		Quantity:    r.Quantity,
		Price:       r.Price.Amount,
		Currency:    r.Price.Currency,
		Comment:     r.Comment,
		Paid:        r.Paid,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromOrderModel(m *orderModel) (*order.Row, error) {
	orderID, err := id.ParseOrderID(m.ID)
	if err != nil {
		return nil, err
	}

	return &order.Row{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          orderID,
		LedgerTitle: m.LedgerTitle,
		MemberID:    m.MemberID,
		DisplayName: m.DisplayName,
		Quantity:    m.Quantity,
		Price:       types.Money{Amount: m.Price, Currency: m.Currency},
		Comment:     m.Comment,
		Paid:        m.Paid,
	}, nil
}
