package mongo

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

	ID          string     `grove:"id,pk"       bson:"_id"`
	Title       string     `grove:"title"       bson:"title"`
	Status      string     `grove:"status"      bson:"status"`
	Product     string     `grove:"product"     bson:"product"`
	UnitPrice   moneyModel `grove:"unit_price"  bson:"unit_price"`
	Description string     `grove:"description" bson:"description"`
	CreatedAt   time.Time  `grove:"created_at"  bson:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"  bson:"updated_at"`
}

type moneyModel struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func toMoneyModel(m types.Money) moneyModel {
	return moneyModel{Amount: m.Amount, Currency: m.Currency}
}

func (m moneyModel) money() types.Money {
	return types.Money{Amount: m.Amount, Currency: m.Currency}
}

func toLedgerModel(l *ledger.Ledger) *ledgerModel {
	return &ledgerModel{
		ID:          l.ID.String(),
		Title:       ledger.NormalizeTitle(l.Title),
		Status:      string(l.Status),
		Product:     l.Product,
		UnitPrice:   toMoneyModel(l.UnitPrice),
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
		UnitPrice:   m.UnitPrice.money(),
		Description: m.Description,
	}, nil
}

// ==================== Order models ====================

type orderModel struct {
	grove.BaseModel `grove:"table:groupbuy_orders"`

	ID          string     `grove:"id,pk"        bson:"_id"`
	LedgerTitle string     `grove:"ledger_title" bson:"ledger_title"`
	MemberID    string     `grove:"member_id"    bson:"member_id"`
	DisplayName string     `grove:"display_name" bson:"display_name"`
	Quantity    int64      `grove:"quantity"     bson:"quantity"`
	Price       moneyModel `grove:"price"        bson:"price"`
	Comment     string     `grove:"comment"      bson:"comment,omitempty"`
	Paid        bool       `grove:"paid"         bson:"paid"`
	CreatedAt   time.Time  `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time  `grove:"updated_at"   bson:"updated_at"`
}

func toOrderModel(r *order.Row) *orderModel {
	return &orderModel{
		ID:          r.ID.String(),
		LedgerTitle: ledger.NormalizeTitle(r.LedgerTitle),
		MemberID:    r.MemberID,
		DisplayName: r.DisplayName,
		Quantity:    r.Quantity,
		Price:       toMoneyModel(r.Price),
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
		Price:       m.Price.money(),
		Comment:     m.Comment,
		Paid:        m.Paid,
	}, nil
}
