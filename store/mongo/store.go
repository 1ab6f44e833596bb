package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	gbstore "github.com/xraph/groupbuy/store"
)

// Collection name constants.
const (
	colLedgers = "groupbuy_ledgers"
	colOrders  = "groupbuy_orders"
)

// compile-time interface check
var _ gbstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open connects to the MongoDB deployment at uri. The database name is
// taken from the URI path.
func Open(ctx context.Context, uri string) (*Store, error) {
	drv := mongodriver.New()
	if err := drv.Open(ctx, uri); err != nil {
		return nil, fmt.Errorf("groupbuy/mongo: open: %w", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("groupbuy/mongo: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all groupbuy collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("groupbuy/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Ledger Store ====================

func (s *Store) ListLedgers(ctx context.Context) ([]*ledger.Ledger, error) {
	var models []ledgerModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "title", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("groupbuy/mongo: list ledgers: %w", err)
	}

	result := make([]*ledger.Ledger, len(models))
	for i := range models {
		l, err := fromLedgerModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = l
	}
	return result, nil
}

func (s *Store) GetLedger(ctx context.Context, title string) (*ledger.Ledger, error) {
	var m ledgerModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"title": ledger.NormalizeTitle(title)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, groupbuy.ErrNotFound
		}
		return nil, fmt.Errorf("groupbuy/mongo: get ledger: %w", err)
	}
	return fromLedgerModel(&m)
}

func (s *Store) CreateLedger(ctx context.Context, l *ledger.Ledger) error {
	m := toLedgerModel(l)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return groupbuy.ErrAlreadyExists
		}
		return fmt.Errorf("groupbuy/mongo: create ledger: %w", err)
	}
	return nil
}

func (s *Store) UpdateLedger(ctx context.Context, l *ledger.Ledger) error {
	res, err := s.mdb.NewUpdate((*ledgerModel)(nil)).
		Filter(bson.M{"title": ledger.NormalizeTitle(l.Title)}).
		Set("status", string(l.Status)).
		Set("product", l.Product).
		Set("unit_price", toMoneyModel(l.UnitPrice)).
		Set("description", l.Description).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("groupbuy/mongo: update ledger: %w", err)
	}
	if res.MatchedCount() == 0 {
		return groupbuy.ErrNotFound
	}
	return nil
}

// ==================== Row Store ====================

func (s *Store) ListRows(ctx context.Context, ledgerTitle string, limit int) ([]*order.Row, error) {
	var models []orderModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"ledger_title": ledger.NormalizeTitle(ledgerTitle)}).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("groupbuy/mongo: list rows: %w", err)
	}

	result := make([]*order.Row, len(models))
	for i := range models {
		r, err := fromOrderModel(&models[i])
		if err != nil {
			return nil, err
		}
		r.Position = i + 1
		result[i] = r
	}
	return result, nil
}

func (s *Store) GetRow(ctx context.Context, ledgerTitle, memberID string) (*order.Row, error) {
	var m orderModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"ledger_title": ledger.NormalizeTitle(ledgerTitle),
			"member_id":    memberID,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, groupbuy.ErrNoOrderFound
		}
		return nil, fmt.Errorf("groupbuy/mongo: get row: %w", err)
	}
	return fromOrderModel(&m)
}

func (s *Store) AppendRow(ctx context.Context, r *order.Row) error {
	if _, err := s.GetLedger(ctx, r.LedgerTitle); err != nil {
		return err
	}

	m := toOrderModel(r)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return groupbuy.ErrAlreadyExists
		}
		return fmt.Errorf("groupbuy/mongo: append row: %w", err)
	}
	return nil
}

func (s *Store) UpdateRow(ctx context.Context, r *order.Row) error {
	m := toOrderModel(r)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("groupbuy/mongo: update row: %w", err)
	}
	if res.MatchedCount() == 0 {
		return groupbuy.ErrNoOrderFound
	}
	return nil
}

func (s *Store) DeleteRow(ctx context.Context, r *order.Row) error {
	res, err := s.mdb.NewDelete((*orderModel)(nil)).
		Filter(bson.M{"_id": r.ID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("groupbuy/mongo: delete row: %w", err)
	}
	if res.DeletedCount() == 0 {
		return groupbuy.ErrNoOrderFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all groupbuy collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colLedgers: {
			{
				Keys:    bson.D{{Key: "title", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colOrders: {
			{
				Keys:    bson.D{{Key: "ledger_title", Value: 1}, {Key: "member_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "ledger_title", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "display_name", Value: 1}}},
		},
	}
}
