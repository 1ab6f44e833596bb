package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"
	sqlitelib "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	gbstore "github.com/xraph/groupbuy/store"
)

// compile-time interface check
var _ gbstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Open connects to the SQLite database at dsn and wraps it in a Store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	drv := sqlitedriver.New()
	if err := drv.Open(ctx, dsn); err != nil {
		return nil, fmt.Errorf("groupbuy/sqlite: open: %w", err)
	}
	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("groupbuy/sqlite: open: %w", err)
	}
	return New(db), nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("groupbuy/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("groupbuy/sqlite: migration failed: %w", err)
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
	err := s.sdb.NewSelect(&models).
		OrderExpr("created_at ASC, title ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	m := new(ledgerModel)
	err := s.sdb.NewSelect(m).
		Where("title = ?", ledger.NormalizeTitle(title)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, groupbuy.ErrNotFound
		}
		return nil, err
	}
	return fromLedgerModel(m)
}

func (s *Store) CreateLedger(ctx context.Context, l *ledger.Ledger) error {
	if _, err := s.GetLedger(ctx, l.Title); err == nil {
		return groupbuy.ErrAlreadyExists
	} else if !errors.Is(err, groupbuy.ErrNotFound) {
		return err
	}

	return s.insertLedger(ctx, l)
}

// insertLedger writes l, reporting a concurrent insert of the same title as
// ErrAlreadyExists.
func (s *Store) insertLedger(ctx context.Context, l *ledger.Ledger) error {
	_, err := s.sdb.NewInsert(toLedgerModel(l)).Exec(ctx)
	if isUniqueViolation(err) {
		return groupbuy.ErrAlreadyExists
	}
	return err
}

func (s *Store) UpdateLedger(ctx context.Context, l *ledger.Ledger) error {
	res, err := s.sdb.NewUpdate((*ledgerModel)(nil)).
		Set("status = ?", string(l.Status)).
		Set("product = ?", l.Product).
		Set("unit_price = ?", l.UnitPrice.Amount).
		Set("currency = ?", l.UnitPrice.Currency).
		Set("description = ?", l.Description).
		Set("updated_at = ?", now()).
		Where("title = ?", ledger.NormalizeTitle(l.Title)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return groupbuy.ErrNotFound
	}
	return nil
}

// ==================== Row Store ====================

func (s *Store) ListRows(ctx context.Context, ledgerTitle string, limit int) ([]*order.Row, error) {
	var models []orderModel
	q := s.sdb.NewSelect(&models).
		Where("ledger_title = ?", ledger.NormalizeTitle(ledgerTitle)).
		OrderExpr("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	m := new(orderModel)
	err := s.sdb.NewSelect(m).
		Where("ledger_title = ?", ledger.NormalizeTitle(ledgerTitle)).
		Where("member_id = ?", memberID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, groupbuy.ErrNoOrderFound
		}
		return nil, err
	}
	return fromOrderModel(m)
}

func (s *Store) AppendRow(ctx context.Context, r *order.Row) error {
	if _, err := s.GetLedger(ctx, r.LedgerTitle); err != nil {
		return err
	}
	if _, err := s.GetRow(ctx, r.LedgerTitle, r.MemberID); err == nil {
		return groupbuy.ErrAlreadyExists
	} else if !errors.Is(err, groupbuy.ErrNoOrderFound) {
		return err
	}

	return s.insertRow(ctx, r)
}

func (s *Store) insertRow(ctx context.Context, r *order.Row) error {
	_, err := s.sdb.NewInsert(toOrderModel(r)).Exec(ctx)
	if isUniqueViolation(err) {
		return groupbuy.ErrAlreadyExists
	}
	return err
}

func (s *Store) UpdateRow(ctx context.Context, r *order.Row) error {
	m := toOrderModel(r)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return groupbuy.ErrNoOrderFound
	}
	return nil
}

func (s *Store) DeleteRow(ctx context.Context, r *order.Row) error {
	res, err := s.sdb.NewDelete((*orderModel)(nil)).
		Where("id = ?", r.ID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return groupbuy.ErrNoOrderFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var se *sqlitelib.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
