package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/groupbuy"
	"github.com/xraph/groupbuy/ledger"
	"github.com/xraph/groupbuy/order"
	"github.com/xraph/groupbuy/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store keeps ledgers and rows in process memory. Values are copied on the
// way in and out so callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	// Ledger storage, keyed by normalized title
	ledgers map[string]*ledger.Ledger

	// Row storage, per ledger title in append order
	rows map[string][]*order.Row

	closed bool
}

func New() *Store {
	return &Store{
		ledgers: make(map[string]*ledger.Ledger),
		rows:    make(map[string][]*order.Row),
	}
}

// Ledger Store implementation
func (s *Store) ListLedgers(_ context.Context) ([]*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ledger.Ledger, 0, len(s.ledgers))
	for _, l := range s.ledgers {
		cp := *l
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Title < result[j].Title
	})
	return result, nil
}

func (s *Store) GetLedger(_ context.Context, title string) (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if l, ok := s.ledgers[ledger.NormalizeTitle(title)]; ok {
		cp := *l
		return &cp, nil
	}
	return nil, groupbuy.ErrNotFound
}

func (s *Store) CreateLedger(_ context.Context, l *ledger.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return groupbuy.ErrStoreClosed
	}
	key := ledger.NormalizeTitle(l.Title)
	if _, exists := s.ledgers[key]; exists {
		return groupbuy.ErrAlreadyExists
	}
	cp := *l
	s.ledgers[key] = &cp
	return nil
}

func (s *Store) UpdateLedger(_ context.Context, l *ledger.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledger.NormalizeTitle(l.Title)
	if _, exists := s.ledgers[key]; !exists {
		return groupbuy.ErrNotFound
	}
	cp := *l
	s.ledgers[key] = &cp
	return nil
}

// Row Store implementation
func (s *Store) ListRows(_ context.Context, ledgerTitle string, limit int) ([]*order.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.rows[ledger.NormalizeTitle(ledgerTitle)]
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}

	result := make([]*order.Row, 0, limit)
	for i, r := range rows[:limit] {
		cp := *r
		cp.Position = i + 1
		result = append(result, &cp)
	}
	return result, nil
}

func (s *Store) GetRow(_ context.Context, ledgerTitle, memberID string) (*order.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.rows[ledger.NormalizeTitle(ledgerTitle)] {
		if r.MemberID == memberID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, groupbuy.ErrNoOrderFound
}

func (s *Store) AppendRow(_ context.Context, r *order.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return groupbuy.ErrStoreClosed
	}
	key := ledger.NormalizeTitle(r.LedgerTitle)
	if _, ok := s.ledgers[key]; !ok {
		return groupbuy.ErrNotFound
	}
	for _, existing := range s.rows[key] {
		if existing.MemberID == r.MemberID {
			return groupbuy.ErrAlreadyExists
		}
	}
	cp := *r
	s.rows[key] = append(s.rows[key], &cp)
	return nil
}

func (s *Store) UpdateRow(_ context.Context, r *order.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.rows[ledger.NormalizeTitle(r.LedgerTitle)]
	for i, existing := range rows {
		if existing.ID == r.ID {
			cp := *r
			rows[i] = &cp
			return nil
		}
	}
	return groupbuy.ErrNoOrderFound
}

func (s *Store) DeleteRow(_ context.Context, r *order.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ledger.NormalizeTitle(r.LedgerTitle)
	rows := s.rows[key]
	for i, existing := range rows {
		if existing.ID == r.ID {
			s.rows[key] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return groupbuy.ErrNoOrderFound
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return groupbuy.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
