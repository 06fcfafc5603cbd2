package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ops-agent/internal/domain"
)

var (
	ErrInvalidTransfer = errors.New("store: invalid transfer")
	ErrUnknownRecord   = errors.New("store: unknown inventory record")
)

// Ledger is a durable copy of stock levels that transfers are written
// through to. It must apply both sides atomically and reject a transfer that
// would drive the source negative.
type Ledger interface {
	Transfer(ctx context.Context, t domain.Transfer) error
}

// TransferResult holds both records after a successful transfer.
type TransferResult struct {
	Source      domain.InventoryRecord `json:"source"`
	Destination domain.InventoryRecord `json:"destination"`
}

// Store is the Record Store. Reads may run concurrently; transfers are
// serialized behind the write lock.
type Store struct {
	mu     sync.RWMutex
	snap   Snapshot
	index  map[domain.StockKey]int
	ledger Ledger
}

// New creates a Store over snap. ledger may be nil.
func New(snap Snapshot, ledger Ledger) *Store {
	s := &Store{ledger: ledger}
	s.reset(snap)
	return s
}

// Snapshot returns a copy of the current state that is safe to read while
// transfers continue.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

// Replace swaps in a freshly loaded snapshot.
func (s *Store) Replace(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(snap)
}

func (s *Store) reset(snap Snapshot) {
	s.snap = snap.clone()
	s.index = make(map[domain.StockKey]int, len(snap.Inventory))
	for i, r := range s.snap.Inventory {
		s.index[r.Key().Normalized()] = i
	}
}

// Transfer moves stock between two warehouses. The request is validated
// against current stock before anything is mutated; on rejection neither the
// ledger nor the in-memory records change.
func (s *Store) Transfer(ctx context.Context, t domain.Transfer) (TransferResult, error) {
	if t.Quantity <= 0 {
		return TransferResult{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidTransfer, t.Quantity)
	}
	if strings.EqualFold(strings.TrimSpace(t.From), strings.TrimSpace(t.To)) {
		return TransferResult{}, fmt.Errorf("%w: source and destination are both %q", ErrInvalidTransfer, t.From)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.index[t.Source().Normalized()]
	if !ok {
		return TransferResult{}, fmt.Errorf("%w: %s in %s", ErrUnknownRecord, t.Product, t.From)
	}
	dst, ok := s.index[t.Destination().Normalized()]
	if !ok {
		return TransferResult{}, fmt.Errorf("%w: %s in %s", ErrUnknownRecord, t.Product, t.To)
	}

	source := s.snap.Inventory[src]
	if t.Quantity > source.Stock {
		return TransferResult{}, fmt.Errorf("%w: %d units of %s requested from %s, %d available",
			ErrInvalidTransfer, t.Quantity, source.Product, source.Warehouse, source.Stock)
	}

	// Ledger keys use the stored spelling.
	canonical := domain.Transfer{
		Product:  source.Product,
		From:     source.Warehouse,
		To:       s.snap.Inventory[dst].Warehouse,
		Quantity: t.Quantity,
	}
	if s.ledger != nil {
		if err := s.ledger.Transfer(ctx, canonical); err != nil {
			return TransferResult{}, fmt.Errorf("store: ledger transfer: %w", err)
		}
	}

	s.snap.Inventory[src].Stock -= t.Quantity
	s.snap.Inventory[dst].Stock += t.Quantity

	return TransferResult{
		Source:      s.snap.Inventory[src],
		Destination: s.snap.Inventory[dst],
	}, nil
}
