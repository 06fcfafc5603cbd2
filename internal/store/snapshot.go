package store

import (
	"fmt"
	"strings"

	"ops-agent/internal/domain"
)

// Snapshot is the in-memory state of both record collections at query time.
type Snapshot struct {
	Inventory []domain.InventoryRecord `json:"inventory"`
	Orders    []domain.OrderRecord     `json:"orders"`
}

// IsEmpty reports whether the snapshot holds no records at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Inventory) == 0 && len(s.Orders) == 0
}

// NewSnapshot validates the collections and returns them as a Snapshot.
// Warehouse/product pairs and order ids must be unique; stock must not be
// negative.
func NewSnapshot(inventory []domain.InventoryRecord, orders []domain.OrderRecord) (Snapshot, error) {
	seen := make(map[domain.StockKey]struct{}, len(inventory))
	for i, r := range inventory {
		if strings.TrimSpace(r.Warehouse) == "" || strings.TrimSpace(r.Product) == "" {
			return Snapshot{}, fmt.Errorf("store: inventory row %d: warehouse and product are required", i)
		}
		if r.Stock < 0 {
			return Snapshot{}, fmt.Errorf("store: inventory row %d: negative stock %d", i, r.Stock)
		}
		key := r.Key().Normalized()
		if _, dup := seen[key]; dup {
			return Snapshot{}, fmt.Errorf("store: duplicate inventory record %s/%s", r.Warehouse, r.Product)
		}
		seen[key] = struct{}{}
	}

	ids := make(map[string]struct{}, len(orders))
	for i, o := range orders {
		if strings.TrimSpace(o.ID) == "" {
			return Snapshot{}, fmt.Errorf("store: order row %d: id is required", i)
		}
		if _, dup := ids[o.ID]; dup {
			return Snapshot{}, fmt.Errorf("store: duplicate order id %q", o.ID)
		}
		ids[o.ID] = struct{}{}
	}

	return Snapshot{Inventory: inventory, Orders: orders}, nil
}

// clone copies the mutable inventory slice. Orders are never mutated and are
// shared.
func (s Snapshot) clone() Snapshot {
	inv := make([]domain.InventoryRecord, len(s.Inventory))
	copy(inv, s.Inventory)
	return Snapshot{Inventory: inv, Orders: s.Orders}
}
