// Package metrics holds the pure extractors the engine computes answers from.
// Every function is deterministic for a given input and returns the identity
// value (0, nil, or the documented sentinel) for empty collections.
package metrics

import (
	"sort"
	"strings"

	"ops-agent/internal/domain"
)

// EmptyDeliveryRate is returned by DeliveryRate when there are no orders.
const EmptyDeliveryRate = 0.0

// Breakdown is one bucket of a grouped count or sum.
type Breakdown struct {
	Key   string `json:"key"`
	Value int    `json:"value"`
}

// DriverTally is a driver and the number of orders counted for them.
type DriverTally struct {
	Driver string `json:"driver"`
	Count  int    `json:"count"`
}

// TotalStock sums stock across records whose warehouse contains scope,
// case-insensitively. An empty scope matches every record.
func TotalStock(inv []domain.InventoryRecord, scope string) int {
	total := 0
	for _, r := range inv {
		if matches(r.Warehouse, scope) {
			total += r.Stock
		}
	}
	return total
}

// ScopedInventory returns the records whose warehouse contains scope.
func ScopedInventory(inv []domain.InventoryRecord, scope string) []domain.InventoryRecord {
	if scope == "" {
		return inv
	}
	var out []domain.InventoryRecord
	for _, r := range inv {
		if matches(r.Warehouse, scope) {
			out = append(out, r)
		}
	}
	return out
}

// LowStockItems returns records with stock below threshold, most critical
// first. Equal stock levels are ordered by product, then warehouse.
func LowStockItems(inv []domain.InventoryRecord, threshold int) []domain.InventoryRecord {
	var low []domain.InventoryRecord
	for _, r := range RankByStock(inv) {
		if r.Stock >= threshold {
			break
		}
		low = append(low, r)
	}
	return low
}

// RankByStock returns a copy of inv ordered ascending by stock, then product,
// then warehouse.
func RankByStock(inv []domain.InventoryRecord) []domain.InventoryRecord {
	ranked := make([]domain.InventoryRecord, len(inv))
	copy(ranked, inv)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Stock != ranked[j].Stock {
			return ranked[i].Stock < ranked[j].Stock
		}
		if ranked[i].Product != ranked[j].Product {
			return ranked[i].Product < ranked[j].Product
		}
		return ranked[i].Warehouse < ranked[j].Warehouse
	})
	return ranked
}

// DelayedOrders returns delayed orders whose city contains scope.
func DelayedOrders(orders []domain.OrderRecord, scope string) []domain.OrderRecord {
	var out []domain.OrderRecord
	for _, o := range orders {
		if o.Status == domain.OrderStatusDelayed && matches(o.City, scope) {
			out = append(out, o)
		}
	}
	return out
}

// OrdersInCity returns all orders whose city contains scope.
func OrdersInCity(orders []domain.OrderRecord, scope string) []domain.OrderRecord {
	if scope == "" {
		return orders
	}
	var out []domain.OrderRecord
	for _, o := range orders {
		if matches(o.City, scope) {
			out = append(out, o)
		}
	}
	return out
}

// TopDriver returns the driver with the most orders in the given status.
// Ties go to the driver encountered first. The zero tally means no order
// matched.
func TopDriver(orders []domain.OrderRecord, status domain.OrderStatus) DriverTally {
	board := DriverBoard(orders, status)
	if len(board) == 0 {
		return DriverTally{}
	}
	return board[0]
}

// DriverBoard counts orders per driver in the given status, highest first,
// ties in first-encountered order.
func DriverBoard(orders []domain.OrderRecord, status domain.OrderStatus) []DriverTally {
	counts := countBy(orders, func(o domain.OrderRecord) (string, bool) {
		return o.Driver, o.Status == status
	})
	board := make([]DriverTally, len(counts))
	for i, b := range counts {
		board[i] = DriverTally{Driver: b.Key, Count: b.Value}
	}
	return board
}

// DeliveryRate is the share of orders delivered, in [0,1]. It returns
// EmptyDeliveryRate when orders is empty.
func DeliveryRate(orders []domain.OrderRecord) float64 {
	if len(orders) == 0 {
		return EmptyDeliveryRate
	}
	delivered := 0
	for _, o := range orders {
		if o.Status == domain.OrderStatusDelivered {
			delivered++
		}
	}
	return float64(delivered) / float64(len(orders))
}

// DelaysByCity counts delayed orders per city, highest first, ties in
// first-encountered order.
func DelaysByCity(orders []domain.OrderRecord) []Breakdown {
	return countBy(orders, func(o domain.OrderRecord) (string, bool) {
		return o.City, o.Status == domain.OrderStatusDelayed
	})
}

// StatusMix counts orders per status in a fixed order: delivered, in
// transit, delayed. Statuses with no orders are omitted.
func StatusMix(orders []domain.OrderRecord) []Breakdown {
	counts := map[domain.OrderStatus]int{}
	for _, o := range orders {
		counts[o.Status]++
	}
	var out []Breakdown
	for _, s := range []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusInTransit, domain.OrderStatusDelayed} {
		if counts[s] > 0 {
			out = append(out, Breakdown{Key: string(s), Value: counts[s]})
		}
	}
	return out
}

// PriorityDelays returns delayed orders of the given priority in input order.
func PriorityDelays(orders []domain.OrderRecord, priority domain.Priority) []domain.OrderRecord {
	var out []domain.OrderRecord
	for _, o := range orders {
		if o.Status == domain.OrderStatusDelayed && o.Priority == priority {
			out = append(out, o)
		}
	}
	return out
}

// StockByWarehouse sums stock per warehouse in first-encountered order.
func StockByWarehouse(inv []domain.InventoryRecord) []Breakdown {
	return sumBy(inv, func(r domain.InventoryRecord) string { return r.Warehouse })
}

// Products lists distinct product names in first-encountered order.
func Products(inv []domain.InventoryRecord) []string {
	return distinct(inv, func(r domain.InventoryRecord) string { return r.Product })
}

// Warehouses lists distinct warehouse names in first-encountered order.
func Warehouses(inv []domain.InventoryRecord) []string {
	return distinct(inv, func(r domain.InventoryRecord) string { return r.Warehouse })
}

// Summary is the dashboard header: total stock, delayed shipments and
// delivery efficiency.
type Summary struct {
	TotalStock   int     `json:"totalStock"`
	Delayed      int     `json:"delayed"`
	Orders       int     `json:"orders"`
	DeliveryRate float64 `json:"deliveryRate"`
}

// Summarize computes the dashboard header figures.
func Summarize(inv []domain.InventoryRecord, orders []domain.OrderRecord) Summary {
	return Summary{
		TotalStock:   TotalStock(inv, ""),
		Delayed:      len(DelayedOrders(orders, "")),
		Orders:       len(orders),
		DeliveryRate: DeliveryRate(orders),
	}
}

func matches(value, scope string) bool {
	if scope == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(scope))
}

// countBy groups matching orders by key and sorts buckets by count
// descending. The stable sort keeps first-encountered order for ties.
func countBy(orders []domain.OrderRecord, key func(domain.OrderRecord) (string, bool)) []Breakdown {
	idx := map[string]int{}
	var out []Breakdown
	for _, o := range orders {
		k, ok := key(o)
		if !ok {
			continue
		}
		i, seen := idx[k]
		if !seen {
			i = len(out)
			idx[k] = i
			out = append(out, Breakdown{Key: k})
		}
		out[i].Value++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

func sumBy(inv []domain.InventoryRecord, key func(domain.InventoryRecord) string) []Breakdown {
	idx := map[string]int{}
	var out []Breakdown
	for _, r := range inv {
		k := key(r)
		i, seen := idx[k]
		if !seen {
			i = len(out)
			idx[k] = i
			out = append(out, Breakdown{Key: k})
		}
		out[i].Value += r.Stock
	}
	return out
}

func distinct(inv []domain.InventoryRecord, key func(domain.InventoryRecord) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range inv {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
