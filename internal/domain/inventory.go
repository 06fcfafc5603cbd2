package domain

import "strings"

// InventoryRecord is the stock level of one product in one warehouse.
// (Warehouse, Product) is unique within a snapshot.
type InventoryRecord struct {
	Warehouse string `json:"warehouse"`
	Product   string `json:"product"`
	Stock     int    `json:"stock"`
}

// StockKey identifies an inventory record.
type StockKey struct {
	Warehouse string
	Product   string
}

// Key returns the identity of the record.
func (r InventoryRecord) Key() StockKey {
	return StockKey{Warehouse: r.Warehouse, Product: r.Product}
}

// Normalized returns a key with surrounding whitespace removed and case folded,
// used for lookups where callers may not match the stored spelling exactly.
func (k StockKey) Normalized() StockKey {
	return StockKey{
		Warehouse: strings.ToLower(strings.TrimSpace(k.Warehouse)),
		Product:   strings.ToLower(strings.TrimSpace(k.Product)),
	}
}

// Transfer moves Quantity units of Product from one warehouse to another.
type Transfer struct {
	Product  string `json:"product"`
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity int    `json:"quantity"`
}

// Source returns the key of the record being decremented.
func (t Transfer) Source() StockKey {
	return StockKey{Warehouse: t.From, Product: t.Product}
}

// Destination returns the key of the record being incremented.
func (t Transfer) Destination() StockKey {
	return StockKey{Warehouse: t.To, Product: t.Product}
}
