package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ops-agent/internal/domain"
	"ops-agent/internal/store"
)

// LoadError reports a snapshot that could not be loaded. It is distinct from
// a snapshot that loaded fine but holds no records.
type LoadError struct {
	Source string
	Row    int // 1-based data row, 0 when the failure is not row specific
	Err    error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("repository: load %s row %d: %v", e.Source, e.Row, e.Err)
	}
	return fmt.Sprintf("repository: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var (
	inventoryColumns = []string{"warehouse", "product", "stock"}
	orderColumns     = []string{"order_id", "status", "driver", "city", "priority"}
)

// CSVFiles loads a snapshot from two CSV files on disk.
type CSVFiles struct {
	InventoryPath string
	OrdersPath    string
}

func (f CSVFiles) LoadSnapshot(_ context.Context) (store.Snapshot, error) {
	inv, err := os.Open(f.InventoryPath)
	if err != nil {
		return store.Snapshot{}, &LoadError{Source: f.InventoryPath, Err: err}
	}
	defer inv.Close()
	orders, err := os.Open(f.OrdersPath)
	if err != nil {
		return store.Snapshot{}, &LoadError{Source: f.OrdersPath, Err: err}
	}
	defer orders.Close()
	return LoadCSV(inv, orders)
}

// LoadCSV parses inventory (Warehouse, Product, Stock) and orders (Order_ID,
// Status, Driver, City, Priority) CSV streams. Header names are matched
// case-insensitively and column order is free. Status and priority may carry
// the dashboard's decorative glyphs. An empty stream yields an empty
// collection.
func LoadCSV(inventory, orders io.Reader) (store.Snapshot, error) {
	records, err := readInventory(inventory)
	if err != nil {
		return store.Snapshot{}, err
	}

	orderRows, err := readCSV("orders", orders, orderColumns)
	if err != nil {
		return store.Snapshot{}, err
	}
	list := make([]domain.OrderRecord, 0, len(orderRows))
	for i, row := range orderRows {
		status, err := domain.ParseOrderStatus(row["status"])
		if err != nil {
			return store.Snapshot{}, &LoadError{Source: "orders", Row: i + 1, Err: err}
		}
		priority, err := domain.ParsePriority(row["priority"])
		if err != nil {
			return store.Snapshot{}, &LoadError{Source: "orders", Row: i + 1, Err: err}
		}
		list = append(list, domain.OrderRecord{
			ID:       row["order_id"],
			Status:   status,
			Driver:   row["driver"],
			City:     row["city"],
			Priority: priority,
		})
	}

	snap, err := store.NewSnapshot(records, list)
	if err != nil {
		return store.Snapshot{}, &LoadError{Source: "csv", Err: err}
	}
	return snap, nil
}

func readInventory(r io.Reader) ([]domain.InventoryRecord, error) {
	rows, err := readCSV("inventory", r, inventoryColumns)
	if err != nil {
		return nil, err
	}
	records := make([]domain.InventoryRecord, 0, len(rows))
	for i, row := range rows {
		stock, err := strconv.Atoi(strings.ReplaceAll(row["stock"], ",", ""))
		if err != nil {
			return nil, &LoadError{Source: "inventory", Row: i + 1, Err: fmt.Errorf("stock %q is not an integer", row["stock"])}
		}
		records = append(records, domain.InventoryRecord{
			Warehouse: row["warehouse"],
			Product:   row["product"],
			Stock:     stock,
		})
	}
	return records, nil
}

// Transfer applies t to the inventory file, so CSVFiles can serve as its own
// ledger. The file is rewritten with a plain Warehouse,Product,Stock header
// and swapped in by rename; a failed write leaves the old file in place.
// Concurrent writers are not coordinated.
func (f CSVFiles) Transfer(_ context.Context, t domain.Transfer) error {
	in, err := os.Open(f.InventoryPath)
	if err != nil {
		return &LoadError{Source: f.InventoryPath, Err: err}
	}
	records, err := readInventory(in)
	in.Close()
	if err != nil {
		return err
	}

	src, dst := -1, -1
	for i, rec := range records {
		if !strings.EqualFold(rec.Product, t.Product) {
			continue
		}
		switch {
		case strings.EqualFold(rec.Warehouse, t.From):
			src = i
		case strings.EqualFold(rec.Warehouse, t.To):
			dst = i
		}
	}
	if src < 0 || dst < 0 {
		return fmt.Errorf("repository: %s %s->%s: %w", t.Product, t.From, t.To, store.ErrUnknownRecord)
	}
	if records[src].Stock < t.Quantity {
		return fmt.Errorf("repository: %s in %s: %w", t.Product, t.From, store.ErrInvalidTransfer)
	}
	records[src].Stock -= t.Quantity
	records[dst].Stock += t.Quantity

	return writeInventory(f.InventoryPath, records)
}

func writeInventory(path string, records []domain.InventoryRecord) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".inventory-*.csv")
	if err != nil {
		return fmt.Errorf("repository: write inventory: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	_ = w.Write([]string{"Warehouse", "Product", "Stock"})
	for _, rec := range records {
		_ = w.Write([]string{rec.Warehouse, rec.Product, strconv.Itoa(rec.Stock)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("repository: write inventory: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("repository: write inventory: %w", err)
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("repository: write inventory: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("repository: write inventory: %w", err)
	}
	return nil
}

// readCSV returns each data row keyed by normalized header name.
func readCSV(source string, r io.Reader, required []string) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("read header: %w", err)}
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[headerKey(h)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("missing column %q", col)}
		}
	}

	var rows []map[string]string
	for n := 1; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, &LoadError{Source: source, Row: n, Err: err}
		}
		row := make(map[string]string, len(required))
		for _, col := range required {
			row[col] = strings.TrimSpace(rec[index[col]])
		}
		rows = append(rows, row)
	}
}

// headerKey maps "Order_ID", "Order ID" and "order-id" to "order_id", and
// "Stock_Level" to "stock".
func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	if h == "stock_level" {
		return "stock"
	}
	return h
}
