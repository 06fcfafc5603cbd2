package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ops-agent/internal/domain"
	"ops-agent/internal/store"
)

// MySQLSchema creates the tables MySQLAdapter reads and writes.
var MySQLSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory (
		warehouse VARCHAR(128) NOT NULL,
		product   VARCHAR(128) NOT NULL,
		stock     INT NOT NULL,
		PRIMARY KEY (warehouse, product),
		CHECK (stock >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id VARCHAR(64)  NOT NULL PRIMARY KEY,
		status   VARCHAR(16)  NOT NULL,
		driver   VARCHAR(128) NOT NULL,
		city     VARCHAR(128) NOT NULL,
		priority VARCHAR(16)  NOT NULL
	)`,
}

// MySQLAdapter loads snapshots from MySQL and acts as the stock ledger.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the schema if it does not exist.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range MySQLSchema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("repository: migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) LoadSnapshot(ctx context.Context) (store.Snapshot, error) {
	inventory, err := m.loadInventory(ctx)
	if err != nil {
		return store.Snapshot{}, err
	}
	orders, err := m.loadOrders(ctx)
	if err != nil {
		return store.Snapshot{}, err
	}
	snap, err := store.NewSnapshot(inventory, orders)
	if err != nil {
		return store.Snapshot{}, &LoadError{Source: "mysql", Err: err}
	}
	return snap, nil
}

func (m *MySQLAdapter) loadInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT warehouse, product, stock
		FROM inventory ORDER BY warehouse, product`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var out []domain.InventoryRecord
	for rows.Next() {
		var r domain.InventoryRecord
		if err := rows.Scan(&r.Warehouse, &r.Product, &r.Stock); err != nil {
			return nil, &LoadError{Source: "mysql inventory", Row: len(out) + 1, Err: err}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	return out, nil
}

func (m *MySQLAdapter) loadOrders(ctx context.Context) ([]domain.OrderRecord, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT order_id, status, driver, city, priority
		FROM orders ORDER BY order_id`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderRecord
	for rows.Next() {
		var (
			o                domain.OrderRecord
			status, priority string
		)
		if err := rows.Scan(&o.ID, &status, &o.Driver, &o.City, &priority); err != nil {
			return nil, &LoadError{Source: "mysql orders", Row: len(out) + 1, Err: err}
		}
		if o.Status, err = domain.ParseOrderStatus(status); err != nil {
			return nil, &LoadError{Source: "mysql orders", Row: len(out) + 1, Err: err}
		}
		if o.Priority, err = domain.ParsePriority(priority); err != nil {
			return nil, &LoadError{Source: "mysql orders", Row: len(out) + 1, Err: err}
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return out, nil
}

// Transfer moves stock inside one transaction. The decrement only matches
// when the source holds enough stock, so no interleaving can drive it
// negative.
func (m *MySQLAdapter) Transfer(ctx context.Context, t domain.Transfer) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET stock = stock - ?
		WHERE warehouse = ? AND product = ? AND stock >= ?`,
		t.Quantity, t.From, t.Product, t.Quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement source: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("repository: %s in %s: %w", t.Product, t.From, store.ErrInvalidTransfer)
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE inventory
		SET stock = stock + ?
		WHERE warehouse = ? AND product = ?`,
		t.Quantity, t.To, t.Product,
	)
	if err != nil {
		return fmt.Errorf("increment destination: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("repository: %s in %s: %w", t.Product, t.To, store.ErrUnknownRecord)
	}

	return tx.Commit()
}

// SaveSnapshot upserts every record of snap in one transaction.
func (m *MySQLAdapter) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range snap.Inventory {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO inventory (warehouse, product, stock) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE stock = VALUES(stock)`,
			r.Warehouse, r.Product, r.Stock,
		); err != nil {
			return fmt.Errorf("upsert inventory %s/%s: %w", r.Warehouse, r.Product, err)
		}
	}
	for _, o := range snap.Orders {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (order_id, status, driver, city, priority) VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE status = VALUES(status), driver = VALUES(driver),
				city = VALUES(city), priority = VALUES(priority)`,
			o.ID, string(o.Status), o.Driver, o.City, string(o.Priority),
		); err != nil {
			return fmt.Errorf("upsert order %s: %w", o.ID, err)
		}
	}
	return tx.Commit()
}

// Stock returns the current stock of one record.
func (m *MySQLAdapter) Stock(ctx context.Context, warehouse, product string) (int, error) {
	var stock int
	err := m.db.QueryRowContext(ctx, `
		SELECT stock FROM inventory WHERE warehouse = ? AND product = ?`,
		warehouse, product,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, store.ErrUnknownRecord
	}
	if err != nil {
		return 0, fmt.Errorf("query stock: %w", err)
	}
	return stock, nil
}
