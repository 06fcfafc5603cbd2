package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"ops-agent/internal/domain"
	"ops-agent/internal/store"
)

func newMockAdapter(t *testing.T) (*MySQLAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLAdapter(db), mock
}

func TestMySQLLoadSnapshot(t *testing.T) {
	m, mock := newMockAdapter(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT warehouse, product, stock")).
		WillReturnRows(sqlmock.NewRows([]string{"warehouse", "product", "stock"}).
			AddRow("Dubai Central", "Cola 330ml", 1200).
			AddRow("Sharjah Hub", "Pasta", 40))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT order_id, status, driver, city, priority")).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "driver", "city", "priority"}).
			AddRow("ORD-1", "Delayed", "Saeed", "Dubai", "VIP"))

	snap, err := m.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Inventory, 2)
	require.Equal(t, domain.OrderRecord{ID: "ORD-1", Status: domain.OrderStatusDelayed, Driver: "Saeed", City: "Dubai", Priority: domain.PriorityVIP}, snap.Orders[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLLoadSnapshot_BadStatus(t *testing.T) {
	m, mock := newMockAdapter(t)
	mock.ExpectQuery("SELECT warehouse").WillReturnRows(sqlmock.NewRows([]string{"warehouse", "product", "stock"}))
	mock.ExpectQuery("SELECT order_id").
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "status", "driver", "city", "priority"}).
			AddRow("ORD-1", "lost", "Saeed", "Dubai", "VIP"))

	_, err := m.LoadSnapshot(context.Background())
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, "mysql orders", loadErr.Source)
}

func TestMySQLTransfer(t *testing.T) {
	tr := domain.Transfer{Product: "Cola 330ml", From: "Dubai Central", To: "Sharjah Hub", Quantity: 10}

	t.Run("commits both updates", func(t *testing.T) {
		m, mock := newMockAdapter(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET stock = stock - ?")).
			WithArgs(10, "Dubai Central", "Cola 330ml", 10).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("SET stock = stock + ?")).
			WithArgs(10, "Sharjah Hub", "Cola 330ml").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, m.Transfer(context.Background(), tr))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient stock rolls back", func(t *testing.T) {
		m, mock := newMockAdapter(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET stock = stock - ?")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		require.ErrorIs(t, m.Transfer(context.Background(), tr), store.ErrInvalidTransfer)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing destination rolls back", func(t *testing.T) {
		m, mock := newMockAdapter(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET stock = stock - ?")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("SET stock = stock + ?")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		require.ErrorIs(t, m.Transfer(context.Background(), tr), store.ErrUnknownRecord)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error", func(t *testing.T) {
		m, mock := newMockAdapter(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("SET stock = stock - ?")).WillReturnError(errors.New("deadlock"))
		mock.ExpectRollback()

		err := m.Transfer(context.Background(), tr)
		require.ErrorContains(t, err, "decrement source")
		require.NotErrorIs(t, err, store.ErrInvalidTransfer)
	})
}

func TestMySQLSaveSnapshotAndStock(t *testing.T) {
	m, mock := newMockAdapter(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inventory")).WithArgs("A", "X", 5).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).WithArgs("O1", "Delivered", "Sam", "Dubai", "High").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM inventory")).WithArgs("A", "X").
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(5))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT stock FROM inventory")).WithArgs("A", "Y").
		WillReturnError(sql.ErrNoRows)

	require.NoError(t, m.SaveSnapshot(context.Background(), store.Snapshot{
		Inventory: []domain.InventoryRecord{{Warehouse: "A", Product: "X", Stock: 5}},
		Orders:    []domain.OrderRecord{{ID: "O1", Status: domain.OrderStatusDelivered, Driver: "Sam", City: "Dubai", Priority: domain.PriorityHigh}},
	}))
	stock, err := m.Stock(context.Background(), "A", "X")
	require.NoError(t, err)
	require.Equal(t, 5, stock)
	_, err = m.Stock(context.Background(), "A", "Y")
	require.ErrorIs(t, err, store.ErrUnknownRecord)
	require.NoError(t, mock.ExpectationsWereMet())
}

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/opsagent?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	return db
}

func TestMySQLIntegration_TransferRoundTrip(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	m := NewMySQLAdapter(db)
	require.NoError(t, m.Migrate(ctx))
	db.ExecContext(ctx, `DELETE FROM inventory WHERE warehouse LIKE 'test-%'`)

	require.NoError(t, m.SaveSnapshot(ctx, store.Snapshot{Inventory: []domain.InventoryRecord{
		{Warehouse: "test-a", Product: "X", Stock: 100},
		{Warehouse: "test-b", Product: "X", Stock: 10},
	}}))

	require.NoError(t, m.Transfer(ctx, domain.Transfer{Product: "X", From: "test-a", To: "test-b", Quantity: 40}))
	err := m.Transfer(ctx, domain.Transfer{Product: "X", From: "test-a", To: "test-b", Quantity: 61})
	require.ErrorIs(t, err, store.ErrInvalidTransfer)

	a, err := m.Stock(ctx, "test-a", "X")
	require.NoError(t, err)
	b, err := m.Stock(ctx, "test-b", "X")
	require.NoError(t, err)
	require.Equal(t, 60, a)
	require.Equal(t, 50, b)
}
