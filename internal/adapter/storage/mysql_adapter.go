package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

const mysqlDuplicateEntry = 1062

const mysqlSelectRecord = `
		SELECT store_id, product_id, stock, sold_count, version, updated_at
		FROM inventory WHERE store_id = ? AND product_id = ?`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the inventory table if it does not exist.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	ddl, err := migrations.ReadFile("migrations/mysql.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("run migration: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) FetchRecord(ctx context.Context, storeID, productID string) (domain.InventoryRecord, error) {
	rec, err := scanRecord(m.db.QueryRowContext(ctx, mysqlSelectRecord, storeID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	}
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("query inventory: %w", err)
	}
	return rec, nil
}

// ConditionalIncrementSold relies on the guarded UPDATE: InnoDB evaluates the
// WHERE clause under the row lock, so two racing settlements can never both
// pass the stock bound. The row is read back in the same transaction.
func (m *MySQLAdapter) ConditionalIncrementSold(ctx context.Context, storeID, productID string, quantity int) (port.IncrementResult, error) {
	if quantity <= 0 {
		return port.IncrementResult{}, port.ErrInvalidDelta
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return port.IncrementResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET sold_count = sold_count + ?, version = version + 1, updated_at = NOW()
		WHERE store_id = ? AND product_id = ? AND stock - sold_count >= ?`,
		quantity, storeID, productID, quantity,
	)
	if err != nil {
		return port.IncrementResult{}, fmt.Errorf("update sold count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return port.IncrementResult{}, fmt.Errorf("rows affected: %w", err)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, mysqlSelectRecord, storeID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return port.IncrementResult{}, port.ErrRecordNotFound
	}
	if err != nil {
		return port.IncrementResult{}, fmt.Errorf("query inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return port.IncrementResult{}, fmt.Errorf("commit: %w", err)
	}
	return port.IncrementResult{Committed: rows == 1, Record: rec}, nil
}

// IncrementStock bounds the new stock in the WHERE clause. When no row matches
// the read-back tells a missing product from one already at the limit.
func (m *MySQLAdapter) IncrementStock(ctx context.Context, storeID, productID string, amount int) (domain.InventoryRecord, error) {
	if amount <= 0 {
		return domain.InventoryRecord{}, port.ErrInvalidDelta
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET stock = stock + ?, version = version + 1, updated_at = NOW()
		WHERE store_id = ? AND product_id = ? AND stock <= ?`,
		amount, storeID, productID, domain.MaxCounter-amount,
	)
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("update stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("rows affected: %w", err)
	}

	rec, err := scanRecord(tx.QueryRowContext(ctx, mysqlSelectRecord, storeID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	}
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("query inventory: %w", err)
	}
	if rows == 0 {
		return domain.InventoryRecord{}, port.ErrCounterLimit
	}

	if err := tx.Commit(); err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func (m *MySQLAdapter) CreateRecord(ctx context.Context, storeID, productID string, stock int) (domain.InventoryRecord, error) {
	if stock > domain.MaxCounter {
		return domain.InventoryRecord{}, port.ErrCounterLimit
	}

	now := time.Now().UTC()
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory (store_id, product_id, stock, sold_count, version, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, ?, ?)`,
		storeID, productID, stock, now, now,
	)

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return domain.InventoryRecord{}, port.ErrRecordExists
	}
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("insert inventory: %w", err)
	}

	return domain.InventoryRecord{
		StoreID:   storeID,
		ProductID: productID,
		Stock:     stock,
		UpdatedAt: now,
	}, nil
}

func (m *MySQLAdapter) DeleteRecord(ctx context.Context, storeID, productID string) error {
	result, err := m.db.ExecContext(ctx,
		`DELETE FROM inventory WHERE store_id = ? AND product_id = ?`, storeID, productID)
	if err != nil {
		return fmt.Errorf("delete inventory: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return port.ErrRecordNotFound
	}
	return nil
}
