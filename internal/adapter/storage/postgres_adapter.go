package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

const pgUniqueViolation = "23505"

const pgSelectRecord = `
		SELECT store_id, product_id, stock, sold_count, version, updated_at
		FROM inventory WHERE store_id = $1 AND product_id = $2`

const pgReturning = `
		RETURNING store_id, product_id, stock, sold_count, version, updated_at`

// PostgresAdapter implements the inventory repository with single-statement
// guarded updates. Postgres re-evaluates the WHERE clause against the latest
// row version after waiting on a concurrent writer, so the bound holds under
// READ COMMITTED.
type PostgresAdapter struct {
	db *sql.DB
}

func NewPostgresAdapter(db *sql.DB) *PostgresAdapter {
	return &PostgresAdapter{db: db}
}

func (p *PostgresAdapter) Migrate(ctx context.Context) error {
	ddl, err := migrations.ReadFile("migrations/postgres.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("run migration: %w", err)
	}
	return nil
}

func (p *PostgresAdapter) FetchRecord(ctx context.Context, storeID, productID string) (domain.InventoryRecord, error) {
	rec, err := scanRecord(p.db.QueryRowContext(ctx, pgSelectRecord, storeID, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	}
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("query inventory: %w", err)
	}
	return rec, nil
}

func (p *PostgresAdapter) ConditionalIncrementSold(ctx context.Context, storeID, productID string, quantity int) (port.IncrementResult, error) {
	if quantity <= 0 {
		return port.IncrementResult{}, port.ErrInvalidDelta
	}

	rec, err := scanRecord(p.db.QueryRowContext(ctx, `
		UPDATE inventory
		SET sold_count = sold_count + $1::bigint, version = version + 1, updated_at = NOW()
		WHERE store_id = $2 AND product_id = $3 AND stock - sold_count >= $1::bigint`+pgReturning,
		quantity, storeID, productID,
	))
	if err == nil {
		return port.IncrementResult{Committed: true, Record: rec}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return port.IncrementResult{}, fmt.Errorf("update sold count: %w", err)
	}

	// No row matched: either the product is gone or the bound failed.
	rec, err = p.FetchRecord(ctx, storeID, productID)
	if err != nil {
		return port.IncrementResult{}, err
	}
	return port.IncrementResult{Committed: false, Record: rec}, nil
}

func (p *PostgresAdapter) IncrementStock(ctx context.Context, storeID, productID string, amount int) (domain.InventoryRecord, error) {
	if amount <= 0 {
		return domain.InventoryRecord{}, port.ErrInvalidDelta
	}

	rec, err := scanRecord(p.db.QueryRowContext(ctx, `
		UPDATE inventory
		SET stock = stock + $1::bigint, version = version + 1, updated_at = NOW()
		WHERE store_id = $2 AND product_id = $3 AND stock <= $4::bigint`+pgReturning,
		amount, storeID, productID, domain.MaxCounter-amount,
	))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.InventoryRecord{}, fmt.Errorf("update stock: %w", err)
	}

	// No row matched: either the product is gone or stock is at the limit.
	if _, err := p.FetchRecord(ctx, storeID, productID); err != nil {
		return domain.InventoryRecord{}, err
	}
	return domain.InventoryRecord{}, port.ErrCounterLimit
}

func (p *PostgresAdapter) CreateRecord(ctx context.Context, storeID, productID string, stock int) (domain.InventoryRecord, error) {
	if stock > domain.MaxCounter {
		return domain.InventoryRecord{}, port.ErrCounterLimit
	}

	rec, err := scanRecord(p.db.QueryRowContext(ctx, `
		INSERT INTO inventory (store_id, product_id, stock, sold_count, version)
		VALUES ($1, $2, $3, 0, 0)`+pgReturning,
		storeID, productID, stock,
	))

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return domain.InventoryRecord{}, port.ErrRecordExists
	}
	if err != nil {
		return domain.InventoryRecord{}, fmt.Errorf("insert inventory: %w", err)
	}
	return rec, nil
}

func (p *PostgresAdapter) DeleteRecord(ctx context.Context, storeID, productID string) error {
	result, err := p.db.ExecContext(ctx,
		`DELETE FROM inventory WHERE store_id = $1 AND product_id = $2`, storeID, productID)
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
