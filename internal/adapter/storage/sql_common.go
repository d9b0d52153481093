package storage

import (
	"embed"

	"github.com/rl1809/pos-inventory/internal/core/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.InventoryRecord, error) {
	var rec domain.InventoryRecord
	err := row.Scan(&rec.StoreID, &rec.ProductID, &rec.Stock, &rec.SoldCount, &rec.Version, &rec.UpdatedAt)
	return rec, err
}
