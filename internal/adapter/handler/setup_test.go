package handler

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/rl1809/pos-inventory/internal/adapter/storage"
	"github.com/rl1809/pos-inventory/internal/core/cart"
	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/core/service"
)

type testApp struct {
	repo *storage.MemoryAdapter
	http *HTTPHandler
	grpc *GRPCHandler
}

func setupApp(t *testing.T, records ...domain.InventoryRecord) *testApp {
	logger := zaptest.NewLogger(t)
	repo := storage.NewMemoryAdapter()
	for _, r := range records {
		repo.Seed(r)
	}
	guard := storage.NewMemoryIdempotency(time.Minute)

	inventory := service.NewInventoryService(repo, logger, time.Second)
	settlement := service.NewSettlementService(repo, nil, logger, time.Second)
	restock := service.NewRestockService(repo, nil, logger, time.Second)
	quotes := service.NewQuoteService(inventory, cart.DefaultTaxBasisPoints)

	return &testApp{
		repo: repo,
		http: NewHTTPHandler(inventory, settlement, restock, quotes, guard, logger),
		grpc: NewGRPCHandler(inventory, settlement, restock, guard, logger),
	}
}

func record(productID string, stock, sold int) domain.InventoryRecord {
	return domain.InventoryRecord{StoreID: "store-1", ProductID: productID, Stock: stock, SoldCount: sold}
}
