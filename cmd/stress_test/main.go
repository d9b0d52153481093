package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/pos-inventory/internal/adapter/messaging"
	"github.com/rl1809/pos-inventory/internal/adapter/storage"
	"github.com/rl1809/pos-inventory/internal/config"
	"github.com/rl1809/pos-inventory/internal/core/cart"
	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/core/service"
	"github.com/rl1809/pos-inventory/internal/obs"
)

const (
	storeID      = "stress-store"
	productID    = "last-croissants"
	initialStock = 20
	cashiers     = 50
	maxPerCart   = 3
)

func main() {
	cfg := config.Load()
	logger, err := obs.NewLogger("warn")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open inventory store", zap.Error(err))
	}
	defer backend.Close()

	events := service.NewEventDispatcher(messaging.NewLogPublisher(logger), cashiers, logger)
	events.Start(2)
	defer events.Close()

	inventory := service.NewInventoryService(backend.Repo, logger, cfg.StoreTimeout)
	settlement := service.NewSettlementService(backend.Repo, events, logger, cfg.StoreTimeout)

	// Clear previous test data
	_ = inventory.Retire(ctx, storeID, productID)
	if _, err := inventory.Register(ctx, storeID, productID, initialStock); err != nil {
		logger.Fatal("failed to register product", zap.Error(err))
	}

	var sold atomic.Int32
	var fullCheckouts atomic.Int32
	var rejectedCheckouts atomic.Int32
	var failed atomic.Int32

	// Every cashier rings up from a snapshot taken before anyone settles, so
	// most carts are built against stale availability.
	var ready sync.WaitGroup
	var wg sync.WaitGroup
	gate := make(chan struct{})
	start := time.Now()

	for i := 0; i < cashiers; i++ {
		wg.Add(1)
		ready.Add(1)
		go func(id int) {
			defer wg.Done()

			rec, err := inventory.Fetch(ctx, storeID, productID)
			if err != nil {
				ready.Done()
				failed.Add(1)
				return
			}

			c := cart.New()
			product := domain.Product{Record: rec, Name: "croissant", UnitPriceCents: 325}
			for n := 0; n < id%maxPerCart+1; n++ {
				if c.AddOne(product).Signal != cart.SignalOK {
					break
				}
			}
			ready.Done()
			<-gate

			req, err := c.Request(storeID)
			if err != nil {
				return
			}
			result, err := settlement.Settle(ctx, req)
			if err != nil {
				failed.Add(1)
				return
			}

			c.Reconcile(result)
			for _, l := range result.Lines {
				sold.Add(int32(l.Committed))
			}
			if result.FullSuccess() {
				fullCheckouts.Add(1)
			} else {
				rejectedCheckouts.Add(1)
			}
		}(i)
	}

	ready.Wait()
	close(gate)
	wg.Wait()
	elapsed := time.Since(start)

	final, err := inventory.Fetch(ctx, storeID, productID)
	if err != nil {
		logger.Fatal("failed to read final record", zap.Error(err))
	}

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Store Driver:     %s\n", cfg.StoreDriver)
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Cashiers:         %d\n", cashiers)
	fmt.Printf("Full Checkouts:   %d\n", fullCheckouts.Load())
	fmt.Printf("Rejected:         %d\n", rejectedCheckouts.Load())
	fmt.Printf("Store Faults:     %d\n", failed.Load())
	fmt.Printf("Units Sold:       %d\n", sold.Load())
	fmt.Printf("Final Sold Count: %d\n", final.SoldCount)
	fmt.Printf("Final Available:  %d\n", final.Available())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	ok := true
	if final.SoldCount > final.Stock {
		fmt.Printf("FAIL: oversold, sold %d of %d\n", final.SoldCount, final.Stock)
		ok = false
	}
	if int(sold.Load()) != final.SoldCount {
		fmt.Printf("FAIL: committed %d units but store records %d\n", sold.Load(), final.SoldCount)
		ok = false
	}
	if !ok {
		os.Exit(1)
	}
	fmt.Println("PASS: no oversell, every committed unit accounted for")
}
