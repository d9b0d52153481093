package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/rl1809/pos-inventory/internal/adapter/handler"
	"github.com/rl1809/pos-inventory/internal/adapter/messaging"
	"github.com/rl1809/pos-inventory/internal/adapter/storage"
	"github.com/rl1809/pos-inventory/internal/config"
	"github.com/rl1809/pos-inventory/internal/core/service"
	"github.com/rl1809/pos-inventory/internal/obs"
	"github.com/rl1809/pos-inventory/internal/port"
)

func main() {
	cfg := config.Load()

	logger, err := obs.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize store
	backend, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open inventory store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	// Initialize event publisher
	var publisher port.EventPublisher = messaging.NewLogPublisher(logger)
	var amqpConn *amqp.Connection
	if cfg.AMQPURL != "" {
		conn, ch, err := messaging.SetupConn(cfg.AMQPURL, logger)
		if err != nil {
			logger.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		amqpConn = conn
		publisher = messaging.NewPublisher(ch)
		logger.Info("connected to rabbitmq", zap.String("exchange", messaging.ExchangeName))
	}

	events := service.NewEventDispatcher(publisher, cfg.EventQueueSize, logger)
	events.Start(cfg.EventWorkers)

	// Initialize services
	inventory := service.NewInventoryService(backend.Repo, logger, cfg.StoreTimeout)
	settlement := service.NewSettlementService(backend.Repo, events, logger, cfg.StoreTimeout)
	restock := service.NewRestockService(backend.Repo, events, logger, cfg.StoreTimeout)
	quotes := service.NewQuoteService(inventory, cfg.TaxBasisPoints)

	// Initialize gRPC server
	grpcHandler := handler.NewGRPCHandler(inventory, settlement, restock, backend.Guard, logger)
	grpcServer, healthServer := handler.NewGRPCServer(grpcHandler, logger)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(inventory, settlement, restock, quotes, backend.Guard, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Router(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Drain pending events before the broker goes away
	events.Close()
	logger.Info("event workers stopped")

	if amqpConn != nil {
		amqpConn.Close()
	}
	if err := backend.Close(); err != nil {
		logger.Warn("closing store", zap.Error(err))
	}
	logger.Info("connections closed")
}
