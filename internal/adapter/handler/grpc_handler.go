package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/core/service"
	"github.com/rl1809/pos-inventory/internal/port"
)

type GRPCHandler struct {
	inventory   *service.InventoryService
	settlement  *service.SettlementService
	restock     *service.RestockService
	idempotency port.IdempotencyGuard
	logger      *zap.Logger
}

func NewGRPCHandler(
	inventory *service.InventoryService,
	settlement *service.SettlementService,
	restock *service.RestockService,
	idempotency port.IdempotencyGuard,
	logger *zap.Logger,
) *GRPCHandler {
	return &GRPCHandler{
		inventory:   inventory,
		settlement:  settlement,
		restock:     restock,
		idempotency: idempotency,
		logger:      logger,
	}
}

// NewGRPCServer registers the inventory and health services on a new server.
func NewGRPCServer(h *GRPCHandler, logger *zap.Logger) (*grpc.Server, *health.Server) {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(logger)))
	RegisterInventoryServer(s, h)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(inventoryServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	return s, healthServer
}

func (h *GRPCHandler) Settle(ctx context.Context, req *SettleRequest) (*SettleResponse, error) {
	checkout := domain.CheckoutRequest{StoreID: req.StoreID}
	for _, l := range req.Lines {
		checkout.Lines = append(checkout.Lines, domain.CheckoutLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	if err := service.ValidateCheckout(checkout); err != nil {
		return nil, mapError(err)
	}

	if req.RequestID != "" && h.idempotency != nil {
		ok, err := h.idempotency.Claim(ctx, req.StoreID+":"+req.RequestID)
		if err != nil {
			return nil, status.Errorf(codes.Unavailable, "idempotency guard: %v", err)
		}
		if !ok {
			return nil, status.Error(codes.AlreadyExists, "duplicate request")
		}
	}

	result, err := h.settlement.Settle(ctx, checkout)
	if err != nil && len(result.Lines) == 0 {
		return nil, mapError(err)
	}

	body := checkoutResponse(result)
	resp := &SettleResponse{
		SettlementID: body.SettlementID,
		StoreID:      body.StoreID,
		Status:       body.Status,
		Lines:        body.Lines,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func (h *GRPCHandler) Restock(ctx context.Context, req *RestockRequest) (*AvailabilityHTTPResponse, error) {
	rec, err := h.restock.Restock(ctx, req.StoreID, req.ProductID, req.Amount)
	if err != nil {
		return nil, mapError(err)
	}
	resp := availabilityResponse(rec)
	return &resp, nil
}

func (h *GRPCHandler) GetAvailability(ctx context.Context, req *AvailabilityRequest) (*AvailabilityHTTPResponse, error) {
	rec, err := h.inventory.Fetch(ctx, req.StoreID, req.ProductID)
	if err != nil {
		return nil, mapError(err)
	}
	resp := availabilityResponse(rec)
	return &resp, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrSettlementAborted):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	}
	if statusFor(err) == http.StatusBadRequest {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Errorf(codes.Internal, "internal error: %v", err)
}

func unaryLogger(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}
