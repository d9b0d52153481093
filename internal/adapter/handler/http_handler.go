package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/core/service"
	"github.com/rl1809/pos-inventory/internal/port"
)

var errDuplicateRequest = errors.New("duplicate request")

type HTTPHandler struct {
	inventory   *service.InventoryService
	settlement  *service.SettlementService
	restock     *service.RestockService
	quotes      *service.QuoteService
	idempotency port.IdempotencyGuard
	logger      *zap.Logger
}

type RegisterHTTPRequest struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
}

type RestockHTTPRequest struct {
	Amount int `json:"amount"`
}

type LineHTTP struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name,omitempty"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents,omitempty"`
}

type CheckoutHTTPRequest struct {
	RequestID string     `json:"request_id,omitempty"`
	Lines     []LineHTTP `json:"lines"`
}

type AvailabilityHTTPResponse struct {
	StoreID   string `json:"store_id"`
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	SoldCount int    `json:"sold_count"`
	Available int    `json:"available"`
	Version   int    `json:"version"`
}

type LineResultHTTP struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Status    string `json:"status"`
	Committed int    `json:"committed"`
	Reason    string `json:"reason,omitempty"`
	Available *int   `json:"available,omitempty"`
}

type CheckoutHTTPResponse struct {
	SettlementID string           `json:"settlement_id,omitempty"`
	StoreID      string           `json:"store_id"`
	Status       string           `json:"status"`
	Lines        []LineResultHTTP `json:"lines"`
	Error        string           `json:"error,omitempty"`
}

type QuotedLineHTTP struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Quantity  int    `json:"quantity"`
	Available int    `json:"available"`
	Signal    string `json:"signal"`
}

type QuoteHTTPResponse struct {
	StoreID       string           `json:"store_id"`
	Lines         []QuotedLineHTTP `json:"lines"`
	Items         int              `json:"items"`
	SubtotalCents int64            `json:"subtotal_cents"`
	TaxCents      int64            `json:"tax_cents"`
	TotalCents    int64            `json:"total_cents"`
}

type ErrorHTTPResponse struct {
	Error string `json:"error"`
}

// NewHTTPHandler wires the services behind the REST API. idempotency may be
// nil, in which case request ids on checkout are ignored.
func NewHTTPHandler(
	inventory *service.InventoryService,
	settlement *service.SettlementService,
	restock *service.RestockService,
	quotes *service.QuoteService,
	idempotency port.IdempotencyGuard,
	logger *zap.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		inventory:   inventory,
		settlement:  settlement,
		restock:     restock,
		quotes:      quotes,
		idempotency: idempotency,
		logger:      logger,
	}
}

func (h *HTTPHandler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(withRequestID, h.withLogging)

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api/stores/{storeID}").Subrouter()
	api.HandleFunc("/products", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/products/{productID}", h.Retire).Methods(http.MethodDelete)
	api.HandleFunc("/products/{productID}/availability", h.Availability).Methods(http.MethodGet)
	api.HandleFunc("/products/{productID}/restock", h.Restock).Methods(http.MethodPost)
	api.HandleFunc("/checkout", h.Checkout).Methods(http.MethodPost)
	api.HandleFunc("/quote", h.Quote).Methods(http.MethodPost)

	return r
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.inventory.Register(r.Context(), mux.Vars(r)["storeID"], req.ProductID, req.Stock)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, availabilityResponse(rec))
}

func (h *HTTPHandler) Retire(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.inventory.Retire(r.Context(), vars["storeID"], vars["productID"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Availability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rec, err := h.inventory.Fetch(r.Context(), vars["storeID"], vars["productID"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse(rec))
}

func (h *HTTPHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req RestockHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vars := mux.Vars(r)
	rec, err := h.restock.Restock(r.Context(), vars["storeID"], vars["productID"], req.Amount)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse(rec))
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	storeID := mux.Vars(r)["storeID"]
	checkout := domain.CheckoutRequest{StoreID: storeID}
	for _, l := range req.Lines {
		checkout.Lines = append(checkout.Lines, domain.CheckoutLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	if err := service.ValidateCheckout(checkout); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if req.RequestID != "" && h.idempotency != nil {
		ok, err := h.idempotency.Claim(r.Context(), storeID+":"+req.RequestID)
		if err != nil {
			h.writeServiceError(w, r, errors.Join(service.ErrStoreUnavailable, err))
			return
		}
		if !ok {
			h.writeServiceError(w, r, errDuplicateRequest)
			return
		}
	}

	result, err := h.settlement.Settle(r.Context(), checkout)
	if err != nil && len(result.Lines) == 0 {
		h.writeServiceError(w, r, err)
		return
	}

	resp := checkoutResponse(result)
	if err != nil {
		// Partial outcome: report every line along with the fault.
		resp.Error = err.Error()
		writeJSON(w, statusFor(err), resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req CheckoutHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines := make([]service.QuoteLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, service.QuoteLine{
			ProductID:      l.ProductID,
			Name:           l.Name,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		})
	}

	quote, err := h.quotes.Quote(r.Context(), mux.Vars(r)["storeID"], lines)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := QuoteHTTPResponse{
		StoreID:       quote.StoreID,
		Lines:         make([]QuotedLineHTTP, 0, len(quote.Lines)),
		Items:         quote.Totals.Items,
		SubtotalCents: quote.Totals.Subtotal,
		TaxCents:      quote.Totals.Tax,
		TotalCents:    quote.Totals.Total,
	}
	for _, l := range quote.Lines {
		resp.Lines = append(resp.Lines, QuotedLineHTTP{
			ProductID: l.ProductID,
			Requested: l.Requested,
			Quantity:  l.Quantity,
			Available: l.Available,
			Signal:    string(l.Signal),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errDuplicateRequest), errors.Is(err, service.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyCheckout),
		errors.Is(err, service.ErrMissingStore),
		errors.Is(err, service.ErrMissingProduct),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrDuplicateLine),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidStock),
		errors.Is(err, service.ErrStockLimit):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSettlementAborted):
		return http.StatusRequestTimeout
	case errors.Is(err, service.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func availabilityResponse(rec domain.InventoryRecord) AvailabilityHTTPResponse {
	return AvailabilityHTTPResponse{
		StoreID:   rec.StoreID,
		ProductID: rec.ProductID,
		Stock:     rec.Stock,
		SoldCount: rec.SoldCount,
		Available: rec.Available(),
		Version:   rec.Version,
	}
}

func checkoutResponse(result domain.CheckoutResult) CheckoutHTTPResponse {
	resp := CheckoutHTTPResponse{
		SettlementID: result.SettlementID,
		StoreID:      result.StoreID,
		Status:       string(result.Status()),
		Lines:        make([]LineResultHTTP, 0, len(result.Lines)),
	}
	for _, l := range result.Lines {
		line := LineResultHTTP{
			ProductID: l.ProductID,
			Requested: l.Requested,
			Status:    string(l.Status),
			Committed: l.Committed,
			Reason:    string(l.Reason),
		}
		if l.Status == domain.LineRejected {
			avail := l.Available
			line.Available = &avail
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorHTTPResponse{Error: message})
}
