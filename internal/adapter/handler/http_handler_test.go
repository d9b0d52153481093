package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/pos-inventory/internal/core/service"
)

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	app := setupApp(t)
	rr := doJSON(t, app.http.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rr := httptest.NewRecorder()
	app.http.Router().ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-Id"))
}

func TestRegisterFetchRestockRetire(t *testing.T) {
	app := setupApp(t)
	router := app.http.Router()

	rr := doJSON(t, router, http.MethodPost, "/api/stores/store-1/products", RegisterHTTPRequest{ProductID: "coffee", Stock: 5})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/stores/store-1/products", RegisterHTTPRequest{ProductID: "coffee", Stock: 5})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/stores/store-1/products/coffee/availability", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var avail AvailabilityHTTPResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &avail))
	assert.Equal(t, 5, avail.Available)

	rr = doJSON(t, router, http.MethodPost, "/api/stores/store-1/products/coffee/restock", RestockHTTPRequest{Amount: 3})
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &avail))
	assert.Equal(t, 8, avail.Stock)
	assert.Equal(t, 8, avail.Available)

	rr = doJSON(t, router, http.MethodPost, "/api/stores/store-1/products/coffee/restock", RestockHTTPRequest{Amount: 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodDelete, "/api/stores/store-1/products/coffee", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/stores/store-1/products/coffee/availability", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCheckout_Partial(t *testing.T) {
	app := setupApp(t, record("coffee", 10, 0), record("muffin", 2, 1))

	rr := doJSON(t, app.http.Router(), http.MethodPost, "/api/stores/store-1/checkout", CheckoutHTTPRequest{
		Lines: []LineHTTP{{ProductID: "coffee", Quantity: 2}, {ProductID: "muffin", Quantity: 2}},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp CheckoutHTTPResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "partial", resp.Status)
	assert.NotEmpty(t, resp.SettlementID)
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "committed", resp.Lines[0].Status)
	assert.Nil(t, resp.Lines[0].Available)
	assert.Equal(t, "rejected", resp.Lines[1].Status)
	assert.Equal(t, "insufficient_stock", resp.Lines[1].Reason)
	require.NotNil(t, resp.Lines[1].Available)
	assert.Equal(t, 1, *resp.Lines[1].Available)
}

func TestCheckout_DuplicateRequestID(t *testing.T) {
	app := setupApp(t, record("coffee", 10, 0))
	router := app.http.Router()
	body := CheckoutHTTPRequest{RequestID: "till-3-0001", Lines: []LineHTTP{{ProductID: "coffee", Quantity: 1}}}

	rr := doJSON(t, router, http.MethodPost, "/api/stores/store-1/checkout", body)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/stores/store-1/checkout", body)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rec, err := app.repo.FetchRecord(context.Background(), "store-1", "coffee")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.SoldCount)
}

func TestCheckout_InvalidRequestKeepsRequestIDFree(t *testing.T) {
	app := setupApp(t, record("coffee", 10, 0))
	router := app.http.Router()

	bad := []CheckoutHTTPRequest{
		{RequestID: "till-9"},
		{RequestID: "till-9", Lines: []LineHTTP{{ProductID: "coffee", Quantity: 0}}},
		{RequestID: "till-9", Lines: []LineHTTP{{ProductID: "coffee", Quantity: 1}, {ProductID: "coffee", Quantity: 2}}},
	}
	for _, body := range bad {
		rr := doJSON(t, router, http.MethodPost, "/api/stores/store-1/checkout", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	}

	corrected := CheckoutHTTPRequest{RequestID: "till-9", Lines: []LineHTTP{{ProductID: "coffee", Quantity: 2}}}
	rr := doJSON(t, router, http.MethodPost, "/api/stores/store-1/checkout", corrected)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp CheckoutHTTPResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "full_success", resp.Status)

	rr = doJSON(t, router, http.MethodPost, "/api/stores/store-1/checkout", corrected)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rec, err := app.repo.FetchRecord(context.Background(), "store-1", "coffee")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.SoldCount)
}

func TestCheckout_HugeQuantityIsRejectedLine(t *testing.T) {
	app := setupApp(t, record("coffee", 10, 1))
	router := app.http.Router()

	rr := doJSON(t, router, http.MethodPost, "/api/stores/store-1/checkout", CheckoutHTTPRequest{
		Lines: []LineHTTP{{ProductID: "coffee", Quantity: math.MaxInt}},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp CheckoutHTTPResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "rejected", resp.Lines[0].Status)
	require.NotNil(t, resp.Lines[0].Available)
	assert.Equal(t, 9, *resp.Lines[0].Available)

	rr = doJSON(t, router, http.MethodPost, "/api/stores/store-1/products/coffee/restock", RestockHTTPRequest{Amount: math.MaxInt})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/stores/store-1/products/coffee/availability", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var avail AvailabilityHTTPResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &avail))
	assert.Equal(t, 10, avail.Stock)
	assert.Equal(t, 9, avail.Available)
}

func TestCheckout_BadRequests(t *testing.T) {
	app := setupApp(t, record("coffee", 10, 0))
	router := app.http.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/stores/store-1/checkout", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/stores/store-1/checkout", CheckoutHTTPRequest{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/stores/store-1/checkout", CheckoutHTTPRequest{
		Lines: []LineHTTP{{ProductID: "coffee", Quantity: 1}, {ProductID: "coffee", Quantity: 1}},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestQuote(t *testing.T) {
	app := setupApp(t, record("coffee", 10, 0), record("muffin", 3, 0))

	rr := doJSON(t, app.http.Router(), http.MethodPost, "/api/stores/store-1/quote", CheckoutHTTPRequest{
		Lines: []LineHTTP{
			{ProductID: "coffee", Quantity: 1, UnitPriceCents: 1000},
			{ProductID: "muffin", Quantity: 5, UnitPriceCents: 100},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp QuoteHTTPResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Lines[1].Quantity)
	assert.Equal(t, "reduced_to_ceiling", resp.Lines[1].Signal)
	assert.Equal(t, int64(1300), resp.SubtotalCents)
	assert.Equal(t, int64(91), resp.TaxCents)
	assert.Equal(t, int64(1391), resp.TotalCents)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrAlreadyRegistered, http.StatusConflict},
		{service.ErrInvalidQuantity, http.StatusBadRequest},
		{service.ErrStockLimit, http.StatusBadRequest},
		{service.ErrSettlementAborted, http.StatusRequestTimeout},
		{errors.Join(service.ErrStoreUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
