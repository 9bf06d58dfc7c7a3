package stockclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustStock_Success(t *testing.T) {
	productID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/products/"+productID.String()+"/stock/adjust", r.URL.Path)

		var req adjustRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, -5, req.Delta)
		assert.Equal(t, "op-1", req.OpID)

		json.NewEncoder(w).Encode(AdjustResult{
			ProductID: productID,
			Success:   true,
			Status:    StatusSuccess,
			Stock:     95,
			Version:   2,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.AdjustStock(context.Background(), productID, -5, "op-1")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 95, res.Stock)
	assert.Equal(t, 2, res.Version)
}

func TestAdjustStock_ConflictBodyIsUsable(t *testing.T) {
	productID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(AdjustResult{
			Success: false,
			Status:  StatusInsufficientStock,
			Stock:   2,
			Error:   "available: 2, required: 10",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.AdjustStock(context.Background(), productID, -10, "")
	require.NoError(t, err, "a 4xx with a result body is an outcome, not a transport error")

	assert.False(t, res.Success)
	assert.Equal(t, StatusInsufficientStock, res.Status)
	assert.Equal(t, productID, res.ProductID, "client fills in the product id when the body omits it")
}

func TestAdjustStock_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.AdjustStock(context.Background(), uuid.New(), -1, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestBatchAdjustStock(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/reservation/batch", r.URL.Path)

		var req batchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Items, 2)
		assert.False(t, req.AllOrNothing)

		json.NewEncoder(w).Encode(BatchResult{
			Results: []AdjustResult{
				{ProductID: first, Success: true, Status: StatusSuccess, Stock: 9},
				{ProductID: second, Success: false, Status: StatusNotFound, Error: "product not found"},
			},
			SuccessCount: 1,
			ErrorCount:   1,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.BatchAdjustStock(context.Background(), []ReservationItem{
		{ProductID: first, QtyDelta: -1},
		{ProductID: second, QtyDelta: -1},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Results, 2)
}

func TestBatchAdjustStock_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL)
	_, err := c.BatchAdjustStock(context.Background(), []ReservationItem{
		{ProductID: uuid.New(), QtyDelta: -1},
	}, false)
	require.Error(t, err)
}
