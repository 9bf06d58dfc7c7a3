package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skatech/invcart/pkg/stockclient"
	"github.com/skatech/invcart/services/cart/internal/models"
	"github.com/skatech/invcart/services/cart/internal/repo"
)

// fakeStock is an in-memory stand-in for the catalog's stock ledger with the
// same outcome semantics: a failed adjustment leaves stock untouched and is
// reported per item, never as a transport error.
type fakeStock struct {
	mu          sync.Mutex
	stock       map[uuid.UUID]int
	version     map[uuid.UUID]int
	unreachable bool
}

func newFakeStock() *fakeStock {
	return &fakeStock{
		stock:   make(map[uuid.UUID]int),
		version: make(map[uuid.UUID]int),
	}
}

func (f *fakeStock) seed(id uuid.UUID, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[id] = qty
	f.version[id] = 1
}

func (f *fakeStock) stockOf(id uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stock[id]
}

func (f *fakeStock) adjustLocked(id uuid.UUID, delta int) stockclient.AdjustResult {
	current, ok := f.stock[id]
	if !ok {
		return stockclient.AdjustResult{
			ProductID: id,
			Success:   false,
			Status:    stockclient.StatusNotFound,
			Error:     "product not found",
		}
	}
	if current+delta < 0 {
		return stockclient.AdjustResult{
			ProductID: id,
			Success:   false,
			Status:    stockclient.StatusInsufficientStock,
			Stock:     current,
			Error:     "insufficient stock",
		}
	}
	f.stock[id] = current + delta
	f.version[id]++
	return stockclient.AdjustResult{
		ProductID: id,
		Success:   true,
		Status:    stockclient.StatusSuccess,
		Stock:     f.stock[id],
		Version:   f.version[id],
	}
}

func (f *fakeStock) AdjustStock(ctx context.Context, productID uuid.UUID, delta int, opID string) (*stockclient.AdjustResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return nil, errors.New("connection refused")
	}
	res := f.adjustLocked(productID, delta)
	return &res, nil
}

func (f *fakeStock) BatchAdjustStock(ctx context.Context, items []stockclient.ReservationItem, allOrNothing bool) (*stockclient.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return nil, errors.New("connection refused")
	}

	batch := &stockclient.BatchResult{Results: make([]stockclient.AdjustResult, 0, len(items))}
	for _, item := range items {
		res := f.adjustLocked(item.ProductID, item.QtyDelta)
		batch.Results = append(batch.Results, res)
		if res.Success {
			batch.SuccessCount++
		} else {
			batch.ErrorCount++
		}
	}
	return batch, nil
}

func newTestCartService(t *testing.T) (*CartService, *fakeStock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Cart{}, &models.CartItem{}))

	stock := newFakeStock()
	svc := &CartService{
		Repo:  &repo.GormRepo{DB: db},
		Stock: stock,
	}
	return svc, stock
}

func itemQuantity(cart *models.Cart, productID uuid.UUID) (int, bool) {
	for _, item := range cart.Items {
		if item.ProductID == productID {
			return item.Quantity, true
		}
	}
	return 0, false
}
