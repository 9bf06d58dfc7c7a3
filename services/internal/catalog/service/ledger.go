package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skatech/invcart/pkg/logging"
	"github.com/skatech/invcart/services/internal/catalog/idem"
	"github.com/skatech/invcart/services/internal/catalog/models"
	"github.com/skatech/invcart/services/internal/catalog/repo"
)

const (
	// maxAdjustAttempts bounds the read-compute-write cycle under contention.
	maxAdjustAttempts = 3
	// Between attempts, competing writers sleep 10-60ms to desynchronize.
	retryDelayMin    = 10 * time.Millisecond
	retryDelayJitter = 50 * time.Millisecond
)

// AdjustStock applies a signed delta to a product's stock under optimistic
// concurrency control. Each successful call bumps the version by exactly one;
// a failed call leaves the row untouched. When opID names an operation that
// already ran, the recorded outcome is returned without moving stock again.
func (s *CatalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int, opID string) (*models.Product, error) {
	if delta == 0 {
		return nil, fmt.Errorf("delta cannot be zero: %w", ErrValidation)
	}

	if rec, err := s.Idem.Get(ctx, opID); err != nil {
		logging.FromContext(ctx).Error("idem_lookup_error", "op_id", opID, "error", err)
	} else if rec != nil {
		return &models.Product{ID: id, Stock: rec.Stock, Version: rec.Version}, nil
	}

	for attempt := 0; attempt < maxAdjustAttempts; attempt++ {
		product, err := s.Repo.GetProduct(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}

		newStock := product.Stock + delta
		if newStock < 0 {
			return nil, fmt.Errorf("available: %d, required: %d: %w", product.Stock, -delta, ErrInsufficientStock)
		}

		err = s.Repo.UpdateStockIfVersion(ctx, id, product.Version, newStock)
		if errors.Is(err, repo.ErrVersionConflict) {
			logging.FromContext(ctx).Warn("stock_adjust_conflict",
				"product_id", id, "attempt", attempt+1, "max_attempts", maxAdjustAttempts)
			if attempt == maxAdjustAttempts-1 {
				break
			}
			select {
			case <-time.After(retryDelayMin + time.Duration(rand.Int63n(int64(retryDelayJitter)))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		product.Stock = newStock
		product.Version++

		if err := s.Idem.Put(ctx, opID, idem.Record{Stock: product.Stock, Version: product.Version}); err != nil {
			logging.FromContext(ctx).Error("idem_store_error", "op_id", opID, "error", err)
		}
		s.publish(ctx, id.String(), map[string]any{
			"type":      "stock_adjusted",
			"productID": id,
			"delta":     delta,
			"stock":     product.Stock,
			"version":   product.Version,
		})
		return product, nil
	}

	return nil, fmt.Errorf("stock adjustment for %s failed after %d attempts: %w", id, maxAdjustAttempts, ErrConcurrencyExhausted)
}
