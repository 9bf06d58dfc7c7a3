package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReservationSuccess              = "success"
	ReservationInsufficientStock    = "insufficient_stock"
	ReservationNotFound             = "not_found"
	ReservationConcurrencyExhausted = "concurrency_exhausted"
)

type ReservationItem struct {
	ProductID uuid.UUID
	QtyDelta  int
	OpID      string
}

type ReservationResult struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	QtyDelta       int       `json:"qty_delta"`
	OpID           string    `json:"op_id"`
	Status         string    `json:"status"`
	AvailableStock int       `json:"available_stock"`
	Version        int       `json:"version,omitempty"`
	Error          string    `json:"error,omitempty"`
}

type BatchReservation struct {
	Results      []ReservationResult `json:"results"`
	SuccessCount int                 `json:"success_count"`
	ErrorCount   int                 `json:"error_count"`
}

// BatchReserve turns a list of signed stock deltas into ledger mutations.
// Items are processed in ascending product-id order so overlapping batches
// contend in the same sequence. In partial mode every item gets an
// independent outcome; in all-or-nothing mode the whole batch is validated
// read-only first and aborts before any mutation if a single item cannot be
// satisfied.
func (s *CatalogService) BatchReserve(ctx context.Context, items []ReservationItem, allOrNothing bool) (*BatchReservation, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("items must not be empty: %w", ErrValidation)
	}
	for _, it := range items {
		if it.QtyDelta == 0 {
			return nil, fmt.Errorf("qty_delta cannot be zero for product %s: %w", it.ProductID, ErrValidation)
		}
	}

	sorted := make([]ReservationItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID.String() < sorted[j].ProductID.String()
	})
	for i := range sorted {
		if sorted[i].OpID == "" {
			sorted[i].OpID = "op-" + uuid.NewString()
		}
	}

	if allOrNothing {
		return s.reserveAllOrNothing(ctx, sorted)
	}
	return s.reservePartial(ctx, sorted)
}

func (s *CatalogService) reservePartial(ctx context.Context, items []ReservationItem) (*BatchReservation, error) {
	batch := &BatchReservation{Results: make([]ReservationResult, 0, len(items))}

	for _, item := range items {
		product, err := s.AdjustStock(ctx, item.ProductID, item.QtyDelta, item.OpID)
		if err != nil {
			batch.Results = append(batch.Results, failedResult(item, err))
			batch.ErrorCount++
			continue
		}

		batch.Results = append(batch.Results, ReservationResult{
			ProductID:      item.ProductID,
			ProductName:    product.Name,
			QtyDelta:       item.QtyDelta,
			OpID:           item.OpID,
			Status:         ReservationSuccess,
			AvailableStock: product.Stock,
			Version:        product.Version,
		})
		batch.SuccessCount++
	}

	return batch, nil
}

func (s *CatalogService) reserveAllOrNothing(ctx context.Context, items []ReservationItem) (*BatchReservation, error) {
	batch := &BatchReservation{Results: make([]ReservationResult, 0, len(items))}

	// Validation phase: read-only, no mutation happens until every item fits.
	for _, item := range items {
		product, err := s.Repo.GetProduct(ctx, item.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			batch.Results = append(batch.Results, ReservationResult{
				ProductID:   item.ProductID,
				ProductName: "Unknown Product",
				QtyDelta:    item.QtyDelta,
				OpID:        item.OpID,
				Status:      ReservationNotFound,
				Error:       fmt.Sprintf("product %s not found", item.ProductID),
			})
			batch.ErrorCount++
			continue
		}
		if err != nil {
			return nil, err
		}

		if product.Stock+item.QtyDelta < 0 {
			batch.Results = append(batch.Results, ReservationResult{
				ProductID:      item.ProductID,
				ProductName:    product.Name,
				QtyDelta:       item.QtyDelta,
				OpID:           item.OpID,
				Status:         ReservationInsufficientStock,
				AvailableStock: product.Stock,
				Error:          fmt.Sprintf("available: %d, required: %d", product.Stock, -item.QtyDelta),
			})
			batch.ErrorCount++
		}
	}

	if batch.ErrorCount > 0 {
		return batch, fmt.Errorf("%d of %d items failed validation in all-or-nothing mode: %w",
			batch.ErrorCount, len(items), ErrValidation)
	}

	// Apply phase. A failure here (stock moved between phases, retries
	// exhausted) fails the whole batch; items applied before the failure are
	// not rolled back, see DESIGN.md.
	for _, item := range items {
		product, err := s.AdjustStock(ctx, item.ProductID, item.QtyDelta, item.OpID)
		if err != nil {
			batch.Results = append(batch.Results, failedResult(item, err))
			batch.ErrorCount++
			return batch, fmt.Errorf("apply phase failed for product %s: %w", item.ProductID, err)
		}

		batch.Results = append(batch.Results, ReservationResult{
			ProductID:      item.ProductID,
			ProductName:    product.Name,
			QtyDelta:       item.QtyDelta,
			OpID:           item.OpID,
			Status:         ReservationSuccess,
			AvailableStock: product.Stock,
			Version:        product.Version,
		})
		batch.SuccessCount++
	}

	return batch, nil
}

func failedResult(item ReservationItem, err error) ReservationResult {
	status := ReservationInsufficientStock
	switch {
	case errors.Is(err, ErrNotFound):
		status = ReservationNotFound
	case errors.Is(err, ErrConcurrencyExhausted):
		status = ReservationConcurrencyExhausted
	}
	return ReservationResult{
		ProductID:   item.ProductID,
		ProductName: "Unknown Product",
		QtyDelta:    item.QtyDelta,
		OpID:        item.OpID,
		Status:      status,
		Error:       err.Error(),
	}
}
