package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/skatech/invcart/pkg/logging"
	"github.com/skatech/invcart/services/internal/catalog/service"
	"github.com/skatech/invcart/services/internal/catalog/transport"
)

// AdjustStock is the single-item ledger endpoint. It always answers with a
// structured AdjustStockResponse so the cart side can fold failures into its
// saga without parsing error strings.
func (h *CatalogHTTP) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stock.adjust")

	id, err := productID(c)
	if err != nil {
		l.Warn("adjust_stock_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.AdjustStockResponse{
			Success: false, Status: "validation_error", Error: "id is not a valid uuid",
		})
	}

	var req transport.AdjustStockRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("adjust_stock_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, transport.AdjustStockResponse{
			ProductID: id, Success: false, Status: "validation_error", Error: "invalid body",
		})
	}

	prod, err := h.Svc.AdjustStock(ctx, id, req.Delta, req.OpID)
	if err != nil {
		status, code := http.StatusConflict, service.ReservationConcurrencyExhausted
		switch {
		case errors.Is(err, service.ErrValidation):
			status, code = http.StatusBadRequest, "validation_error"
		case errors.Is(err, service.ErrNotFound):
			status, code = http.StatusNotFound, service.ReservationNotFound
		case errors.Is(err, service.ErrInsufficientStock):
			status, code = http.StatusConflict, service.ReservationInsufficientStock
		case errors.Is(err, service.ErrConcurrencyExhausted):
			status, code = http.StatusConflict, service.ReservationConcurrencyExhausted
		default:
			l.Error("adjust_stock_error", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, transport.AdjustStockResponse{
				ProductID: id, Success: false, Status: "internal_error", Error: "internal error",
			})
		}
		l.Warn("adjust_stock_rejected", "status", status, "code", code, "product_id", id, "delta", req.Delta)
		return c.JSON(status, transport.AdjustStockResponse{
			ProductID: id, Success: false, Status: code, Error: err.Error(),
		})
	}

	l.Info("adjust_stock_success", "product_id", id, "delta", req.Delta, "stock", prod.Stock, "version", prod.Version)
	return c.JSON(http.StatusOK, transport.AdjustStockResponse{
		ProductID: id,
		Success:   true,
		Status:    service.ReservationSuccess,
		Stock:     prod.Stock,
		Version:   prod.Version,
	})
}

func (h *CatalogHTTP) BatchReservation(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stock.batch_reservation")

	var req transport.BatchReservationRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("batch_reservation_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	items := make([]service.ReservationItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.ReservationItem{
			ProductID: it.ProductID,
			QtyDelta:  it.QtyDelta,
			OpID:      it.OpID,
		})
	}

	batch, err := h.Svc.BatchReserve(ctx, items, req.AllOrNothing)
	if err != nil && batch == nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("batch_reservation_error", "status", 400, "error", err)
			return c.JSON(http.StatusBadRequest, err.Error())
		}
		l.Error("batch_reservation_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	// All-or-nothing rejections still carry the per-item results; the caller
	// reads outcomes from the body, not from the HTTP status.
	status := http.StatusOK
	if err != nil {
		l.Warn("batch_reservation_rejected", "error", err,
			"success_count", batch.SuccessCount, "error_count", batch.ErrorCount)
		status = http.StatusConflict
		if errors.Is(err, service.ErrValidation) {
			status = http.StatusBadRequest
		}
	} else {
		l.Info("batch_reservation_done",
			"success_count", batch.SuccessCount, "error_count", batch.ErrorCount)
	}

	resp := transport.BatchReservationResponse{
		Results:      make([]transport.AdjustStockResponse, 0, len(batch.Results)),
		SuccessCount: batch.SuccessCount,
		ErrorCount:   batch.ErrorCount,
	}
	for _, r := range batch.Results {
		resp.Results = append(resp.Results, transport.AdjustStockResponse{
			ProductID: r.ProductID,
			Success:   r.Status == service.ReservationSuccess,
			Status:    r.Status,
			Stock:     r.AvailableStock,
			Version:   r.Version,
			Error:     r.Error,
		})
	}

	return c.JSON(status, resp)
}
