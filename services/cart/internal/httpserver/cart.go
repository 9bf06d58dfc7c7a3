package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/skatech/invcart/pkg/logging"
	"github.com/skatech/invcart/pkg/outcome"
	"github.com/skatech/invcart/services/cart/internal/service"
	"github.com/skatech/invcart/services/cart/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func cartID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *CartHTTP) CreateCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.create")

	cart, err := h.Svc.CreateCart(ctx)
	if err != nil {
		l.Error("create_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("create_cart_success", "cart_id", cart.ID)
	return c.JSON(http.StatusCreated, outcome.Envelope{
		Success: outcome.Success,
		Data:    transport.CartData{Cart: transport.ToCartDTO(cart)},
		Meta:    outcome.NewMeta(),
	})
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	id, err := cartID(c)
	if err != nil {
		l.Warn("get_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "id is not a valid uuid")
	}

	cart, err := h.Svc.GetCart(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		l.Warn("get_cart_not_found", "status", 404, "cart_id", id)
		return c.JSON(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		l.Error("get_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, outcome.Envelope{
		Success: outcome.Success,
		Data:    transport.CartData{Cart: transport.ToCartDTO(cart)},
		Meta:    outcome.NewMeta(),
	})
}

func (h *CartHTTP) AddItems(c echo.Context) error {
	return h.upsertItems(c, service.ModeAdd)
}

func (h *CartHTTP) OverwriteItems(c echo.Context) error {
	return h.upsertItems(c, service.ModeOverwrite)
}

func (h *CartHTTP) upsertItems(c echo.Context, mode service.UpdateMode) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.upsert_items", "mode", string(mode))

	id, err := cartID(c)
	if err != nil {
		l.Warn("upsert_items_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "id is not a valid uuid")
	}

	var req transport.UpdateCartItemsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("upsert_items_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}
	if len(req.Items) == 0 {
		l.Warn("upsert_items_error", "status", 400)
		return c.JSON(http.StatusBadRequest, "items must not be empty")
	}

	updates := make([]service.ItemUpdate, 0, len(req.Items))
	for _, it := range req.Items {
		updates = append(updates, service.ItemUpdate{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := h.Svc.UpsertItems(ctx, id, updates, mode)
	if err != nil {
		return h.mutationError(c, l, "upsert_items", err)
	}

	l.Info("upsert_items_done", "cart_id", id,
		"success_count", result.SuccessCount, "error_count", result.ErrorCount)

	meta := outcome.NewBatchMeta(result.SuccessCount, result.ErrorCount, result.TotalItems)
	meta.RequestID = result.RequestID

	return c.JSON(http.StatusOK, outcome.Envelope{
		Success: result.Status,
		Data: transport.CartData{
			Cart:        transport.ToCartDTO(result.Cart),
			Blocked:     result.Blocked,
			BlockReason: result.BlockReason,
		},
		Errors: result.Errors,
		Meta:   meta,
	})
}

func (h *CartHTTP) UpdateItemQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	id, err := cartID(c)
	if err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "id is not a valid uuid")
	}

	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "productId is not a valid uuid")
	}

	var req transport.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_quantity_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	cart, err := h.Svc.UpdateItemQuantity(ctx, id, productID, req.Quantity)
	if err != nil {
		return h.mutationError(c, l, "update_quantity", err)
	}

	l.Info("update_quantity_success", "cart_id", id, "product_id", productID, "quantity", req.Quantity)
	return c.JSON(http.StatusOK, outcome.Envelope{
		Success: outcome.Success,
		Data:    transport.CartData{Cart: transport.ToCartDTO(cart)},
		Meta:    outcome.NewMeta(),
	})
}

func (h *CartHTTP) DeleteCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.delete")

	id, err := cartID(c)
	if err != nil {
		l.Warn("delete_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "id is not a valid uuid")
	}

	restored, err := h.Svc.DeleteCart(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		l.Warn("delete_cart_not_found", "status", 404, "cart_id", id)
		return c.JSON(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		l.Error("delete_cart_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("delete_cart_success", "cart_id", id, "items_restored", restored)
	return c.JSON(http.StatusOK, outcome.Envelope{
		Success: outcome.Success,
		Data: transport.DeleteCartData{
			Message:       fmt.Sprintf("Cart deleted successfully. %d items restored to stock.", restored),
			DeletedID:     id,
			ItemsRestored: restored,
		},
		Meta: outcome.NewMeta(),
	})
}

func (h *CartHTTP) Sweep(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.sweep")

	stats, err := h.Svc.ProcessExpiredCarts(ctx)
	if err != nil {
		l.Error("sweep_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("sweep_done", "processed_carts", stats.ProcessedCarts, "released_items", stats.ReleasedItems)
	return c.JSON(http.StatusOK, stats)
}

func (h *CartHTTP) mutationError(c echo.Context, l *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn(op+"_not_found", "status", 404, "error", err)
		return c.JSON(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidation):
		l.Warn(op+"_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCartNotActive):
		l.Warn(op+"_rejected", "status", 409, "error", err)
		return c.JSON(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		l.Warn(op+"_rejected", "status", 409, "error", err)
		return c.JSON(http.StatusConflict, err.Error())
	default:
		l.Error(op+"_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}
}
