package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/skatech/invcart/pkg/logging"
	"github.com/skatech/invcart/pkg/outcome"
	"github.com/skatech/invcart/services/internal/catalog/service"
	"github.com/skatech/invcart/services/internal/catalog/transport"
	"github.com/skatech/invcart/services/internal/catalog/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func productID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := productID(c)
	if err != nil {
		l.Warn("get_product_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "id is not a valid uuid")
	}

	prod, err := h.Svc.GetProduct(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		l.Warn("get_product_not_found", "status", 404, "product_id", id)
		return c.JSON(http.StatusNotFound, "product not found")
	}
	if err != nil {
		l.Error("get_product_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, outcome.Envelope{
		Success: outcome.Success,
		Data:    prod,
		Meta:    outcome.NewMeta(),
	})
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.GetProducts(ctx, c.QueryParam("category"), offset, limit)
	if err != nil {
		l.Error("get_products_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if errors.Is(err, service.ErrValidation) {
		l.Warn("create_product_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		l.Error("create_product_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, outcome.Envelope{
		Success: outcome.Success,
		Data:    prod,
		Meta:    outcome.NewMeta(),
	})
}

func (h *CatalogHTTP) BatchCreateProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.batch_create")

	var req transport.BatchCreateProductsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("batch_create_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	result, err := h.Svc.BatchCreateProducts(ctx, req)
	if errors.Is(err, service.ErrValidation) {
		l.Warn("batch_create_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		l.Error("batch_create_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	successCount := len(result.Successful)
	errorCount := len(result.Failed)
	errs := make([]outcome.ItemError, 0, errorCount)
	for _, f := range result.Failed {
		errs = append(errs, f.Error)
	}

	l.Info("batch_create_done", "success", successCount, "failed", errorCount)
	return c.JSON(http.StatusOK, outcome.Envelope{
		Success: outcome.ForCounts(successCount, errorCount),
		Data:    result,
		Errors:  errs,
		Meta:    outcome.NewBatchMeta(successCount, errorCount, successCount+errorCount),
	})
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := productID(c)
	if err != nil {
		l.Warn("patch_product_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "id is not a valid uuid")
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_product_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, req, id)
	switch {
	case errors.Is(err, service.ErrValidation):
		l.Warn("patch_product_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn("patch_product_not_found", "status", 404, "product_id", id)
		return c.JSON(http.StatusNotFound, "product not found")
	case err != nil:
		l.Error("patch_product_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("patch_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, outcome.Envelope{
		Success: outcome.Success,
		Data:    prod,
		Meta:    outcome.NewMeta(),
	})
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := productID(c)
	if err != nil {
		l.Warn("delete_product_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, "id is not a valid uuid")
	}

	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("delete_product_not_found", "status", 404, "product_id", id)
			return c.JSON(http.StatusNotFound, "product not found")
		}
		l.Error("delete_product_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "internal error")
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, "q is required")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SearchProducts(ctx, q, from, limit)
	if err != nil {
		l.Error("search_products_error", "status", 500, "error", err)
		return c.JSON(http.StatusInternalServerError, "search unavailable")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}
