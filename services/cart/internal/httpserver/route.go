package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	CartHandler *CartHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	carts := e.Group("/api/carts")
	carts.POST("", d.CartHandler.CreateCart)
	carts.GET("/:id", d.CartHandler.GetCart)
	carts.POST("/:id/items", d.CartHandler.AddItems)
	carts.PUT("/:id/items", d.CartHandler.OverwriteItems)
	carts.PATCH("/:id/items/:productId", d.CartHandler.UpdateItemQuantity)
	carts.DELETE("/:id", d.CartHandler.DeleteCart)

	e.POST("/internal/carts/sweep", d.CartHandler.Sweep)
}
