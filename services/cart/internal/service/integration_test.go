package service

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skatech/invcart/pkg/outcome"
	"github.com/skatech/invcart/pkg/stockclient"
	"github.com/skatech/invcart/services/cart/internal/models"
	"github.com/skatech/invcart/services/cart/internal/repo"
	cataloghttp "github.com/skatech/invcart/services/internal/catalog/httpserver"
	catalogmodels "github.com/skatech/invcart/services/internal/catalog/models"
	catalogrepo "github.com/skatech/invcart/services/internal/catalog/repo"
	catalogservice "github.com/skatech/invcart/services/internal/catalog/service"
)

// newCartServiceOverHTTP wires the cart service to a real catalog instance
// through the actual HTTP stack: catalog handlers mounted on a test server,
// stockclient pointed at it. Reservation outcomes cross the wire as JSON, so
// these tests exercise the encoding both sides agree on.
func newCartServiceOverHTTP(t *testing.T) (*CartService, *catalogservice.CatalogService) {
	t.Helper()

	catalogDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	catalogSQL, err := catalogDB.DB()
	require.NoError(t, err)
	catalogSQL.SetMaxOpenConns(1)
	require.NoError(t, catalogDB.AutoMigrate(&catalogmodels.Product{}))

	catalogSvc := &catalogservice.CatalogService{Repo: &catalogrepo.GormRepo{DB: catalogDB}}

	e := echo.New()
	cataloghttp.Register(e, &cataloghttp.Deps{CatalogHandler: &cataloghttp.CatalogHTTP{Svc: catalogSvc}})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	cartDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	cartSQL, err := cartDB.DB()
	require.NoError(t, err)
	cartSQL.SetMaxOpenConns(1)
	require.NoError(t, cartDB.AutoMigrate(&models.Cart{}, &models.CartItem{}))

	svc := &CartService{
		Repo:  &repo.GormRepo{DB: cartDB},
		Stock: stockclient.NewClient(srv.URL),
	}
	return svc, catalogSvc
}

func seedCatalogProduct(t *testing.T, catalogSvc *catalogservice.CatalogService, stock int) uuid.UUID {
	t.Helper()

	prod, err := catalogSvc.Repo.CreateProduct(context.Background(), &catalogmodels.Product{
		Name:  "widget-" + uuid.NewString(),
		Price: 9.99,
		Stock: stock,
	})
	require.NoError(t, err)
	return prod.ID
}

func catalogStock(t *testing.T, catalogSvc *catalogservice.CatalogService, id uuid.UUID) (stock, version int) {
	t.Helper()

	prod, err := catalogSvc.Repo.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return prod.Stock, prod.Version
}

func TestUpsertItems_ThroughCatalogHTTP(t *testing.T) {
	svc, catalogSvc := newCartServiceOverHTTP(t)
	ctx := context.Background()

	product := seedCatalogProduct(t, catalogSvc, 100)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	out, err := svc.UpsertItems(ctx, cart.ID, []ItemUpdate{{ProductID: product, Quantity: 5}}, ModeAdd)
	require.NoError(t, err)

	assert.Equal(t, outcome.Success, out.Status)
	assert.False(t, out.Blocked)
	qty, ok := itemQuantity(out.Cart, product)
	require.True(t, ok, "the reserved item must be persisted")
	assert.Equal(t, 5, qty)

	stock, version := catalogStock(t, catalogSvc, product)
	assert.Equal(t, 95, stock)
	assert.Equal(t, 2, version)

	out, err = svc.UpsertItems(ctx, cart.ID, []ItemUpdate{{ProductID: product, Quantity: 3}}, ModeAdd)
	require.NoError(t, err)

	qty, _ = itemQuantity(out.Cart, product)
	assert.Equal(t, 8, qty)
	stock, _ = catalogStock(t, catalogSvc, product)
	assert.Equal(t, 92, stock)

	out, err = svc.UpsertItems(ctx, cart.ID, []ItemUpdate{{ProductID: product, Quantity: 0}}, ModeOverwrite)
	require.NoError(t, err)

	_, ok = itemQuantity(out.Cart, product)
	assert.False(t, ok)
	stock, _ = catalogStock(t, catalogSvc, product)
	assert.Equal(t, 100, stock)
}

func TestUpsertItems_ThroughCatalogHTTP_InsufficientStock(t *testing.T) {
	svc, catalogSvc := newCartServiceOverHTTP(t)
	ctx := context.Background()

	product := seedCatalogProduct(t, catalogSvc, 2)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)

	out, err := svc.UpsertItems(ctx, cart.ID, []ItemUpdate{{ProductID: product, Quantity: 10}}, ModeAdd)
	require.NoError(t, err)

	assert.Equal(t, outcome.Failure, out.Status)
	assert.True(t, out.Blocked)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "INSUFFICIENT_STOCK", out.Errors[0].Code)
	assert.Empty(t, out.Cart.Items)

	stock, version := catalogStock(t, catalogSvc, product)
	assert.Equal(t, 2, stock, "a rejected reservation must not move stock")
	assert.Equal(t, 1, version)
}

func TestUpdateItemQuantity_ThroughCatalogHTTP(t *testing.T) {
	svc, catalogSvc := newCartServiceOverHTTP(t)
	ctx := context.Background()

	product := seedCatalogProduct(t, catalogSvc, 100)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.UpsertItems(ctx, cart.ID, []ItemUpdate{{ProductID: product, Quantity: 5}}, ModeAdd)
	require.NoError(t, err)

	updated, err := svc.UpdateItemQuantity(ctx, cart.ID, product, 8)
	require.NoError(t, err)
	qty, _ := itemQuantity(updated, product)
	assert.Equal(t, 8, qty)
	stock, _ := catalogStock(t, catalogSvc, product)
	assert.Equal(t, 92, stock)

	updated, err = svc.UpdateItemQuantity(ctx, cart.ID, product, 0)
	require.NoError(t, err)
	_, ok := itemQuantity(updated, product)
	assert.False(t, ok)
	stock, _ = catalogStock(t, catalogSvc, product)
	assert.Equal(t, 100, stock)
}

func TestDeleteCart_ThroughCatalogHTTP(t *testing.T) {
	svc, catalogSvc := newCartServiceOverHTTP(t)
	ctx := context.Background()

	first := seedCatalogProduct(t, catalogSvc, 50)
	second := seedCatalogProduct(t, catalogSvc, 50)

	cart, err := svc.CreateCart(ctx)
	require.NoError(t, err)
	_, err = svc.UpsertItems(ctx, cart.ID, []ItemUpdate{
		{ProductID: first, Quantity: 3},
		{ProductID: second, Quantity: 7},
	}, ModeAdd)
	require.NoError(t, err)

	restored, err := svc.DeleteCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, restored)

	stock, _ := catalogStock(t, catalogSvc, first)
	assert.Equal(t, 50, stock)
	stock, _ = catalogStock(t, catalogSvc, second)
	assert.Equal(t, 50, stock)
}
