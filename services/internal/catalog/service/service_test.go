package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skatech/invcart/services/internal/catalog/models"
	"github.com/skatech/invcart/services/internal/catalog/repo"
)

func newTestService(t *testing.T) *CatalogService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Product{}))

	return &CatalogService{Repo: &repo.GormRepo{DB: db}}
}

func createTestProduct(t *testing.T, svc *CatalogService, name string, stock int) *models.Product {
	t.Helper()

	prod, err := svc.Repo.CreateProduct(context.Background(), &models.Product{
		Name:  name,
		Price: 9.99,
		Stock: stock,
	})
	require.NoError(t, err)
	return prod
}

func reloadProduct(t *testing.T, svc *CatalogService, prod *models.Product) *models.Product {
	t.Helper()

	fresh, err := svc.Repo.GetProduct(context.Background(), prod.ID)
	require.NoError(t, err)
	return fresh
}
