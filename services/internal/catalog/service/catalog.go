package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skatech/invcart/pkg/logging"
	"github.com/skatech/invcart/pkg/mykafka"
	"github.com/skatech/invcart/pkg/outcome"
	"github.com/skatech/invcart/services/internal/catalog/idem"
	"github.com/skatech/invcart/services/internal/catalog/models"
	"github.com/skatech/invcart/services/internal/catalog/repo"
	"github.com/skatech/invcart/services/internal/catalog/search"
	"github.com/skatech/invcart/services/internal/catalog/transport"
)

type CatalogService struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
	Idem     *idem.Store
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return prod, err
}

func (s *CatalogService) GetProducts(ctx context.Context, category string, offset, limit int) (int64, *[]models.Product, error) {
	return s.Repo.GetProducts(ctx, category, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name must not be empty: %w", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative: %w", ErrValidation)
	}

	prod := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	}

	prod, err := s.Repo.CreateProduct(ctx, prod)
	if err != nil {
		return nil, err
	}

	s.index(ctx, prod)
	s.publish(ctx, prod.ID.String(), map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	return prod, nil
}

type BatchCreateFailure struct {
	Input transport.CreateProductRequest `json:"input"`
	Error outcome.ItemError              `json:"error"`
}

type BatchCreateResult struct {
	Successful []models.Product     `json:"successful"`
	Failed     []BatchCreateFailure `json:"failed"`
}

// BatchCreateProducts creates each product independently; a duplicate name or
// a validation failure marks that entry failed without touching its siblings.
func (s *CatalogService) BatchCreateProducts(ctx context.Context, req transport.BatchCreateProductsRequest) (*BatchCreateResult, error) {
	if len(req.Products) == 0 {
		return nil, fmt.Errorf("products must not be empty: %w", ErrValidation)
	}

	result := &BatchCreateResult{
		Successful: make([]models.Product, 0, len(req.Products)),
	}

	for _, input := range req.Products {
		if _, err := s.Repo.GetProductByName(ctx, input.Name); err == nil {
			result.Failed = append(result.Failed, BatchCreateFailure{
				Input: input,
				Error: outcome.ItemError{
					Code:    "DUPLICATE_NAME",
					Message: fmt.Sprintf("product with name %q already exists", input.Name),
					Target:  input.Name,
				},
			})
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		prod, err := s.CreateProduct(ctx, input)
		if err != nil {
			code := "CREATION_ERROR"
			if errors.Is(err, ErrValidation) {
				code = "VALIDATION_ERROR"
			}
			result.Failed = append(result.Failed, BatchCreateFailure{
				Input: input,
				Error: outcome.ItemError{Code: code, Message: err.Error(), Target: input.Name},
			})
			continue
		}
		result.Successful = append(result.Successful, *prod)
	}

	return result, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, req transport.PatchProductRequest, id uuid.UUID) (*models.Product, error) {
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}

	prod, err := s.Repo.PatchProduct(ctx, req, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	s.index(ctx, prod)
	s.publish(ctx, prod.ID.String(), map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.Repo.DeleteProduct(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}

	s.deindex(ctx, id)
	s.publish(ctx, id.String(), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

func (s *CatalogService) SearchProducts(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	if s.ES == nil {
		return 0, nil, fmt.Errorf("search is not configured")
	}
	return search.Search(ctx, s.ES, s.ESIndex, query, from, size)
}

func (s *CatalogService) publish(ctx context.Context, key string, event map[string]any) {
	if err := s.Producer.PublishEvent(ctx, "product_events", key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "error", err)
	}
}

func (s *CatalogService) index(ctx context.Context, prod *models.Product) {
	if s.ES == nil {
		return
	}
	if err := search.IndexProduct(ctx, s.ES, s.ESIndex, prod); err != nil {
		logging.FromContext(ctx).Error("es_index_error", "product_id", prod.ID, "error", err)
	}
}

func (s *CatalogService) deindex(ctx context.Context, id uuid.UUID) {
	if s.ES == nil {
		return
	}
	if err := search.DeleteProduct(ctx, s.ES, s.ESIndex, id); err != nil {
		logging.FromContext(ctx).Error("es_delete_error", "product_id", id, "error", err)
	}
}
