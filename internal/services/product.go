package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/storefrontlabs/storefront-api/internal/cache"
	appErrors "github.com/storefrontlabs/storefront-api/internal/errors"
	"github.com/storefrontlabs/storefront-api/internal/models"
	repository "github.com/storefrontlabs/storefront-api/internal/repositories"
)

type ProductService interface {
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Product, error)
}

type productService struct {
	repo  repository.ProductRepository
	cache cache.Cache
}

func NewProductService(repo repository.ProductRepository, productCache cache.Cache) ProductService {
	return &productService{repo: repo, cache: productCache}
}

func (s *productService) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Images:      req.Images,
		Category:    req.Category,
		Stock:       req.Stock,
		Features:    req.Features,
		IsActive:    true,
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to create product").WithError(err)
	}

	return product, nil
}

// GetProductByID is cache-aside: a cache miss falls through to Postgres
// and populates the cache; cache failures only degrade to a DB read.
func (s *productService) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	key := cache.Key(cache.ProductKeyPrefix, id.String())

	product := &models.Product{}

	if hit, err := s.cache.Get(ctx, key, product); err == nil && hit {
		return product, nil
	} else if err != nil {
		slog.Warn("Product cache read failed", slog.String("key", key), slog.Any("error", err))
	}

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if err := s.cache.Set(ctx, key, product, 0); err != nil {
		slog.Warn("Product cache write failed", slog.String("key", key), slog.Any("error", err))
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {

	product, err := s.repo.GetProductByID(ctx, id)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Product not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch product").WithError(err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}

	if req.Description != nil {
		product.Description = *req.Description
	}

	if req.Price != nil {
		product.Price = *req.Price
	}

	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}

	if req.Images != nil {
		product.Images = req.Images
	}

	if req.Category != nil {
		product.Category = *req.Category
	}

	if req.Stock != nil {
		product.Stock = *req.Stock
	}

	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, appErrors.DatabaseError("Failed to update product").WithError(err)
	}

	key := cache.Key(cache.ProductKeyPrefix, id.String())
	if err := s.cache.Delete(ctx, key); err != nil {
		slog.Warn("Product cache invalidation failed", slog.String("key", key), slog.Any("error", err))
	}

	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {

	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)

	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, total, nil
}

func (s *productService) ListByCategory(ctx context.Context, category string) ([]*models.Product, error) {

	products, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to fetch products").WithError(err)
	}

	return products, nil
}
