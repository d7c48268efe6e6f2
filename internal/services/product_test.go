package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/storefrontlabs/storefront-api/internal/cache"
	appErrors "github.com/storefrontlabs/storefront-api/internal/errors"
	"github.com/storefrontlabs/storefront-api/internal/models"
	service "github.com/storefrontlabs/storefront-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateProduct(t *testing.T) {
	productRepo := new(mockProductRepo)
	svc := service.NewProductService(productRepo, new(mockCache))

	req := &models.CreateProductRequest{
		Name:     "Wireless Headphones",
		Price:    89.99,
		Category: "electronics",
		Stock:    25,
	}

	productRepo.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == req.Name && p.IsActive
	})).Return(nil)

	product, err := svc.CreateProduct(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, product.IsActive, "new products start active")
	assert.InDelta(t, 89.99, product.Price, 0.001)
}

func TestGetProductByID(t *testing.T) {
	productID := uuid.New()
	key := cache.Key(cache.ProductKeyPrefix, productID.String())
	stored := &models.Product{ID: productID, Name: "Keyboard", Price: 49.99, IsActive: true}

	t.Run("cache miss reads DB and populates cache", func(t *testing.T) {
		productRepo := new(mockProductRepo)
		productCache := new(mockCache)
		svc := service.NewProductService(productRepo, productCache)

		productCache.On("Get", mock.Anything, key, mock.Anything).Return(false, nil)
		productRepo.On("GetProductByID", mock.Anything, productID).Return(stored, nil)
		productCache.On("Set", mock.Anything, key, stored, mock.Anything).Return(nil)

		product, err := svc.GetProductByID(context.Background(), productID)
		require.NoError(t, err)
		assert.Equal(t, productID, product.ID)
		productCache.AssertExpectations(t)
	})

	t.Run("cache hit skips the DB", func(t *testing.T) {
		productRepo := new(mockProductRepo)
		productCache := new(mockCache)
		svc := service.NewProductService(productRepo, productCache)

		productCache.On("Get", mock.Anything, key, mock.Anything).Run(func(args mock.Arguments) {
			*args.Get(2).(*models.Product) = *stored
		}).Return(true, nil)

		product, err := svc.GetProductByID(context.Background(), productID)
		require.NoError(t, err)
		assert.Equal(t, "Keyboard", product.Name)
		productRepo.AssertNotCalled(t, "GetProductByID", mock.Anything, mock.Anything)
	})

	t.Run("cache failure degrades to DB read", func(t *testing.T) {
		productRepo := new(mockProductRepo)
		productCache := new(mockCache)
		svc := service.NewProductService(productRepo, productCache)

		productCache.On("Get", mock.Anything, key, mock.Anything).Return(false, assert.AnError)
		productRepo.On("GetProductByID", mock.Anything, productID).Return(stored, nil)
		productCache.On("Set", mock.Anything, key, stored, mock.Anything).Return(nil)

		product, err := svc.GetProductByID(context.Background(), productID)
		require.NoError(t, err)
		assert.Equal(t, productID, product.ID)
	})

	t.Run("missing product is not found", func(t *testing.T) {
		productRepo := new(mockProductRepo)
		productCache := new(mockCache)
		svc := service.NewProductService(productRepo, productCache)

		productCache.On("Get", mock.Anything, key, mock.Anything).Return(false, nil)
		productRepo.On("GetProductByID", mock.Anything, productID).Return(nil, sql.ErrNoRows)

		_, err := svc.GetProductByID(context.Background(), productID)
		require.Error(t, err)

		appErr, ok := appErrors.IsAppError(err)
		require.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeNotFound, appErr.Code)
	})
}

func TestUpdateProduct(t *testing.T) {
	productID := uuid.New()

	t.Run("applies partial update and invalidates cache", func(t *testing.T) {
		productRepo := new(mockProductRepo)
		productCache := new(mockCache)
		svc := service.NewProductService(productRepo, productCache)

		existing := &models.Product{ID: productID, Name: "Keyboard", Price: 49.99, Stock: 5, IsActive: true}
		productRepo.On("GetProductByID", mock.Anything, productID).Return(existing, nil)
		productRepo.On("UpdateProduct", mock.Anything, mock.Anything).Return(nil)
		productCache.On("Delete", mock.Anything, cache.Key(cache.ProductKeyPrefix, productID.String())).Return(nil)

		newPrice := 39.99
		product, err := svc.UpdateProduct(context.Background(), productID, &models.UpdateProductRequest{Price: &newPrice})
		require.NoError(t, err)
		assert.InDelta(t, 39.99, product.Price, 0.001)
		assert.Equal(t, "Keyboard", product.Name, "unspecified fields untouched")
		productCache.AssertExpectations(t)
	})
}

func TestListProducts(t *testing.T) {
	productRepo := new(mockProductRepo)
	svc := service.NewProductService(productRepo, new(mockCache))

	productRepo.On("ListProducts", mock.Anything, mock.MatchedBy(func(f *models.ProductFilter) bool {
		return f.Page == 1 && f.PageSize == 10
	})).Return([]*models.Product{{Name: "Keyboard"}}, 1, nil)

	products, total, err := svc.ListProducts(context.Background(), &models.ProductFilter{Page: -3, PageSize: 9999})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)
}
