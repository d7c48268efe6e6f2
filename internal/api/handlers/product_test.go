package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storefrontlabs/storefront-api/internal/api/handlers"
	"github.com/storefrontlabs/storefront-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProductHandlerListProducts(t *testing.T) {

	t.Run("query parameters map onto the filter", func(t *testing.T) {
		svc := new(mockProductService)
		handler := handlers.NewProductHandler(svc)

		svc.On("ListProducts", mock.Anything, mock.MatchedBy(func(f *models.ProductFilter) bool {
			return len(f.Categories) == 2 &&
				f.Categories[0] == "electronics" && f.Categories[1] == "office" &&
				f.MinPrice != nil && *f.MinPrice == 10 &&
				f.MaxPrice != nil && *f.MaxPrice == 100 &&
				f.Search == "keyboard" && f.Page == 2 && f.PageSize == 5
		})).Return([]*models.Product{}, 0, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/products?categories=electronics,office&minPrice=10&maxPrice=100&search=keyboard&page=2&limit=5", nil)
		rec := httptest.NewRecorder()

		handler.ListProducts().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("listing is public", func(t *testing.T) {
		svc := new(mockProductService)
		handler := handlers.NewProductHandler(svc)

		svc.On("ListProducts", mock.Anything, mock.Anything).Return([]*models.Product{{Name: "Keyboard"}}, 1, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		rec := httptest.NewRecorder()

		handler.ListProducts().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Keyboard")
	})
}

func TestProductHandlerGetProduct(t *testing.T) {
	handler := handlers.NewProductHandler(new(mockProductService))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products/{id}", handler.GetProduct())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
