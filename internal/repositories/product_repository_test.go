package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/storefrontlabs/storefront-api/internal/models"
	repository "github.com/storefrontlabs/storefront-api/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductRepo(t *testing.T) (repository.ProductRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewProductRepo(db), mock
}

func productRow(id uuid.UUID, name string, price float64) *sqlmock.Rows {
	now := time.Now()

	return sqlmock.NewRows([]string{
		"id", "name", "description", "price", "image_url", "images", "category",
		"stock", "rating", "review_count", "features", "is_active", "created_at", "updated_at",
	}).AddRow(id, name, "", price, "", "{}", "electronics", 10, 0.0, 0, "{}", true, now, now)
}

func TestCreateProduct(t *testing.T) {
	repo, mock := newProductRepo(t)

	product := &models.Product{
		Name:     "Keyboard",
		Price:    49.99,
		Category: "electronics",
		Stock:    10,
		IsActive: true,
	}

	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO products`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))

	require.NoError(t, repo.CreateProduct(context.Background(), product))
	assert.Equal(t, id, product.ID)
}

func TestGetProductByID(t *testing.T) {
	repo, mock := newProductRepo(t)

	id := uuid.New()

	mock.ExpectQuery(`FROM products WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(productRow(id, "Keyboard", 49.99))

	product, err := repo.GetProductByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Keyboard", product.Name)
	assert.InDelta(t, 49.99, product.Price, 0.001)
	assert.True(t, product.IsActive)
}

func TestListProducts(t *testing.T) {
	t.Run("no filters lists active products", func(t *testing.T) {
		repo, mock := newProductRepo(t)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE is_active = TRUE`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`FROM products WHERE is_active = TRUE ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
			WithArgs(10, 0).
			WillReturnRows(productRow(uuid.New(), "Keyboard", 49.99))

		products, total, err := repo.ListProducts(context.Background(), &models.ProductFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, products, 1)
	})

	t.Run("filters compose into the WHERE clause", func(t *testing.T) {
		repo, mock := newProductRepo(t)

		minPrice, maxPrice := 10.0, 100.0
		filter := &models.ProductFilter{
			Categories: []string{"electronics", "office"},
			MinPrice:   &minPrice,
			MaxPrice:   &maxPrice,
			Search:     "key",
			Page:       2,
			PageSize:   5,
		}

		countPattern := `SELECT COUNT\(\*\) FROM products WHERE is_active = TRUE AND category = ANY\(\$1\) AND price >= \$2 AND price <= \$3 AND \(name ILIKE \$4 OR description ILIKE \$4\)`
		mock.ExpectQuery(countPattern).
			WithArgs(sqlmock.AnyArg(), minPrice, maxPrice, "%key%").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

		mock.ExpectQuery(`FROM products WHERE is_active = TRUE AND category = ANY\(\$1\).*LIMIT \$5 OFFSET \$6`).
			WithArgs(sqlmock.AnyArg(), minPrice, maxPrice, "%key%", 5, 5).
			WillReturnRows(productRow(uuid.New(), "Keyboard", 49.99))

		products, total, err := repo.ListProducts(context.Background(), filter)
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		require.Len(t, products, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListByCategory(t *testing.T) {
	repo, mock := newProductRepo(t)

	mock.ExpectQuery(`FROM products WHERE category = \$1 AND is_active = TRUE`).
		WithArgs("electronics").
		WillReturnRows(productRow(uuid.New(), "Keyboard", 49.99))

	products, err := repo.ListByCategory(context.Background(), "electronics")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "electronics", products[0].Category)
}
