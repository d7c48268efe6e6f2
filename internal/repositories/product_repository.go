package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/storefrontlabs/storefront-api/internal/models"
	"github.com/storefrontlabs/storefront-api/internal/utils"
)

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Product, error)
}

type productRepository struct {
	DB *sql.DB
}

func NewProductRepo(db *sql.DB) ProductRepository {
	return &productRepository{DB: db}
}

const productColumns = `id, name, description, price, image_url, images, category, stock, rating, review_count, features, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	product := &models.Product{}

	err := row.Scan(&product.ID, &product.Name, &product.Description, &product.Price,
		&product.ImageURL, pq.Array(&product.Images), &product.Category, &product.Stock,
		&product.Rating, &product.ReviewCount, pq.Array(&product.Features),
		&product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *models.Product) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO products (name, description, price, image_url, images, category, stock, rating, review_count, features, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	return r.DB.QueryRowContext(dbCtx, query,
		product.Name, product.Description, product.Price, product.ImageURL,
		pq.Array(product.Images), product.Category, product.Stock, product.Rating,
		product.ReviewCount, pq.Array(product.Features), product.IsActive).
		Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
}

func (r *productRepository) GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	return scanProduct(r.DB.QueryRowContext(dbCtx, query, id))
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *models.Product) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, image_url = $4, images = $5,
		    category = $6, stock = $7, rating = $8, review_count = $9, features = $10,
		    is_active = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING updated_at`

	return r.DB.QueryRowContext(dbCtx, query,
		product.Name, product.Description, product.Price, product.ImageURL,
		pq.Array(product.Images), product.Category, product.Stock, product.Rating,
		product.ReviewCount, pq.Array(product.Features), product.IsActive, product.ID).
		Scan(&product.UpdatedAt)
}

// ListProducts builds the WHERE clause from the filter: category set,
// price range and a case-insensitive substring search over name and
// description.
func (r *productRepository) ListProducts(ctx context.Context, filter *models.ProductFilter) ([]*models.Product, int, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	conditions := []string{"is_active = TRUE"}

	var args []any

	if len(filter.Categories) > 0 {
		args = append(args, pq.Array(filter.Categories))
		conditions = append(conditions, fmt.Sprintf("category = ANY($%d)", len(args)))
	}

	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		conditions = append(conditions, fmt.Sprintf("price >= $%d", len(args)))
	}

	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conditions = append(conditions, fmt.Sprintf("price <= $%d", len(args)))
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int

	countQuery := `SELECT COUNT(*) FROM products` + where

	if err := r.DB.QueryRowContext(dbCtx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize

	args = append(args, filter.PageSize, offset)
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(dbCtx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) ListByCategory(ctx context.Context, category string) ([]*models.Product, error) {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE category = $1 AND is_active = TRUE ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(dbCtx, query, category)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var products []*models.Product

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}

		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
