package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"review_count"`
	Features    []string  `json:"features"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,min=3,max=200"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	ImageURL    string   `json:"image_url,omitempty" validate:"omitempty,url"`
	Images      []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	Category    string   `json:"category" validate:"required"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Features    []string `json:"features,omitempty"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=3,max=200"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Images      []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	Category    *string  `json:"category,omitempty"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// ProductFilter captures the query surface of GET /products. Categories
// holds both the single `category` and the multi `categories` parameters.
type ProductFilter struct {
	Categories []string
	MinPrice   *float64
	MaxPrice   *float64
	Search     string
	Page       int
	PageSize   int
}
