package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/storefrontlabs/storefront-api/internal/errors"
	"github.com/storefrontlabs/storefront-api/internal/models"
	repository "github.com/storefrontlabs/storefront-api/internal/repositories"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error)
	UpdateItemQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

// GetCart returns the cart with totals computed against live product
// prices. A user without a cart gets an empty cart value; reads never
// create rows.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return emptyCart(userID), nil
		}

		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	aggregate(cart)

	return cart, nil
}

// AddItem merges repeated adds of the same product into one line item by
// incrementing its quantity. The cart row is created lazily here.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddItemRequest) (*models.Cart, error) {

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	if quantity < 0 {
		return nil, appErrors.BadRequestError("Quantity must be positive")
	}

	product, err := s.productRepo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, appErrors.NotFoundError("Product not found").WithError(err)
	}

	if !product.IsActive {
		return nil, appErrors.BadRequestError("Product is not available")
	}

	cart, err := s.cartRepo.EnsureCart(ctx, userID)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to create cart").WithError(err)
	}

	if _, err := s.cartRepo.UpsertItem(ctx, cart.ID, req.ProductID, quantity); err != nil {
		return nil, appErrors.DatabaseError("Failed to add item to cart").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

// UpdateItemQuantity sets the quantity; zero or less removes the line item.
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID uuid.UUID, req *models.UpdateItemRequest) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Cart not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if req.Quantity <= 0 {
		err = s.cartRepo.DeleteItem(ctx, cart.ID, req.ItemID)
	} else {
		err = s.cartRepo.SetItemQuantity(ctx, cart.ID, req.ItemID, req.Quantity)
	}

	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Item not found in the cart").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to update cart item").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*models.Cart, error) {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Cart not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if err := s.cartRepo.DeleteItem(ctx, cart.ID, itemID); err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Item not found in the cart").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to remove cart item").WithError(err)
	}

	return s.GetCart(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID) error {

	cart, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			// Nothing to clear.
			return nil
		}

		return appErrors.DatabaseError("Failed to fetch cart").WithError(err)
	}

	if err := s.cartRepo.ClearItems(ctx, cart.ID); err != nil {
		return appErrors.DatabaseError("Failed to clear cart").WithError(err)
	}

	return nil
}

// aggregate fills TotalItems and TotalPrice from the line items, pricing
// each against the live product price.
func aggregate(cart *models.Cart) {

	cart.TotalItems = 0
	cart.TotalPrice = 0

	for _, item := range cart.Items {
		cart.TotalItems += item.Quantity

		if item.Product != nil {
			cart.TotalPrice += float64(item.Quantity) * item.Product.Price
		}
	}
}

func emptyCart(userID uuid.UUID) *models.Cart {
	now := time.Now()

	return &models.Cart{
		UserID:    userID,
		Items:     []models.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
