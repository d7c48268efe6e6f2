package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/storefrontlabs/storefront-api/internal/errors"
	"github.com/storefrontlabs/storefront-api/internal/models"
	repository "github.com/storefrontlabs/storefront-api/internal/repositories"
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrderByID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error)
	ListAllOrders(ctx context.Context, page, size int) ([]models.Order, int, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
}

func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository) OrderService {
	return &orderService{orderRepo: orderRepo, cartRepo: cartRepo}
}

// CreateOrder snapshots the submitted items into an immutable order. The
// total is computed once here from the submitted unit prices and never
// recomputed, so later product price changes cannot affect it.
func (s *orderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, error) {

	var totalAmount float64

	for _, item := range req.Items {
		totalAmount += float64(item.Quantity) * item.UnitPrice
	}

	order := &models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		Status:          models.OrderStatusPending,
		TotalAmount:     totalAmount,
		ShippingAddress: &req.ShippingAddress,
		BillingAddress:  &req.BillingAddress,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	items := make([]models.OrderItem, 0, len(req.Items))

	for _, item := range req.Items {
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CreatedAt: time.Now(),
		})
	}

	order.Items = items

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, appErrors.DatabaseError("Failed to create order").WithError(err)
	}

	// Checkout empties the cart. A failure here leaves a stale cart but
	// never a broken order, so it is logged by the caller and not fatal.
	if cart, err := s.cartRepo.GetCartByUserID(ctx, userID); err == nil {
		_ = s.cartRepo.ClearItems(ctx, cart.ID)
	}

	return order, nil
}

// GetOrderByID hides orders of other users behind a not-found error.
func (s *orderService) GetOrderByID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {

	order, err := s.orderRepo.GetOrderForUser(ctx, orderID, userID)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	return order, nil
}

func (s *orderService) ListOrdersByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]models.Order, int, error) {

	page, size = models.NormalizePage(page, size)

	orders, total, err := s.orderRepo.ListOrdersByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

func (s *orderService) ListAllOrders(ctx context.Context, page, size int) ([]models.Order, int, error) {

	page, size = models.NormalizePage(page, size)

	orders, total, err := s.orderRepo.ListAllOrders(ctx, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch orders").WithError(err)
	}

	return orders, total, nil
}

// UpdateOrderStatus enforces the lifecycle: PENDING→CONFIRMED→SHIPPED→
// DELIVERED, with CANCELLED reachable only before shipment.
func (s *orderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {

	if !status.Valid() {
		return nil, appErrors.BadRequestError(fmt.Sprintf("Unknown order status: %s", status))
	}

	order, err := s.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, appErrors.BadRequestError(
			fmt.Sprintf("Cannot transition order from %s to %s", order.Status, status))
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, orderID, order.Status, status); err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			// The order moved under us between read and update.
			return nil, appErrors.BadRequestError("Order status changed concurrently, retry")
		}

		return nil, appErrors.DatabaseError("Failed to update order status").WithError(err)
	}

	order.Status = status
	order.UpdatedAt = time.Now()

	return order, nil
}

