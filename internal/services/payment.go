package service

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/google/uuid"
	appErrors "github.com/storefrontlabs/storefront-api/internal/errors"
	"github.com/storefrontlabs/storefront-api/internal/models"
	repository "github.com/storefrontlabs/storefront-api/internal/repositories"
	"github.com/storefrontlabs/storefront-api/pkg/stripe"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, userID uuid.UUID, req *models.CreatePaymentRequest) (*models.PaymentResponse, error)
	GetPaymentByID(ctx context.Context, id, userID uuid.UUID) (*models.Payment, error)
	ListPaymentsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Payment, int, error)
	ProcessWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	repo            repository.PaymentRepository
	orderRepo       repository.OrderRepository
	stripeClient    stripe.Client
	defaultCurrency string
}

func NewPaymentService(repo repository.PaymentRepository, orderRepo repository.OrderRepository, stripeClient stripe.Client, defaultCurrency string) PaymentService {
	return &paymentService{
		repo:            repo,
		orderRepo:       orderRepo,
		stripeClient:    stripeClient,
		defaultCurrency: defaultCurrency,
	}
}

// CreatePayment charges the stored order total, never a client-submitted
// amount. The order must belong to the paying user and still be payable.
func (s *paymentService) CreatePayment(ctx context.Context, userID uuid.UUID, req *models.CreatePaymentRequest) (*models.PaymentResponse, error) {

	order, err := s.orderRepo.GetOrderForUser(ctx, req.OrderID, userID)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Order not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch order").WithError(err)
	}

	if order.Status == models.OrderStatusCancelled {
		return nil, appErrors.BadRequestError("Cannot pay for a cancelled order")
	}

	currency := req.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	intent, err := s.stripeClient.CreatePaymentIntent(toMinorUnits(order.TotalAmount), currency, "Order "+order.ID.String())
	if err != nil {
		return nil, appErrors.ThirdPartyError("Failed to create payment intent").WithError(err)
	}

	payment := &models.Payment{
		ID:             uuid.New(),
		OrderID:        order.ID,
		UserID:         userID,
		Amount:         order.TotalAmount,
		Currency:       currency,
		Status:         models.PaymentStatusPending,
		StripeIntentID: intent.ID,
	}

	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, appErrors.DatabaseError("Failed to record payment").WithError(err)
	}

	return &models.PaymentResponse{
		Payment:      payment,
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *paymentService) GetPaymentByID(ctx context.Context, id, userID uuid.UUID) (*models.Payment, error) {

	payment, err := s.repo.GetPaymentByID(ctx, id)
	if err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("Payment not found").WithError(err)
		}

		return nil, appErrors.DatabaseError("Failed to fetch payment").WithError(err)
	}

	// Payments of other users look like missing payments.
	if payment.UserID != userID {
		return nil, appErrors.NotFoundError("Payment not found")
	}

	return payment, nil
}

func (s *paymentService) ListPaymentsByUser(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Payment, int, error) {

	page, size = models.NormalizePage(page, size)

	payments, total, err := s.repo.ListPaymentsByUser(ctx, userID, page, size)
	if err != nil {
		return nil, 0, appErrors.DatabaseError("Failed to fetch payments").WithError(err)
	}

	return payments, total, nil
}

// ProcessWebhook verifies the Stripe signature and folds the event into
// the stored payment status.
func (s *paymentService) ProcessWebhook(ctx context.Context, payload []byte, signature string) error {

	event, err := s.stripeClient.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return appErrors.UnauthorizedError("Webhook signature verification failed").WithError(err)
	}

	var (
		intentID string
		status   models.PaymentStatus
	)

	switch event.Type {
	case "payment_intent.succeeded":
		intentID, _ = event.Data.Object["id"].(string)
		status = models.PaymentStatusSucceeded
	case "payment_intent.payment_failed":
		intentID, _ = event.Data.Object["id"].(string)
		status = models.PaymentStatusFailed
	case "charge.refunded":
		intentID, _ = event.Data.Object["payment_intent"].(string)
		status = models.PaymentStatusRefunded
	default:
		// Unhandled event types are acknowledged without action.
		return nil
	}

	if intentID == "" {
		return appErrors.BadRequestError("Missing payment intent ID in webhook")
	}

	if err := s.repo.UpdatePaymentStatusByIntentID(ctx, intentID, status); err != nil {

		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFoundError("Payment not found for webhook event")
		}

		return appErrors.DatabaseError("Failed to update payment status").WithError(err)
	}

	return nil
}

// toMinorUnits converts a decimal amount to the smallest currency unit
// Stripe expects.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
