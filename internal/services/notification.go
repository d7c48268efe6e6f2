package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/storefrontlabs/storefront-api/internal/errors"
	"github.com/storefrontlabs/storefront-api/internal/models"
	repository "github.com/storefrontlabs/storefront-api/internal/repositories"
	"github.com/storefrontlabs/storefront-api/pkg/sendgrid"
)

type NotificationService interface {
	SendEmail(ctx context.Context, userID uuid.UUID, req *models.EmailNotificationRequest) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Notification, error)
}

type notificationService struct {
	repo   repository.NotificationRepository
	mailer sendgrid.EmailSender
}

func NewNotificationService(repo repository.NotificationRepository, mailer sendgrid.EmailSender) NotificationService {
	return &notificationService{repo: repo, mailer: mailer}
}

// SendEmail records the notification before attempting delivery, so every
// attempt leaves an auditable row whether or not SendGrid accepts it.
func (s *notificationService) SendEmail(ctx context.Context, userID uuid.UUID, req *models.EmailNotificationRequest) (*models.Notification, error) {

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      models.NotificationTypeEmail,
		Recipient: req.To,
		Subject:   req.Subject,
		Content:   req.Content,
		Status:    models.NotificationStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return nil, appErrors.DatabaseError("Failed to create notification record").WithError(err)
	}

	if err := s.mailer.Send(ctx, req); err != nil {

		notification.Status = models.NotificationStatusFailed
		notification.Error = err.Error()

		_ = s.repo.UpdateNotificationStatus(ctx, notification.ID, models.NotificationStatusFailed, notification.Error)

		return nil, appErrors.ThirdPartyError("Failed to send email").WithError(err)
	}

	notification.Status = models.NotificationStatusSent

	if err := s.repo.UpdateNotificationStatus(ctx, notification.ID, models.NotificationStatusSent, ""); err != nil {
		return nil, appErrors.DatabaseError("Email sent but failed to update notification status").WithError(err)
	}

	return notification, nil
}

func (s *notificationService) ListNotifications(ctx context.Context, userID uuid.UUID, page, size int) ([]*models.Notification, error) {

	page, size = models.NormalizePage(page, size)

	notifications, err := s.repo.ListNotificationsByUser(ctx, userID, page, size)
	if err != nil {
		return nil, appErrors.DatabaseError("Failed to list notifications").WithError(err)
	}

	return notifications, nil
}
