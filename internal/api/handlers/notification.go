package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/storefrontlabs/storefront-api/internal/api/middleware"
	"github.com/storefrontlabs/storefront-api/internal/models"
	service "github.com/storefrontlabs/storefront-api/internal/services"
	"github.com/storefrontlabs/storefront-api/internal/utils"
	"github.com/storefrontlabs/storefront-api/internal/utils/response"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	validator           *validator.Validate
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, validator: validator.New()}
}

func (h *NotificationHandler) SendEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		var req models.EmailNotificationRequest

		if !utils.ParseAndValidate(w, r, &req, h.validator) {
			return
		}

		notification, err := h.notificationService.SendEmail(r.Context(), claims.UserID, &req)
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Email send failed",
				slog.String("recipient", req.To),
				slog.String("error", err.Error()))
			response.Error(w, err)

			return
		}

		response.Success(w, http.StatusCreated, notification)
	}
}

func (h *NotificationHandler) ListNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		claims, ok := requireClaims(w, r)
		if !ok {
			return
		}

		page, size := pageParams(r)

		notifications, err := h.notificationService.ListNotifications(r.Context(), claims.UserID, page, size)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, notifications)
	}
}
