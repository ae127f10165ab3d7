package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	apierrors "agilboard/internal/errors"
	customMiddleware "agilboard/internal/middleware"
	"agilboard/internal/notification"
)

// SendEmailRequest is the body of POST /send-email/. Address syntax is left to the provider.
type SendEmailRequest struct {
	ToEmail     string `json:"to_email" validate:"required"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"html_content"`
}

// NotifyEmailRequest is the body of POST /notify/email.
type NotifyEmailRequest struct {
	To      string `json:"to" validate:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailResponse acknowledges a send accepted by the provider.
type EmailResponse struct {
	Message string                        `json:"message"`
	Details *notification.DeliveryReceipt `json:"details"`
}

// NotificationHandler exposes the email endpoints.
type NotificationHandler struct {
	service      NotificationServiceInterface
	validator    *customMiddleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(service NotificationServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *NotificationHandler {
	return &NotificationHandler{
		service:      service,
		validator:    customMiddleware.NewValidator(logger),
		logger:       logger.With(slog.String("component", "notification_handler")),
		errorHandler: errorHandler,
	}
}

// SendEmail handles POST /send-email/
func (h *NotificationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	receipt, err := h.service.SendEmail(r.Context(), req.ToEmail, req.Subject, req.HTMLContent)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to send email"))
		return
	}

	render.JSON(w, r, EmailResponse{Message: "Email sent successfully", Details: receipt})
}

// NotifyEmail handles POST /notify/email
func (h *NotificationHandler) NotifyEmail(w http.ResponseWriter, r *http.Request) {
	var req NotifyEmailRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	receipt, err := h.service.NotifyEmail(r.Context(), req.To, req.Subject, req.Body)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err, "Failed to send notification email"))
		return
	}

	render.JSON(w, r, EmailResponse{Message: "Notification email sent successfully", Details: receipt})
}
