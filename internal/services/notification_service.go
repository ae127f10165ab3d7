package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"agilboard/internal/infrastructure"
	"agilboard/internal/notification"
)

// Template names recorded on the notification metrics.
const (
	TemplateRaw    = "raw"
	TemplateNotify = "notify"
)

// NotificationService sends email through the mail gateway.
type NotificationService struct {
	mailer  Mailer
	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewNotificationService creates a new notification service. metrics may be nil.
func NewNotificationService(mailer Mailer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationService{
		mailer:  mailer,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "notification_service"),
	}
}

// SendEmail delivers caller-supplied HTML as is.
func (s *NotificationService) SendEmail(ctx context.Context, to, subject, html string) (*notification.DeliveryReceipt, error) {
	return s.send(ctx, TemplateRaw, to, subject, html)
}

// NotifyEmail wraps subject and body in the notification layout before sending.
func (s *NotificationService) NotifyEmail(ctx context.Context, to, subject, body string) (*notification.DeliveryReceipt, error) {
	html, err := notification.RenderNotification(subject, body)
	if err != nil {
		return nil, fmt.Errorf("render notification: %w", err)
	}
	return s.send(ctx, TemplateNotify, to, subject, html)
}

func (s *NotificationService) send(ctx context.Context, template, to, subject, html string) (*notification.DeliveryReceipt, error) {
	if strings.TrimSpace(to) == "" {
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidInput)
	}

	receipt, err := s.mailer.Send(ctx, to, subject, html)
	s.metrics.RecordNotification(ctx, template, string(notification.KindOf(err)))
	if err != nil {
		s.logger.ErrorContext(ctx, "email not sent",
			slog.String("template", template),
			slog.String("kind", string(notification.KindOf(err))),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "email sent",
		slog.String("template", template),
		slog.Int("status_code", receipt.StatusCode),
		slog.String("message_id", receipt.MessageID),
	)
	return receipt, nil
}
