// Package notification sends transactional email through SendGrid and reduces provider
// failures to three kinds: not configured, unauthorized and delivery failed.
package notification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"agilboard/internal/config"
	"agilboard/internal/infrastructure"
)

const sendEndpoint = "/v3/mail/send"

// DeliveryReceipt is what the provider told us about an accepted message.
type DeliveryReceipt struct {
	StatusCode int    `json:"status_code"`
	MessageID  string `json:"message_id,omitempty"`
}

// Gateway wraps the SendGrid v3 mail send call. It never retries.
type Gateway struct {
	cfg    config.MailConfig
	logger *slog.Logger
}

// NewGateway creates a gateway. A missing API key is not an error here; every Send reports
// it instead, so the server can start without mail configured.
func NewGateway(cfg config.MailConfig, logger *slog.Logger) *Gateway {
	return &Gateway{
		cfg:    cfg,
		logger: infrastructure.WithComponent(logger, "notification"),
	}
}

// Configured reports whether an API key is present.
func (g *Gateway) Configured() bool {
	return strings.TrimSpace(g.cfg.SendGridAPIKey) != ""
}

// Send delivers one HTML message to a single recipient.
func (g *Gateway) Send(ctx context.Context, to, subject, html string) (*DeliveryReceipt, error) {
	if !g.Configured() {
		return nil, &GatewayError{Kind: KindNotConfigured, Message: "SendGrid API key not configured"}
	}

	if g.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.SendTimeout)
		defer cancel()
	}

	from := mail.NewEmail(g.cfg.FromName, g.cfg.FromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), "", html)

	req := sendgrid.GetRequest(g.cfg.SendGridAPIKey, sendEndpoint, g.cfg.APIHost)
	req.Method = http.MethodPost
	req.Body = mail.GetRequestBody(message)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		g.logger.ErrorContext(ctx, "email send failed",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
		return nil, &GatewayError{Kind: KindDeliveryFailed, Message: "failed to send email", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		g.logger.ErrorContext(ctx, "email provider rejected credentials",
			slog.Int("status", resp.StatusCode))
		return nil, &GatewayError{
			Kind:       KindUnauthorized,
			StatusCode: resp.StatusCode,
			Message:    "HTTP Error " + strconv.Itoa(resp.StatusCode) + ": Unauthorized",
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		g.logger.ErrorContext(ctx, "email provider returned an error",
			slog.Int("status", resp.StatusCode),
			slog.String("body", truncate(resp.Body, 500)))
		return nil, &GatewayError{
			Kind:       KindDeliveryFailed,
			StatusCode: resp.StatusCode,
			Message:    "HTTP Error " + strconv.Itoa(resp.StatusCode) + ": " + providerMessage(resp.Body),
		}
	}

	receipt := &DeliveryReceipt{StatusCode: resp.StatusCode}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		receipt.MessageID = ids[0]
	}

	g.logger.InfoContext(ctx, "email sent",
		slog.Int("status", resp.StatusCode),
		slog.String("message_id", receipt.MessageID))
	return receipt, nil
}

// providerMessage pulls the error messages out of a SendGrid error body.
func providerMessage(body string) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil && len(payload.Errors) > 0 {
		msgs := make([]string, 0, len(payload.Errors))
		for _, e := range payload.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	if body = strings.TrimSpace(body); body != "" {
		return truncate(body, 200)
	}
	return "request rejected"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
