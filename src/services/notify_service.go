package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/moneydesk/backend/src/config"
	"github.com/username/moneydesk/backend/src/logger"
)

func NewNotifier() Notifier {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Notifier will default to mock.")
		return &MockNotifier{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing settlement notifier", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SettlementReportRecipient == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or recipient missing). Falling back to MockNotifier.")
			return &MockNotifier{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunNotifier{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
			recipient:   config.Cfg.SettlementReportRecipient,
		}
	default:
		logger.L.Info("Defaulting to MockNotifier.")
		return &MockNotifier{}
	}
}

type MailgunNotifier struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
	recipient   string
}

func (n *MailgunNotifier) SendSettlementSummary(settled, failed int, details string) error {
	from := fmt.Sprintf("%s <%s>", n.senderName, n.senderEmail)
	subject := fmt.Sprintf("Settlement batch: %d settled, %d failed", settled, failed)

	body := fmt.Sprintf(`A reconciliation batch just finished.

Settled: %d
Failed:  %d
`, settled, failed)
	if failed > 0 {
		body += "\nFailures:\n" + details
	}

	message := n.mg.NewMessage(from, subject, body, n.recipient)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := n.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send settlement summary via Mailgun", "error", err, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	logger.L.Info("Settlement summary sent via Mailgun", "to", n.recipient, "id", id)
	return nil
}

// MockNotifier only logs. Used when no provider is configured, and in tests.
type MockNotifier struct{}

func (n *MockNotifier) SendSettlementSummary(settled, failed int, details string) error {
	if logger.L != nil {
		logger.L.Info("MOCK settlement summary", "settled", settled, "failed", failed, "details", details)
	}
	return nil
}
