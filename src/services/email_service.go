// backend/src/services/email_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/wealthfolio/backend/src/config"
	"github.com/username/wealthfolio/backend/src/logger"
	"github.com/username/wealthfolio/backend/src/models"
)

type EmailService interface {
	SendReviewNotification(toEmail string, item *models.ReviewItem) error
}

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{ReviewBaseURL: config.Cfg.ReviewBaseURL}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:            mg,
			senderEmail:   config.Cfg.SenderEmail,
			senderName:    config.Cfg.SenderName,
			reviewBaseURL: config.Cfg.ReviewBaseURL,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{ReviewBaseURL: config.Cfg.ReviewBaseURL}
		}
		return &SMTPEmailService{
			SMTPServer:    config.Cfg.SMTPServer,
			SMTPPort:      config.Cfg.SMTPPort,
			SMTPUser:      config.Cfg.SMTPUser,
			SMTPPassword:  config.Cfg.SMTPPassword,
			SenderEmail:   config.Cfg.SenderEmail,
			ReviewBaseURL: config.Cfg.ReviewBaseURL,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{ReviewBaseURL: config.Cfg.ReviewBaseURL}
	}
}

func reviewNotificationSubject(item *models.ReviewItem) string {
	return fmt.Sprintf("Possible duplicate %s transaction for %s needs review",
		item.EmailData.TransactionType, item.EmailData.Symbol)
}

func reviewNotificationBody(item *models.ReviewItem, reviewLink string) string {
	return fmt.Sprintf(`Hi,

A trade confirmation email was flagged as a possible duplicate and parked for manual review.

Symbol:        %s
Type:          %s
Quantity:      %.4f
Price:         %.2f
Account:       %s
Confidence:    %.2f
Risk level:    %s
Summary:       %s

Review it here: %s

Thanks,
The Wealthfolio Team`,
		item.EmailData.Symbol,
		item.EmailData.TransactionType,
		item.EmailData.Quantity,
		item.EmailData.Price,
		item.EmailData.AccountType,
		item.Detection.OverallConfidence,
		item.Detection.RiskLevel,
		item.Detection.Summary,
		reviewLink)
}

type SMTPEmailService struct {
	SMTPServer    string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SenderEmail   string
	ReviewBaseURL string
}

func (s *SMTPEmailService) SendReviewNotification(toEmail string, item *models.ReviewItem) error {
	from := s.SenderEmail
	to := []string{toEmail}
	subject := reviewNotificationSubject(item)
	reviewLink := fmt.Sprintf("%s/%s", s.ReviewBaseURL, item.ID)
	body := reviewNotificationBody(item, reviewLink)

	header := make(map[string]string)
	header["From"] = from
	header["To"] = toEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	err := smtp.SendMail(addr, auth, from, to, []byte(message))
	if err != nil {
		logger.L.Error("Failed to send review notification via SMTP", "error", err, "to", toEmail, "reviewId", item.ID)
		return fmt.Errorf("failed to send review notification via SMTP: %w", err)
	}
	logger.L.Info("Review notification sent successfully via SMTP", "to", toEmail, "reviewId", item.ID)
	return nil
}

type MailgunEmailService struct {
	mg            mailgun.Mailgun
	senderEmail   string
	senderName    string
	reviewBaseURL string
}

func (s *MailgunEmailService) SendReviewNotification(toEmail string, item *models.ReviewItem) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := reviewNotificationSubject(item)
	recipient := toEmail

	reviewLink := fmt.Sprintf("%s/%s", s.reviewBaseURL, item.ID)
	plainTextBody := reviewNotificationBody(item, reviewLink)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi,</p>
			<p>A trade confirmation email was flagged as a possible duplicate and parked for manual review.</p>
			<table style="border-collapse: collapse;">
				<tr><td style="padding: 2px 12px 2px 0;"><b>Symbol</b></td><td>%s</td></tr>
				<tr><td style="padding: 2px 12px 2px 0;"><b>Type</b></td><td>%s</td></tr>
				<tr><td style="padding: 2px 12px 2px 0;"><b>Quantity</b></td><td>%.4f</td></tr>
				<tr><td style="padding: 2px 12px 2px 0;"><b>Price</b></td><td>%.2f</td></tr>
				<tr><td style="padding: 2px 12px 2px 0;"><b>Account</b></td><td>%s</td></tr>
				<tr><td style="padding: 2px 12px 2px 0;"><b>Confidence</b></td><td>%.2f</td></tr>
				<tr><td style="padding: 2px 12px 2px 0;"><b>Risk level</b></td><td>%s</td></tr>
			</table>
			<p>%s</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; text-decoration: none; font-weight: bold; padding: 10px 15px; border: 1px solid #1a73e8; border-radius: 4px; background-color: #e8f0fe;">Open Review</a></p>
			<p>Thanks,<br>The Wealthfolio Team</p>
		</body>
	</html>`,
		item.EmailData.Symbol,
		item.EmailData.TransactionType,
		item.EmailData.Quantity,
		item.EmailData.Price,
		item.EmailData.AccountType,
		item.Detection.OverallConfidence,
		item.Detection.RiskLevel,
		item.Detection.Summary,
		reviewLink)

	message := s.mg.NewMessage(from, subject, plainTextBody, recipient)
	message.SetHtml(htmlBody)
	message.AddTag("duplicate-review")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send review notification via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed for review notification: %w. Response: %s", err, resp)
	}

	logger.L.Info("Review notification sent successfully via Mailgun", "to", toEmail, "reviewId", item.ID, "mailgunId", id)
	return nil
}

type MockEmailService struct {
	ReviewBaseURL string
}

func (m *MockEmailService) SendReviewNotification(toEmail string, item *models.ReviewItem) error {
	reviewLink := "MOCK_REVIEW_LINK_NOT_CONFIGURED_IN_MOCK_STRUCT"
	if m.ReviewBaseURL != "" {
		reviewLink = fmt.Sprintf("%s/%s", m.ReviewBaseURL, item.ID)
	} else if config.Cfg != nil && config.Cfg.ReviewBaseURL != "" {
		reviewLink = fmt.Sprintf("%s/%s", config.Cfg.ReviewBaseURL, item.ID)
	}
	logger.L.Info("MockEmailService: Would send review notification.",
		"to", toEmail, "reviewId", item.ID, "symbol", item.EmailData.Symbol, "reviewLink", reviewLink)
	return nil
}
