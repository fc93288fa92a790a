package mailer

import (
	"errors"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/spec-kit/estate-service/internal/config"
)

// SMTPMailer sends outbound notices over SMTP. All sends are best-effort:
// callers log failures and never propagate them.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// New constructs a mailer. When no SMTP host is configured the mailer is
// disabled and sends fail fast without a network attempt.
func New(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	m := &SMTPMailer{from: cfg.From, logger: logger}
	if cfg.Host != "" {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	} else {
		logger.Warn("SMTP_HOST not configured; outbound notices disabled")
	}
	return m
}

// SendExternalNotice delivers one plain-text notice.
func (m *SMTPMailer) SendExternalNotice(to, subject, body string) error {
	if m.dialer == nil {
		return errors.New("mailer not configured")
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if err := m.dialer.DialAndSend(msg); err != nil {
		return err
	}
	m.logger.Debug("external notice sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
