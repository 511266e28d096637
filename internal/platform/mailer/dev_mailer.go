package mailer

import (
	"github.com/evacdesk/rollcall/internal/domain"
	"github.com/evacdesk/rollcall/pkg/config"
	"github.com/evacdesk/rollcall/pkg/logger"
)

// DevMailer prints mail to the logs instead of sending it.
type DevMailer struct{}

func (DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("dev mailer: would send email",
		"to", toEmail,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}

func (d DevMailer) SendDailyReport(toEmail, day string, records []domain.ExportRecord) error {
	subject, text, _ := reportBody(day, records)
	_, err := d.Send(toEmail, "", subject, text, "")
	return err
}

var _ Service = DevMailer{}

// FromConfig picks the mail transport: mailersend, smtp, or dev (default).
func FromConfig(cfg config.MailerConfig) Service {
	switch cfg.Provider {
	case "mailersend":
		return NewMailer(cfg.MailerSendKey, cfg.FromName, cfg.FromEmail)
	case "smtp":
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.FromEmail, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	default:
		return DevMailer{}
	}
}
