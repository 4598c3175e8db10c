// Package mail provides the SMTP implementation of the Mailer domain service.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"gatehouse/config"
	deliverycontext "gatehouse/internal/delivery/context"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/errors"
)

// smtpMailer is a concrete implementation of the Mailer interface using a
// plain SMTP relay. Verification and reset mails are short plain-text
// messages, so no templating or MIME machinery is needed here.
type smtpMailer struct {
	addr   string
	host   string
	from   string
	auth   smtp.Auth
	logger *slog.Logger
}

// NewSMTPMailer is the constructor for smtpMailer.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	if cfg.SMTP == nil || cfg.SMTP.Host == "" || cfg.SMTP.From == "" {
		return nil, errors.New("smtp host and from address must be provided")
	}

	port := cfg.SMTP.Port
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.SMTP.UserName != "" {
		auth = smtp.PlainAuth("", cfg.SMTP.UserName, cfg.SMTP.Password, cfg.SMTP.Host)
	}

	return &smtpMailer{
		addr:   fmt.Sprintf("%s:%d", cfg.SMTP.Host, port),
		host:   cfg.SMTP.Host,
		from:   cfg.SMTP.From,
		auth:   auth,
		logger: logger,
	}, nil
}

// Send delivers one plain-text message through the configured relay.
func (m *smtpMailer) Send(ctx context.Context, mail service.Mail) error {
	logger := deliverycontext.GetLoggerOrDefault(ctx, m.logger)

	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + mail.To + "\r\n")
	msg.WriteString("Subject: " + mail.Subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(mail.Body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{mail.To}, []byte(msg.String())); err != nil {
		logger.Error("Failed to send mail", slog.String("to", mail.To), slog.Any("error", err))

		return errors.Wrap(err, "send mail")
	}

	logger.Info("Mail sent", slog.String("to", mail.To), slog.String("subject", mail.Subject))

	return nil
}
