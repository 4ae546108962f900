// Package notify schedules fire-and-forget user notifications.
//
// Notifications are best-effort: scheduling never blocks the caller and
// delivery is not guaranteed or observed. A failed send is logged, nothing
// else.
package notify

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Notifier delivers a short title/body notification to a user.
type Notifier interface {
	Schedule(email, title, body string)
}

// SMTPConfig holds SMTP connection settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// IsConfigured returns true if SMTP settings are present.
func (c SMTPConfig) IsConfigured() bool {
	return c.Host != "" && c.From != ""
}

// Mailer sends notifications over SMTP in a background goroutine.
type Mailer struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewMailer creates an SMTP-backed notifier.
func NewMailer(config SMTPConfig, logger *slog.Logger) *Mailer {
	return &Mailer{config: config, logger: logger}
}

// Schedule queues the notification and returns immediately.
func (m *Mailer) Schedule(email, title, body string) {
	go func() {
		msg := buildEmail(m.config.From, email, title, body)
		addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)
		auth := smtp.PlainAuth("", m.config.User, m.config.Pass, m.config.Host)

		if err := smtp.SendMail(addr, auth, m.config.From, []string{email}, msg); err != nil {
			m.logger.Warn("notification send failed", "to", email, "title", title, "err", err)
		}
	}()
}

// LogNotifier writes notifications to the log instead of sending them.
// Used in dev mode and when SMTP is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Schedule logs the notification.
func (n *LogNotifier) Schedule(email, title, body string) {
	n.logger.Info("notification", "to", email, "title", title, "body", body)
}

func buildEmail(from, to, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s\r\n", from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", to))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return []byte(sb.String())
}
