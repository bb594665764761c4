package mail

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Mailer sends plain-text notification email over SMTP
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *zap.Logger
}

// New creates a mailer. From falls back to the SMTP username when empty.
func New(host string, port int, username, password, from string, logger *zap.Logger) *Mailer {
	if from == "" {
		from = username
	}
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

// Send delivers a plain-text message to the given recipients
func (m *Mailer) Send(to []string, subject, body string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, m.from, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Info("mail_sent",
		zap.Int("recipients", len(to)),
		zap.String("subject", subject),
	)

	return nil
}

// SendDeadlineReminder formats and sends a compliance deadline reminder
func (m *Mailer) SendDeadlineReminder(to []string, clientName, complianceName string, dueDate time.Time) error {
	subject := fmt.Sprintf("Compliance reminder: %s due %s", complianceName, dueDate.Format("02 Jan 2006"))
	body := fmt.Sprintf(
		"This is a reminder that %s for client %s is due on %s.\n\nPlease ensure the filing is completed on time to avoid penalties.\n",
		complianceName, clientName, dueDate.Format("02 Jan 2006"))
	return m.Send(to, subject, body)
}
