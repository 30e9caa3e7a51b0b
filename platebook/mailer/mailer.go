package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"platebook/platebook/config"
)

type Mailer interface {
	Send(to, subject, body string) error
}

type SmtpMailer struct {
	opts config.SMTP
}

func NewSmtpMailer(opts config.SMTP) Mailer {
	return &SmtpMailer{opts: opts}
}

func (m *SmtpMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %v\r\nTo: %v\r\nSubject: %v\r\n\r\n%v\r\n", m.opts.From, to, subject, body)

	addr := m.opts.Host + ":" + m.opts.Port
	auth := smtp.PlainAuth("", m.opts.Username, m.opts.Password, m.opts.Host)

	err := smtp.SendMail(addr, auth, m.opts.From, []string{to}, []byte(msg))
	if err != nil {
		return fmt.Errorf("error sending email to %v: %w", to, err)
	}

	return nil
}

// LogMailer is used when no smtp host is configured, it only records that a
// message would have been sent.
type LogMailer struct{}

func (m *LogMailer) Send(to, subject, body string) error {
	slog.Info("smtp not configured, skipping email", "to", to, "subject", subject)
	return nil
}

func PasswordRecoveryMessage(username, newPassword string) (string, string) {
	subject := "Your password has been reset"
	body := fmt.Sprintf(
		"Hello %v,\n\nYour password has been reset. Your new password is:\n\n%v\n\nPlease change it after logging in.\n",
		username, newPassword,
	)
	return subject, body
}
