// Package smtp отправляет письма через SMTP-сервер.
package smtp

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/fairwaylab/swingcoach/internal/config"
)

// Dialer отправляет готовые сообщения. Реализуется *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer формирует и отправляет текстовые письма.
type Mailer struct {
	dialer Dialer
	from   string
}

// NewMailer создаёт Mailer поверх gomail по настройкам из конфига.
func NewMailer(cfg config.SMTP) *Mailer {
	return NewMailerWithDialer(
		gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		cfg.From,
	)
}

// NewMailerWithDialer создаёт Mailer с произвольным Dialer.
func NewMailerWithDialer(d Dialer, from string) *Mailer {
	return &Mailer{dialer: d, from: from}
}

// Send отправляет письмо всем адресатам одним сообщением.
func (m *Mailer) Send(to []string, subject, body string) error {
	const op = "smtp.Send"
	if len(to) == 0 {
		return fmt.Errorf("%s: no recipients", op)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
