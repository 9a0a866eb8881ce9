package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"activation_fulfiller/internal/model"
)

// Transport delivers one composed message to one recipient.
type Transport interface {
	Send(ctx context.Context, sender model.MailSender, recipient string, p Payload) error
}

// SMTPTransport sends through the sender's SMTP server: implicit TLS when SSL is set,
// STARTTLS otherwise, then LOGIN/PLAIN auth with the sender's address and secret.
type SMTPTransport struct {
	timeout time.Duration
	send    func(d *gomail.Dialer, m *gomail.Message) error
}

func NewSMTPTransport(timeout time.Duration) *SMTPTransport {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &SMTPTransport{
		timeout: timeout,
		send: func(d *gomail.Dialer, m *gomail.Message) error {
			return d.DialAndSend(m)
		},
	}
}

func (t *SMTPTransport) Send(ctx context.Context, sender model.MailSender, recipient string, p Payload) error {
	if err := validateSender(sender); err != nil {
		return err
	}
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return errors.New("recipient is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	host, port, useSSL, err := smtpServerFor(sender)
	if err != nil {
		return err
	}
	msg := buildMessage(sender, recipient, p)

	d := gomail.NewDialer(host, port, strings.TrimSpace(sender.Address), strings.TrimSpace(sender.Secret))
	d.SSL = useSSL

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// gomail only bounds the TCP dial, so the whole exchange is raced against the deadline.
	done := make(chan error, 1)
	go func() {
		done <- t.send(d, msg)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp %s:%d: %w", host, port, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp %s:%d: %w", host, port, ctx.Err())
	}
}

func buildMessage(sender model.MailSender, recipient string, p Payload) *gomail.Message {
	msg := gomail.NewMessage()
	address := strings.TrimSpace(sender.Address)
	if name := strings.TrimSpace(sender.Name); name != "" {
		msg.SetHeader("From", msg.FormatAddress(address, name))
	} else {
		msg.SetHeader("From", address)
	}
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", p.Subject)
	if p.Text != "" {
		msg.SetBody("text/plain", p.Text)
		msg.AddAlternative("text/html", p.HTML)
	} else {
		msg.SetBody("text/html", p.HTML)
	}
	return msg
}

func validateSender(s model.MailSender) error {
	address := strings.TrimSpace(s.Address)
	if address == "" {
		return errors.New("sender address is required")
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return errors.New("invalid sender address")
	}
	if strings.TrimSpace(s.Secret) == "" {
		return errors.New("sender secret is required")
	}
	return nil
}

// smtpServerFor prefers the configured server and otherwise derives one from the sender's domain.
func smtpServerFor(s model.MailSender) (host string, port int, useSSL bool, err error) {
	if h := strings.TrimSpace(s.Host); h != "" {
		port = s.Port
		if port <= 0 {
			port = 587
			if s.SSL {
				port = 465
			}
		}
		return h, port, s.SSL, nil
	}

	parts := strings.Split(strings.TrimSpace(s.Address), "@")
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", 0, false, errors.New("invalid email format")
	}
	domain := strings.ToLower(strings.TrimSpace(parts[1]))
	is := func(names ...string) bool {
		for _, n := range names {
			if domain == n || strings.HasSuffix(domain, "."+n) {
				return true
			}
		}
		return false
	}

	switch {
	case is("outlook.com", "hotmail.com", "live.com"):
		return "smtp.office365.com", 587, false, nil
	case is("yahoo.com"):
		return "smtp.mail.yahoo.com", 465, true, nil
	case is("icloud.com", "me.com"):
		return "smtp.mail.me.com", 587, false, nil
	case is("qq.com", "foxmail.com"):
		return "smtp.qq.com", 465, true, nil
	case is("163.com", "126.com", "yeah.net"):
		return "smtp.163.com", 465, true, nil
	default:
		// Gmail and Google Workspace senders, and anything unrecognised.
		return "smtp.gmail.com", 587, false, nil
	}
}
