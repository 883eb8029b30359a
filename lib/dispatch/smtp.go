package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/jordan-wright/email"
)

// Message is one rendered outreach mail.
type Message struct {
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

// Sender transmits one message. The SMTP implementation is the real
// one; tests substitute a fake so the dispatch loop runs offline.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SmtpConfig struct {
	Server   string `json:"server"`
	Port     int    `json:"port"`
	FromName string `json:"from_name"`
	// credentials come from the environment or an interactive
	// prompt, never from a config file
	EmailAddress string `json:"-"`
	Password     string `json:"-"`
}

type SmtpSender struct {
	config SmtpConfig
}

func NewSmtpSender(config SmtpConfig) SmtpSender {
	return SmtpSender{config: config}
}

func (s SmtpSender) Send(ctx context.Context, msg Message) error {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.EmailAddress)
	if s.config.FromName == "" {
		mail.From = s.config.EmailAddress
	}
	mail.To = []string{msg.To}
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.Body)

	if msg.AttachmentPath != "" {
		_, err := mail.AttachFile(msg.AttachmentPath)
		if err != nil {
			return fmt.Errorf("attach %s: %w", msg.AttachmentPath, err)
		}
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	err := mail.Send(addr, smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	return err
}

// transient errors are worth retrying in place; a rejected message
// (SMTP protocol error) never is
func isTransient(err error) bool {
	var protoErr *textproto.Error
	return !errors.As(err, &protoErr)
}
