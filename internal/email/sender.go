// Package email delivers transactional mail over SMTP.
package email

import (
	"fmt"
	"net/smtp"
)

// Sender delivers a single plain-text message.
type Sender interface {
	Send(to, subject, body string) error
}

// Config holds SMTP connection and sender-identity details.
type Config struct {
	Server   string
	Port     string
	Username string
	Password string
	FromAddr string
	FromName string
}

// SMTPSender is an SMTP implementation of Sender.
type SMTPSender struct {
	cfg Config
}

// NewSMTPSender creates a sender from the given config.
func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	if cfg.Server == "" || cfg.Port == "" || cfg.Username == "" || cfg.Password == "" || cfg.FromAddr == "" {
		return nil, fmt.Errorf("incomplete SMTP configuration")
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send delivers one message.
func (s *SMTPSender) Send(to, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n"+
		"%s",
		s.cfg.FromName, s.cfg.FromAddr, to, subject, body))

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)

	if err := smtp.SendMail(s.cfg.Server+":"+s.cfg.Port, auth, s.cfg.FromAddr, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
