package service

import (
	"fmt"
	"net/smtp"

	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
)

// SMTPNotifier 通过 SMTP 投递通知邮件，是 Notifier 的默认实现
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Send(recipient *model.User, title, body string) error {
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.Host)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n%s\r\n",
		n.cfg.Sender, recipient.Email, title, body))

	return smtp.SendMail(addr, auth, n.cfg.Sender, []string{recipient.Email}, msg)
}
