package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

type SMTPEmailSender struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewSMTPEmailSender(host, port, user, pass, from string) *SMTPEmailSender {
	return &SMTPEmailSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *SMTPEmailSender) SendEmail(ctx context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	var auth smtp.Auth
	if s.user != "" {
		auth = smtp.PlainAuth("", s.user, s.pass, s.host)
	}

	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	return e.Send(addr, auth)
}

// EmailNotifier mails the operator; used alongside or instead of Telegram
type EmailNotifier struct {
	sender EmailSender
	to     string
}

func NewEmailNotifier(sender EmailSender, to string) *EmailNotifier {
	return &EmailNotifier{sender: sender, to: to}
}

func (e *EmailNotifier) Name() string {
	return "email"
}

func (e *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if e.to == "" {
		return ErrNotConfigured
	}
	subject := msg.Subject
	if subject == "" {
		subject = "Panel notification"
	}
	return e.sender.SendEmail(ctx, e.to, subject, msg.Text)
}
